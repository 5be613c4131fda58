package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// gate is a transform that parks every call until open is closed.
type gate struct {
	once    sync.Once
	started chan struct{}
	open    chan struct{}
}

func newGate() *gate {
	return &gate{started: make(chan struct{}), open: make(chan struct{})}
}

func (g *gate) transform(from, to string, xy [2]float64) ([2]float64, error) {
	g.once.Do(func() { close(g.started) })
	<-g.open
	return xy, nil
}

// startBlocked runs one conversion that holds its slot until g is opened.
func startBlocked(t *testing.T, svc *Service, g *gate) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		_, err := svc.Convert(context.Background(), testParams())
		done <- err
	}()
	select {
	case <-g.started:
	case <-time.After(2 * time.Second):
		t.Fatal("conversion never reached the transform")
	}
	return done
}

func TestService_ConvertRejectedUnderLoad(t *testing.T) {
	g := newGate()
	hist := &memHistory{}
	svc := NewService(g.transform, nil, hist, ServiceConfig{MaxConcurrent: 1, MaxWait: 20 * time.Millisecond})

	done := startBlocked(t, svc, g)

	_, err := svc.Convert(context.Background(), testParams())
	if !errors.Is(err, ErrTooManyConversions) {
		t.Fatalf("error = %v, want ErrTooManyConversions", err)
	}
	if got := MapError(err).Code; got != "CONV001" {
		t.Errorf("code = %s, want CONV001", got)
	}

	close(g.open)
	if err := <-done; err != nil {
		t.Fatalf("blocked conversion error = %v", err)
	}

	hist.mu.Lock()
	defer hist.mu.Unlock()
	if len(hist.records) != 2 {
		t.Fatalf("recorded %d conversions, want 2", len(hist.records))
	}
	var busy, ok int
	for _, rec := range hist.records {
		switch {
		case rec.Status == StatusFailed && rec.ErrorCode == "CONV001":
			busy++
		case rec.Status == StatusSucceeded:
			ok++
		}
	}
	if busy != 1 || ok != 1 {
		t.Errorf("history has %d busy and %d succeeded records, want 1 and 1", busy, ok)
	}
}

func TestService_ConvertCancelledWhileQueued(t *testing.T) {
	g := newGate()
	svc := NewService(g.transform, nil, nil, ServiceConfig{MaxConcurrent: 1, MaxWait: time.Minute})
	done := startBlocked(t, svc, g)
	defer func() {
		close(g.open)
		<-done
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.Convert(ctx, testParams())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want context.DeadlineExceeded", err)
	}
	if got := MapError(err).Code; got != "CONV003" {
		t.Errorf("code = %s, want CONV003", got)
	}
}

func TestService_WaitForConversionsDuringShutdown(t *testing.T) {
	g := newGate()
	svc := NewService(g.transform, nil, nil, ServiceConfig{MaxConcurrent: 2})
	done := startBlocked(t, svc, g)

	if st := svc.LimiterStatus(); st.Active != 1 || st.Available != 1 {
		t.Errorf("LimiterStatus() = %+v, want 1 active and 1 available", st)
	}

	short, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := svc.WaitForConversions(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForConversions() with a conversion running = %v, want deadline exceeded", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(g.open)
	}()

	ctx, cancel2 := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel2()
	if err := svc.WaitForConversions(ctx); err != nil {
		t.Fatalf("WaitForConversions() = %v, want nil once the conversion finished", err)
	}
	if err := <-done; err != nil {
		t.Errorf("conversion error = %v", err)
	}
	if st := svc.LimiterStatus(); st.Active != 0 {
		t.Errorf("Active = %d after drain, want 0", st.Active)
	}
}

func TestService_MaxRowsRejectedWithoutWaiting(t *testing.T) {
	g := newGate()
	svc := NewService(g.transform, nil, nil, ServiceConfig{MaxConcurrent: 1, MaxWait: time.Minute, MaxRows: 2})

	small := testParams()
	small.Table = NewTable([]string{"x", "y"}, [][]string{{"1", "2"}})
	done := make(chan error, 1)
	go func() {
		_, err := svc.Convert(context.Background(), small)
		done <- err
	}()
	<-g.started
	defer func() {
		close(g.open)
		<-done
	}()

	start := time.Now()
	_, err := svc.Convert(context.Background(), testParams())
	if got := MapError(err).Code; got != "FILE001" {
		t.Fatalf("code = %s, want FILE001 (err %v)", got, err)
	}
	if waited := time.Since(start); waited > time.Second {
		t.Errorf("oversized table waited %v for a slot", waited)
	}
}

func TestService_SlotsReleasedAfterErrors(t *testing.T) {
	svc := NewService(shift(0, 0), nil, nil, ServiceConfig{MaxConcurrent: 2, MaxWait: 20 * time.Millisecond})

	bad := testParams()
	bad.Table = NewTable([]string{"x", "y"}, [][]string{{"bad", "2"}})
	domain := testParams()
	domain.OutputCRS = "EPSG:0"

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			svc.Convert(context.Background(), bad)
		}()
		go func() {
			defer wg.Done()
			svc.Convert(context.Background(), domain)
		}()
	}
	wg.Wait()

	if st := svc.LimiterStatus(); st.Active != 0 || st.Available != 2 {
		t.Errorf("LimiterStatus() = %+v, want every slot free", st)
	}
	if _, err := svc.Convert(context.Background(), testParams()); err != nil {
		t.Errorf("Convert() after failures = %v", err)
	}
}

func TestService_LimiterDefaults(t *testing.T) {
	svc := NewService(shift(0, 0), nil, nil, ServiceConfig{})
	if got := svc.LimiterStatus().MaxConcurrent; got != DefaultMaxConcurrentConversions {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrentConversions)
	}
}
