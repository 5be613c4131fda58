package crs

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/JonMunkholm/reproject/internal/core"
	"github.com/pebbe/proj/v5"
)

// Engine transforms points between registered CRS definitions using PROJ.
// One PROJ pipeline is built per (source, target) pair and reused.
type Engine struct {
	registry *Registry

	mu    sync.Mutex
	ctx   *proj.Context
	cache map[pair]*proj.PJ
}

type pair struct {
	src, dst *Definition
}

// NewEngine returns an engine reading definitions from r. Call Close to
// release the PROJ context.
func NewEngine(r *Registry) *Engine {
	return &Engine{
		registry: r,
		ctx:      proj.NewContext(),
		cache:    make(map[pair]*proj.PJ),
	}
}

// Close releases every cached pipeline.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ctx.Close()
	clear(e.cache)
}

var _ core.TransformFunc = (*Engine)(nil).Transform

// Transform converts xy from one CRS to another. Geographic coordinates are
// (longitude, latitude) in degrees. An unknown code or a definition PROJ
// rejects is an error; a point outside the projection's domain comes back
// as NaN.
func (e *Engine) Transform(from, to string, xy [2]float64) ([2]float64, error) {
	nan := [2]float64{math.NaN(), math.NaN()}

	src, ok := e.registry.Lookup(from)
	if !ok {
		return [2]float64{}, &core.CRSResolutionError{Code: from}
	}
	dst, ok := e.registry.Lookup(to)
	if !ok {
		return [2]float64{}, &core.CRSResolutionError{Code: to}
	}
	if src.IsLatLong() && math.Abs(xy[1]) > 90 {
		return nan, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	key := pair{src, dst}
	pj, ok := e.cache[key]
	if !ok {
		var err error
		if pj, err = e.ctx.Create(Pipeline(src, dst)); err != nil {
			return [2]float64{}, &core.CRSResolutionError{Code: e.blame(src, dst), Err: err}
		}
		e.cache[key] = pj
	}

	x, y, _, _, err := pj.Trans(proj.Fwd, xy[0], xy[1], 0, 0)
	if err != nil {
		// PROJ keeps the error state on the object; rebuild it for the next point.
		pj.Close()
		delete(e.cache, key)
		return nan, nil
	}
	return [2]float64{x, y}, nil
}

// blame names the definition PROJ cannot build on its own, or the target
// when both build.
func (e *Engine) blame(src, dst *Definition) string {
	pj, err := e.ctx.Create(src.step)
	if err != nil {
		return src.Code
	}
	pj.Close()
	return dst.Code
}

// Pipeline returns the PROJ pipeline that takes coordinates in src to dst.
// Geographic ends are in degrees. A datum shift goes through geocentric
// WGS84 with position vector Helmert steps, as +towgs84 is defined.
func Pipeline(src, dst *Definition) string {
	var b strings.Builder
	b.WriteString("+proj=pipeline")
	step := func(s ...string) {
		b.WriteString(" +step ")
		b.WriteString(strings.Join(s, " "))
	}

	if src.IsLatLong() {
		step("+proj=unitconvert +xy_in=deg +xy_out=rad")
	}
	step("+inv", src.step)

	if !sameDatum(src, dst) {
		if src.ToWGS84 != nil {
			step("+proj=cart", src.Ellps)
			step(helmert(src.ToWGS84))
			step("+inv +proj=cart +ellps=WGS84")
		}
		if dst.ToWGS84 != nil {
			step("+proj=cart +ellps=WGS84")
			step("+inv", helmert(dst.ToWGS84))
			step("+inv +proj=cart", dst.Ellps)
		}
	}

	step(dst.step)
	if dst.IsLatLong() {
		step("+proj=unitconvert +xy_in=rad +xy_out=deg")
	}
	return b.String()
}

func sameDatum(a, b *Definition) bool {
	if a.ToWGS84 == nil && b.ToWGS84 == nil {
		return true
	}
	return a.Ellps == b.Ellps && slices.Equal(a.ToWGS84, b.ToWGS84)
}

func helmert(p []float64) string {
	names := []string{"x", "y", "z", "rx", "ry", "rz", "s"}
	parts := []string{"+proj=helmert"}
	for i, v := range p {
		parts = append(parts, "+"+names[i]+"="+strconv.FormatFloat(v, 'g', -1, 64))
	}
	if len(p) == 7 {
		parts = append(parts, "+convention=position_vector")
	}
	return strings.Join(parts, " ")
}
