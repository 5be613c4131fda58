package crs

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2039", "EPSG:2039"},
		{"epsg:2039", "EPSG:2039"},
		{" EPSG:4326 ", "EPSG:4326"},
		{"EPSG: 3857", "EPSG:3857"},
		{"wgs84", "WGS84"},
		{"+proj=longlat +datum=WGS84", "+proj=longlat +datum=WGS84"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEPSGNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"EPSG:2039", 2039, true},
		{"4326", 4326, true},
		{"WGS84", 0, false},
		{"EPSG:abc", 0, false},
		{"EPSG:0", 0, false},
		{"+proj=merc", 0, false},
	}
	for _, tt := range tests {
		got, ok := EPSGNumber(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("EPSGNumber(%q) = %d, %v, want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFlip(t *testing.T) {
	in, out := Flip("EPSG:2039", "EPSG:4326")
	if in != "EPSG:4326" || out != "EPSG:2039" {
		t.Errorf("Flip() = %s, %s", in, out)
	}
}
