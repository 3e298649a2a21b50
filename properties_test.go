package asvgf

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"
)

func customParams() Params {
	return Params{
		Enabled:              false,
		ModulateAlbedo:       false,
		NumIterations:        3,
		HistoryTap:           -1,
		FilterKernel:         KernelBox5Sparse,
		TemporalAlpha:        0.25,
		DiffAtrousIterations: 2,
		GradientFilterRadius: 4,
		NormalizeGradient:    false,
		ShowAntilagAlpha:     true,
	}
}

func TestPropertiesRoundTrip(t *testing.T) {
	want := customParams()
	got, err := DefaultParams().Apply(want.Properties())
	if err != nil {
		t.Fatalf("Apply() = %v", err)
	}
	if got != want {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
	if n := len(want.Properties()); n != 10 {
		t.Errorf("Properties() has %d keys, want 10", n)
	}
}

func TestPassPropertiesRoundTrip(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	defer p.Close()

	props := customParams().Properties()
	if err := p.SetProperties(props); err != nil {
		t.Fatalf("SetProperties() = %v", err)
	}
	if got := p.Properties(); !reflect.DeepEqual(got, props) {
		t.Errorf("Properties() = %v, want %v", got, props)
	}
}

func TestPropertiesJSON(t *testing.T) {
	want := customParams()
	data, err := json.Marshal(want.Properties())
	if err != nil {
		t.Fatalf("json.Marshal() = %v", err)
	}
	props, err := ParseProperties(data)
	if err != nil {
		t.Fatalf("ParseProperties() = %v", err)
	}
	got, err := DefaultParams().Apply(props)
	if err != nil {
		t.Fatalf("Apply() = %v", err)
	}
	if got != want {
		t.Errorf("JSON round trip = %+v, want %+v", got, want)
	}

	if _, err := ParseProperties([]byte("{")); err == nil {
		t.Error("ParseProperties(malformed) = nil error")
	}
}

func TestApplyUnknownKey(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))

	got, err := DefaultParams().Apply(Properties{"Bogus": 1, KeyNumIterations: 2})
	if err != nil {
		t.Fatalf("Apply() = %v", err)
	}
	if got.NumIterations != 2 {
		t.Errorf("NumIterations = %d, want 2", got.NumIterations)
	}
	if !strings.Contains(buf.String(), "unknown property") || !strings.Contains(buf.String(), "Bogus") {
		t.Errorf("expected a warning naming the key, got: %s", buf.String())
	}
}

func TestApplyMalformed(t *testing.T) {
	tests := []struct {
		key   string
		value any
	}{
		{KeyEnable, "yes"},
		{KeyNumIterations, "five"},
		{KeyTemporalAlpha, []int{1}},
		{KeyFilterKernel, nil},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			base := DefaultParams()
			got, err := base.Apply(Properties{tt.key: tt.value, KeyHistoryTap: 3})
			if !errors.Is(err, ErrInvalidProperty) {
				t.Fatalf("Apply() = %v, want ErrInvalidProperty", err)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error %q does not name %s", err, tt.key)
			}
			if got != base {
				t.Errorf("params changed on error: %+v", got)
			}
		})
	}
}

func TestApplyClamps(t *testing.T) {
	got, err := DefaultParams().Apply(Properties{
		KeyNumIterations:        99,
		KeyHistoryTap:           -7,
		KeyTemporalAlpha:        2.5,
		KeyFilterKernel:         12,
		KeyDiffAtrousIterations: -1,
		KeyGradientFilterRadius: 1e12,
	})
	if err != nil {
		t.Fatalf("Apply() = %v", err)
	}
	if got.NumIterations != 16 || got.HistoryTap != -1 || got.TemporalAlpha != 1 ||
		got.FilterKernel != KernelAtrous || got.DiffAtrousIterations != 0 || got.GradientFilterRadius != 16 {
		t.Errorf("Apply() did not clamp: %+v", got)
	}
}

func TestApplyNumericKinds(t *testing.T) {
	got, err := DefaultParams().Apply(Properties{
		KeyEnable:            0,
		KeyNumIterations:     float64(3),
		KeyTemporalAlpha:     float32(0.5),
		KeyHistoryTap:        int64(2),
		KeyNormalizeGradient: 0.0,
		KeyFilterKernel:      json.Number("3"),
	})
	if err != nil {
		t.Fatalf("Apply() = %v", err)
	}
	if got.Enabled || got.NumIterations != 3 || got.TemporalAlpha != 0.5 ||
		got.HistoryTap != 2 || got.NormalizeGradient || got.FilterKernel != KernelSparse {
		t.Errorf("Apply() = %+v", got)
	}
}

func TestPropertiesKeysSorted(t *testing.T) {
	keys := DefaultParams().Properties().Keys()
	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			t.Fatalf("Keys() not sorted: %v", keys)
		}
	}
}
