package asvgf

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Property keys.
const (
	KeyEnable               = "Enable"
	KeyModulateAlbedo       = "ModulateAlbedo"
	KeyNumIterations        = "NumIterations"
	KeyHistoryTap           = "HistoryTap"
	KeyFilterKernel         = "FilterKernel"
	KeyTemporalAlpha        = "TemporalAlpha"
	KeyDiffAtrousIterations = "DiffAtrousIterations"
	KeyGradientFilterRadius = "GradientFilterRadius"
	KeyNormalizeGradient    = "NormalizeGradient"
	KeyShowAntilagAlpha     = "ShowAntilagAlpha"
)

// Properties is the configuration dictionary exchanged with a host.
// Values are bool, integer or floating point numbers.
type Properties map[string]any

// ParseProperties decodes a JSON object into Properties.
func ParseProperties(data []byte) (Properties, error) {
	var p Properties
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("asvgf: parse properties: %w", err)
	}
	return p, nil
}

// Keys returns the keys of p in sorted order.
func (p Properties) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Properties returns the dictionary form of p.
func (p Params) Properties() Properties {
	return Properties{
		KeyEnable:               p.Enabled,
		KeyModulateAlbedo:       p.ModulateAlbedo,
		KeyNumIterations:        p.NumIterations,
		KeyHistoryTap:           p.HistoryTap,
		KeyFilterKernel:         int(p.FilterKernel),
		KeyTemporalAlpha:        p.TemporalAlpha,
		KeyDiffAtrousIterations: p.DiffAtrousIterations,
		KeyGradientFilterRadius: p.GradientFilterRadius,
		KeyNormalizeGradient:    p.NormalizeGradient,
		KeyShowAntilagAlpha:     p.ShowAntilagAlpha,
	}
}

// Apply returns p updated from props and clamped into range.
//
// Unknown keys are logged and ignored. A value of the wrong type fails the
// whole call with an error naming the key; p is returned unchanged.
func (p Params) Apply(props Properties) (Params, error) {
	q := p
	for _, key := range props.Keys() {
		v := props[key]
		var err error
		switch key {
		case KeyEnable:
			q.Enabled, err = asBool(key, v)
		case KeyModulateAlbedo:
			q.ModulateAlbedo, err = asBool(key, v)
		case KeyNumIterations:
			q.NumIterations, err = asInt(key, v)
		case KeyHistoryTap:
			q.HistoryTap, err = asInt(key, v)
		case KeyFilterKernel:
			var k int
			k, err = asInt(key, v)
			q.FilterKernel = FilterKernel(k)
		case KeyTemporalAlpha:
			var f float64
			f, err = asFloat(key, v)
			q.TemporalAlpha = float32(f)
		case KeyDiffAtrousIterations:
			q.DiffAtrousIterations, err = asInt(key, v)
		case KeyGradientFilterRadius:
			q.GradientFilterRadius, err = asInt(key, v)
		case KeyNormalizeGradient:
			q.NormalizeGradient, err = asBool(key, v)
		case KeyShowAntilagAlpha:
			q.ShowAntilagAlpha, err = asBool(key, v)
		default:
			Logger().Warn("asvgf: unknown property ignored", "key", key)
			continue
		}
		if err != nil {
			return p, err
		}
	}
	return q.Sanitize(), nil
}

func asBool(key string, v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case int:
		return b != 0, nil
	case float64:
		return b != 0, nil
	}
	return false, fmt.Errorf("%w: %s: want bool, got %T", ErrInvalidProperty, key, v)
}

func asFloat(key string, v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint32:
		f = float64(n)
	case json.Number:
		var err error
		if f, err = n.Float64(); err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrInvalidProperty, key, err)
		}
	default:
		return 0, fmt.Errorf("%w: %s: want number, got %T", ErrInvalidProperty, key, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidProperty, key, f)
	}
	return f, nil
}

func asInt(key string, v any) (int, error) {
	f, err := asFloat(key, v)
	if err != nil {
		return 0, err
	}
	// Out-of-range values are clamped later; keep them finite here.
	f = math.Max(math.Min(math.Round(f), math.MaxInt32), math.MinInt32)
	return int(f), nil
}
