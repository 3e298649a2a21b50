package asvgf

// ControlKind is the widget type of a Control.
type ControlKind uint8

const (
	// ControlCheckbox is a boolean toggle.
	ControlCheckbox ControlKind = iota
	// ControlInt is an integer slider.
	ControlInt
	// ControlFloat is a float input.
	ControlFloat
	// ControlDropdown selects one of Options.
	ControlDropdown
)

// String returns the widget type name.
func (k ControlKind) String() string {
	switch k {
	case ControlCheckbox:
		return "checkbox"
	case ControlInt:
		return "int"
	case ControlFloat:
		return "float"
	case ControlDropdown:
		return "dropdown"
	default:
		return "unknown"
	}
}

// Control describes one UI control bound to a property key.
type Control struct {
	Label   string
	Key     string
	Kind    ControlKind
	Min     float64
	Max     float64
	Step    float64
	Options []string
}

// Controls returns the UI controls of the pass in display order.
func Controls() []Control {
	kernels := make([]string, kernelCount)
	for i := range kernels {
		kernels[i] = FilterKernel(i).String()
	}
	return []Control{
		{Label: "Enable", Key: KeyEnable, Kind: ControlCheckbox},
		{Label: "Modulate Albedo", Key: KeyModulateAlbedo, Kind: ControlCheckbox},
		{Label: "Temporal Alpha", Key: KeyTemporalAlpha, Kind: ControlFloat, Min: 0, Max: 1, Step: 0.01},
		{Label: "# Iterations", Key: KeyNumIterations, Kind: ControlInt, Min: 0, Max: MaxIterations, Step: 1},
		{Label: "History Tap", Key: KeyHistoryTap, Kind: ControlInt, Min: MinHistoryTap, Max: MaxIterations, Step: 1},
		{Label: "Kernel", Key: KeyFilterKernel, Kind: ControlDropdown, Min: 0, Max: float64(kernelCount - 1), Step: 1, Options: kernels},
		{Label: "Show Antilag Alpha", Key: KeyShowAntilagAlpha, Kind: ControlCheckbox},
		{Label: "# Diff Iterations", Key: KeyDiffAtrousIterations, Kind: ControlInt, Min: 0, Max: MaxIterations, Step: 1},
		{Label: "Gradient Filter Radius", Key: KeyGradientFilterRadius, Kind: ControlInt, Min: 0, Max: MaxIterations, Step: 1},
		{Label: "Normalize Gradient", Key: KeyNormalizeGradient, Kind: ControlCheckbox},
	}
}
