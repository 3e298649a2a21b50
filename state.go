package asvgf

// State is the lifecycle state of a Pass.
type State uint8

const (
	// StateUncompiled means no buffers exist yet.
	StateUncompiled State = iota

	// StateAllocated means buffers exist but no scene is bound.
	StateAllocated

	// StateReady means the pass can execute frames.
	StateReady
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUncompiled:
		return "Uncompiled"
	case StateAllocated:
		return "Allocated"
	case StateReady:
		return "Ready"
	default:
		return "Unknown"
	}
}
