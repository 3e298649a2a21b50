package asvgf

import (
	"time"

	"github.com/gogpu/asvgf/gpucore"
)

// StageStats is the cost of one stage in the last frame.
type StageStats struct {
	Stage      gpucore.Stage
	Dispatches int
	Duration   time.Duration
}

// Stats describes the last executed frame.
type Stats struct {
	Frame      uint64
	Backend    string
	Width      int
	Height     int
	GradWidth  int
	GradHeight int

	// Stages holds one entry per stage in execution order. Stages that
	// did not run have zero dispatches.
	Stages []StageStats

	// Total is the wall time of the whole Execute call.
	Total time.Duration

	// Bytes is the memory footprint of the intermediate targets.
	Bytes int

	// Allocations counts target (re)allocations since the pass was created.
	Allocations int
}

func (s *Stats) reset() {
	if len(s.Stages) != len(gpucore.Stages()) {
		s.Stages = make([]StageStats, len(gpucore.Stages()))
	}
	for i, st := range gpucore.Stages() {
		s.Stages[i] = StageStats{Stage: st}
	}
	s.Total = 0
}

func (s *Stats) record(stage gpucore.Stage, d time.Duration) {
	s.Stages[stage].Dispatches++
	s.Stages[stage].Duration += d
}

func (s Stats) clone() Stats {
	s.Stages = append([]StageStats(nil), s.Stages...)
	return s
}
