package filter

import (
	"errors"
	"testing"

	"github.com/gogpu/asvgf/gpucore"
)

func TestCPUImplementsEveryStage(t *testing.T) {
	for _, s := range gpucore.Stages() {
		if KernelOf(s) == nil {
			t.Errorf("no CPU kernel for %v", s)
		}
	}
}

func TestCPUDispatchArity(t *testing.T) {
	c := NewCPU(2)
	defer c.Close()
	u := testUniforms(2, 2, 1)
	err := c.Dispatch(gpucore.StageResolve, u, nil, []gpucore.Plane{gpucore.NewPlane(2, 2, 4)})
	if !errors.Is(err, gpucore.ErrStageArity) {
		t.Errorf("Dispatch with missing inputs = %v, want ErrStageArity", err)
	}
}

func TestCPUDispatchGridMismatch(t *testing.T) {
	c := NewCPU(1)
	defer c.Close()
	u := testUniforms(4, 4, 1)
	in := []gpucore.Plane{gpucore.NewPlane(4, 4, 4), gpucore.NewPlane(4, 4, 4), gpucore.NewPlane(4, 4, 4)}
	out := []gpucore.Plane{gpucore.NewPlane(3, 4, 4)}
	if err := c.Dispatch(gpucore.StageResolve, u, in, out); err == nil {
		t.Error("Dispatch accepted an output that does not match the grid")
	}
}

func TestCPUDispatchMatchesSerial(t *testing.T) {
	const w, h = 23, 17
	in := []gpucore.Plane{gpucore.NewPlane(w, h, 4), flatGeometry(w, h, 1)}
	for i := range in[0].Data {
		in[0].Data[i] = float32((i*31)%101) / 101
	}
	u := testUniforms(w, h, 1)
	u.Step = 2

	want := []gpucore.Plane{gpucore.NewPlane(w, h, 4)}
	runAll(Atrous, u, in, want, w, h)

	c := NewCPU(4)
	defer c.Close()
	got := []gpucore.Plane{gpucore.NewPlane(w, h, 4)}
	if err := c.Dispatch(gpucore.StageAtrous, u, in, got); err != nil {
		t.Fatal(err)
	}
	for i := range want[0].Data {
		if got[0].Data[i] != want[0].Data[i] {
			t.Fatalf("value %d = %v, serial = %v", i, got[0].Data[i], want[0].Data[i])
		}
	}
}

func TestGridSize(t *testing.T) {
	u := testUniforms(10, 7, 3)
	if w, h := GridSize(gpucore.StageGradientAtrous, u); w != 4 || h != 3 {
		t.Errorf("gradient grid = %dx%d, want 4x3", w, h)
	}
	if w, h := GridSize(gpucore.StageTemporal, u); w != 10 || h != 7 {
		t.Errorf("full grid = %dx%d, want 10x7", w, h)
	}
}

func BenchmarkCPUAtrous1080p(b *testing.B) {
	const w, h = 1920, 1080
	in := []gpucore.Plane{filled(w, h, 4, 0.5, 0.5, 0.5, 0.01), flatGeometry(w, h, 1)}
	out := []gpucore.Plane{gpucore.NewPlane(w, h, 4)}
	u := testUniforms(w, h, 3)
	c := NewCPU(0)
	defer c.Close()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Dispatch(gpucore.StageAtrous, u, in, out)
	}
}
