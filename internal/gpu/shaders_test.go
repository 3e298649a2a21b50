//go:build !nogpu

package gpu

import (
	"strconv"
	"strings"
	"testing"

	"github.com/gogpu/naga"

	"github.com/gogpu/asvgf/gpucore"
)

func TestStageSource(t *testing.T) {
	for _, stage := range gpucore.Stages() {
		src := StageSource(stage)
		if src == "" {
			t.Fatalf("%v: empty source", stage)
		}
		if !strings.Contains(src, "struct Uniforms") {
			t.Errorf("%v: missing shared declarations", stage)
		}
		if !strings.Contains(src, "fn main(") {
			t.Errorf("%v: missing entry point", stage)
		}
		if !strings.Contains(src, "@workgroup_size(8, 8, 1)") {
			t.Errorf("%v: workgroup size does not match WorkgroupSize", stage)
		}
	}
	if StageSource(gpucore.Stage(200)) != "" {
		t.Error("unknown stage returned a source")
	}
}

// TestStageInputCounts checks that each kernel's N_IN matches the stage
// arity, since the descriptor table places outputs right after inputs.
func TestStageInputCounts(t *testing.T) {
	for _, stage := range gpucore.Stages() {
		want := "const N_IN: u32 = " + strconv.Itoa(stage.Inputs()) + "u;"
		if !strings.Contains(stageShaderSources[stage], want) {
			t.Errorf("%v: want %q in kernel", stage, want)
		}
	}
}

// TestStageShaderCompilation tests that every kernel compiles to SPIR-V.
func TestStageShaderCompilation(t *testing.T) {
	for _, stage := range gpucore.Stages() {
		t.Run(stage.String(), func(t *testing.T) {
			spirvBytes, err := naga.Compile(StageSource(stage))
			if err != nil {
				errStr := err.Error()
				if contains(errStr, "not yet implemented") || contains(errStr, "not supported") {
					t.Skipf("Skipping: naga feature not yet implemented: %v", err)
				}
				if contains(errStr, "lowering error") || contains(errStr, "atomic") {
					t.Skipf("Skipping: naga lowering limitation: %v", err)
				}
				t.Fatalf("failed to compile %v shader: %v", stage, err)
			}

			if len(spirvBytes) < 4 {
				t.Fatal("SPIR-V too short")
			}
			magic := uint32(spirvBytes[0]) |
				uint32(spirvBytes[1])<<8 |
				uint32(spirvBytes[2])<<16 |
				uint32(spirvBytes[3])<<24
			if magic != 0x07230203 {
				t.Errorf("invalid SPIR-V magic: 0x%08X, want 0x07230203", magic)
			}

			words, err := CompileStage(stage)
			if err != nil {
				t.Fatalf("CompileStage: %v", err)
			}
			if len(words)*4 != len(spirvBytes) || words[0] != 0x07230203 {
				t.Errorf("CompileStage returned %d words, first 0x%08X", len(words), words[0])
			}
			t.Logf("%v shader compiled to %d bytes of SPIR-V", stage, len(spirvBytes))
		})
	}
}

func TestCompileUnknownStage(t *testing.T) {
	if _, err := CompileStage(gpucore.Stage(99)); err == nil {
		t.Error("expected error for unknown stage")
	}
}

func TestWorkgroups(t *testing.T) {
	tests := []struct {
		w, h   int
		gx, gy uint32
	}{
		{1, 1, 1, 1},
		{8, 8, 1, 1},
		{9, 16, 2, 2},
		{1920, 1080, 240, 135},
		{640, 360, 80, 45},
	}
	for _, tt := range tests {
		gx, gy := workgroups(tt.w, tt.h)
		if gx != tt.gx || gy != tt.gy {
			t.Errorf("workgroups(%d, %d) = %d, %d; want %d, %d", tt.w, tt.h, gx, gy, tt.gx, tt.gy)
		}
	}
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}
