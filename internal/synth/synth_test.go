package synth

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

func newTestScene(t *testing.T, mutate func(*Config)) *Scene {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 48, 27
	cfg.Workers = 2
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestNewInvalid(t *testing.T) {
	for _, size := range [][2]int{{0, 10}, {10, 0}, {-1, 5}} {
		cfg := DefaultConfig()
		cfg.Width, cfg.Height = size[0], size[1]
		if _, err := New(cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("New(%dx%d) error = %v, want ErrInvalidConfig", size[0], size[1], err)
		}
	}
}

func TestRenderFrame(t *testing.T) {
	s := newTestScene(t, nil)
	f := s.Render(0)
	if err := f.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if s.Name() != "synth" {
		t.Errorf("Name() = %q", s.Name())
	}

	var background, surface int
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			i := y*f.Width + x
			if f.Depth[i] <= 0 {
				background++
				continue
			}
			surface++
			n := f.Normal[i]
			l := math.Sqrt(float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2]))
			if math.Abs(l-1) > 1e-3 {
				t.Fatalf("normal at (%d, %d) has length %v", x, y, l)
			}
			for c := 0; c < 3; c++ {
				if v := f.Color[i*4+c]; v < 0 || math.IsNaN(float64(v)) {
					t.Fatalf("color at (%d, %d) = %v", x, y, v)
				}
			}
		}
	}
	// The camera looks down at the ground with sky above the horizon.
	if background == 0 || surface == 0 {
		t.Errorf("background %d, surface %d pixels; want both", background, surface)
	}
	// Bottom row sees the ground.
	if f.Depth[(f.Height-1)*f.Width+f.Width/2] <= 0 {
		t.Error("bottom center pixel has no surface")
	}
}

func TestRenderDeterministic(t *testing.T) {
	s := newTestScene(t, nil)
	a, b := s.Render(3), s.Render(3)
	for i := range a.Color {
		if a.Color[i] != b.Color[i] {
			t.Fatalf("color %d differs between renders: %v vs %v", i, a.Color[i], b.Color[i])
		}
	}
	c := s.Render(4)
	same := true
	for i := range a.Color {
		if a.Color[i] != c.Color[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("consecutive frames are identical")
	}
}

func TestMotionVectors(t *testing.T) {
	t.Run("static", func(t *testing.T) {
		s := newTestScene(t, func(c *Config) { c.CameraSpeed, c.OrbitSpeed = 0, 0 })
		f := s.Render(5)
		for i, m := range f.Motion {
			if math.Abs(float64(m[0])) > 1e-3 || math.Abs(float64(m[1])) > 1e-3 {
				t.Fatalf("pixel %d motion = %v, want 0", i, m)
			}
		}
	})
	t.Run("panning camera", func(t *testing.T) {
		s := newTestScene(t, func(c *Config) { c.CameraSpeed, c.OrbitSpeed = 0.1, 0 })
		f := s.Render(5)
		i := (f.Height-1)*f.Width + f.Width/2
		m := f.Motion[i]
		if math.Abs(float64(m[0])) < 1e-2 {
			t.Errorf("ground motion x = %v, want non-zero", m[0])
		}
		if math.Abs(float64(m[1])) > 1e-3 {
			t.Errorf("ground motion y = %v, want 0 for sideways pan", m[1])
		}
	})
}

func TestGradientSamples(t *testing.T) {
	const d = 3
	t.Run("first frame invalid", func(t *testing.T) {
		s := newTestScene(t, func(c *Config) { c.GradientDownsample = d })
		f := s.Render(0)
		gw, gh := (f.Width+d-1)/d, (f.Height+d-1)/d
		if len(f.GradientSamples) != gw*gh {
			t.Fatalf("len = %d, want %d", len(f.GradientSamples), gw*gh)
		}
		for i, gs := range f.GradientSamples {
			if gs.Valid {
				t.Fatalf("sample %d valid on frame 0", i)
			}
			cx, cy := i%gw, i/gw
			if gs.X/d != cx || gs.Y/d != cy {
				t.Fatalf("sample %d at (%d, %d) outside its stratum", i, gs.X, gs.Y)
			}
		}
	})
	t.Run("static scene reshades identically", func(t *testing.T) {
		s := newTestScene(t, func(c *Config) {
			c.GradientDownsample = d
			c.CameraSpeed, c.OrbitSpeed, c.LightSpeed = 0, 0, 0
		})
		f := s.Render(2)
		valid := 0
		for _, gs := range f.GradientSamples {
			if !gs.Valid {
				continue
			}
			valid++
			cur := f.Luma(gs.X, gs.Y)
			if math.Abs(float64(cur-gs.PrevLuma)) > 1e-5*math.Max(1, float64(cur)) {
				t.Fatalf("sample at (%d, %d): prev luma %v, current %v", gs.X, gs.Y, gs.PrevLuma, cur)
			}
		}
		if valid == 0 {
			t.Fatal("no valid samples")
		}
	})
	t.Run("moving light changes shading", func(t *testing.T) {
		s := newTestScene(t, func(c *Config) {
			c.GradientDownsample = d
			c.CameraSpeed, c.OrbitSpeed, c.LightSpeed = 0, 0, 0.5
		})
		f := s.Render(2)
		changed := 0
		for _, gs := range f.GradientSamples {
			if gs.Valid && math.Abs(float64(f.Luma(gs.X, gs.Y)-gs.PrevLuma)) > 1e-3 {
				changed++
			}
		}
		if changed == 0 {
			t.Error("no sample changed under a moving light")
		}
	})
}

func TestReferenceConverges(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping reference render in short mode")
	}
	s := newTestScene(t, nil)
	truth := s.Reference(1, 256)
	noisy := s.Render(1).Color
	smooth := s.Reference(1, 32)
	en, es := RMSE(noisy, truth), RMSE(smooth, truth)
	if es >= en {
		t.Errorf("RMSE 32 spp = %v, 1 spp = %v; want more samples closer", es, en)
	}
}

func TestTexture(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	s := newTestScene(t, func(c *Config) { c.Texture = img })
	a := s.groundAlbedo(v(1.3, 0, -2.7))
	if math.Abs(a.x-1) > 1e-3 || a.y > 1e-3 || a.z > 1e-3 {
		t.Errorf("albedo = %+v, want linear red", a)
	}
}

func TestRMSE(t *testing.T) {
	a := []float32{0, 0, 0, 1, 1, 1, 1, 1}
	b := []float32{0, 0, 0, 0, 1, 1, 1, 0}
	if got := RMSE(a, b); got != 0 {
		t.Errorf("RMSE ignoring alpha = %v, want 0", got)
	}
	b[0] = 0.6
	want := math.Sqrt(0.36 / 6)
	if got := RMSE(a, b); math.Abs(got-want) > 1e-6 {
		t.Errorf("RMSE = %v, want %v", got, want)
	}
	if RMSE(nil, nil) != 0 {
		t.Error("RMSE of empty images is not 0")
	}
}

func TestDecodeSRGB(t *testing.T) {
	if decodeSRGB(0) != 0 || math.Abs(decodeSRGB(255)-1) > 1e-9 {
		t.Error("sRGB endpoints not preserved")
	}
	if got := decodeSRGB(128); math.Abs(got-0.2158) > 1e-3 {
		t.Errorf("decodeSRGB(128) = %v, want ~0.2158", got)
	}
}
