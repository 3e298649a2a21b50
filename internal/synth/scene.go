// Package synth renders a small animated scene with one stochastic
// lighting sample per pixel. It produces the noisy radiance and the exact
// G-buffer (depth, normals, albedo, motion vectors) a denoiser consumes,
// plus converged reference images for measuring the result.
//
// The scene is a textured ground plane with a few spheres, lit by a
// spherical area light that circles above them. The camera pans sideways
// and one sphere orbits, so reprojection sees both camera and object
// motion, and the moving light changes shading under static geometry.
package synth

import (
	"errors"
	"image"
	"math"

	"golang.org/x/image/draw"

	srgb "github.com/gogpu/asvgf/internal/color"
	"github.com/gogpu/asvgf/internal/parallel"
)

// ErrInvalidConfig is returned for non-positive image sizes.
var ErrInvalidConfig = errors.New("synth: invalid config")

// textureSize is the edge length ground textures are resampled to.
const textureSize = 256

// Config describes the animation.
type Config struct {
	Width, Height int

	// Seed selects the random sequence. Frames are reproducible for a
	// given seed.
	Seed uint64

	// CameraSpeed is the sideways camera motion in world units per frame.
	CameraSpeed float64

	// LightSpeed is the angular speed of the light in radians per frame.
	LightSpeed float64

	// OrbitSpeed is the angular speed of the orbiting sphere in radians per
	// frame.
	OrbitSpeed float64

	// LightRadius is the radius of the spherical area light. Larger lights
	// give wider penumbrae and more noise.
	LightRadius float64

	// Texture is the ground albedo texture, tiled every four world units.
	// Nil selects a checkerboard.
	Texture image.Image

	// GradientDownsample, when positive, makes Render attach one gradient
	// sample per GradientDownsample x GradientDownsample stratum.
	GradientDownsample int

	// Workers sets the number of render goroutines (GOMAXPROCS when <= 0).
	Workers int
}

// DefaultConfig returns a 320x180 animation with moderate motion.
func DefaultConfig() Config {
	return Config{
		Width:       320,
		Height:      180,
		Seed:        1,
		CameraSpeed: 0.02,
		LightSpeed:  0.05,
		OrbitSpeed:  0.04,
		LightRadius: 0.6,
	}
}

type sphere struct {
	center vec3
	radius float64
	albedo vec3
}

// state is the scene at one instant.
type state struct {
	camera  camera
	light   vec3
	spheres []sphere
}

// Scene renders frames of the animation. Its methods are safe to call
// from one goroutine at a time.
type Scene struct {
	cfg     Config
	pool    *parallel.WorkerPool
	texture []vec3 // linear albedo, textureSize^2, nil for the checkerboard
}

// New creates a scene.
func New(cfg Config) (*Scene, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ErrInvalidConfig
	}
	if cfg.LightRadius <= 0 {
		cfg.LightRadius = DefaultConfig().LightRadius
	}
	s := &Scene{cfg: cfg, pool: parallel.NewWorkerPool(cfg.Workers)}
	if cfg.Texture != nil {
		s.texture = linearTexture(cfg.Texture)
	}
	return s, nil
}

// Name implements the denoiser's scene binding.
func (s *Scene) Name() string { return "synth" }

// Config returns the scene configuration.
func (s *Scene) Config() Config { return s.cfg }

// Close stops the render workers.
func (s *Scene) Close() { s.pool.Close() }

// stateAt returns the scene at frame.
func (s *Scene) stateAt(frame int) state {
	t := float64(frame)
	lt := t * s.cfg.LightSpeed
	ot := t * s.cfg.OrbitSpeed
	camX := t * s.cfg.CameraSpeed
	return state{
		camera: newCamera(v(camX, 1.2, 5), v(camX, 0.6, 0), s.cfg.Width, s.cfg.Height),
		light:  v(3*math.Cos(lt), 3.5, 1+3*math.Sin(lt)),
		spheres: []sphere{
			{center: v(-1.2, 0.7, 0), radius: 0.7, albedo: v(0.8, 0.25, 0.2)},
			{center: v(0.9, 0.5, 0.6), radius: 0.5, albedo: v(0.2, 0.6, 0.8)},
			{center: v(1.8*math.Cos(ot), 0.35, -0.8+1.2*math.Sin(ot)), radius: 0.35, albedo: v(0.9, 0.8, 0.3)},
		},
	}
}

// linearTexture resamples img to textureSize^2 and decodes sRGB.
func linearTexture(img image.Image) []vec3 {
	dst := image.NewRGBA(image.Rect(0, 0, textureSize, textureSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	tex := make([]vec3, textureSize*textureSize)
	for y := 0; y < textureSize; y++ {
		for x := 0; x < textureSize; x++ {
			c := dst.RGBAAt(x, y)
			tex[y*textureSize+x] = v(decodeSRGB(c.R), decodeSRGB(c.G), decodeSRGB(c.B))
		}
	}
	return tex
}

func decodeSRGB(c uint8) float64 { return float64(srgb.DecodeSRGB(c)) }

// groundAlbedo returns the ground albedo at world point p.
func (s *Scene) groundAlbedo(p vec3) vec3 {
	u := p.x / 4
	w := p.z / 4
	u -= math.Floor(u)
	w -= math.Floor(w)
	if s.texture == nil {
		if (int(u*8)+int(w*8))%2 == 0 {
			return v(0.75, 0.75, 0.75)
		}
		return v(0.3, 0.3, 0.3)
	}
	tx := min(int(u*textureSize), textureSize-1)
	ty := min(int(w*textureSize), textureSize-1)
	return s.texture[ty*textureSize+tx]
}
