package synth

import (
	"math"
	"math/rand/v2"

	"golang.org/x/image/math/f32"

	"github.com/gogpu/asvgf/gbuffer"
)

const (
	tMin = 1e-4
	tMax = 1e4

	// shadowBias offsets secondary ray origins off the surface.
	shadowBias = 1e-3

	aoDistance = 1.5
	ambient    = 0.25
	lightPower = 14.0
)

var sky = v(0.45, 0.55, 0.75)

type hit struct {
	t      float64
	p, n   vec3
	albedo vec3
	sphere int // -1 for the ground
}

func hitSphere(sp sphere, r ray, tmax float64) (float64, bool) {
	oc := r.orig.sub(sp.center)
	a := r.dir.dot(r.dir)
	halfB := oc.dot(r.dir)
	c := oc.dot(oc) - sp.radius*sp.radius
	disc := halfB*halfB - a*c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	root := (-halfB - sq) / a
	if root < tMin || root > tmax {
		root = (-halfB + sq) / a
		if root < tMin || root > tmax {
			return 0, false
		}
	}
	return root, true
}

// intersect finds the closest hit along r before tmax.
func (s *Scene) intersect(st *state, r ray, tmax float64) (hit, bool) {
	h := hit{t: tmax, sphere: -1}
	found := false
	if r.dir.y < -1e-9 {
		if t := -r.orig.y / r.dir.y; t >= tMin && t < h.t {
			h.t, found = t, true
			h.p = r.at(t)
			h.n = v(0, 1, 0)
			h.albedo = s.groundAlbedo(h.p)
		}
	}
	for i, sp := range st.spheres {
		if t, ok := hitSphere(sp, r, h.t); ok && t < h.t {
			h.t, found = t, true
			h.p = r.at(t)
			h.n = h.p.sub(sp.center).mul(1 / sp.radius)
			h.albedo = sp.albedo
			h.sphere = i
		}
	}
	return h, found
}

// occluded reports whether anything blocks the segment from p along dir
// up to distance maxT.
func (s *Scene) occluded(st *state, p, dir vec3, maxT float64) bool {
	r := ray{orig: p, dir: dir}
	if dir.y < -1e-9 {
		if t := -p.y / dir.y; t >= tMin && t < maxT {
			return true
		}
	}
	for _, sp := range st.spheres {
		if _, ok := hitSphere(sp, r, maxT); ok {
			return true
		}
	}
	return false
}

func randomUnitVector(rng *rand.Rand) vec3 {
	z := 2*rng.Float64() - 1
	phi := 2 * math.Pi * rng.Float64()
	r := math.Sqrt(1 - z*z)
	return v(r*math.Cos(phi), r*math.Sin(phi), z)
}

// cosineDirection samples the hemisphere around n with a cosine density.
func cosineDirection(n vec3, rng *rand.Rand) vec3 {
	d := n.add(randomUnitVector(rng))
	if d.dot(d) < 1e-12 {
		return n
	}
	return d.unit()
}

// shade returns one stochastic estimate of the radiance leaving h: direct
// light from one point on the area light plus ambient occlusion along one
// cosine-distributed direction.
func (s *Scene) shade(st *state, h hit, rng *rand.Rand) vec3 {
	p := h.p.add(h.n.mul(shadowBias))

	var direct float64
	q := st.light.add(randomUnitVector(rng).mul(s.cfg.LightRadius))
	wi := q.sub(p)
	dist := wi.length()
	wi = wi.mul(1 / dist)
	if c := h.n.dot(wi); c > 0 && !s.occluded(st, p, wi, dist) {
		direct = lightPower * c / (dist * dist)
	}

	var ao float64
	if !s.occluded(st, p, cosineDirection(h.n, rng), aoDistance) {
		ao = 1
	}
	return h.albedo.mul(direct/math.Pi + ambient*ao)
}

// pixelRNG returns the random sequence of one shading sample.
func (s *Scene) pixelRNG(frame, sample, x, y int) *rand.Rand {
	seq := uint64(uint32(x)) | uint64(uint32(y))<<32                                  //nolint:gosec // pixel coordinates are non-negative
	return rand.New(rand.NewPCG(mix(s.cfg.Seed, uint64(frame), uint64(sample)), seq)) //nolint:gosec // not security sensitive
}

// mix hashes its arguments with the splitmix64 finalizer.
func mix(vals ...uint64) uint64 {
	h := uint64(0x9E3779B97F4A7C15)
	for _, x := range vals {
		h ^= x + 0x9E3779B97F4A7C15 + h<<6 + h>>2
		h ^= h >> 30
		h *= 0xBF58476D1CE4E5B9
		h ^= h >> 27
		h *= 0x94D049BB133111EB
		h ^= h >> 31
	}
	return h
}

// previousPoint returns where surface point p of h was one frame earlier.
func previousPoint(cur, prev *state, h hit) vec3 {
	if h.sphere < 0 {
		return h.p
	}
	return h.p.sub(cur.spheres[h.sphere].center).add(prev.spheres[h.sphere].center)
}

// Render returns frame number frame of the animation with one sample per
// pixel. Motion vectors point from each pixel to the position its surface
// point had in frame-1.
func (s *Scene) Render(frame int) *gbuffer.Frame {
	w, hgt := s.cfg.Width, s.cfg.Height
	cur, prev := s.stateAt(frame), s.stateAt(frame-1)
	out := gbuffer.NewFrame(w, hgt)

	s.pool.Rows(hgt, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				h, ok := s.intersect(&cur, cur.camera.ray(x, y), tMax)
				if !ok {
					out.SetColor(x, y, float32(sky.x), float32(sky.y), float32(sky.z), 1)
					out.SetAlbedo(x, y, 1, 1, 1)
					continue
				}
				c := s.shade(&cur, h, s.pixelRNG(frame, 0, x, y))
				out.SetColor(x, y, float32(c.x), float32(c.y), float32(c.z), 1)
				out.SetAlbedo(x, y, float32(h.albedo.x), float32(h.albedo.y), float32(h.albedo.z))
				out.SetSurface(x, y, float32(h.t), f32.Vec3{float32(h.n.x), float32(h.n.y), float32(h.n.z)})

				px, py, _ := prev.camera.project(previousPoint(&cur, &prev, h))
				if math.IsInf(px, 0) {
					continue
				}
				out.SetMotion(x, y, f32.Vec2{float32(px - float64(x)), float32(py - float64(y))})
			}
		}
	})

	if s.cfg.GradientDownsample > 0 {
		out.GradientSamples = s.gradientSamples(frame, &cur, &prev)
	}
	return out
}

// gradientSamples picks one pixel per stratum and shades its surface
// point again under the previous frame's scene with the same random
// sequence.
func (s *Scene) gradientSamples(frame int, cur, prev *state) []gbuffer.GradientSample {
	d := s.cfg.GradientDownsample
	gw := (s.cfg.Width + d - 1) / d
	gh := (s.cfg.Height + d - 1) / d
	samples := make([]gbuffer.GradientSample, gw*gh)

	s.pool.Rows(gh, func(y0, y1 int) {
		for cy := y0; cy < y1; cy++ {
			for cx := 0; cx < gw; cx++ {
				k := int(mix(s.cfg.Seed, uint64(frame), uint64(cx), uint64(cy)) % uint64(d*d)) //nolint:gosec // k < d*d
				x := min(cx*d+k%d, s.cfg.Width-1)
				y := min(cy*d+k/d, s.cfg.Height-1)
				gs := &samples[cy*gw+cx]
				gs.X, gs.Y = x, y
				if frame == 0 {
					continue
				}
				h, ok := s.intersect(cur, cur.camera.ray(x, y), tMax)
				if !ok {
					continue
				}
				h.p = previousPoint(cur, prev, h)
				c := s.shade(prev, h, s.pixelRNG(frame, 0, x, y))
				gs.PrevLuma = float32(luma(c))
				gs.Valid = true
			}
		}
	})
	return samples
}

// Reference returns a converged RGBA rendering of frame averaged over
// samples shading samples per pixel.
func (s *Scene) Reference(frame, samples int) []float32 {
	w, hgt := s.cfg.Width, s.cfg.Height
	cur := s.stateAt(frame)
	out := make([]float32, w*hgt*4)
	samples = max(samples, 1)

	s.pool.Rows(hgt, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				i := (y*w + x) * 4
				out[i+3] = 1
				h, ok := s.intersect(&cur, cur.camera.ray(x, y), tMax)
				if !ok {
					out[i], out[i+1], out[i+2] = float32(sky.x), float32(sky.y), float32(sky.z)
					continue
				}
				var sum vec3
				for k := 1; k <= samples; k++ {
					sum = sum.add(s.shade(&cur, h, s.pixelRNG(frame, k, x, y)))
				}
				sum = sum.mul(1 / float64(samples))
				out[i], out[i+1], out[i+2] = float32(sum.x), float32(sum.y), float32(sum.z)
			}
		}
	})
	return out
}

// RMSE returns the root mean square error between two RGBA images over
// the color channels.
func RMSE(a, b []float32) float64 {
	n := min(len(a), len(b))
	var sum float64
	var count int
	for i := 0; i < n; i++ {
		if i%4 == 3 {
			continue
		}
		d := float64(a[i] - b[i])
		sum += d * d
		count++
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(count))
}
