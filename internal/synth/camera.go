package synth

import "math"

// fovY is the vertical field of view in degrees.
const fovY = 45

// camera is a pinhole camera. Rays are scaled so that the parameter t of
// a hit equals its linear view depth.
type camera struct {
	origin             vec3
	forward, right, up vec3
	tanHalfY, tanHalfX float64
	width, height      int
}

func newCamera(origin, target vec3, width, height int) camera {
	f := target.sub(origin).unit()
	r := f.cross(v(0, 1, 0)).unit()
	u := r.cross(f)
	th := math.Tan(fovY * math.Pi / 360)
	return camera{
		origin:   origin,
		forward:  f,
		right:    r,
		up:       u,
		tanHalfY: th,
		tanHalfX: th * float64(width) / float64(height),
		width:    width,
		height:   height,
	}
}

// ray returns the primary ray through the center of pixel (x, y).
func (c camera) ray(x, y int) ray {
	sx := (2*(float64(x)+0.5)/float64(c.width) - 1) * c.tanHalfX
	sy := (1 - 2*(float64(y)+0.5)/float64(c.height)) * c.tanHalfY
	dir := c.forward.add(c.right.mul(sx)).add(c.up.mul(sy))
	return ray{orig: c.origin, dir: dir}
}

// project returns the continuous pixel position of world point p, with
// pixel centers at integer coordinates, and its view depth.
func (c camera) project(p vec3) (x, y, depth float64) {
	d := p.sub(c.origin)
	depth = d.dot(c.forward)
	if depth <= 0 {
		return math.Inf(1), math.Inf(1), depth
	}
	sx := d.dot(c.right) / depth / c.tanHalfX
	sy := d.dot(c.up) / depth / c.tanHalfY
	x = (sx+1)/2*float64(c.width) - 0.5
	y = (1-sy)/2*float64(c.height) - 0.5
	return x, y, depth
}
