package synth

import "math"

type vec3 struct{ x, y, z float64 }

func v(x, y, z float64) vec3 { return vec3{x, y, z} }

func (a vec3) add(b vec3) vec3    { return vec3{a.x + b.x, a.y + b.y, a.z + b.z} }
func (a vec3) sub(b vec3) vec3    { return vec3{a.x - b.x, a.y - b.y, a.z - b.z} }
func (a vec3) mul(s float64) vec3 { return vec3{a.x * s, a.y * s, a.z * s} }
func (a vec3) dot(b vec3) float64 { return a.x*b.x + a.y*b.y + a.z*b.z }
func (a vec3) length() float64    { return math.Sqrt(a.dot(a)) }

func (a vec3) cross(b vec3) vec3 {
	return vec3{a.y*b.z - a.z*b.y, a.z*b.x - a.x*b.z, a.x*b.y - a.y*b.x}
}

func (a vec3) unit() vec3 {
	l := a.length()
	if l == 0 {
		return a
	}
	return a.mul(1 / l)
}

type ray struct {
	orig, dir vec3
}

func (r ray) at(t float64) vec3 { return r.orig.add(r.dir.mul(t)) }

// luma returns the Rec. 709 luminance of a linear color.
func luma(c vec3) float64 { return 0.2126*c.x + 0.7152*c.y + 0.0722*c.z }
