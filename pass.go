package asvgf

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/asvgf/gbuffer"
	"github.com/gogpu/asvgf/gpucore"
	"github.com/gogpu/asvgf/internal/filter"
	"github.com/gogpu/asvgf/internal/framebuffer"
	"github.com/gogpu/asvgf/render"
)

// OutputName is the name of the single output the pass declares.
const OutputName = "Filtered image"

// OutputFormat is the pixel format of the declared output.
const OutputFormat = gputypes.TextureFormatRGBA16Float

// Output describes a target the pass writes.
type Output struct {
	Name   string
	Format gputypes.TextureFormat
	Width  int
	Height int
}

// Scene is the scene a pass is bound to. The pass only needs to know that
// one is bound; a scene change discards history.
type Scene interface {
	Name() string
}

// Pass is the A-SVGF denoising pass.
//
// A pass moves through three states. Compile allocates the intermediate
// targets (Uncompiled to Allocated), SetScene binds a scene (Allocated to
// Ready), and Execute filters one frame per call while Ready. A change of
// output size reallocates every target and discards history.
//
// Example:
//
//	p, err := asvgf.New()
//	if err != nil {
//		return err
//	}
//	defer p.Close()
//	if err := p.Compile(1280, 720); err != nil {
//		return err
//	}
//	p.SetScene(scene)
//	out := render.NewHalfFloatTarget(1280, 720)
//	for frame := range frames {
//		if err := p.Execute(ctx, frame, out); err != nil {
//			return err
//		}
//	}
//
// Methods are serialized by an internal mutex; frames are processed one at
// a time.
type Pass struct {
	mu sync.Mutex

	opts        options
	params      Params
	state       State
	closed      bool
	scene       Scene
	backend     gpucore.Backend
	ownsBackend bool
	buffers     *framebuffer.Set

	hasHistory        bool
	colorHistoryValid bool
	frame             uint64

	geometry gpucore.Plane
	motion   gpucore.Plane
	samples  gpucore.Plane
	white    gpucore.Plane
	result   gpucore.Plane

	stats Stats
}

// New creates a pass in the Uncompiled state.
func New(opts ...Option) (*Pass, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	set, err := framebuffer.NewSet(o.downsample)
	if err != nil {
		return nil, err
	}
	set.SetBudget(o.budget)

	p := &Pass{
		opts:    o,
		params:  o.params,
		buffers: set,
	}
	if o.backend != nil {
		p.backend = o.backend
	} else {
		b, err := newBackend(o.backendName, o.device, o.workers)
		if err != nil {
			return nil, err
		}
		p.backend = b
		p.ownsBackend = true
	}
	propagateLogger(p.backend, Logger())
	p.stats.Backend = p.backend.Name()
	p.stats.reset()
	return p, nil
}

// State returns the current lifecycle state.
func (p *Pass) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Backend returns the name of the backend running the stages.
func (p *Pass) Backend() string {
	return p.backend.Name()
}

// Compile allocates every intermediate target for a width x height
// resolution and discards history. Compiling again at the current
// resolution allocates nothing and keeps history; call Reset to drop it.
// A bound scene makes the pass Ready immediately.
func (p *Pass) Compile(width, height int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if p.state != StateUncompiled {
		if cw, ch := p.buffers.Size(); cw == width && ch == height {
			return nil
		}
	}
	return p.allocate(width, height)
}

func (p *Pass) allocate(width, height int) error {
	if err := p.buffers.Allocate(width, height); err != nil {
		return err
	}
	p.state = StateAllocated
	p.hasHistory = false
	p.colorHistoryValid = false

	gw, gh := p.buffers.GradientSize()
	p.geometry = gpucore.NewPlane(width, height, 4)
	p.motion = gpucore.NewPlane(width, height, 2)
	p.samples = gpucore.NewPlane(gw, gh, 4)
	p.white = gpucore.NewPlane(width, height, 4)
	p.white.Fill(1)
	p.result = gpucore.NewPlane(width, height, 4)

	if p.scene != nil {
		p.state = StateReady
	}
	Logger().Debug("asvgf: compiled",
		"width", width, "height", height,
		"gradWidth", gw, "gradHeight", gh,
		"state", p.state)
	return nil
}

// SetScene binds a scene. A nil scene unbinds the current one and returns a
// Ready pass to Allocated. Binding a scene always discards history.
func (p *Pass) SetScene(s Scene) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scene = s
	p.hasHistory = false
	p.colorHistoryValid = false
	switch {
	case s == nil && p.state == StateReady:
		p.state = StateAllocated
	case s != nil && p.state == StateAllocated:
		p.state = StateReady
	}
}

// Params returns the current filter parameters.
func (p *Pass) Params() Params {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params
}

// SetParams replaces the filter parameters. They are clamped.
func (p *Pass) SetParams(params Params) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.params = params.Sanitize()
}

// Properties returns the configuration dictionary.
func (p *Pass) Properties() Properties {
	return p.Params().Properties()
}

// SetProperties updates the configuration from a dictionary. Unknown keys
// are logged and ignored. On error the parameters are unchanged.
func (p *Pass) SetProperties(props Properties) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	params, err := p.params.Apply(props)
	if err != nil {
		return err
	}
	p.params = params
	return nil
}

// Reflect declares the outputs of the pass for a render graph whose default
// texture size is width x height.
func (p *Pass) Reflect(width, height int) []Output {
	return []Output{{
		Name:   OutputName,
		Format: OutputFormat,
		Width:  width,
		Height: height,
	}}
}

// Stats returns statistics of the last executed frame.
func (p *Pass) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats.clone()
}

// Reset clears every intermediate target and discards history.
func (p *Pass) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buffers.Clear()
	p.hasHistory = false
	p.colorHistoryValid = false
}

// Close releases the targets and, when the pass created it, the backend.
// Close is idempotent.
func (p *Pass) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.buffers.Release()
	p.state = StateUncompiled
	if p.ownsBackend {
		p.backend.Close()
	}
}

// Execute filters one frame into out.
//
// The output size is the render resolution: when it differs from the
// compiled size every target is reallocated and history starts over.
// ctx is checked once before any work; a started frame always completes.
func (p *Pass) Execute(ctx context.Context, frame *gbuffer.Frame, out render.Target) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.closed:
		return ErrClosed
	case out == nil:
		return ErrMissingOutput
	case p.state != StateReady:
		return fmt.Errorf("%w: state %v", ErrNotReady, p.state)
	case frame == nil:
		return fmt.Errorf("%w: nil frame", ErrMissingInput)
	}
	if err := frame.Validate(); err != nil {
		if errors.Is(err, gbuffer.ErrPlaneSize) {
			return fmt.Errorf("%w: %w", ErrDimensionMismatch, err)
		}
		return fmt.Errorf("%w: %w", ErrMissingInput, err)
	}
	w, h := out.Width(), out.Height()
	if frame.Width != w || frame.Height != h {
		return fmt.Errorf("%w: frame %dx%d, output %dx%d",
			ErrDimensionMismatch, frame.Width, frame.Height, w, h)
	}

	if cw, ch := p.buffers.Size(); cw != w || ch != h {
		Logger().Debug("asvgf: resolution changed", "from", fmt.Sprintf("%dx%d", cw, ch), "to", fmt.Sprintf("%dx%d", w, h))
		p.state = StateAllocated
		if err := p.allocate(w, h); err != nil {
			return err
		}
	}

	params := p.params
	p.stats.reset()
	p.stats.Frame = p.frame
	p.stats.Width, p.stats.Height = w, h

	if !params.Enabled {
		p.hasHistory = false
		p.colorHistoryValid = false
		p.frame++
		p.stats.Total = time.Since(start)
		return out.WriteRGBA(frame.Color)
	}

	if _, err := p.buffers.EnsureGradientBuffers(w, h); err != nil {
		return err
	}
	if err := p.loadFrame(frame); err != nil {
		return err
	}
	if err := p.run(frame, params); err != nil {
		return err
	}
	if err := out.WriteRGBA(p.result.Data); err != nil {
		return err
	}

	p.buffers.Swap()
	p.hasHistory = true
	p.frame++

	p.stats.GradWidth, p.stats.GradHeight = p.buffers.GradientSize()
	p.stats.Bytes = p.buffers.Bytes()
	p.stats.Allocations = p.buffers.Allocations()
	p.stats.Total = time.Since(start)
	Logger().Debug("asvgf: frame done", "frame", p.stats.Frame, "total", p.stats.Total)
	return nil
}

// loadFrame converts the frame's geometry, motion and gradient samples
// into stage planes.
func (p *Pass) loadFrame(f *gbuffer.Frame) error {
	geo, mv := p.geometry.Data, p.motion.Data
	for i := range f.Depth {
		n := f.Normal[i]
		geo[i*4], geo[i*4+1], geo[i*4+2], geo[i*4+3] = f.Depth[i], n[0], n[1], n[2]
		mv[i*2], mv[i*2+1] = f.Motion[i][0], f.Motion[i][1]
	}
	if f.GradientSamples == nil {
		return nil
	}
	if len(f.GradientSamples) != p.samples.Texels() {
		return fmt.Errorf("%w: %d gradient samples for %dx%d cells",
			ErrDimensionMismatch, len(f.GradientSamples), p.samples.Width, p.samples.Height)
	}
	for i, s := range f.GradientSamples {
		var valid float32
		if s.Valid {
			valid = 1
		}
		p.samples.SetVec4(i%p.samples.Width, i/p.samples.Width, [4]float32{float32(s.X), float32(s.Y), s.PrevLuma, valid})
	}
	return nil
}

func (p *Pass) uniforms(f *gbuffer.Frame, params Params) gpucore.Uniforms {
	w, h := p.buffers.Size()
	gw, gh := p.buffers.GradientSize()
	th := p.opts.thresholds
	u := gpucore.Uniforms{
		Width:           uint32(w),
		Height:          uint32(h),
		GradWidth:       uint32(gw),
		GradHeight:      uint32(gh),
		Downsample:      uint32(p.buffers.Downsample()),
		Step:            1,
		Radius:          uint32(params.GradientFilterRadius),
		Frame:           uint32(p.frame),
		Alpha:           params.TemporalAlpha,
		DepthThreshold:  th.Depth,
		NormalThreshold: th.Normal,
		PhiColor:        th.PhiColor,
		PhiNormal:       th.PhiNormal,
		PhiDepth:        th.PhiDepth,
		SpatialHistory:  th.SpatialHistory,
	}
	if p.hasHistory {
		u.Flags |= gpucore.FlagHasHistory
	}
	if p.hasHistory && p.colorHistoryValid {
		u.Flags |= gpucore.FlagColorHistory
	}
	if params.ModulateAlbedo {
		u.Flags |= gpucore.FlagModulateAlbedo
	}
	if params.NormalizeGradient {
		u.Flags |= gpucore.FlagNormalizeGradient
	}
	if params.ShowAntilagAlpha {
		u.Flags |= gpucore.FlagShowAntilag
	}
	if f.GradientSamples != nil {
		u.Flags |= gpucore.FlagSuppliedSamples
	}
	return u
}

func (p *Pass) dispatch(stage gpucore.Stage, u *gpucore.Uniforms, in, out []gpucore.Plane) error {
	t := time.Now()
	if err := p.backend.Dispatch(stage, u, in, out); err != nil {
		return fmt.Errorf("asvgf: %v: %w", stage, err)
	}
	p.stats.record(stage, time.Since(t))
	return nil
}

// run executes the stages of one frame in order: gradients, antilag,
// temporal accumulation, variance, spatial filter, resolve.
func (p *Pass) run(f *gbuffer.Frame, params Params) error {
	set := p.buffers
	cur, prev := set.AccumBuffer(), set.AccumBufferPrev()
	u := p.uniforms(f, params)

	w, h := set.Size()
	color := gpucore.Plane{Width: w, Height: h, Channels: 4, Data: f.Color}
	albedo := p.white
	if f.Albedo != nil {
		albedo = gpucore.Plane{Width: w, Height: h, Channels: 4, Data: f.Albedo}
	}

	// Gradient samples, filtered, then resolved into the antilag alpha.
	ping := set.DiffPing()
	err := p.dispatch(gpucore.StageGradientSamples, &u,
		[]gpucore.Plane{color, p.geometry, p.motion, prev.Geometry.Plane, set.ColorHistoryUnfiltered.Plane, p.samples},
		[]gpucore.Plane{ping.Gradient.Plane, ping.Geometry.Plane})
	if err != nil {
		return err
	}
	src := 0
	for i := 0; i < params.DiffAtrousIterations; i++ {
		u.Step = 1 << i
		a, b := set.Diff(src), set.Diff(1-src)
		err := p.dispatch(gpucore.StageGradientAtrous, &u,
			[]gpucore.Plane{a.Gradient.Plane, a.Geometry.Plane},
			[]gpucore.Plane{b.Gradient.Plane, b.Geometry.Plane})
		if err != nil {
			return err
		}
		src = 1 - src
	}
	u.Step = 1
	err = p.dispatch(gpucore.StageAntilag, &u,
		[]gpucore.Plane{set.Diff(src).Gradient.Plane},
		[]gpucore.Plane{set.AntilagAlpha.Plane})
	if err != nil {
		return err
	}
	set.AntilagAlpha.Quantize()

	err = p.dispatch(gpucore.StageTemporal, &u,
		[]gpucore.Plane{
			color, albedo, p.geometry, p.motion,
			prev.Illum.Plane, prev.Moments.Plane, prev.History.Plane, prev.Geometry.Plane,
			set.ColorHistory.Plane, set.AntilagAlpha.Plane,
		},
		[]gpucore.Plane{
			cur.Illum.Plane, cur.Moments.Plane, cur.History.Plane, cur.Geometry.Plane,
			set.ColorHistoryUnfiltered.Plane,
		})
	if err != nil {
		return err
	}
	cur.History.Quantize()

	err = p.dispatch(gpucore.StageVariance, &u,
		[]gpucore.Plane{cur.Illum.Plane, cur.Moments.Plane, cur.History.Plane, cur.Geometry.Plane},
		[]gpucore.Plane{set.Ping().Plane})
	if err != nil {
		return err
	}
	set.Ping().Quantize()

	illum := cur.Illum.Plane
	tapped := false
	src = 0
	for i := 0; i < params.NumIterations; i++ {
		u.Step = 1 << i
		u.Kernel = filter.KernelFor(int(params.FilterKernel), i)
		dst := set.Filter(1 - src)
		err := p.dispatch(gpucore.StageAtrous, &u,
			[]gpucore.Plane{set.Filter(src).Plane, cur.Geometry.Plane},
			[]gpucore.Plane{dst.Plane})
		if err != nil {
			return err
		}
		dst.Quantize()
		src = 1 - src
		if i == params.HistoryTap {
			set.ColorHistory.CopyFrom(dst.Plane)
			tapped = true
		}
		illum = dst.Plane
	}
	p.colorHistoryValid = tapped

	u.Step = 1
	return p.dispatch(gpucore.StageResolve, &u,
		[]gpucore.Plane{illum, albedo, set.AntilagAlpha.Plane},
		[]gpucore.Plane{p.result})
}
