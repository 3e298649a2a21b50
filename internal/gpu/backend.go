//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/asvgf/gpucore"
	"github.com/gogpu/asvgf/internal/cache"
	"github.com/gogpu/asvgf/internal/filter"
	"github.com/gogpu/asvgf/render"
)

// Name identifies the GPU backend in the backend registry.
const Name = "wgpu"

var (
	// ErrClosed is returned by Dispatch after Close.
	ErrClosed = errors.New("gpu: backend closed")

	// ErrNoPipelines is returned when no stage could be compiled for the
	// device.
	ErrNoPipelines = errors.New("gpu: no stage pipeline could be created")
)

// stagePipeline is the compiled compute pipeline of one stage.
type stagePipeline struct {
	shader   hal.ShaderModule
	pipeline hal.ComputePipeline
}

// Backend dispatches denoiser stages as compute passes on a HAL device.
//
// Each Dispatch uploads its planes, runs one compute pass and reads the
// outputs back before returning. Buffers are kept per stage and plane
// layout, so a steady stream of frames allocates nothing on the device.
// Stages without a pipeline run on the embedded CPU backend.
type Backend struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	external bool // shared device, not destroyed on Close
	adapter  string

	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipelines  map[gpucore.Stage]*stagePipeline
	resources  *cache.Cache[resourceKey, *dispatchResources]

	cpu    *filter.CPU
	closed bool
}

var _ gpucore.Backend = (*Backend)(nil)

// New creates a GPU backend.
//
// A non-null device handle must expose its HAL device (see
// render.DeviceHandle). With a null handle the backend uses the device set
// by SetDeviceProvider, or opens a Vulkan device of its own. workers sizes
// the CPU pool used for stages that have no GPU pipeline.
func New(device render.DeviceHandle, workers int) (*Backend, error) {
	b := &Backend{
		pipelines: make(map[gpucore.Stage]*stagePipeline),
		resources: cache.New(resourceLimit, func(_ resourceKey, r *dispatchResources) { r.release() }),
		cpu:       filter.NewCPU(workers),
	}
	if err := b.acquire(device); err != nil {
		b.cpu.Close()
		return nil, err
	}
	if err := b.createLayouts(); err != nil {
		b.Close()
		return nil, err
	}
	b.createPipelines()
	if len(b.pipelines) == 0 {
		b.Close()
		return nil, ErrNoPipelines
	}
	slogger().Info("gpu: backend ready",
		"adapter", b.adapter,
		"shared", b.external,
		"gpu_stages", len(b.pipelines),
		"cpu_stages", len(gpucore.Stages())-len(b.pipelines))
	return b, nil
}

func (b *Backend) acquire(h render.DeviceHandle) error {
	if render.IsNull(h) {
		h = currentProvider()
	}
	if h != nil {
		device, queue, err := sharedHAL(h)
		if err != nil {
			return err
		}
		b.device, b.queue, b.external = device, queue, true
		b.adapter = h.AdapterInfo().Name
		return nil
	}
	pd, err := openVulkan()
	if err != nil {
		return err
	}
	b.instance, b.device, b.queue = pd.instance, pd.device, pd.queue
	b.adapter = pd.adapter
	return nil
}

func (b *Backend) createLayouts() error {
	entry := func(binding uint32, t gputypes.BufferBindingType) gputypes.BindGroupLayoutEntry {
		return gputypes.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: t},
		}
	}
	layout, err := b.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "asvgf_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			entry(0, gputypes.BufferBindingTypeUniform),
			entry(1, gputypes.BufferBindingTypeReadOnlyStorage),
			entry(2, gputypes.BufferBindingTypeStorage),
			entry(3, gputypes.BufferBindingTypeReadOnlyStorage),
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create bind group layout: %w", err)
	}
	b.bindLayout = layout

	pipeLayout, err := b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "asvgf_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{b.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create pipeline layout: %w", err)
	}
	b.pipeLayout = pipeLayout
	return nil
}

// createPipelines builds one pipeline per stage. A stage that fails is
// left to the CPU backend.
func (b *Backend) createPipelines() {
	for _, stage := range gpucore.Stages() {
		p, err := b.createPipeline(stage)
		if err != nil {
			slogger().Warn("gpu: stage runs on CPU", "stage", stage.String(), "err", err)
			continue
		}
		b.pipelines[stage] = p
	}
}

func (b *Backend) createPipeline(stage gpucore.Stage) (*stagePipeline, error) {
	words, err := CompileStage(stage)
	if err != nil {
		return nil, err
	}
	label := "asvgf_" + stage.String()
	shader, err := b.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{WGSL: StageSource(stage), SPIRV: words},
	})
	if err != nil {
		return nil, fmt.Errorf("create shader module: %w", err)
	}
	pipeline, err := b.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   label,
		Layout:  b.pipeLayout,
		Compute: hal.ComputeState{Module: shader, EntryPoint: "main"},
	})
	if err != nil {
		b.device.DestroyShaderModule(shader)
		return nil, fmt.Errorf("create compute pipeline: %w", err)
	}
	return &stagePipeline{shader: shader, pipeline: pipeline}, nil
}

// Name implements gpucore.Backend.
func (b *Backend) Name() string { return Name }

// Adapter returns the name of the adapter the backend dispatches on.
func (b *Backend) Adapter() string { return b.adapter }

// Shared reports whether the backend runs on a host-provided device.
func (b *Backend) Shared() bool { return b.external }

// GPUStages returns the stages that run as compute shaders, in execution
// order.
func (b *Backend) GPUStages() []gpucore.Stage {
	b.mu.Lock()
	defer b.mu.Unlock()
	var stages []gpucore.Stage
	for _, s := range gpucore.Stages() {
		if b.pipelines[s] != nil {
			stages = append(stages, s)
		}
	}
	return stages
}

// SetLogger sets the package logger; see SetLogger.
func (b *Backend) SetLogger(l *slog.Logger) { SetLogger(l) }

// Dispatch implements gpucore.Backend.
//
// A stage whose GPU dispatch fails is logged, moved to the CPU backend for
// the rest of the backend's life and rerun there.
func (b *Backend) Dispatch(stage gpucore.Stage, u *gpucore.Uniforms, in, out []gpucore.Plane) error {
	if err := gpucore.Validate(stage, in, out); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	p := b.pipelines[stage]
	if p == nil {
		return b.cpu.Dispatch(stage, u, in, out)
	}
	w, h := filter.GridSize(stage, u)
	if w != out[0].Width || h != out[0].Height {
		return fmt.Errorf("gpu: %v grid %dx%d does not match output %dx%d",
			stage, w, h, out[0].Width, out[0].Height)
	}
	if err := b.dispatch(p, stage, u, in, out, w, h); err != nil {
		slogger().Warn("gpu: dispatch failed, stage moved to CPU", "stage", stage.String(), "err", err)
		b.destroyPipeline(p)
		delete(b.pipelines, stage)
		return b.cpu.Dispatch(stage, u, in, out)
	}
	return nil
}

// resourceLimit bounds the dispatch resource sets kept alive between
// frames. A frame uses one set per distinct stage and plane layout.
const resourceLimit = 32

// resourceKey identifies dispatches that can share buffers.
type resourceKey struct {
	stage                      gpucore.Stage
	uniforms, src, dst, planes int
}

// dispatchResources holds the buffers and bind group of one resource key.
type dispatchResources struct {
	device    hal.Device
	buffers   []hal.Buffer
	bindGroup hal.BindGroup

	uniforms, src, dst, planes, staging hal.Buffer
}

func (r *dispatchResources) buffer(label string, size int, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(size), //nolint:gosec // buffer sizes are positive
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	r.buffers = append(r.buffers, buf)
	return buf, nil
}

func (r *dispatchResources) release() {
	if r.bindGroup != nil {
		r.device.DestroyBindGroup(r.bindGroup)
	}
	for _, buf := range r.buffers {
		r.device.DestroyBuffer(buf)
	}
	r.buffers, r.bindGroup = nil, nil
}

func binding(n uint32, buf hal.Buffer, size int) gputypes.BindGroupEntry {
	return gputypes.BindGroupEntry{
		Binding:  n,
		Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Offset: 0, Size: uint64(size)}, //nolint:gosec // buffer sizes are positive
	}
}

// createResources allocates the buffers of key and binds them.
func (b *Backend) createResources(key resourceKey) (*dispatchResources, error) {
	res := &dispatchResources{device: b.device}
	var err error
	for _, buf := range []struct {
		dst   *hal.Buffer
		label string
		size  int
		usage gputypes.BufferUsage
	}{
		{&res.uniforms, "asvgf_uniforms", key.uniforms, gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst},
		{&res.src, "asvgf_src", key.src, gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst},
		{&res.dst, "asvgf_dst", key.dst, gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst},
		{&res.planes, "asvgf_planes", key.planes, gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst},
		{&res.staging, "asvgf_staging", key.dst, gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst},
	} {
		if *buf.dst, err = res.buffer(buf.label, buf.size, buf.usage); err != nil {
			res.release()
			return nil, err
		}
	}

	res.bindGroup, err = b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "asvgf_bind_" + key.stage.String(),
		Layout: b.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			binding(0, res.uniforms, key.uniforms),
			binding(1, res.src, key.src),
			binding(2, res.dst, key.dst),
			binding(3, res.planes, key.planes),
		},
	})
	if err != nil {
		res.release()
		return nil, fmt.Errorf("create bind group: %w", err)
	}
	slogger().Debug("gpu: dispatch resources created",
		"stage", key.stage.String(), "src_bytes", key.src, "dst_bytes", key.dst)
	return res, nil
}

func (b *Backend) dispatch(p *stagePipeline, stage gpucore.Stage, u *gpucore.Uniforms, in, out []gpucore.Plane, w, h int) error {
	inLayouts, inTexels := layoutPlanes(in)
	outLayouts, outTexels := layoutPlanes(out)
	srcData := packPlanes(in, inTexels)
	dstData := packPlanes(out, outTexels)
	table := packLayouts(inLayouts, outLayouts)
	uniforms := u.Bytes()

	key := resourceKey{stage: stage, uniforms: len(uniforms), src: len(srcData), dst: len(dstData), planes: len(table)}
	res, err := b.resources.GetOrCreate(key, func() (*dispatchResources, error) {
		return b.createResources(key)
	})
	if err != nil {
		return err
	}
	if err := b.run(p, stage, res, [][]byte{uniforms, srcData, dstData, table}, w, h); err != nil {
		b.resources.Delete(key)
		return err
	}

	mapping, err := b.device.MapBuffer(res.staging, 0, uint64(len(dstData)))
	if err != nil {
		b.resources.Delete(key)
		return fmt.Errorf("map staging buffer: %w", err)
	}
	if mapping.Ptr == nil {
		_ = b.device.UnmapBuffer(res.staging)
		b.resources.Delete(key)
		return errors.New("map staging buffer: nil mapping")
	}
	data := unsafe.Slice((*byte)(mapping.Ptr), len(dstData)) //nolint:gosec // mapping covers len(dstData) bytes
	unpackPlanes(data, out, outLayouts)
	if err := b.device.UnmapBuffer(res.staging); err != nil {
		b.resources.Delete(key)
		return fmt.Errorf("unmap staging buffer: %w", err)
	}
	return nil
}

// run uploads data into the uniform, source, destination and plane table
// buffers, then records and submits one compute pass followed by the copy
// into the staging buffer. It returns when the GPU is idle.
func (b *Backend) run(p *stagePipeline, stage gpucore.Stage, res *dispatchResources, data [][]byte, w, h int) error {
	for i, buf := range []hal.Buffer{res.uniforms, res.src, res.dst, res.planes} {
		if err := b.queue.WriteBuffer(buf, 0, data[i]); err != nil {
			return fmt.Errorf("write buffer: %w", err)
		}
	}
	dstSize := uint64(len(data[2]))

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "asvgf_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(stage.String()); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	gx, gy := workgroups(w, h)
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: stage.String()})
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, res.bindGroup, nil)
	pass.Dispatch(gx, gy, 1)
	pass.End()
	encoder.CopyBufferToBuffer(res.dst, res.staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: dstSize},
	})
	cmd, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmd)

	if _, err := b.queue.Submit([]hal.CommandBuffer{cmd}); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if err := b.device.WaitIdle(); err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	return nil
}

func (b *Backend) destroyPipeline(p *stagePipeline) {
	if p.pipeline != nil {
		b.device.DestroyComputePipeline(p.pipeline)
	}
	if p.shader != nil {
		b.device.DestroyShaderModule(p.shader)
	}
}

// Close releases the pipelines and, unless the device is shared, the
// device itself. Close is idempotent.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	if b.device != nil {
		_ = b.device.WaitIdle()
		b.resources.Purge()
		for stage, p := range b.pipelines {
			b.destroyPipeline(p)
			delete(b.pipelines, stage)
		}
		if b.pipeLayout != nil {
			b.device.DestroyPipelineLayout(b.pipeLayout)
		}
		if b.bindLayout != nil {
			b.device.DestroyBindGroupLayout(b.bindLayout)
		}
		if !b.external {
			b.device.Destroy()
		}
	}
	if b.instance != nil {
		b.instance.Destroy()
	}
	b.device, b.queue, b.instance = nil, nil, nil
	b.cpu.Close()
}
