//go:build !nogpu

// Package gpu implements the wgpu/hal compute-shader comparison path.
package gpu

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/imagediff"
)

// diffParamsSize is the byte size of the Params uniform block.
const diffParamsSize = 32

// gpuTimeout bounds the fence wait for one comparison dispatch.
const gpuTimeout = 5 * time.Second

// DiffAccelerator compares two images with a single fused compute pass:
// threshold diff with overlay blending and optional grayscale display. The
// pass writes the rendered comparison and a per-pixel difference mask; the
// mask is read back for an exact count.
//
// DiffAccelerator implements imagediff.Accelerator.
type DiffAccelerator struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	log *slog.Logger

	gpuReady       bool
	externalDevice bool // true when using a shared device (don't destroy on Close)
}

var _ imagediff.Accelerator = (*DiffAccelerator)(nil)

func (a *DiffAccelerator) Name() string { return "wgpu-diff" }

// SetLogger accepts the package logger from imagediff.SetLogger.
func (a *DiffAccelerator) SetLogger(l *slog.Logger) {
	a.mu.Lock()
	a.log = l
	a.mu.Unlock()
}

func (a *DiffAccelerator) logger() *slog.Logger {
	if a.log != nil {
		return a.log
	}
	return imagediff.Logger()
}

// Init performs the capability check and builds the comparison pipeline.
// A missing backend, adapter or shader failure is returned as an error;
// the accelerator then stays in the not-ready state and the orchestrator
// keeps using the CPU path.
func (a *DiffAccelerator) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.initGPU()
}

// Ready reports whether the comparison pipeline is usable.
func (a *DiffAccelerator) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gpuReady
}

// Close releases all GPU resources. Safe to call repeatedly.
func (a *DiffAccelerator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.destroyPipeline()
	if !a.externalDevice {
		if a.device != nil {
			a.device.Destroy()
			a.device = nil
		}
		if a.instance != nil {
			a.instance.Destroy()
			a.instance = nil
		}
	} else {
		// Shared resources are not ours to destroy.
		a.device = nil
		a.instance = nil
	}
	a.queue = nil
	a.gpuReady = false
	a.externalDevice = false
}

// SetDeviceProvider switches the accelerator to a shared GPU device from an
// external provider (e.g., a gogpu window). The provider must implement
// HalDevice() any and HalQueue() any returning hal.Device and hal.Queue.
func (a *DiffAccelerator) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("wgpu-diff: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("wgpu-diff: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("wgpu-diff: provider HalQueue is not hal.Queue")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.destroyPipeline()
	if !a.externalDevice && a.device != nil {
		a.device.Destroy()
	}
	if a.instance != nil {
		a.instance.Destroy()
		a.instance = nil
	}

	a.device = device
	a.queue = queue
	a.externalDevice = true

	if err := a.createPipeline(); err != nil {
		a.gpuReady = false
		return fmt.Errorf("wgpu-diff: create pipeline with shared device: %w", err)
	}
	a.gpuReady = true
	a.logger().Info("switched to shared GPU device")
	return nil
}

// RenderDiff runs the fused comparison pass over two equal-dimension
// pixmaps, resizes out to those dimensions and writes the rendered diff
// into it. The difference count comes from the mask buffer readback.
//
// Every device object created here is released on every exit path; a
// failed dispatch leaves out untouched.
func (a *DiffAccelerator) RenderDiff(imgA, imgB *imagediff.Pixmap, out imagediff.OutputSurface, opts imagediff.DiffOptions) (imagediff.DiffResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.gpuReady {
		return imagediff.DiffResult{}, imagediff.ErrFallbackToCPU
	}
	w, h := imgA.Width(), imgA.Height()
	if w != imgB.Width() || h != imgB.Height() {
		return imagediff.DiffResult{}, fmt.Errorf("wgpu-diff: dimension mismatch %dx%d vs %dx%d",
			w, h, imgB.Width(), imgB.Height())
	}
	if w == 0 || h == 0 {
		return imagediff.DiffResult{}, fmt.Errorf("wgpu-diff: zero-dimension input")
	}

	pixels := w * h
	rendered := make([]uint8, pixels*4)
	count, err := a.dispatch(imgA.Data(), imgB.Data(), rendered, w, h, opts)
	if err != nil {
		return imagediff.DiffResult{}, err
	}

	out.SetSize(w, h)
	if err := out.WritePixels(rendered); err != nil {
		return imagediff.DiffResult{}, fmt.Errorf("wgpu-diff: write output: %w", err)
	}
	return imagediff.NewDiffResult(count, pixels), nil
}

// dispatch uploads both images, runs one compute pass and reads back the
// rendered pixels and the mask.
func (a *DiffAccelerator) dispatch(dataA, dataB, rendered []uint8, w, h int, opts imagediff.DiffOptions) (int, error) {
	pixels := w * h
	pixelBufSize := uint64(pixels * 4)

	params := diffParams{
		Width:     uint32(w), //nolint:gosec // dimensions always fit uint32
		Height:    uint32(h), //nolint:gosec
		Threshold: uint32(opts.Threshold),
		Opacity:   float32(opts.OverlayOpacity),
	}
	if opts.OverlayOpacity > 0 {
		params.Flags |= flagOverlay
	}
	if opts.UseGrayscale {
		params.Flags |= flagGrayscale
	}

	paramsBuf, err := a.createBuffer("diff_params", diffParamsSize,
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return 0, err
	}
	defer a.device.DestroyBuffer(paramsBuf)

	bufA, err := a.createBuffer("diff_img_a", pixelBufSize,
		gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	if err != nil {
		return 0, err
	}
	defer a.device.DestroyBuffer(bufA)

	bufB, err := a.createBuffer("diff_img_b", pixelBufSize,
		gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	if err != nil {
		return 0, err
	}
	defer a.device.DestroyBuffer(bufB)

	outPixBuf, err := a.createBuffer("diff_out_pix", pixelBufSize,
		gputypes.BufferUsageStorage|gputypes.BufferUsageCopySrc)
	if err != nil {
		return 0, err
	}
	defer a.device.DestroyBuffer(outPixBuf)

	outMaskBuf, err := a.createBuffer("diff_out_mask", pixelBufSize,
		gputypes.BufferUsageStorage|gputypes.BufferUsageCopySrc)
	if err != nil {
		return 0, err
	}
	defer a.device.DestroyBuffer(outMaskBuf)

	stagingPix, err := a.createBuffer("diff_staging_pix", pixelBufSize,
		gputypes.BufferUsageMapRead|gputypes.BufferUsageCopyDst)
	if err != nil {
		return 0, err
	}
	defer a.device.DestroyBuffer(stagingPix)

	stagingMask, err := a.createBuffer("diff_staging_mask", pixelBufSize,
		gputypes.BufferUsageMapRead|gputypes.BufferUsageCopyDst)
	if err != nil {
		return 0, err
	}
	defer a.device.DestroyBuffer(stagingMask)

	a.queue.WriteBuffer(paramsBuf, 0, params.encode())
	a.queue.WriteBuffer(bufA, 0, packPixels(dataA, pixels))
	a.queue.WriteBuffer(bufB, 0, packPixels(dataB, pixels))

	bindGroup, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "diff_bind",
		Layout: a.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: paramsBuf.NativeHandle(), Offset: 0, Size: diffParamsSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: bufA.NativeHandle(), Offset: 0, Size: pixelBufSize}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: bufB.NativeHandle(), Offset: 0, Size: pixelBufSize}},
			{Binding: 3, Resource: gputypes.BufferBinding{Buffer: outPixBuf.NativeHandle(), Offset: 0, Size: pixelBufSize}},
			{Binding: 4, Resource: gputypes.BufferBinding{Buffer: outMaskBuf.NativeHandle(), Offset: 0, Size: pixelBufSize}},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("create bind group: %w", err)
	}
	defer a.device.DestroyBindGroup(bindGroup)

	if err := a.encodePass(bindGroup, outPixBuf, outMaskBuf, stagingPix, stagingMask, w, h, pixelBufSize); err != nil {
		return 0, err
	}

	readbackPix := make([]byte, pixelBufSize)
	if err := a.queue.ReadBuffer(stagingPix, 0, readbackPix); err != nil {
		return 0, fmt.Errorf("readback pixels: %w", err)
	}
	readbackMask := make([]byte, pixelBufSize)
	if err := a.queue.ReadBuffer(stagingMask, 0, readbackMask); err != nil {
		return 0, fmt.Errorf("readback mask: %w", err)
	}

	unpackPixels(readbackPix, rendered, pixels)
	return countMask(readbackMask, pixels), nil
}

// encodePass records the compute pass and the staging copies, submits and
// waits for the fence.
func (a *DiffAccelerator) encodePass(
	bindGroup hal.BindGroup,
	outPixBuf, outMaskBuf, stagingPix, stagingMask hal.Buffer,
	w, h int, pixelBufSize uint64,
) error {
	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "diff_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("diff"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	computePass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "diff_pass"})
	computePass.SetPipeline(a.pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)
	computePass.Dispatch((uint32(w)+7)/8, (uint32(h)+7)/8, 1) //nolint:gosec // dims fit uint32
	computePass.End()

	encoder.CopyBufferToBuffer(outPixBuf, stagingPix, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: pixelBufSize},
	})
	encoder.CopyBufferToBuffer(outMaskBuf, stagingMask, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: pixelBufSize},
	})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer a.device.FreeCommandBuffer(cmdBuf)

	fence, err := a.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer a.device.DestroyFence(fence)
	if err := a.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := a.device.Wait(fence, 1, gpuTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}
	return nil
}

func (a *DiffAccelerator) createBuffer(label string, size uint64, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s buffer: %w", label, err)
	}
	return buf, nil
}

func (a *DiffAccelerator) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("wgpu-diff: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("wgpu-diff: create instance: %w", err)
	}
	a.instance = instance
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("wgpu-diff: no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("wgpu-diff: open device: %w", err)
	}
	a.device = openDev.Device
	a.queue = openDev.Queue
	if err := a.createPipeline(); err != nil {
		a.device.Destroy()
		a.device = nil
		a.queue = nil
		return fmt.Errorf("wgpu-diff: create pipeline: %w", err)
	}
	a.gpuReady = true
	a.logger().Info("GPU comparison initialized", "adapter", selected.Info.Name)
	return nil
}

func (a *DiffAccelerator) createPipeline() error {
	spirv, err := compileShaderToSPIRV(diffShaderSource)
	if err != nil {
		return err
	}
	shader, err := createShaderModule(a.device, "diff", spirv)
	if err != nil {
		return fmt.Errorf("create diff shader module: %w", err)
	}
	a.shader = shader

	bindLayout, err := a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "diff_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 3, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
			{Binding: 4, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	a.bindLayout = bindLayout

	pipeLayout, err := a.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "diff_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{a.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	a.pipeLayout = pipeLayout

	pipeline, err := a.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "diff_pipeline", Layout: a.pipeLayout,
		Compute: hal.ComputeState{Module: a.shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	a.pipeline = pipeline
	return nil
}

func (a *DiffAccelerator) destroyPipeline() {
	if a.device == nil {
		return
	}
	if a.pipeline != nil {
		a.device.DestroyComputePipeline(a.pipeline)
		a.pipeline = nil
	}
	if a.pipeLayout != nil {
		a.device.DestroyPipelineLayout(a.pipeLayout)
		a.pipeLayout = nil
	}
	if a.bindLayout != nil {
		a.device.DestroyBindGroupLayout(a.bindLayout)
		a.bindLayout = nil
	}
	if a.shader != nil {
		a.device.DestroyShaderModule(a.shader)
		a.shader = nil
	}
}
