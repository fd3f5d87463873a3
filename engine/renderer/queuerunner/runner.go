package queuerunner

import (
	"github.com/google/uuid"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkqueuerunner/engine/containers"
	"github.com/spaghettifunk/vkqueuerunner/engine/core"
)

// Runner is the public surface offered to the render manager: it owns the
// render-pass cache and dispatches a producer-handed step sequence onto a
// recording-ready command buffer.
type Runner struct {
	dc    DeviceContext
	cache PassCache

	render   renderExecutor
	transfer transferExecutor
}

// New creates a Runner bound to a device context. CreateDeviceObjects must
// be called once before the first call to RunSteps.
func New(dc DeviceContext) *Runner {
	r := &Runner{dc: dc}
	r.render.dc = dc
	r.render.cache = &r.cache
	r.transfer.dc = dc
	return r
}

// SetBackbuffer records the current swapchain-image framebuffer that a
// Render step with a nil Framebuffer targets.
func (r *Runner) SetBackbuffer(handle vk.Framebuffer, width, height uint32) {
	r.render.backbufferHandle = handle
	r.render.backbufferWidth = width
	r.render.backbufferHeight = height
}

// CreateDeviceObjects populates the render-pass cache. Must run after the
// device handle is available.
func (r *Runner) CreateDeviceObjects() error {
	return r.cache.CreateDeviceObjects(r.dc)
}

// DestroyDeviceObjects tears down the render-pass cache. Must run before
// device teardown.
func (r *Runner) DestroyDeviceObjects() {
	r.cache.DestroyDeviceObjects(r.dc)
}

// BackbufferPass returns the distinguished backbuffer render pass handle.
func (r *Runner) BackbufferPass() vk.RenderPass {
	return r.cache.BackbufferPass()
}

// PassAt returns the offscreen render pass at cache index 0..8.
func (r *Runner) PassAt(index int) vk.RenderPass {
	return r.cache.PassAt(index)
}

// IndexOf returns the cache slot for a (color, depth) action pair.
func (r *Runner) IndexOf(color, depth RenderPassAction) int {
	return IndexOf(color, depth)
}

// RunSteps walks steps in order, dispatching each by its tag to the
// corresponding executor, and records the resulting commands onto rec. Each
// step is released from the queue immediately after it executes: the
// sequence is consumed destructively and is not re-runnable. A trace ID
// tags the whole call for correlation in logs.
func (r *Runner) RunSteps(rec Recorder, steps *containers.Queue[Step]) {
	traceID := uuid.NewString()
	core.LogDebug("queuerunner[%s]: running %d step(s)", traceID, steps.Len())

	for !steps.IsEmpty() {
		step, err := steps.Dequeue()
		if err != nil {
			// Dequeue only fails on an empty queue, which IsEmpty already
			// ruled out; treat it as a programming error.
			core.LogError("queuerunner[%s]: %s", traceID, err.Error())
			return
		}
		r.runStep(rec, step)
	}
}

func (r *Runner) runStep(rec Recorder, step Step) {
	switch s := step.(type) {
	case *RenderStep:
		r.render.run(rec, s)
	case *CopyStep:
		r.transfer.runCopy(rec, s)
	case *BlitStep:
		r.transfer.runBlit(rec, s)
	case *ReadbackStep:
		// Declared for interface completeness but not implemented: no
		// readback is recorded; the step is logged at WARN and skipped.
		core.LogWarn("queuerunner: Readback step received but readback delivery is not implemented, skipping")
	default:
		core.LogError("queuerunner: unrecognized step type %T, skipping", step)
	}
}
