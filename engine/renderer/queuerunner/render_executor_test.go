package queuerunner

import (
	"reflect"
	"testing"

	vk "github.com/goki/vulkan"
)

func newTestRunner(depthHasStencil bool) (*Runner, *fakeDeviceContext) {
	dc := &fakeDeviceContext{depthHasStencil: depthHasStencil}
	r := New(dc)
	// Populate the cache directly; CreateDeviceObjects would require a real
	// device handle to issue vkCreateRenderPass.
	for i := range r.cache.passes {
		r.cache.passes[i] = fakeRenderPass(i)
	}
	r.cache.backbufferPass = fakeRenderPass(9)
	return r, dc
}

// S1 - Backbuffer clear-and-draw.
func TestScenarioS1BackbufferClearAndDraw(t *testing.T) {
	r, _ := newTestRunner(false)
	r.SetBackbuffer(fakeFramebuffer(7), 800, 600)

	step := &RenderStep{
		Framebuffer: nil,
		ColorAction: ActionClear,
		DepthAction: ActionClear,
		ClearColor:  ClearColor{96, 32, 64, 255}, // normalizes to (0.376, 0.125, 0.251, 1.0)
		Commands: []RenderCommand{
			BindPipelineCmd{Handle: fakePipeline(1)},
			ViewportCmd{Rect: Rect2D{Width: 800, Height: 600}},
			ScissorCmd{Rect: Rect2D{Width: 800, Height: 600}},
			DrawCmd{VertexCount: 3},
		},
	}

	rec := &fakeRecorder{}
	r.render.run(rec, step)

	if len(rec.beginCalls) != 1 {
		t.Fatalf("expected 1 begin_render_pass call, got %d", len(rec.beginCalls))
	}
	begin := rec.beginCalls[0]
	if begin.pass != r.cache.BackbufferPass() {
		t.Errorf("expected the backbuffer render pass, got %v", begin.pass)
	}
	if len(begin.clearValues) != 2 {
		t.Fatalf("expected 2 clear values, got %d", len(begin.clearValues))
	}

	wantColor := colorClearValue(step.ClearColor.Normalized())
	if !reflect.DeepEqual(begin.clearValues[0], wantColor) {
		t.Errorf("clear_values[0] does not match the normalized clear color")
	}

	if len(rec.bindPipelineCalls) != 1 {
		t.Errorf("expected 1 bind_pipeline call, got %d", len(rec.bindPipelineCalls))
	}
	if len(rec.viewportCalls) != 1 {
		t.Errorf("expected 1 viewport call, got %d", len(rec.viewportCalls))
	}
	if len(rec.scissorCalls) != 1 {
		t.Errorf("expected 1 scissor call, got %d", len(rec.scissorCalls))
	}
	if len(rec.drawCalls) != 1 || rec.drawCalls[0] != 3 {
		t.Errorf("expected 1 draw call of 3 vertices, got %v", rec.drawCalls)
	}
	if rec.endCount != 1 {
		t.Errorf("expected 1 end_render_pass call, got %d", rec.endCount)
	}
}

// S2 - Offscreen render, then sample.
func TestScenarioS2OffscreenRenderThenSample(t *testing.T) {
	r, _ := newTestRunner(false)

	fb := &Framebuffer{
		Width: 256, Height: 256,
		Color: &Image{Layout: vk.ImageLayoutTransferDstOptimal},
		Depth: &Image{Layout: vk.ImageLayoutUndefined},
	}
	// The depth image must start outside DEPTH_STENCIL_ATTACHMENT_OPTIMAL to
	// exercise the depth-side barrier, and in a layout the attachment
	// transition table accepts (UNDEFINED is not one of them).
	fb.Depth.Layout = vk.ImageLayoutShaderReadOnlyOptimal

	step := &RenderStep{
		Framebuffer:      fb,
		ColorAction:      ActionKeep,
		DepthAction:      ActionClear,
		FinalColorLayout: vk.ImageLayoutShaderReadOnlyOptimal,
	}

	wantIndex := IndexOf(ActionKeep, ActionClear)
	if wantIndex != 5 {
		t.Fatalf("fixture error: expected index 5, got %d", wantIndex)
	}

	rec := &fakeRecorder{}
	r.render.run(rec, step)

	if len(rec.barrierCalls) < 1 {
		t.Fatal("expected at least one pre-render-pass barrier call")
	}
	preBarriers := rec.barrierCalls[0]
	if len(preBarriers.barriers) != 2 {
		t.Fatalf("expected color+depth barriers before the render pass, got %d", len(preBarriers.barriers))
	}
	colorBarrier := preBarriers.barriers[0]
	if colorBarrier.OldLayout != vk.ImageLayoutTransferDstOptimal || colorBarrier.NewLayout != vk.ImageLayoutColorAttachmentOptimal {
		t.Errorf("unexpected color barrier: %+v", colorBarrier)
	}

	begin := rec.beginCalls[0]
	if begin.pass != r.cache.PassAt(wantIndex) {
		t.Errorf("expected render pass at index %d", wantIndex)
	}

	// Post-transition barrier is the last barrier call.
	last := rec.barrierCalls[len(rec.barrierCalls)-1]
	if len(last.barriers) != 1 || last.barriers[0].NewLayout != vk.ImageLayoutShaderReadOnlyOptimal {
		t.Fatalf("expected a post barrier to SHADER_READ_ONLY_OPTIMAL, got %+v", last)
	}

	if fb.Color.Layout != vk.ImageLayoutShaderReadOnlyOptimal {
		t.Errorf("tracked color layout = %v, want SHADER_READ_ONLY_OPTIMAL", fb.Color.Layout)
	}
	if fb.Depth.Layout != vk.ImageLayoutDepthStencilAttachmentOptimal {
		t.Errorf("tracked depth layout = %v, want DEPTH_STENCIL_ATTACHMENT_OPTIMAL", fb.Depth.Layout)
	}
}

// S3 - Redundant pipeline bind.
func TestScenarioS3RedundantPipelineBind(t *testing.T) {
	r, _ := newTestRunner(false)
	r.SetBackbuffer(fakeFramebuffer(1), 64, 64)

	pipeline := fakePipeline(2)
	step := &RenderStep{
		Commands: []RenderCommand{
			BindPipelineCmd{Handle: pipeline},
			BindPipelineCmd{Handle: pipeline},
			DrawIndexedCmd{IndexCount: 6, InstanceCount: 1},
		},
	}

	rec := &fakeRecorder{}
	r.render.run(rec, step)

	if len(rec.bindPipelineCalls) != 1 {
		t.Fatalf("expected exactly 1 bind_pipeline call for a repeated handle, got %d", len(rec.bindPipelineCalls))
	}
	if len(rec.drawIndexedCalls) != 1 || rec.drawIndexedCalls[0].indexCount != 6 {
		t.Errorf("expected 1 indexed draw of 6 indices, got %v", rec.drawIndexedCalls)
	}
}

// S5 - Clear inside pass.
func TestScenarioS5ClearInsidePass(t *testing.T) {
	r, _ := newTestRunner(false)

	// An offscreen framebuffer already in its attachment layouts: the pass
	// comes from cache index 0 and no pre-pass barriers are needed.
	fb := &Framebuffer{
		Width: 128, Height: 128,
		Color: newImage(vk.ImageLayoutColorAttachmentOptimal),
		Depth: newImage(vk.ImageLayoutDepthStencilAttachmentOptimal),
	}

	step := &RenderStep{
		Framebuffer: fb,
		ColorAction: ActionDontCare,
		DepthAction: ActionDontCare,
		Commands: []RenderCommand{
			ClearCmd{
				Mask:    ClearColorBit | ClearDepthBit,
				Color:   ClearColor{128, 64, 32, 16},
				Depth:   1.0,
				Stencil: 0,
			},
		},
	}

	rec := &fakeRecorder{}
	r.render.run(rec, step)

	begin := rec.beginCalls[0]
	if len(begin.clearValues) != 0 {
		t.Errorf("expected clear_value_count = 0 for an all-DontCare pass, got %d", len(begin.clearValues))
	}

	if len(rec.clearCalls) != 1 {
		t.Fatalf("expected 1 clear_attachments call, got %d", len(rec.clearCalls))
	}
	if len(rec.clearCalls[0].attachments) != 2 {
		t.Fatalf("expected 2 clear attachments (color + depth), got %d", len(rec.clearCalls[0].attachments))
	}
}

func TestClearCommandWithEmptyMaskEmitsNoCommand(t *testing.T) {
	r, _ := newTestRunner(false)
	r.SetBackbuffer(fakeFramebuffer(1), 32, 32)

	step := &RenderStep{
		Commands: []RenderCommand{ClearCmd{Mask: 0}},
	}

	rec := &fakeRecorder{}
	r.render.run(rec, step)

	if len(rec.clearCalls) != 0 {
		t.Errorf("expected no clear_attachments call for an empty mask, got %d", len(rec.clearCalls))
	}
}
