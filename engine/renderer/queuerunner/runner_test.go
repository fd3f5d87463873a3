package queuerunner

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkqueuerunner/engine/containers"
)

func TestIndexOfAccessor(t *testing.T) {
	r := New(&fakeDeviceContext{})
	if got := r.IndexOf(ActionKeep, ActionClear); got != 5 {
		t.Errorf("Runner.IndexOf(Keep, Clear) = %d, want 5", got)
	}
	if got := r.IndexOf(ActionDontCare, ActionDontCare); got != 0 {
		t.Errorf("Runner.IndexOf(DontCare, DontCare) = %d, want 0", got)
	}
}

func TestRunStepsDispatchesEachStepByTagAndDrainsTheQueue(t *testing.T) {
	r, _ := newTestRunner(false)
	r.SetBackbuffer(fakeFramebuffer(1), 16, 16)

	src := &Framebuffer{Width: 16, Height: 16, Color: newImage(vk.ImageLayoutColorAttachmentOptimal), Depth: newImage(vk.ImageLayoutDepthStencilAttachmentOptimal)}
	dst := &Framebuffer{Width: 16, Height: 16, Color: newImage(vk.ImageLayoutShaderReadOnlyOptimal), Depth: newImage(vk.ImageLayoutDepthStencilAttachmentOptimal)}

	steps := containers.NewQueue[Step](4)
	mustEnqueue(t, steps, &RenderStep{ColorAction: ActionClear, DepthAction: ActionClear})
	mustEnqueue(t, steps, &CopyStep{Src: src, Dst: dst, Aspect: AspectColor})
	mustEnqueue(t, steps, &ReadbackStep{Src: src})

	rec := &fakeRecorder{}
	r.RunSteps(rec, steps)

	if !steps.IsEmpty() {
		t.Errorf("expected run_steps to drain the queue, %d step(s) remain", steps.Len())
	}
	if rec.endCount != 1 {
		t.Errorf("expected the Render step to run, got %d end_render_pass calls", rec.endCount)
	}
	if len(rec.copyCalls) != 1 {
		t.Errorf("expected the Copy step to run, got %d copy calls", len(rec.copyCalls))
	}
}

func mustEnqueue(t *testing.T, q *containers.Queue[Step], s Step) {
	t.Helper()
	if err := q.Enqueue(s); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
}
