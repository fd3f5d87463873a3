package queuerunner

import (
	"testing"

	vk "github.com/goki/vulkan"
)

func newImage(layout vk.ImageLayout) *Image {
	return &Image{Layout: layout}
}

// S4 - Color blit between two offscreen framebuffers.
func TestScenarioS4ColorBlit(t *testing.T) {
	e := transferExecutor{dc: &fakeDeviceContext{}}

	src := &Framebuffer{Width: 128, Height: 128, Color: newImage(vk.ImageLayoutColorAttachmentOptimal), Depth: newImage(vk.ImageLayoutDepthStencilAttachmentOptimal)}
	dst := &Framebuffer{Width: 64, Height: 64, Color: newImage(vk.ImageLayoutShaderReadOnlyOptimal), Depth: newImage(vk.ImageLayoutDepthStencilAttachmentOptimal)}

	step := &BlitStep{
		Src: src, Dst: dst,
		SrcRect: Rect2D{Width: 128, Height: 128},
		DstRect: Rect2D{Width: 64, Height: 64},
		Aspect:  AspectColor,
		Filter:  vk.FilterLinear,
	}

	rec := &fakeRecorder{}
	e.runBlit(rec, step)

	if len(rec.barrierCalls) != 2 {
		t.Fatalf("expected 2 barrier calls (src side, dst side), got %d", len(rec.barrierCalls))
	}
	if len(rec.barrierCalls[0].barriers) != 1 || rec.barrierCalls[0].barriers[0].NewLayout != vk.ImageLayoutTransferSrcOptimal {
		t.Errorf("expected the source image transitioned to TRANSFER_SRC_OPTIMAL first, got %+v", rec.barrierCalls[0])
	}
	if len(rec.barrierCalls[1].barriers) != 1 || rec.barrierCalls[1].barriers[0].NewLayout != vk.ImageLayoutTransferDstOptimal {
		t.Errorf("expected the dest image transitioned to TRANSFER_DST_OPTIMAL second, got %+v", rec.barrierCalls[1])
	}

	if len(rec.blitCalls) != 1 {
		t.Fatalf("expected 1 blit call, got %d", len(rec.blitCalls))
	}
	if rec.blitCalls[0].filter != vk.FilterLinear {
		t.Errorf("expected the requested filter to be forwarded, got %v", rec.blitCalls[0].filter)
	}
	if len(rec.copyCalls) != 0 {
		t.Errorf("a blit step must not issue copy calls, got %d", len(rec.copyCalls))
	}

	if src.Color.Layout != vk.ImageLayoutTransferSrcOptimal {
		t.Errorf("src color layout = %v, want TRANSFER_SRC_OPTIMAL", src.Color.Layout)
	}
	if dst.Color.Layout != vk.ImageLayoutTransferDstOptimal {
		t.Errorf("dst color layout = %v, want TRANSFER_DST_OPTIMAL", dst.Color.Layout)
	}
	// Depth sides must be untouched by a color-only blit.
	if src.Depth.Layout != vk.ImageLayoutDepthStencilAttachmentOptimal {
		t.Errorf("src depth layout changed unexpectedly: %v", src.Depth.Layout)
	}
}

// S6 - Copy of both color and depth between two framebuffers already sitting
// in their natural attachment-optimal layouts.
func TestScenarioS6CopyColorAndDepth(t *testing.T) {
	e := transferExecutor{dc: &fakeDeviceContext{depthHasStencil: true}}

	src := &Framebuffer{Width: 256, Height: 256, Color: newImage(vk.ImageLayoutColorAttachmentOptimal), Depth: newImage(vk.ImageLayoutDepthStencilAttachmentOptimal)}
	dst := &Framebuffer{Width: 256, Height: 256, Color: newImage(vk.ImageLayoutColorAttachmentOptimal), Depth: newImage(vk.ImageLayoutDepthStencilAttachmentOptimal)}

	step := &CopyStep{
		Src: src, Dst: dst,
		SrcRect:   Rect2D{Width: 256, Height: 256},
		DstOffset: Offset2D{},
		Aspect:    AspectColor | AspectDepth,
	}

	rec := &fakeRecorder{}
	e.runCopy(rec, step)

	if len(rec.barrierCalls) != 2 {
		t.Fatalf("expected 2 barrier calls, got %d", len(rec.barrierCalls))
	}
	if len(rec.barrierCalls[0].barriers) != 2 {
		t.Fatalf("expected the source-side barrier call to cover both color and depth, got %d", len(rec.barrierCalls[0].barriers))
	}
	if len(rec.barrierCalls[1].barriers) != 2 {
		t.Fatalf("expected the dest-side barrier call to cover both color and depth, got %d", len(rec.barrierCalls[1].barriers))
	}

	if len(rec.copyCalls) != 2 {
		t.Fatalf("expected 2 copy calls (color, depth), got %d", len(rec.copyCalls))
	}
	wantAspect := e.depthStencilAspect()
	if wantAspect&vk.ImageAspectFlags(vk.ImageAspectStencilBit) == 0 {
		t.Fatalf("fixture error: depth_has_stencil should add STENCIL to the aspect mask")
	}
	depthCopy := rec.copyCalls[1]
	if depthCopy.region.SrcSubresource.AspectMask != wantAspect {
		t.Errorf("depth copy aspect mask = %v, want %v (DEPTH|STENCIL)", depthCopy.region.SrcSubresource.AspectMask, wantAspect)
	}

	if src.Color.Layout != vk.ImageLayoutTransferSrcOptimal || src.Depth.Layout != vk.ImageLayoutTransferSrcOptimal {
		t.Errorf("src images must end up in TRANSFER_SRC_OPTIMAL, got color=%v depth=%v", src.Color.Layout, src.Depth.Layout)
	}
	if dst.Color.Layout != vk.ImageLayoutTransferDstOptimal || dst.Depth.Layout != vk.ImageLayoutTransferDstOptimal {
		t.Errorf("dst images must end up in TRANSFER_DST_OPTIMAL, got color=%v depth=%v", dst.Color.Layout, dst.Depth.Layout)
	}
}

func TestTransitionSidesSkipsNoopTransitions(t *testing.T) {
	e := transferExecutor{dc: &fakeDeviceContext{}}

	src := &Framebuffer{Color: newImage(vk.ImageLayoutTransferSrcOptimal), Depth: newImage(vk.ImageLayoutDepthStencilAttachmentOptimal)}
	dst := &Framebuffer{Color: newImage(vk.ImageLayoutTransferDstOptimal), Depth: newImage(vk.ImageLayoutDepthStencilAttachmentOptimal)}

	rec := &fakeRecorder{}
	e.transitionSides(rec, src, dst, AspectColor)

	if len(rec.barrierCalls) != 0 {
		t.Errorf("expected no barrier calls when both sides are already in their transfer layouts, got %d", len(rec.barrierCalls))
	}
}
