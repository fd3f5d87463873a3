package queuerunner

import (
	"testing"

	vk "github.com/goki/vulkan"
)

func TestToTransferSrcIdempotent(t *testing.T) {
	img := &Image{Layout: vk.ImageLayoutTransferSrcOptimal}
	b, stage := toTransferSrc(img, vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if b != nil {
		t.Fatalf("expected no barrier when already in TRANSFER_SRC_OPTIMAL, got %+v", b)
	}
	if stage != 0 {
		t.Fatalf("expected zero stage mask, got %v", stage)
	}
	if img.Layout != vk.ImageLayoutTransferSrcOptimal {
		t.Fatalf("layout must not change on a no-op transition, got %v", img.Layout)
	}
}

func TestToTransferDstIdempotent(t *testing.T) {
	img := &Image{Layout: vk.ImageLayoutTransferDstOptimal}
	b, _ := toTransferDst(img, vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if b != nil {
		t.Fatalf("expected no barrier when already in TRANSFER_DST_OPTIMAL, got %+v", b)
	}
}

func TestToTransferSrcFromColorAttachment(t *testing.T) {
	img := &Image{Layout: vk.ImageLayoutColorAttachmentOptimal}
	b, stage := toTransferSrc(img, vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if b == nil {
		t.Fatal("expected a barrier")
	}
	if b.OldLayout != vk.ImageLayoutColorAttachmentOptimal || b.NewLayout != vk.ImageLayoutTransferSrcOptimal {
		t.Errorf("unexpected layout transition: %v -> %v", b.OldLayout, b.NewLayout)
	}
	if b.SrcAccessMask != vk.AccessFlags(vk.AccessColorAttachmentWriteBit|vk.AccessColorAttachmentReadBit) {
		t.Errorf("unexpected src access mask: %v", b.SrcAccessMask)
	}
	if b.DstAccessMask != vk.AccessFlags(vk.AccessTransferReadBit) {
		t.Errorf("unexpected dst access mask: %v", b.DstAccessMask)
	}
	if stage != vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit) {
		t.Errorf("unexpected src stage: %v", stage)
	}
	if img.Layout != vk.ImageLayoutTransferSrcOptimal {
		t.Errorf("image layout not mutated, got %v", img.Layout)
	}
}

func TestToTransferDstFromColorAttachmentUsesWriteOnly(t *testing.T) {
	img := &Image{Layout: vk.ImageLayoutColorAttachmentOptimal}
	b, _ := toTransferDst(img, vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if b.SrcAccessMask != vk.AccessFlags(vk.AccessColorAttachmentWriteBit) {
		t.Errorf("to_dst from COLOR_ATTACHMENT_OPTIMAL should use write-only access, got %v", b.SrcAccessMask)
	}
}

func TestTransferSideBarrierUnknownLayoutPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unenumerated current layout")
		}
	}()
	img := &Image{Layout: vk.ImageLayoutPresentSrc}
	toTransferSrc(img, vk.ImageAspectFlags(vk.ImageAspectColorBit))
}

func TestPreTransitionBarrierFromTransferDst(t *testing.T) {
	img := &Image{Layout: vk.ImageLayoutTransferDstOptimal}
	b, stage := preTransitionBarrier(img, vk.ImageAspectFlags(vk.ImageAspectColorBit), vk.ImageLayoutShaderReadOnlyOptimal)
	if b.NewLayout != vk.ImageLayoutShaderReadOnlyOptimal {
		t.Errorf("expected new layout SHADER_READ_ONLY_OPTIMAL, got %v", b.NewLayout)
	}
	if stage != vk.PipelineStageFlags(vk.PipelineStageTransferBit) {
		t.Errorf("unexpected src stage: %v", stage)
	}
	if img.Layout != vk.ImageLayoutShaderReadOnlyOptimal {
		t.Errorf("image layout not updated, got %v", img.Layout)
	}
}
