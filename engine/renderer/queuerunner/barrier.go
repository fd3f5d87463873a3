package queuerunner

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// transferSideBarrier derives an ImageBarrier plus its contributing source
// stage from an image's current layout, targeting either TRANSFER_SRC or
// TRANSFER_DST. It mutates img.Layout to the new layout. Any current layout
// outside the enumerated table is a producer bug and panics rather than
// returning a partial barrier, matching the source's assert-crash policy
// for unreachable state-machine transitions.
func transferSideBarrier(img *Image, aspect vk.ImageAspectFlags, toSrc bool) (ImageBarrier, vk.PipelineStageFlags) {
	var srcAccess vk.AccessFlags
	var srcStage vk.PipelineStageFlags

	switch img.Layout {
	case vk.ImageLayoutColorAttachmentOptimal:
		if toSrc {
			srcAccess = vk.AccessFlags(vk.AccessColorAttachmentWriteBit | vk.AccessColorAttachmentReadBit)
		} else {
			srcAccess = vk.AccessFlags(vk.AccessColorAttachmentWriteBit)
		}
		srcStage = vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	case vk.ImageLayoutDepthStencilAttachmentOptimal:
		srcAccess = vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit | vk.PipelineStageLateFragmentTestsBit)
	case vk.ImageLayoutTransferSrcOptimal:
		srcAccess = vk.AccessFlags(vk.AccessTransferReadBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	case vk.ImageLayoutTransferDstOptimal:
		srcAccess = vk.AccessFlags(vk.AccessTransferWriteBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	case vk.ImageLayoutShaderReadOnlyOptimal:
		srcAccess = vk.AccessFlags(vk.AccessShaderReadBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	default:
		panic(fmt.Sprintf("queuerunner: image in unsupported layout %d cannot transition to a transfer layout", img.Layout))
	}

	var dstAccess vk.AccessFlags
	var newLayout vk.ImageLayout
	if toSrc {
		dstAccess = vk.AccessFlags(vk.AccessTransferReadBit)
		newLayout = vk.ImageLayoutTransferSrcOptimal
	} else {
		dstAccess = vk.AccessFlags(vk.AccessTransferWriteBit)
		newLayout = vk.ImageLayoutTransferDstOptimal
	}

	barrier := ImageBarrier{
		SrcAccessMask: srcAccess,
		DstAccessMask: dstAccess,
		OldLayout:     img.Layout,
		NewLayout:     newLayout,
		Image:         img.Handle,
		AspectMask:    aspect,
	}

	img.Layout = newLayout
	return barrier, srcStage
}

// toTransferSrc transitions img to TRANSFER_SRC_OPTIMAL if it isn't already
// there, returning the barrier (if any) and the source stage it contributes.
func toTransferSrc(img *Image, aspect vk.ImageAspectFlags) (*ImageBarrier, vk.PipelineStageFlags) {
	if img.Layout == vk.ImageLayoutTransferSrcOptimal {
		return nil, 0
	}
	b, stage := transferSideBarrier(img, aspect, true)
	return &b, stage
}

// toTransferDst transitions img to TRANSFER_DST_OPTIMAL if it isn't already
// there, returning the barrier (if any) and the source stage it contributes.
func toTransferDst(img *Image, aspect vk.ImageAspectFlags) (*ImageBarrier, vk.PipelineStageFlags) {
	if img.Layout == vk.ImageLayoutTransferDstOptimal {
		return nil, 0
	}
	b, stage := transferSideBarrier(img, aspect, false)
	return &b, stage
}

// preTransitionBarrier derives a barrier for a Render step's pre_transitions
// entry: the image's color layout moves to target, where target is
// currently only ever SHADER_READ_ONLY_OPTIMAL in practice. It returns the
// barrier and the source stage mask it contributes, and mutates img.Layout.
func preTransitionBarrier(img *Image, aspect vk.ImageAspectFlags, target vk.ImageLayout) (ImageBarrier, vk.PipelineStageFlags) {
	var srcAccess vk.AccessFlags
	var srcStage vk.PipelineStageFlags

	switch img.Layout {
	case vk.ImageLayoutColorAttachmentOptimal:
		srcAccess = vk.AccessFlags(vk.AccessColorAttachmentWriteBit | vk.AccessColorAttachmentReadBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	case vk.ImageLayoutTransferDstOptimal:
		srcAccess = vk.AccessFlags(vk.AccessTransferWriteBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	case vk.ImageLayoutTransferSrcOptimal:
		srcAccess = vk.AccessFlags(vk.AccessTransferReadBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	default:
		panic(fmt.Sprintf("queuerunner: pre_transition from unsupported layout %d", img.Layout))
	}

	var dstAccess vk.AccessFlags
	switch target {
	case vk.ImageLayoutShaderReadOnlyOptimal:
		dstAccess = vk.AccessFlags(vk.AccessShaderReadBit)
	default:
		panic(fmt.Sprintf("queuerunner: pre_transition to unsupported layout %d", target))
	}

	barrier := ImageBarrier{
		SrcAccessMask: srcAccess,
		DstAccessMask: dstAccess,
		OldLayout:     img.Layout,
		NewLayout:     target,
		Image:         img.Handle,
		AspectMask:    aspect,
	}
	img.Layout = target
	return barrier, srcStage
}
