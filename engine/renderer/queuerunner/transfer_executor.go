package queuerunner

import vk "github.com/goki/vulkan"

// transferExecutor handles Copy and Blit steps: dual-side layout
// transitions followed by the actual image-to-image transfer.
type transferExecutor struct {
	dc DeviceContext
}

func (e *transferExecutor) colorAspect() vk.ImageAspectFlags {
	return vk.ImageAspectFlags(vk.ImageAspectColorBit)
}

func (e *transferExecutor) depthStencilAspect() vk.ImageAspectFlags {
	aspect := vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	if e.dc.DepthHasStencil() {
		aspect |= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
	}
	return aspect
}

// transitionSides builds up to two pipeline barrier calls: one covering
// every source-side transition (dst stage TRANSFER) and one covering every
// destination-side transition (dst stage TRANSFER), per §4.4 steps 1-3.
func (e *transferExecutor) transitionSides(rec Recorder, src, dst *Framebuffer, aspect AspectMask) {
	var srcBarriers []ImageBarrier
	var srcStageAccum vk.PipelineStageFlags
	var dstBarriers []ImageBarrier
	var dstStageAccum vk.PipelineStageFlags

	addSide := func(img *Image, imgAspect vk.ImageAspectFlags, barriers *[]ImageBarrier, stageAccum *vk.PipelineStageFlags, toSrc bool) {
		var b *ImageBarrier
		var stage vk.PipelineStageFlags
		if toSrc {
			b, stage = toTransferSrc(img, imgAspect)
		} else {
			b, stage = toTransferDst(img, imgAspect)
		}
		if b != nil {
			*barriers = append(*barriers, *b)
			*stageAccum |= stage
		}
	}

	if aspect&AspectColor != 0 {
		addSide(src.Color, e.colorAspect(), &srcBarriers, &srcStageAccum, true)
		addSide(dst.Color, e.colorAspect(), &dstBarriers, &dstStageAccum, false)
	}
	// Depth and stencil are transitioned together; requesting either implies
	// both, matching the depth-stencil image's single combined layout.
	if aspect&(AspectDepth|AspectStencil) != 0 {
		addSide(src.Depth, e.depthStencilAspect(), &srcBarriers, &srcStageAccum, true)
		addSide(dst.Depth, e.depthStencilAspect(), &dstBarriers, &dstStageAccum, false)
	}

	if len(srcBarriers) > 0 {
		rec.PipelineBarrier(srcStageAccum, vk.PipelineStageFlags(vk.PipelineStageTransferBit), srcBarriers)
	}
	if len(dstBarriers) > 0 {
		rec.PipelineBarrier(dstStageAccum, vk.PipelineStageFlags(vk.PipelineStageTransferBit), dstBarriers)
	}
}

func (e *transferExecutor) runCopy(rec Recorder, step *CopyStep) {
	e.transitionSides(rec, step.Src, step.Dst, step.Aspect)

	if step.Aspect&AspectColor != 0 {
		region := imageCopyRegion(step.SrcRect, step.DstOffset, e.colorAspect())
		rec.CopyImage(step.Src.Color.Handle, step.Src.Color.Layout, step.Dst.Color.Handle, step.Dst.Color.Layout, region)
	}
	if step.Aspect&(AspectDepth|AspectStencil) != 0 {
		region := imageCopyRegion(step.SrcRect, step.DstOffset, e.depthStencilAspect())
		rec.CopyImage(step.Src.Depth.Handle, step.Src.Depth.Layout, step.Dst.Depth.Handle, step.Dst.Depth.Layout, region)
	}
}

func (e *transferExecutor) runBlit(rec Recorder, step *BlitStep) {
	e.transitionSides(rec, step.Src, step.Dst, step.Aspect)

	if step.Aspect&AspectColor != 0 {
		region := imageBlitRegion(step.SrcRect, step.DstRect, e.colorAspect())
		rec.BlitImage(step.Src.Color.Handle, step.Src.Color.Layout, step.Dst.Color.Handle, step.Dst.Color.Layout, region, step.Filter)
	}
	if step.Aspect&(AspectDepth|AspectStencil) != 0 {
		region := imageBlitRegion(step.SrcRect, step.DstRect, e.depthStencilAspect())
		rec.BlitImage(step.Src.Depth.Handle, step.Src.Depth.Layout, step.Dst.Depth.Handle, step.Dst.Depth.Layout, region, step.Filter)
	}
}

func imageCopyRegion(srcRect Rect2D, dstOffset Offset2D, aspect vk.ImageAspectFlags) vk.ImageCopy {
	subresource := vk.ImageSubresourceLayers{
		AspectMask:     aspect,
		MipLevel:       0,
		BaseArrayLayer: 0,
		LayerCount:     1,
	}
	return vk.ImageCopy{
		SrcSubresource: subresource,
		SrcOffset:      vk.Offset3D{X: srcRect.X, Y: srcRect.Y, Z: 0},
		DstSubresource: subresource,
		DstOffset:      vk.Offset3D{X: dstOffset.X, Y: dstOffset.Y, Z: 0},
		Extent: vk.Extent3D{
			Width:  srcRect.Width,
			Height: srcRect.Height,
			Depth:  1,
		},
	}
}

func imageBlitRegion(srcRect, dstRect Rect2D, aspect vk.ImageAspectFlags) vk.ImageBlit {
	subresource := vk.ImageSubresourceLayers{
		AspectMask:     aspect,
		MipLevel:       0,
		BaseArrayLayer: 0,
		LayerCount:     1,
	}
	return vk.ImageBlit{
		SrcSubresource: subresource,
		SrcOffsets: [2]vk.Offset3D{
			{X: srcRect.X, Y: srcRect.Y, Z: 0},
			{X: srcRect.X + int32(srcRect.Width), Y: srcRect.Y + int32(srcRect.Height), Z: 1},
		},
		DstSubresource: subresource,
		DstOffsets: [2]vk.Offset3D{
			{X: dstRect.X, Y: dstRect.Y, Z: 0},
			{X: dstRect.X + int32(dstRect.Width), Y: dstRect.Y + int32(dstRect.Height), Z: 1},
		},
	}
}
