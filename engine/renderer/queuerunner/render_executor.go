package queuerunner

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkqueuerunner/engine/core"
)

// renderExecutor handles Render steps: pre-transitions, render-pass begin,
// inline command replay, render-pass end, and an optional post-transition.
type renderExecutor struct {
	dc    DeviceContext
	cache *PassCache

	// backbuffer identifies the current swapchain-image framebuffer, set by
	// Runner.SetBackbuffer. A Render step with Framebuffer == nil targets
	// this.
	backbufferHandle vk.Framebuffer
	backbufferWidth  uint32
	backbufferHeight uint32
}

func (e *renderExecutor) depthAspect() vk.ImageAspectFlags {
	aspect := vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	if e.dc.DepthHasStencil() {
		aspect |= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
	}
	return aspect
}

func (e *renderExecutor) run(rec Recorder, step *RenderStep) {
	e.runPreTransitions(rec, step)

	fb := step.Framebuffer
	var clearValues []vk.ClearValue
	var pass vk.RenderPass
	var framebufferHandle vk.Framebuffer
	var area Rect2D

	if fb == nil {
		pass = e.cache.BackbufferPass()
		framebufferHandle = e.backbufferHandle
		area = Rect2D{Width: e.backbufferWidth, Height: e.backbufferHeight}
		clearValues = e.backbufferClearValues(step)
	} else {
		e.transitionFramebufferForRenderPass(rec, fb)
		pass = e.cache.PassFor(step.ColorAction, step.DepthAction)
		framebufferHandle = fb.Handle
		area = Rect2D{Width: fb.Width, Height: fb.Height}
		clearValues = e.offscreenClearValues(step)
	}

	rec.BeginRenderPass(pass, framebufferHandle, area, clearValues)
	e.replayCommands(rec, step)
	rec.EndRenderPass()

	e.runPostTransition(rec, step)
}

func (e *renderExecutor) runPreTransitions(rec Recorder, step *RenderStep) {
	var barriers []ImageBarrier
	var srcStage vk.PipelineStageFlags
	var dstStage vk.PipelineStageFlags

	for _, t := range step.PreTransitions {
		img := t.Framebuffer.Color
		if img.Layout == t.TargetLayout {
			continue
		}
		b, stage := preTransitionBarrier(img, vk.ImageAspectFlags(vk.ImageAspectColorBit), t.TargetLayout)
		barriers = append(barriers, b)
		srcStage |= stage
		dstStage |= dstStageFor(t.TargetLayout)
	}

	if len(barriers) > 0 {
		rec.PipelineBarrier(srcStage, dstStage, barriers)
	}
}

func dstStageFor(layout vk.ImageLayout) vk.PipelineStageFlags {
	switch layout {
	case vk.ImageLayoutShaderReadOnlyOptimal:
		return vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	default:
		core.LogError("queuerunner: unrecognized pre_transition target layout %d", layout)
		return 0
	}
}

// transitionFramebufferForRenderPass brings an offscreen framebuffer's color
// and depth images into their attachment-optimal layouts before the render
// pass begins, per §4.3's offscreen path.
func (e *renderExecutor) transitionFramebufferForRenderPass(rec Recorder, fb *Framebuffer) {
	var barriers []ImageBarrier
	var srcStage vk.PipelineStageFlags
	var dstStage vk.PipelineStageFlags

	if fb.Color.Layout != vk.ImageLayoutColorAttachmentOptimal {
		b, stage := attachmentSideBarrier(fb.Color, vk.ImageAspectFlags(vk.ImageAspectColorBit),
			vk.ImageLayoutColorAttachmentOptimal,
			vk.AccessFlags(vk.AccessColorAttachmentWriteBit|vk.AccessColorAttachmentReadBit),
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit))
		barriers = append(barriers, b)
		srcStage |= stage
		dstStage |= vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	}

	if fb.Depth.Layout != vk.ImageLayoutDepthStencilAttachmentOptimal {
		b, stage := attachmentSideBarrier(fb.Depth, e.depthAspect(),
			vk.ImageLayoutDepthStencilAttachmentOptimal,
			vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit|vk.AccessDepthStencilAttachmentReadBit),
			vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit|vk.PipelineStageLateFragmentTestsBit))
		barriers = append(barriers, b)
		srcStage |= stage
		dstStage |= vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit | vk.PipelineStageLateFragmentTestsBit)
	}

	if len(barriers) > 0 {
		rec.PipelineBarrier(srcStage, dstStage, barriers)
	}
}

// attachmentSideBarrier transitions img from its current (shader-read or
// transfer) layout to an attachment-optimal layout. It mutates img.Layout
// and returns the barrier plus the source stage it contributes.
func attachmentSideBarrier(img *Image, aspect vk.ImageAspectFlags, newLayout vk.ImageLayout, dstAccess vk.AccessFlags, _ vk.PipelineStageFlags) (ImageBarrier, vk.PipelineStageFlags) {
	var srcAccess vk.AccessFlags
	var srcStage vk.PipelineStageFlags

	switch img.Layout {
	case vk.ImageLayoutShaderReadOnlyOptimal:
		srcAccess = vk.AccessFlags(vk.AccessShaderReadBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	case vk.ImageLayoutTransferDstOptimal:
		srcAccess = vk.AccessFlags(vk.AccessTransferWriteBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	case vk.ImageLayoutTransferSrcOptimal:
		srcAccess = vk.AccessFlags(vk.AccessTransferReadBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	default:
		panic("queuerunner: image in unsupported layout for render-pass attachment transition")
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

func (e *renderExecutor) backbufferClearValues(step *RenderStep) []vk.ClearValue {
	color := step.ClearColor.Normalized()
	return []vk.ClearValue{
		colorClearValue(color),
		depthClearValue(0.0, 0),
	}
}

func (e *renderExecutor) offscreenClearValues(step *RenderStep) []vk.ClearValue {
	var values []vk.ClearValue
	if step.ColorAction == ActionClear {
		values = append(values, colorClearValue(step.ClearColor.Normalized()))
	}
	if step.DepthAction == ActionClear {
		if len(values) == 0 {
			// clear_value_count is 1 for color-only and 2 once depth also
			// clears; a depth-only clear still needs a placeholder color
			// slot so the depth clear lands at index 1.
			values = append(values, vk.ClearValue{})
		}
		values = append(values, depthClearValue(step.ClearDepth, step.ClearStencil))
	}
	return values
}

func colorClearValue(rgba [4]float32) vk.ClearValue {
	var v vk.ClearValue
	v.SetColor(rgba[:])
	return v
}

func depthClearValue(depth float32, stencil uint32) vk.ClearValue {
	var v vk.ClearValue
	v.SetDepthStencil(depth, stencil)
	return v
}

// replayCommands iterates step.Commands in order, eliminating redundant
// pipeline binds scoped to this step.
func (e *renderExecutor) replayCommands(rec Recorder, step *RenderStep) {
	var lastPipeline vk.Pipeline
	havePipeline := false

	for _, cmd := range step.Commands {
		switch c := cmd.(type) {
		case BindPipelineCmd:
			if havePipeline && c.Handle == lastPipeline {
				continue
			}
			rec.BindPipeline(c.Handle)
			lastPipeline = c.Handle
			havePipeline = true
		case ViewportCmd:
			rec.SetViewport(c.Rect)
		case ScissorCmd:
			rec.SetScissor(c.Rect)
		case BlendCmd:
			rec.SetBlendConstants(c.RGBA)
		case StencilCmd:
			rec.SetStencilState(c.WriteMask, c.CompareMask, c.Ref)
		case ClearCmd:
			e.replayClear(rec, step, c)
		case DrawCmd:
			rec.BindDescriptorSet(c.Layout, c.Descriptor, c.UBOOffsets)
			rec.BindVertexBuffer(c.VertexBuffer, c.VertexOffset)
			rec.Draw(c.VertexCount)
		case DrawIndexedCmd:
			rec.BindDescriptorSet(c.Layout, c.Descriptor, c.UBOOffsets)
			rec.BindIndexBuffer(c.IndexBuffer, c.IndexOffset, c.IndexType)
			rec.BindVertexBuffer(c.VertexBuffer, c.VertexOffset)
			rec.DrawIndexed(c.IndexCount, c.InstanceCount)
		default:
			core.LogError("queuerunner: unrecognized render command %T, skipping", cmd)
		}
	}
}

func (e *renderExecutor) replayClear(rec Recorder, step *RenderStep, c ClearCmd) {
	var attachments []vk.ClearAttachment

	if c.Mask&ClearColorBit != 0 {
		attachments = append(attachments, vk.ClearAttachment{
			AspectMask:      vk.ImageAspectFlags(vk.ImageAspectColorBit),
			ColorAttachment: 0,
			ClearValue:      colorClearValue(c.Color.Normalized()),
		})
	}

	var dsAspect vk.ImageAspectFlags
	if c.Mask&ClearDepthBit != 0 {
		dsAspect |= vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	}
	if c.Mask&ClearStencilBit != 0 {
		dsAspect |= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
	}
	if dsAspect != 0 {
		attachments = append(attachments, vk.ClearAttachment{
			AspectMask: dsAspect,
			ClearValue: depthClearValue(c.Depth, c.Stencil),
		})
	}

	if len(attachments) == 0 {
		return
	}

	var area Rect2D
	if step.Framebuffer == nil {
		area = Rect2D{Width: e.backbufferWidth, Height: e.backbufferHeight}
	} else {
		area = Rect2D{Width: step.Framebuffer.Width, Height: step.Framebuffer.Height}
	}
	rec.ClearAttachments(attachments, area)
}

func (e *renderExecutor) runPostTransition(rec Recorder, step *RenderStep) {
	if step.Framebuffer == nil || step.FinalColorLayout == vk.ImageLayoutUndefined {
		return
	}

	img := step.Framebuffer.Color
	var srcAccess vk.AccessFlags
	switch img.Layout {
	case vk.ImageLayoutColorAttachmentOptimal:
		srcAccess = vk.AccessFlags(vk.AccessColorAttachmentWriteBit | vk.AccessColorAttachmentReadBit)
	case vk.ImageLayoutTransferDstOptimal:
		srcAccess = vk.AccessFlags(vk.AccessTransferWriteBit)
	default:
		panic("queuerunner: post_transition from unsupported color layout")
	}

	var dstAccess vk.AccessFlags
	var dstStage vk.PipelineStageFlags
	switch step.FinalColorLayout {
	case vk.ImageLayoutShaderReadOnlyOptimal:
		dstAccess = vk.AccessFlags(vk.AccessShaderReadBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	default:
		panic("queuerunner: post_transition to unsupported color layout")
	}

	barrier := ImageBarrier{
		SrcAccessMask: srcAccess,
		DstAccessMask: dstAccess,
		OldLayout:     img.Layout,
		NewLayout:     step.FinalColorLayout,
		Image:         img.Handle,
		AspectMask:    vk.ImageAspectFlags(vk.ImageAspectColorBit),
	}
	img.Layout = step.FinalColorLayout

	rec.PipelineBarrier(vk.PipelineStageFlags(vk.PipelineStageAllGraphicsBit), dstStage, []ImageBarrier{barrier})
}
