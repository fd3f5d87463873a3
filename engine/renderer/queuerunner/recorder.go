package queuerunner

import vk "github.com/goki/vulkan"

// ImageBarrier is the subset of vk.ImageMemoryBarrier fields the barrier
// builder derives; Recorder implementations translate it into the real
// Vulkan struct at the call site.
type ImageBarrier struct {
	SrcAccessMask vk.AccessFlags
	DstAccessMask vk.AccessFlags
	OldLayout     vk.ImageLayout
	NewLayout     vk.ImageLayout
	Image         vk.Image
	AspectMask    vk.ImageAspectFlags
}

// Recorder is the command-buffer surface the executors record onto. The
// production implementation forwards to the real vk.Cmd* functions; tests
// substitute a fake that captures calls for assertion, since run_steps must
// be verifiable without a GPU.
type Recorder interface {
	PipelineBarrier(srcStage, dstStage vk.PipelineStageFlags, barriers []ImageBarrier)
	BeginRenderPass(pass vk.RenderPass, framebuffer vk.Framebuffer, area Rect2D, clearValues []vk.ClearValue)
	EndRenderPass()
	BindPipeline(handle vk.Pipeline)
	SetViewport(rect Rect2D)
	SetScissor(rect Rect2D)
	SetBlendConstants(rgba [4]float32)
	SetStencilState(writeMask, compareMask, ref uint32)
	BindDescriptorSet(layout vk.PipelineLayout, set vk.DescriptorSet, uboOffsets []uint32)
	BindVertexBuffer(buf vk.Buffer, offset uint64)
	BindIndexBuffer(buf vk.Buffer, offset uint64, indexType vk.IndexType)
	Draw(vertexCount uint32)
	DrawIndexed(indexCount, instanceCount uint32)
	ClearAttachments(attachments []vk.ClearAttachment, rect Rect2D)
	CopyImage(src vk.Image, srcLayout vk.ImageLayout, dst vk.Image, dstLayout vk.ImageLayout, region vk.ImageCopy)
	BlitImage(src vk.Image, srcLayout vk.ImageLayout, dst vk.Image, dstLayout vk.ImageLayout, region vk.ImageBlit, filter vk.Filter)
}

// vkRecorder is the production Recorder, forwarding every call to the real
// goki/vulkan command functions against a live command buffer handle.
type vkRecorder struct {
	cmd vk.CommandBuffer
}

// NewRecorder wraps a recording-ready command buffer handle for use by
// Runner.RunSteps.
func NewRecorder(cmd vk.CommandBuffer) Recorder {
	return &vkRecorder{cmd: cmd}
}

func (r *vkRecorder) PipelineBarrier(srcStage, dstStage vk.PipelineStageFlags, barriers []ImageBarrier) {
	if len(barriers) == 0 {
		return
	}
	vkBarriers := make([]vk.ImageMemoryBarrier, len(barriers))
	for i, b := range barriers {
		vkBarriers[i] = vk.ImageMemoryBarrier{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       b.SrcAccessMask,
			DstAccessMask:       b.DstAccessMask,
			OldLayout:           b.OldLayout,
			NewLayout:           b.NewLayout,
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               b.Image,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     b.AspectMask,
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}
	}
	vk.CmdPipelineBarrier(r.cmd, srcStage, dstStage, 0, 0, nil, 0, nil, uint32(len(vkBarriers)), vkBarriers)
}

func (r *vkRecorder) BeginRenderPass(pass vk.RenderPass, framebuffer vk.Framebuffer, area Rect2D, clearValues []vk.ClearValue) {
	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  pass,
		Framebuffer: framebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: area.X, Y: area.Y},
			Extent: vk.Extent2D{Width: area.Width, Height: area.Height},
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(r.cmd, &beginInfo, vk.SubpassContentsInline)
}

func (r *vkRecorder) EndRenderPass() {
	vk.CmdEndRenderPass(r.cmd)
}

func (r *vkRecorder) BindPipeline(handle vk.Pipeline) {
	vk.CmdBindPipeline(r.cmd, vk.PipelineBindPointGraphics, handle)
}

func (r *vkRecorder) SetViewport(rect Rect2D) {
	vk.CmdSetViewport(r.cmd, 0, 1, []vk.Viewport{{
		X: float32(rect.X), Y: float32(rect.Y),
		Width: float32(rect.Width), Height: float32(rect.Height),
		MinDepth: 0.0, MaxDepth: 1.0,
	}})
}

func (r *vkRecorder) SetScissor(rect Rect2D) {
	vk.CmdSetScissor(r.cmd, 0, 1, []vk.Rect2D{{
		Offset: vk.Offset2D{X: rect.X, Y: rect.Y},
		Extent: vk.Extent2D{Width: rect.Width, Height: rect.Height},
	}})
}

func (r *vkRecorder) SetBlendConstants(rgba [4]float32) {
	vk.CmdSetBlendConstants(r.cmd, &rgba)
}

func (r *vkRecorder) SetStencilState(writeMask, compareMask, ref uint32) {
	vk.CmdSetStencilWriteMask(r.cmd, vk.StencilFaceFlags(vk.StencilFrontAndBack), writeMask)
	vk.CmdSetStencilCompareMask(r.cmd, vk.StencilFaceFlags(vk.StencilFrontAndBack), compareMask)
	vk.CmdSetStencilReference(r.cmd, vk.StencilFaceFlags(vk.StencilFrontAndBack), ref)
}

func (r *vkRecorder) BindDescriptorSet(layout vk.PipelineLayout, set vk.DescriptorSet, uboOffsets []uint32) {
	vk.CmdBindDescriptorSets(r.cmd, vk.PipelineBindPointGraphics, layout, 0, 1,
		[]vk.DescriptorSet{set}, uint32(len(uboOffsets)), uboOffsets)
}

func (r *vkRecorder) BindVertexBuffer(buf vk.Buffer, offset uint64) {
	vk.CmdBindVertexBuffers(r.cmd, 0, 1, []vk.Buffer{buf}, []vk.DeviceSize{vk.DeviceSize(offset)})
}

func (r *vkRecorder) BindIndexBuffer(buf vk.Buffer, offset uint64, indexType vk.IndexType) {
	vk.CmdBindIndexBuffer(r.cmd, buf, vk.DeviceSize(offset), indexType)
}

func (r *vkRecorder) Draw(vertexCount uint32) {
	vk.CmdDraw(r.cmd, vertexCount, 1, 0, 0)
}

func (r *vkRecorder) DrawIndexed(indexCount, instanceCount uint32) {
	vk.CmdDrawIndexed(r.cmd, indexCount, instanceCount, 0, 0, 0)
}

func (r *vkRecorder) ClearAttachments(attachments []vk.ClearAttachment, rect Rect2D) {
	if len(attachments) == 0 {
		return
	}
	clearRect := vk.ClearRect{
		Rect: vk.Rect2D{
			Offset: vk.Offset2D{X: rect.X, Y: rect.Y},
			Extent: vk.Extent2D{Width: rect.Width, Height: rect.Height},
		},
		BaseArrayLayer: 0,
		LayerCount:     1,
	}
	vk.CmdClearAttachments(r.cmd, uint32(len(attachments)), attachments, 1, []vk.ClearRect{clearRect})
}

func (r *vkRecorder) CopyImage(src vk.Image, srcLayout vk.ImageLayout, dst vk.Image, dstLayout vk.ImageLayout, region vk.ImageCopy) {
	vk.CmdCopyImage(r.cmd, src, srcLayout, dst, dstLayout, 1, []vk.ImageCopy{region})
}

func (r *vkRecorder) BlitImage(src vk.Image, srcLayout vk.ImageLayout, dst vk.Image, dstLayout vk.ImageLayout, region vk.ImageBlit, filter vk.Filter) {
	vk.CmdBlitImage(r.cmd, src, srcLayout, dst, dstLayout, 1, []vk.ImageBlit{region}, filter)
}
