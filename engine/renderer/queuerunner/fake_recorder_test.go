package queuerunner

import (
	"unsafe"

	vk "github.com/goki/vulkan"
)

// handleArena backs the fake Vulkan handles used throughout this package's
// tests. goki/vulkan handles are C pointer types, so each fake needs a
// distinct real address rather than an integer literal.
var handleArena [64]byte

func fakeRenderPass(i int) vk.RenderPass {
	return vk.RenderPass(unsafe.Pointer(&handleArena[i]))
}

func fakeFramebuffer(i int) vk.Framebuffer {
	return vk.Framebuffer(unsafe.Pointer(&handleArena[16+i]))
}

func fakePipeline(i int) vk.Pipeline {
	return vk.Pipeline(unsafe.Pointer(&handleArena[32+i]))
}

// fakeRecorder captures every call made through the Recorder interface so
// tests can assert on call counts and arguments without a real GPU.
type fakeRecorder struct {
	barrierCalls []barrierCall
	beginCalls   []beginCall
	endCount     int

	bindPipelineCalls []vk.Pipeline
	viewportCalls     []Rect2D
	scissorCalls      []Rect2D
	blendCalls        [][4]float32
	stencilCalls      []stencilCall

	descriptorCalls []descriptorCall
	vertexCalls     []vertexCall
	indexCalls      []indexCall

	drawCalls        []uint32
	drawIndexedCalls []drawIndexedCall

	clearCalls []clearCall
	copyCalls  []copyCall
	blitCalls  []blitCall
}

type barrierCall struct {
	srcStage, dstStage vk.PipelineStageFlags
	barriers           []ImageBarrier
}

type beginCall struct {
	pass        vk.RenderPass
	framebuffer vk.Framebuffer
	area        Rect2D
	clearValues []vk.ClearValue
}

type stencilCall struct{ writeMask, compareMask, ref uint32 }

type descriptorCall struct {
	layout     vk.PipelineLayout
	set        vk.DescriptorSet
	uboOffsets []uint32
}

type vertexCall struct {
	buf    vk.Buffer
	offset uint64
}

type indexCall struct {
	buf       vk.Buffer
	offset    uint64
	indexType vk.IndexType
}

type drawIndexedCall struct{ indexCount, instanceCount uint32 }

type clearCall struct {
	attachments []vk.ClearAttachment
	rect        Rect2D
}

type copyCall struct {
	src, dst             vk.Image
	srcLayout, dstLayout vk.ImageLayout
	region               vk.ImageCopy
}

type blitCall struct {
	src, dst             vk.Image
	srcLayout, dstLayout vk.ImageLayout
	region               vk.ImageBlit
	filter               vk.Filter
}

func (f *fakeRecorder) PipelineBarrier(srcStage, dstStage vk.PipelineStageFlags, barriers []ImageBarrier) {
	f.barrierCalls = append(f.barrierCalls, barrierCall{srcStage, dstStage, barriers})
}

func (f *fakeRecorder) BeginRenderPass(pass vk.RenderPass, framebuffer vk.Framebuffer, area Rect2D, clearValues []vk.ClearValue) {
	f.beginCalls = append(f.beginCalls, beginCall{pass, framebuffer, area, clearValues})
}

func (f *fakeRecorder) EndRenderPass() { f.endCount++ }

func (f *fakeRecorder) BindPipeline(handle vk.Pipeline) {
	f.bindPipelineCalls = append(f.bindPipelineCalls, handle)
}

func (f *fakeRecorder) SetViewport(rect Rect2D) { f.viewportCalls = append(f.viewportCalls, rect) }
func (f *fakeRecorder) SetScissor(rect Rect2D)  { f.scissorCalls = append(f.scissorCalls, rect) }
func (f *fakeRecorder) SetBlendConstants(rgba [4]float32) {
	f.blendCalls = append(f.blendCalls, rgba)
}
func (f *fakeRecorder) SetStencilState(writeMask, compareMask, ref uint32) {
	f.stencilCalls = append(f.stencilCalls, stencilCall{writeMask, compareMask, ref})
}

func (f *fakeRecorder) BindDescriptorSet(layout vk.PipelineLayout, set vk.DescriptorSet, uboOffsets []uint32) {
	f.descriptorCalls = append(f.descriptorCalls, descriptorCall{layout, set, uboOffsets})
}

func (f *fakeRecorder) BindVertexBuffer(buf vk.Buffer, offset uint64) {
	f.vertexCalls = append(f.vertexCalls, vertexCall{buf, offset})
}

func (f *fakeRecorder) BindIndexBuffer(buf vk.Buffer, offset uint64, indexType vk.IndexType) {
	f.indexCalls = append(f.indexCalls, indexCall{buf, offset, indexType})
}

func (f *fakeRecorder) Draw(vertexCount uint32) { f.drawCalls = append(f.drawCalls, vertexCount) }

func (f *fakeRecorder) DrawIndexed(indexCount, instanceCount uint32) {
	f.drawIndexedCalls = append(f.drawIndexedCalls, drawIndexedCall{indexCount, instanceCount})
}

func (f *fakeRecorder) ClearAttachments(attachments []vk.ClearAttachment, rect Rect2D) {
	f.clearCalls = append(f.clearCalls, clearCall{attachments, rect})
}

func (f *fakeRecorder) CopyImage(src vk.Image, srcLayout vk.ImageLayout, dst vk.Image, dstLayout vk.ImageLayout, region vk.ImageCopy) {
	f.copyCalls = append(f.copyCalls, copyCall{src, dst, srcLayout, dstLayout, region})
}

func (f *fakeRecorder) BlitImage(src vk.Image, srcLayout vk.ImageLayout, dst vk.Image, dstLayout vk.ImageLayout, region vk.ImageBlit, filter vk.Filter) {
	f.blitCalls = append(f.blitCalls, blitCall{src, dst, srcLayout, dstLayout, region, filter})
}

// fakeDeviceContext is a minimal DeviceContext for tests that never touch a
// real Vulkan device.
type fakeDeviceContext struct {
	depthHasStencil bool
}

func (f *fakeDeviceContext) LogicalDevice() vk.Device           { return nil }
func (f *fakeDeviceContext) Allocator() *vk.AllocationCallbacks { return nil }
func (f *fakeDeviceContext) SwapchainFormat() vk.Format         { return vk.FormatB8g8r8a8Unorm }
func (f *fakeDeviceContext) PreferredDepthStencilFormat() vk.Format {
	if f.depthHasStencil {
		return vk.FormatD24UnormS8Uint
	}
	return vk.FormatD32Sfloat
}
func (f *fakeDeviceContext) DepthHasStencil() bool { return f.depthHasStencil }
