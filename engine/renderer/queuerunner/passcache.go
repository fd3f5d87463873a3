package queuerunner

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// DeviceContext is the slice of the Device Context collaborator the pass
// cache needs: the logical device handle plus the two formats that drive
// render-pass attachment descriptions.
type DeviceContext interface {
	LogicalDevice() vk.Device
	Allocator() *vk.AllocationCallbacks
	SwapchainFormat() vk.Format
	PreferredDepthStencilFormat() vk.Format
	// DepthHasStencil reports whether PreferredDepthStencilFormat carries a
	// stencil plane; the render executor uses this to include STENCIL in
	// depth-aspect barriers uniformly, rather than DEPTH alone.
	DepthHasStencil() bool
}

// OffscreenColorFormat is fixed regardless of swapchain format: offscreen
// render targets are always sampled later, and R8G8B8A8_UNORM is the
// universally supported sampled-image format. Device selection verifies the
// chosen physical device can render to, sample from and blit it before the
// cache is ever built.
const OffscreenColorFormat = vk.FormatR8g8b8a8Unorm

// PassCache owns the fixed 3x3 table of offscreen render passes plus the
// single distinguished backbuffer render pass. It is populated exactly once
// in CreateDeviceObjects and torn down exactly once in DestroyDeviceObjects.
type PassCache struct {
	passes         [9]vk.RenderPass
	backbufferPass vk.RenderPass
}

// IndexOf returns the cache slot for a given (color, depth) action pair.
// This defines the cache layout and MUST match the order used to populate
// the table in CreateDeviceObjects.
func IndexOf(color, depth RenderPassAction) int {
	return int(depth)*3 + int(color)
}

// loadOpFor maps a RenderPassAction to the Vulkan attachment load op it
// implies.
func loadOpFor(action RenderPassAction) vk.AttachmentLoadOp {
	switch action {
	case ActionClear:
		return vk.AttachmentLoadOpClear
	case ActionKeep:
		return vk.AttachmentLoadOpLoad
	case ActionDontCare:
		return vk.AttachmentLoadOpDontCare
	default:
		panic(fmt.Sprintf("queuerunner: unknown render-pass action %d", action))
	}
}

// CreateDeviceObjects builds the backbuffer render pass and all nine
// offscreen render passes. It must run after the device handle is
// available and before any call to Runner.RunSteps.
func (c *PassCache) CreateDeviceObjects(dc DeviceContext) error {
	backbuffer, err := createBackbufferPass(dc)
	if err != nil {
		return fmt.Errorf("queuerunner: creating backbuffer pass: %w", err)
	}
	c.backbufferPass = backbuffer

	for color := ActionDontCare; color <= ActionKeep; color++ {
		for depth := ActionDontCare; depth <= ActionKeep; depth++ {
			pass, err := createOffscreenPass(dc, color, depth)
			if err != nil {
				return fmt.Errorf("queuerunner: creating offscreen pass (color=%s depth=%s): %w", color, depth, err)
			}
			c.passes[IndexOf(color, depth)] = pass
		}
	}
	return nil
}

// DestroyDeviceObjects tears down every cached render pass. A nil entry at
// this point is a fatal invariant violation: the cache must have been fully
// populated by CreateDeviceObjects and never partially cleared before this
// call.
func (c *PassCache) DestroyDeviceObjects(dc DeviceContext) {
	if c.backbufferPass == nil {
		panic("queuerunner: backbuffer render pass is nil at destroy_device_objects")
	}
	vk.DestroyRenderPass(dc.LogicalDevice(), c.backbufferPass, dc.Allocator())
	c.backbufferPass = nil

	for i, pass := range c.passes {
		if pass == nil {
			panic(fmt.Sprintf("queuerunner: render-pass cache entry %d is nil at destroy_device_objects", i))
		}
		vk.DestroyRenderPass(dc.LogicalDevice(), pass, dc.Allocator())
		c.passes[i] = nil
	}
}

// BackbufferPass returns the single backbuffer render pass handle.
func (c *PassCache) BackbufferPass() vk.RenderPass {
	return c.backbufferPass
}

// PassAt returns the offscreen render pass at the given cache index (0..8).
func (c *PassCache) PassAt(index int) vk.RenderPass {
	return c.passes[index]
}

// PassFor returns the offscreen render pass for a given (color, depth)
// action pair.
func (c *PassCache) PassFor(color, depth RenderPassAction) vk.RenderPass {
	return c.passes[IndexOf(color, depth)]
}

func createBackbufferPass(dc DeviceContext) (vk.RenderPass, error) {
	colorAttachment := vk.AttachmentDescription{
		Format:         dc.SwapchainFormat(),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		// The present-layout transition is handled by the swapchain owner,
		// not here; both initial and final layout stay attachment-optimal.
		InitialLayout: vk.ImageLayoutColorAttachmentOptimal,
		FinalLayout:   vk.ImageLayoutColorAttachmentOptimal,
	}
	depthAttachment := vk.AttachmentDescription{
		Format:         dc.PreferredDepthStencilFormat(),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpClear,
		StencilStoreOp: vk.AttachmentStoreOpStore,
		InitialLayout:  vk.ImageLayoutDepthStencilAttachmentOptimal,
		FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
	}
	return createPass(dc, colorAttachment, depthAttachment)
}

func createOffscreenPass(dc DeviceContext, color, depth RenderPassAction) (vk.RenderPass, error) {
	colorLoad := loadOpFor(color)
	depthLoad := loadOpFor(depth)

	colorAttachment := vk.AttachmentDescription{
		Format:         OffscreenColorFormat,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         colorLoad,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutColorAttachmentOptimal,
		FinalLayout:    vk.ImageLayoutColorAttachmentOptimal,
	}
	depthAttachment := vk.AttachmentDescription{
		Format:         dc.PreferredDepthStencilFormat(),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         depthLoad,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  depthLoad,
		StencilStoreOp: vk.AttachmentStoreOpStore,
		InitialLayout:  vk.ImageLayoutDepthStencilAttachmentOptimal,
		FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
	}
	return createPass(dc, colorAttachment, depthAttachment)
}

func createPass(dc DeviceContext, color, depth vk.AttachmentDescription) (vk.RenderPass, error) {
	colorRef := vk.AttachmentReference{Attachment: 0, Layout: vk.ImageLayoutColorAttachmentOptimal}
	depthRef := vk.AttachmentReference{Attachment: 1, Layout: vk.ImageLayoutDepthStencilAttachmentOptimal}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    1,
		PColorAttachments:       []vk.AttachmentReference{colorRef},
		PDepthStencilAttachment: &depthRef,
	}

	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 2,
		PAttachments:    []vk.AttachmentDescription{color, depth},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
	}

	var pass vk.RenderPass
	if res := vk.CreateRenderPass(dc.LogicalDevice(), &createInfo, dc.Allocator(), &pass); res != vk.Success {
		return nil, fmt.Errorf("vkCreateRenderPass failed with result %d", res)
	}
	return pass, nil
}
