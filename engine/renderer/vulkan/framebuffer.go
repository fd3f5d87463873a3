package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkqueuerunner/engine/core"
)

// VulkanFramebuffer aggregates a color image and a depth-stencil image bound
// to a render pass's attachment slots, plus the pixel dimensions they share.
// It is externally owned by the Framebuffer Manager collaborator: the queue
// runner mutates the Layout field of Color/Depth but never frees the
// framebuffer itself.
type VulkanFramebuffer struct {
	Handle vk.Framebuffer
	Width  uint32
	Height uint32
	Color  *VulkanImage
	Depth  *VulkanImage
}

func FramebufferCreate(context *VulkanContext, renderPass vk.RenderPass, width uint32, height uint32, color, depth *VulkanImage) (*VulkanFramebuffer, error) {
	attachments := []vk.ImageView{color.View, depth.View}

	createInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderPass,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           width,
		Height:          height,
		Layers:          1,
	}

	var handle vk.Framebuffer
	if res := vk.CreateFramebuffer(context.Device.LogicalDevice, &createInfo, context.Allocator, &handle); res != vk.Success {
		err := fmt.Errorf("failed to create framebuffer")
		core.LogError(err.Error())
		return nil, err
	}

	return &VulkanFramebuffer{
		Handle: handle,
		Width:  width,
		Height: height,
		Color:  color,
		Depth:  depth,
	}, nil
}

func (vfb *VulkanFramebuffer) Destroy(context *VulkanContext) {
	if vfb.Handle != nil {
		vk.DestroyFramebuffer(context.Device.LogicalDevice, vfb.Handle, context.Allocator)
		vfb.Handle = nil
	}
}
