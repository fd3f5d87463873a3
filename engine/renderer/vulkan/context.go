package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkqueuerunner/engine/core"
)

// VulkanContext is the Device Context collaborator: it owns the GPU device
// handle, swapchain, and memory allocator that the queue runner consumes
// read-only.
type VulkanContext struct {
	// The framebuffer's current width.
	FramebufferWidth uint32
	// The framebuffer's current height.
	FramebufferHeight uint32
	// Current generation of framebuffer size. If it does not match framebuffer_size_last_generation,
	// a new one should be generated.
	FramebufferSizeGeneration uint64
	// The generation of the framebuffer when it was last created. Set to framebuffer_size_generation
	// when updated.
	FramebufferSizeLastGeneration uint64

	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	// TODO: only in DEBUG mode
	debugMessenger vk.DebugReportCallback

	Device *VulkanDevice

	Swapchain *VulkanSwapchain

	GraphicsCommandBuffers []*VulkanCommandBuffer

	ImageIndex   uint32
	CurrentFrame uint32

	RecreatingSwapchain bool

	MultithreadingEnabled bool
}

// SwapchainFormat returns the color format the queue runner's backbuffer
// render pass must match.
func (vc *VulkanContext) SwapchainFormat() vk.Format {
	return vc.Swapchain.ImageFormat.Format
}

// PreferredDepthStencilFormat returns the depth-stencil format selected for
// this device during DeviceDetectDepthFormat.
func (vc *VulkanContext) PreferredDepthStencilFormat() vk.Format {
	return vc.Device.DepthFormat
}

func (vc *VulkanContext) FindMemoryIndex(typeFilter, propertyFlags uint32) int32 {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(vc.Device.PhysicalDevice, &memoryProperties)
	memoryProperties.Deref()

	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		// Check each memory type to see if its bit is set to 1.
		memoryProperties.MemoryTypes[i].Deref()
		if (typeFilter&(1<<i)) != 0 && (uint32(memoryProperties.MemoryTypes[i].PropertyFlags)&propertyFlags) == propertyFlags {
			return int32(i)
		}
	}
	core.LogWarn("Unable to find suitable memory type!")
	return -1
}
