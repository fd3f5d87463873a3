package vulkan

import vk "github.com/goki/vulkan"

// QueueRunnerDeviceContext adapts a VulkanContext to the
// queuerunner.DeviceContext collaborator interface.
type QueueRunnerDeviceContext struct {
	ctx *VulkanContext
}

// NewQueueRunnerDeviceContext wraps ctx for consumption by the queue runner.
func NewQueueRunnerDeviceContext(ctx *VulkanContext) *QueueRunnerDeviceContext {
	return &QueueRunnerDeviceContext{ctx: ctx}
}

func (d *QueueRunnerDeviceContext) LogicalDevice() vk.Device {
	return d.ctx.Device.LogicalDevice
}

func (d *QueueRunnerDeviceContext) Allocator() *vk.AllocationCallbacks {
	return d.ctx.Allocator
}

func (d *QueueRunnerDeviceContext) SwapchainFormat() vk.Format {
	return d.ctx.Swapchain.ImageFormat.Format
}

func (d *QueueRunnerDeviceContext) PreferredDepthStencilFormat() vk.Format {
	return d.ctx.Device.DepthFormat
}

func (d *QueueRunnerDeviceContext) DepthHasStencil() bool {
	return formatHasStencil(d.ctx.Device.DepthFormat)
}
