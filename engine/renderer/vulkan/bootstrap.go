package vulkan

import (
	"errors"
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkqueuerunner/engine/core"
	"github.com/spaghettifunk/vkqueuerunner/engine/renderer/queuerunner"
)

// Bootstrap builds a full Device Context from a Vulkan instance and surface
// supplied by the platform layer, then hands it to the queue runner through
// the QueueRunnerDeviceContext adapter. This is the seam the rest of the
// package exists to feed: device selection, swapchain creation, the
// backbuffer framebuffers and the graphics command buffers are all real
// Vulkan resources by the time Bootstrap returns a Runner.
//
// Callers own the returned VulkanContext and are responsible for tearing it
// down (DeviceDestroy, swapchain.SwapchainDestroy) after the returned
// Runner's DestroyDeviceObjects.
func Bootstrap(instance vk.Instance, surface vk.Surface, allocator *vk.AllocationCallbacks, width, height uint32, requireDiscreteGPU bool) (*queuerunner.Runner, *VulkanContext, error) {
	ctx := &VulkanContext{
		Instance:          instance,
		Surface:           surface,
		Allocator:         allocator,
		FramebufferWidth:  width,
		FramebufferHeight: height,
	}

	if err := DeviceCreate(ctx, requireDiscreteGPU); err != nil {
		return nil, nil, fmt.Errorf("creating device: %w", err)
	}

	swapchain, err := SwapchainCreate(ctx, width, height)
	if err != nil {
		DeviceDestroy(ctx)
		return nil, nil, fmt.Errorf("creating swapchain: %w", err)
	}
	ctx.Swapchain = swapchain

	runner := queuerunner.New(NewQueueRunnerDeviceContext(ctx))
	if err := runner.CreateDeviceObjects(); err != nil {
		swapchain.SwapchainDestroy(ctx)
		DeviceDestroy(ctx)
		return nil, nil, fmt.Errorf("creating render pass cache: %w", err)
	}

	if err := regenerateBackbufferFramebuffers(ctx, runner); err != nil {
		runner.DestroyDeviceObjects()
		swapchain.SwapchainDestroy(ctx)
		DeviceDestroy(ctx)
		return nil, nil, fmt.Errorf("creating backbuffer framebuffers: %w", err)
	}

	if err := allocateGraphicsCommandBuffers(ctx); err != nil {
		runner.DestroyDeviceObjects()
		swapchain.SwapchainDestroy(ctx)
		DeviceDestroy(ctx)
		return nil, nil, fmt.Errorf("allocating command buffers: %w", err)
	}

	core.LogInfo("queue runner bootstrapped with %d backbuffer framebuffer(s)", swapchain.ImageCount)
	return runner, ctx, nil
}

// regenerateBackbufferFramebuffers builds one framebuffer per swapchain
// image against the runner's backbuffer render pass, sharing the single
// depth attachment across all of them, then binds the first as the current
// backbuffer target.
func regenerateBackbufferFramebuffers(ctx *VulkanContext, runner *queuerunner.Runner) error {
	swapchain := ctx.Swapchain
	swapchain.Framebuffers = make([]*VulkanFramebuffer, swapchain.ImageCount)

	pass := runner.BackbufferPass()
	for i := 0; i < int(swapchain.ImageCount); i++ {
		color := &VulkanImage{
			Handle: swapchain.Images[i],
			View:   swapchain.Views[i],
			Width:  ctx.FramebufferWidth,
			Height: ctx.FramebufferHeight,
			Layout: vk.ImageLayoutUndefined,
		}
		fb, err := FramebufferCreate(ctx, pass, ctx.FramebufferWidth, ctx.FramebufferHeight, color, swapchain.DepthAttachment)
		if err != nil {
			return err
		}
		swapchain.Framebuffers[i] = fb
	}

	first := swapchain.Framebuffers[0]
	runner.SetBackbuffer(first.Handle, ctx.FramebufferWidth, ctx.FramebufferHeight)
	return nil
}

// AcquireBackbuffer acquires the next swapchain image and points the runner
// at that image's framebuffer. When acquisition forced a swapchain rebuild,
// the backbuffer framebuffers are regenerated against the new images and
// core.ErrSwapchainBooting is passed through; the caller skips the frame
// and tries again.
func AcquireBackbuffer(ctx *VulkanContext, runner *queuerunner.Runner, timeoutNS uint64, imageAvailable vk.Semaphore, fence vk.Fence) (uint32, error) {
	imageIndex, err := ctx.Swapchain.SwapchainAcquireNextImageIndex(ctx, timeoutNS, imageAvailable, fence)
	if err != nil {
		if errors.Is(err, core.ErrSwapchainBooting) {
			if rerr := regenerateBackbufferFramebuffers(ctx, runner); rerr != nil {
				return 0, rerr
			}
		}
		return 0, err
	}

	fb := ctx.Swapchain.Framebuffers[imageIndex]
	runner.SetBackbuffer(fb.Handle, fb.Width, fb.Height)
	ctx.ImageIndex = imageIndex
	return imageIndex, nil
}

// PresentBackbuffer hands a recorded image back for presentation,
// regenerating the backbuffer framebuffers when presentation forced a
// swapchain rebuild.
func PresentBackbuffer(ctx *VulkanContext, runner *queuerunner.Runner, renderComplete vk.Semaphore, imageIndex uint32) error {
	if err := ctx.Swapchain.SwapchainPresent(ctx, ctx.Device.PresentQueue, renderComplete, imageIndex); err != nil {
		if errors.Is(err, core.ErrSwapchainBooting) {
			if rerr := regenerateBackbufferFramebuffers(ctx, runner); rerr != nil {
				return rerr
			}
		}
		return err
	}
	return nil
}

// allocateGraphicsCommandBuffers gives the context one primary command
// buffer per swapchain image, ready to be wrapped by queuerunner.NewRecorder.
func allocateGraphicsCommandBuffers(ctx *VulkanContext) error {
	count := int(ctx.Swapchain.ImageCount)
	ctx.GraphicsCommandBuffers = make([]*VulkanCommandBuffer, count)
	for i := 0; i < count; i++ {
		cb, err := NewVulkanCommandBuffer(ctx, ctx.Device.GraphicsCommandPool, true)
		if err != nil {
			return err
		}
		ctx.GraphicsCommandBuffers[i] = cb
	}
	core.LogDebug("allocated %d graphics command buffer(s)", count)
	return nil
}
