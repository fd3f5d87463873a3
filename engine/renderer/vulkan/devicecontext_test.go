package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkqueuerunner/engine/renderer/queuerunner"
)

// fakeContext builds a VulkanContext with literal field values standing in
// for a real device and swapchain, so the adapter can be exercised without a
// Vulkan driver.
func fakeContext(depthFormat vk.Format) *VulkanContext {
	return &VulkanContext{
		Device: &VulkanDevice{
			LogicalDevice: vk.Device(nil),
			DepthFormat:   depthFormat,
		},
		Swapchain: &VulkanSwapchain{
			ImageFormat: vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm},
		},
		Allocator: nil,
	}
}

func TestQueueRunnerDeviceContextAdaptsVulkanContext(t *testing.T) {
	ctx := fakeContext(vk.FormatD24UnormS8Uint)
	dc := NewQueueRunnerDeviceContext(ctx)

	if dc.SwapchainFormat() != vk.FormatB8g8r8a8Unorm {
		t.Errorf("SwapchainFormat() = %v, want FormatB8g8r8a8Unorm", dc.SwapchainFormat())
	}
	if dc.PreferredDepthStencilFormat() != vk.FormatD24UnormS8Uint {
		t.Errorf("PreferredDepthStencilFormat() = %v, want FormatD24UnormS8Uint", dc.PreferredDepthStencilFormat())
	}
	if !dc.DepthHasStencil() {
		t.Error("DepthHasStencil() = false, want true for FormatD24UnormS8Uint")
	}
	if dc.Allocator() != nil {
		t.Error("Allocator() should forward the context's allocator unchanged")
	}
}

func TestQueueRunnerDeviceContextDepthWithoutStencil(t *testing.T) {
	ctx := fakeContext(vk.FormatD32Sfloat)
	dc := NewQueueRunnerDeviceContext(ctx)

	if dc.DepthHasStencil() {
		t.Error("DepthHasStencil() = true, want false for FormatD32Sfloat")
	}
}

// TestRunnerWiresAgainstAdaptedContext proves that a Runner built from the
// adapter over a VulkanContext behaves like one built from a fake
// queuerunner.DeviceContext directly: both satisfy the same interface and
// the cache index math does not depend on which implementation is plugged
// in.
func TestRunnerWiresAgainstAdaptedContext(t *testing.T) {
	ctx := fakeContext(vk.FormatD24UnormS8Uint)
	dc := NewQueueRunnerDeviceContext(ctx)

	runner := queuerunner.New(dc)
	if got := runner.IndexOf(queuerunner.ActionKeep, queuerunner.ActionClear); got != 5 {
		t.Errorf("IndexOf(Keep, Clear) = %d, want 5", got)
	}
	if runner.BackbufferPass() != nil {
		t.Error("BackbufferPass() should be the zero value before CreateDeviceObjects runs")
	}
}
