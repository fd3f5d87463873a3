package vulkan

import (
	"cmp"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkqueuerunner/engine/core"
)

// vkResultInfo pairs a VkResult code with its short and extended
// descriptions and whether the runner should treat it as success. Folding
// VulkanResultString and VulkanResultIsSuccess onto one table keeps the two
// in sync instead of maintaining parallel switches.
type vkResultInfo struct {
	short    string
	extended string
	success  bool
}

var vkResults = map[vk.Result]vkResultInfo{
	vk.Success:                        {"VK_SUCCESS", "VK_SUCCESS Command successfully completed", true},
	vk.NotReady:                       {"VK_NOT_READY", "VK_NOT_READY A fence or query has not yet completed", true},
	vk.Timeout:                        {"VK_TIMEOUT", "VK_TIMEOUT A wait operation has not completed in the specified time", true},
	vk.EventSet:                       {"VK_EVENT_SET", "VK_EVENT_SET An event is signaled", true},
	vk.EventReset:                     {"VK_EVENT_RESET", "VK_EVENT_RESET An event is unsignaled", true},
	vk.Incomplete:                     {"VK_INCOMPLETE", "VK_INCOMPLETE A return array was too small for the result", true},
	vk.Suboptimal:                     {"VK_SUBOPTIMAL_KHR", "VK_SUBOPTIMAL_KHR A swapchain no longer matches the surface properties exactly, but can still be used to present to the surface successfully.", true},
	vk.ThreadIdle:                     {"VK_THREAD_IDLE_KHR", "VK_THREAD_IDLE_KHR A deferred operation is not complete but there is currently no work for this thread to do at the time of this call.", true},
	vk.ThreadDone:                     {"VK_THREAD_DONE_KHR", "VK_THREAD_DONE_KHR A deferred operation is not complete but there is no work remaining to assign to additional threads.", true},
	vk.OperationDeferred:              {"VK_OPERATION_DEFERRED_KHR", "VK_OPERATION_DEFERRED_KHR A deferred operation was requested and at least some of the work was deferred.", true},
	vk.OperationNotDeferred:           {"VK_OPERATION_NOT_DEFERRED_KHR", "VK_OPERATION_NOT_DEFERRED_KHR A deferred operation was requested and no operations were deferred.", true},
	vk.PipelineCompileRequired:        {"VK_PIPELINE_COMPILE_REQUIRED_EXT", "VK_PIPELINE_COMPILE_REQUIRED_EXT A requested pipeline creation would have required compilation, but the application requested compilation to not be performed.", true},
	vk.ErrorOutOfHostMemory:           {"VK_ERROR_OUT_OF_HOST_MEMORY", "VK_ERROR_OUT_OF_HOST_MEMORY A host memory allocation has failed.", false},
	vk.ErrorOutOfDeviceMemory:         {"VK_ERROR_OUT_OF_DEVICE_MEMORY", "VK_ERROR_OUT_OF_DEVICE_MEMORY A device memory allocation has failed.", false},
	vk.ErrorInitializationFailed:      {"VK_ERROR_INITIALIZATION_FAILED", "VK_ERROR_INITIALIZATION_FAILED Initialization of an object could not be completed for implementation-specific reasons.", false},
	vk.ErrorDeviceLost:                {"VK_ERROR_DEVICE_LOST", "VK_ERROR_DEVICE_LOST The logical or physical device has been lost. See Lost Device", false},
	vk.ErrorMemoryMapFailed:           {"VK_ERROR_MEMORY_MAP_FAILED", "VK_ERROR_MEMORY_MAP_FAILED Mapping of a memory object has failed.", false},
	vk.ErrorLayerNotPresent:           {"VK_ERROR_LAYER_NOT_PRESENT", "VK_ERROR_LAYER_NOT_PRESENT A requested layer is not present or could not be loaded.", false},
	vk.ErrorExtensionNotPresent:       {"VK_ERROR_EXTENSION_NOT_PRESENT", "VK_ERROR_EXTENSION_NOT_PRESENT A requested extension is not supported.", false},
	vk.ErrorFeatureNotPresent:         {"VK_ERROR_FEATURE_NOT_PRESENT", "VK_ERROR_FEATURE_NOT_PRESENT A requested feature is not supported.", false},
	vk.ErrorIncompatibleDriver:        {"VK_ERROR_INCOMPATIBLE_DRIVER", "VK_ERROR_INCOMPATIBLE_DRIVER The requested version of Vulkan is not supported by the driver or is otherwise incompatible for implementation-specific reasons.", false},
	vk.ErrorTooManyObjects:            {"VK_ERROR_TOO_MANY_OBJECTS", "VK_ERROR_TOO_MANY_OBJECTS Too many objects of the type have already been created.", false},
	vk.ErrorFormatNotSupported:        {"VK_ERROR_FORMAT_NOT_SUPPORTED", "VK_ERROR_FORMAT_NOT_SUPPORTED A requested format is not supported on this device.", false},
	vk.ErrorFragmentedPool:            {"VK_ERROR_FRAGMENTED_POOL", "VK_ERROR_FRAGMENTED_POOL A pool allocation has failed due to fragmentation of the pool's memory.", false},
	vk.ErrorSurfaceLost:               {"VK_ERROR_SURFACE_LOST_KHR", "VK_ERROR_SURFACE_LOST_KHR A surface is no longer available.", false},
	vk.ErrorNativeWindowInUse:         {"VK_ERROR_NATIVE_WINDOW_IN_USE_KHR", "VK_ERROR_NATIVE_WINDOW_IN_USE_KHR The requested window is already in use by Vulkan or another API in a manner which prevents it from being used again.", false},
	vk.ErrorOutOfDate:                 {"VK_ERROR_OUT_OF_DATE_KHR", "VK_ERROR_OUT_OF_DATE_KHR A surface has changed in such a way that it is no longer compatible with the swapchain, and further presentation requests using the swapchain will fail.", false},
	vk.ErrorIncompatibleDisplay:       {"VK_ERROR_INCOMPATIBLE_DISPLAY_KHR", "VK_ERROR_INCOMPATIBLE_DISPLAY_KHR The display used by a swapchain does not use the same presentable image layout, or is incompatible in a way that prevents sharing an image.", false},
	vk.ErrorInvalidShaderNv:           {"VK_ERROR_INVALID_SHADER_NV", "VK_ERROR_INVALID_SHADER_NV One or more shaders failed to compile or link.", false},
	vk.ErrorOutOfPoolMemory:             {"VK_ERROR_OUT_OF_POOL_MEMORY", "VK_ERROR_OUT_OF_POOL_MEMORY A pool memory allocation has failed.", false},
	vk.ErrorInvalidExternalHandle:       {"VK_ERROR_INVALID_EXTERNAL_HANDLE", "VK_ERROR_INVALID_EXTERNAL_HANDLE An external handle is not a valid handle of the specified type.", false},
	vk.ErrorFragmentation:               {"VK_ERROR_FRAGMENTATION", "VK_ERROR_FRAGMENTATION A descriptor pool creation has failed due to fragmentation.", false},
	vk.ErrorInvalidDeviceAddress:        {"VK_ERROR_INVALID_DEVICE_ADDRESS_EXT", "VK_ERROR_INVALID_DEVICE_ADDRESS_EXT A buffer creation failed because the requested address is not available.", false},
	vk.ErrorFullScreenExclusiveModeLost: {"VK_ERROR_FULL_SCREEN_EXCLUSIVE_MODE_LOST_EXT", "VK_ERROR_FULL_SCREEN_EXCLUSIVE_MODE_LOST_EXT An operation on a swapchain created with exclusive full-screen control failed to retain that access.", false},
	vk.ErrorUnknown:                     {"VK_ERROR_UNKNOWN", "VK_ERROR_UNKNOWN An unknown error has occurred; either the application has provided invalid input, or an implementation failure has occurred.", false},
}

// VulkanResultString renders a VkResult the way the bootstrap sequence
// reports failures in its wrapped errors. Unrecognized codes are logged
// once and rendered as VK_ERROR_UNKNOWN rather than panicking, since a
// goki/vulkan upgrade can introduce result codes this table hasn't caught
// up with yet.
func VulkanResultString(result vk.Result, getExtended bool) string {
	info, ok := vkResults[result]
	if !ok {
		core.LogWarn("unrecognized vulkan result code %d", int32(result))
		info = vkResults[vk.ErrorUnknown]
	}
	if getExtended {
		return info.extended
	}
	return info.short
}

// VulkanResultIsSuccess reports whether result is one of the non-error
// VkResult codes. Unrecognized codes are treated as failures.
func VulkanResultIsSuccess(result vk.Result) bool {
	info, ok := vkResults[result]
	return ok && info.success
}

// MathClamp bounds v to the [low, high] range. The swapchain extent must
// stay inside the surface's reported min/max image extents.
func MathClamp[T cmp.Ordered](v, low, high T) T {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

func ConditionalOperator(condition bool, res1, res2 string) string {
	if condition {
		return res1
	}
	return res2
}

const nullTerminator = "\x00"

// VulkanSafeString ensures s carries a trailing NUL byte, as required by
// every *const char Vulkan parameter built from a Go string.
func VulkanSafeString(s string) string {
	if len(s) == 0 {
		return nullTerminator
	}
	if s[len(s)-1] != 0 {
		return s + nullTerminator
	}
	return s
}

// VulkanSafeStrings applies VulkanSafeString to every entry in list,
// in place, and returns it for chaining into PpEnabledExtensionNames /
// PpEnabledLayerNames fields.
func VulkanSafeStrings(list []string) []string {
	for i := range list {
		list[i] = VulkanSafeString(list[i])
	}
	return list
}

// FindFirstZeroInByteArray returns the index of the first zero byte in arr,
// or 0 if arr contains none. Vulkan hands back fixed-size char arrays
// (extension and device names) that this trims to their Go string content.
func FindFirstZeroInByteArray(arr []byte) int {
	for i, b := range arr {
		if b == 0 {
			return i
		}
	}
	return 0
}
