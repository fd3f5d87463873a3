package vulkan

import (
	"fmt"
	"runtime"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkqueuerunner/engine/core"
	"github.com/spaghettifunk/vkqueuerunner/engine/renderer/queuerunner"
)

// VulkanDevice carries the slice of device state the queue runner's Device
// Context collaborator actually consumes: the physical/logical handles, the
// graphics and present queue families, the graphics command pool and the
// detected depth-stencil format. Copies and blits are recorded onto the
// graphics queue's command buffer, so no dedicated transfer or compute
// queue is requested.
type VulkanDevice struct {
	PhysicalDevice     vk.PhysicalDevice
	LogicalDevice      vk.Device
	SwapchainSupport   *VulkanSwapchainSupportInfo
	GraphicsQueueIndex uint32
	PresentQueueIndex  uint32

	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue

	GraphicsCommandPool vk.CommandPool

	DepthFormat vk.Format
}

// VulkanPhysicalDeviceRequirements captures what this backend needs from a
// physical device: graphics and present queues, the swapchain extension,
// attachment/sample/blit support for the offscreen color format the
// render-pass cache is built around, and a usable depth-stencil format.
type VulkanPhysicalDeviceRequirements struct {
	Graphics             bool
	Present              bool
	DeviceExtensionNames []string
	OffscreenColorFormat vk.Format
	DiscreteGPU          bool
}

type VulkanPhysicalDeviceQueueFamilyInfo struct {
	GraphicsFamilyIndex uint32
	PresentFamilyIndex  uint32
}

func DeviceCreate(context *VulkanContext, requireDiscreteGPU bool) error {
	if err := SelectPhysicalDevice(context, requireDiscreteGPU); err != nil {
		return err
	}

	core.LogInfo("Creating logical device...")

	// NOTE: Do not create additional queues for shared indices.
	indices := []uint32{context.Device.GraphicsQueueIndex}
	if context.Device.PresentQueueIndex != context.Device.GraphicsQueueIndex {
		indices = append(indices, context.Device.PresentQueueIndex)
	}

	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(indices))
	for i := range indices {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: indices[i],
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	extensionNames := []string{VulkanSafeString(vk.KhrSwapchainExtensionName)}

	// The portability subset extension must be enabled whenever the
	// implementation advertises it (MoltenVK and other layered drivers).
	available, err := enumerateDeviceExtensions(context.Device.PhysicalDevice)
	if err != nil {
		return err
	}
	if _, ok := available[VulkanSafeString(vk.KhrPortabilitySubsetExtensionName)]; ok {
		core.LogInfo("Adding required extension 'VK_KHR_portability_subset'.")
		extensionNames = append(extensionNames, VulkanSafeString(vk.KhrPortabilitySubsetExtensionName))
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		EnabledExtensionCount:   uint32(len(extensionNames)),
		PpEnabledExtensionNames: extensionNames,
	}
	deviceCreateInfo.Deref()

	// Create the device.
	var device vk.Device
	if err := lockPool.SafeCall(DeviceManagement, func() error {
		if res := vk.CreateDevice(context.Device.PhysicalDevice, &deviceCreateInfo, context.Allocator, &device); !VulkanResultIsSuccess(res) {
			return fmt.Errorf("%s", VulkanResultString(res, true))
		}
		return nil
	}); err != nil {
		return err
	}
	context.Device.LogicalDevice = device

	core.LogInfo("Logical device created.")

	// Get queues.
	var gQueue vk.Queue
	if err := lockPool.SafeCall(QueueManagement, func() error {
		vk.GetDeviceQueue(context.Device.LogicalDevice, context.Device.GraphicsQueueIndex, 0, &gQueue)
		return nil
	}); err != nil {
		return err
	}
	context.Device.GraphicsQueue = gQueue

	var pQueue vk.Queue
	if err := lockPool.SafeCall(QueueManagement, func() error {
		vk.GetDeviceQueue(context.Device.LogicalDevice, context.Device.PresentQueueIndex, 0, &pQueue)
		return nil
	}); err != nil {
		return err
	}
	context.Device.PresentQueue = pQueue

	core.LogInfo("Queues obtained.")

	// Create command pool for graphics queue.
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: context.Device.GraphicsQueueIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	poolCreateInfo.Deref()

	var gcPool vk.CommandPool
	if err := lockPool.SafeCall(ResourceManagement, func() error {
		if res := vk.CreateCommandPool(context.Device.LogicalDevice, &poolCreateInfo, context.Allocator, &gcPool); !VulkanResultIsSuccess(res) {
			return fmt.Errorf("failed to create command pool with error %s", VulkanResultString(res, true))
		}
		return nil
	}); err != nil {
		return err
	}
	context.Device.GraphicsCommandPool = gcPool

	core.LogInfo("Graphics command pool created.")

	return nil
}

func DeviceDestroy(context *VulkanContext) error {
	// Unset queues
	context.Device.GraphicsQueue = nil
	context.Device.PresentQueue = nil

	core.LogInfo("Destroying command pools...")

	if err := lockPool.SafeCall(ResourceManagement, func() error {
		vk.DestroyCommandPool(context.Device.LogicalDevice, context.Device.GraphicsCommandPool, context.Allocator)
		return nil
	}); err != nil {
		return err
	}
	context.Device.GraphicsCommandPool = nil

	// Destroy logical device
	core.LogInfo("Destroying logical device...")
	if context.Device.LogicalDevice != nil {
		if err := lockPool.SafeCall(DeviceManagement, func() error {
			vk.DestroyDevice(context.Device.LogicalDevice, context.Allocator)
			return nil
		}); err != nil {
			return err
		}
		context.Device.LogicalDevice = nil
	}

	// Physical devices are not destroyed.
	core.LogInfo("Releasing physical device resources...")
	context.Device.PhysicalDevice = nil

	if context.Device.SwapchainSupport.Formats != nil {
		context.Device.SwapchainSupport.Formats = nil
		context.Device.SwapchainSupport.FormatCount = 0
	}

	if context.Device.SwapchainSupport.PresentModes != nil {
		context.Device.SwapchainSupport.PresentModes = nil
		context.Device.SwapchainSupport.PresentModeCount = 0
	}

	context.Device.SwapchainSupport.Capabilities = vk.SurfaceCapabilities{}

	context.Device.GraphicsQueueIndex = vk.MaxUint32
	context.Device.PresentQueueIndex = vk.MaxUint32

	return nil
}

func DeviceQuerySwapchainSupport(physicalDevice vk.PhysicalDevice, surface vk.Surface, supportInfo *VulkanSwapchainSupportInfo) error {
	// Surface capabilities
	var capabilities vk.SurfaceCapabilities

	if res := vk.GetPhysicalDeviceSurfaceCapabilities(physicalDevice, surface, &capabilities); !VulkanResultIsSuccess(res) {
		return fmt.Errorf("failed to get physical device surface capabilities")
	}
	capabilities.Deref()
	supportInfo.Capabilities = capabilities

	// Surface formats
	if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &supportInfo.FormatCount, nil); !VulkanResultIsSuccess(res) {
		return fmt.Errorf("failed to get physical device surface formats")
	}

	if supportInfo.FormatCount != 0 {
		if len(supportInfo.Formats) == 0 {
			supportInfo.Formats = make([]vk.SurfaceFormat, supportInfo.FormatCount)
		}
		if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &supportInfo.FormatCount, supportInfo.Formats); !VulkanResultIsSuccess(res) {
			return fmt.Errorf("failed to get physical device surface formats")
		}
		for i := range supportInfo.Formats {
			supportInfo.Formats[i].Deref()
		}
	}

	// Present modes
	if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &supportInfo.PresentModeCount, nil); !VulkanResultIsSuccess(res) {
		return fmt.Errorf("failed to get physical device surface present modes")
	}

	if supportInfo.PresentModeCount != 0 {
		if len(supportInfo.PresentModes) == 0 {
			supportInfo.PresentModes = make([]vk.PresentMode, supportInfo.PresentModeCount)
		}
		if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &supportInfo.PresentModeCount, supportInfo.PresentModes); !VulkanResultIsSuccess(res) {
			return fmt.Errorf("failed to get physical device surface present modes")
		}
	}
	return nil
}

// detectDepthFormat returns the first depth-stencil candidate the physical
// device can use as a depth-stencil attachment. The candidate order prefers
// the higher-precision formats.
func detectDepthFormat(device vk.PhysicalDevice) (vk.Format, error) {
	candidates := []vk.Format{
		vk.FormatD32Sfloat,
		vk.FormatD32SfloatS8Uint,
		vk.FormatD24UnormS8Uint,
	}

	flags := uint32(vk.FormatFeatureDepthStencilAttachmentBit)

	for _, candidate := range candidates {
		var properties vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(device, candidate, &properties)
		properties.Deref()

		if uint32(properties.LinearTilingFeatures)&flags == flags ||
			uint32(properties.OptimalTilingFeatures)&flags == flags {
			return candidate, nil
		}
	}
	return vk.FormatUndefined, fmt.Errorf("no device depth format available")
}

func DeviceDetectDepthFormat(device *VulkanDevice) error {
	format, err := detectDepthFormat(device.PhysicalDevice)
	if err != nil {
		return err
	}
	device.DepthFormat = format
	return nil
}

// deviceSupportsOffscreenColorFormat reports whether the device can use
// format as a color attachment, a sampled texture and a blit source and
// destination with optimal tiling. The render-pass cache builds every
// offscreen pass against this one format, and the transfer executor blits
// between images created with it.
func deviceSupportsOffscreenColorFormat(device vk.PhysicalDevice, format vk.Format) bool {
	var properties vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(device, format, &properties)
	properties.Deref()

	required := uint32(vk.FormatFeatureColorAttachmentBit) |
		uint32(vk.FormatFeatureSampledImageBit) |
		uint32(vk.FormatFeatureBlitSrcBit) |
		uint32(vk.FormatFeatureBlitDstBit)
	return uint32(properties.OptimalTilingFeatures)&required == required
}

// enumerateDeviceExtensions returns the set of extension names the device
// advertises. Keys keep their trailing NUL byte so they compare directly
// against VulkanSafeString-wrapped vk.*ExtensionName constants.
func enumerateDeviceExtensions(device vk.PhysicalDevice) (map[string]struct{}, error) {
	var availableExtensionCount uint32
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &availableExtensionCount, nil); !VulkanResultIsSuccess(res) {
		return nil, fmt.Errorf("failed to enumerate device extension properties")
	}

	names := make(map[string]struct{}, availableExtensionCount)
	if availableExtensionCount == 0 {
		return names, nil
	}

	availableExtensions := make([]vk.ExtensionProperties, availableExtensionCount)
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &availableExtensionCount, availableExtensions); !VulkanResultIsSuccess(res) {
		return nil, fmt.Errorf("failed to enumerate device extension properties")
	}
	for i := range availableExtensions {
		availableExtensions[i].Deref()
		end := FindFirstZeroInByteArray(availableExtensions[i].ExtensionName[:])
		names[string(availableExtensions[i].ExtensionName[:end+1])] = struct{}{}
	}
	return names, nil
}

func SelectPhysicalDevice(context *VulkanContext, requireDiscreteGPU bool) error {
	var physicalDeviceCount uint32 = 0

	if res := vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, nil); !VulkanResultIsSuccess(res) {
		return fmt.Errorf("failed to enumerate physical devices with error %s", VulkanResultString(res, true))
	}

	if physicalDeviceCount == 0 {
		return fmt.Errorf("no devices which support Vulkan were found")
	}

	physicalDevices := make([]vk.PhysicalDevice, physicalDeviceCount)

	if res := vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, physicalDevices); !VulkanResultIsSuccess(res) {
		return fmt.Errorf("failed to enumerate physical devices with error %s", VulkanResultString(res, true))
	}

	requirements := VulkanPhysicalDeviceRequirements{
		Graphics:             true,
		Present:              true,
		DiscreteGPU:          requireDiscreteGPU && runtime.GOOS != "darwin",
		DeviceExtensionNames: []string{VulkanSafeString(vk.KhrSwapchainExtensionName)},
		OffscreenColorFormat: queuerunner.OffscreenColorFormat,
	}

	for i := 0; i < int(physicalDeviceCount); i++ {
		var properties vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(physicalDevices[i], &properties)
		properties.Deref()

		queueInfo, swapchainSupport, err := PhysicalDeviceMeetsRequirements(physicalDevices[i], context.Surface, &properties, &requirements)
		if err != nil {
			// Try the next candidate; selection fails only once every device
			// has been rejected.
			core.LogInfo("Device '%s' rejected: %s", vk.ToString(properties.DeviceName[:]), err.Error())
			continue
		}

		core.LogInfo("Selected device: '%s'.", vk.ToString(properties.DeviceName[:]))

		// GPU type, etc.
		switch properties.DeviceType {
		default:
			fallthrough
		case vk.PhysicalDeviceTypeOther:
			core.LogInfo("GPU type is Unknown.")
		case vk.PhysicalDeviceTypeIntegratedGpu:
			core.LogInfo("GPU type is Integrated.")
		case vk.PhysicalDeviceTypeDiscreteGpu:
			core.LogInfo("GPU type is Discrete.")
		case vk.PhysicalDeviceTypeVirtualGpu:
			core.LogInfo("GPU type is Virtual.")
		case vk.PhysicalDeviceTypeCpu:
			core.LogInfo("GPU type is CPU.")
		}

		core.LogInfo(
			"GPU Driver version: %d.%d.%d",
			vk.Version.Major(vk.Version(properties.DriverVersion)),
			vk.Version.Minor(vk.Version(properties.DriverVersion)),
			vk.Version.Patch(vk.Version(properties.DriverVersion)),
		)

		// Vulkan API version.
		core.LogInfo(
			"Vulkan API version: %d.%d.%d",
			vk.Version.Major(vk.Version(properties.ApiVersion)),
			vk.Version.Minor(vk.Version(properties.ApiVersion)),
			vk.Version.Patch(vk.Version(properties.ApiVersion)),
		)

		// Memory information
		var memory vk.PhysicalDeviceMemoryProperties
		vk.GetPhysicalDeviceMemoryProperties(physicalDevices[i], &memory)
		memory.Deref()
		for j := 0; j < int(memory.MemoryHeapCount); j++ {
			memory.MemoryHeaps[j].Deref()
			memorySizeGib := memory.MemoryHeaps[j].Size / 1024.0 / 1024.0 / 1024.0
			if uint32(memory.MemoryHeaps[j].Flags)&uint32(vk.MemoryHeapDeviceLocalBit) != 0 {
				core.LogInfo("Local GPU memory: %d GiB", memorySizeGib)
			} else {
				core.LogInfo("Shared System memory: %d GiB", memorySizeGib)
			}
		}

		context.Device = &VulkanDevice{
			PhysicalDevice:     physicalDevices[i],
			SwapchainSupport:   swapchainSupport,
			GraphicsQueueIndex: queueInfo.GraphicsFamilyIndex,
			PresentQueueIndex:  queueInfo.PresentFamilyIndex,
		}
		break
	}

	// Ensure a device was selected
	if context.Device == nil || context.Device.PhysicalDevice == nil {
		return fmt.Errorf("no physical devices were found which meet the requirements")
	}
	core.LogInfo("Physical device selected.")
	return nil
}

func PhysicalDeviceMeetsRequirements(device vk.PhysicalDevice, surface vk.Surface, properties *vk.PhysicalDeviceProperties,
	requirements *VulkanPhysicalDeviceRequirements) (*VulkanPhysicalDeviceQueueFamilyInfo, *VulkanSwapchainSupportInfo, error) {
	outQueueInfo := &VulkanPhysicalDeviceQueueFamilyInfo{
		GraphicsFamilyIndex: vk.MaxUint32,
		PresentFamilyIndex:  vk.MaxUint32,
	}

	// Discrete GPU?
	if requirements.DiscreteGPU && properties.DeviceType != vk.PhysicalDeviceTypeDiscreteGpu {
		return nil, nil, fmt.Errorf("device is not a discrete GPU, and one is required. Skipping")
	}

	var queueFamilyCount uint32 = 0
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)

	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queueFamilies)

	// Take the first family that supports each capability.
	for i := uint32(0); i < queueFamilyCount; i++ {
		queueFamilies[i].Deref()

		// Graphics queue?
		if uint32(queueFamilies[i].QueueFlags)&uint32(vk.QueueGraphicsBit) != 0 &&
			outQueueInfo.GraphicsFamilyIndex == vk.MaxUint32 {
			outQueueInfo.GraphicsFamilyIndex = i
			lockPool.SetQueueFamily(i)
		}

		// Present queue?
		var supportsPresent vk.Bool32 = vk.False
		if res := vk.GetPhysicalDeviceSurfaceSupport(device, i, surface, &supportsPresent); !VulkanResultIsSuccess(res) {
			return nil, nil, fmt.Errorf("failed to get physical device surface support")
		}
		if supportsPresent == vk.True && outQueueInfo.PresentFamilyIndex == vk.MaxUint32 {
			outQueueInfo.PresentFamilyIndex = i
			lockPool.SetQueueFamily(i)
		}
	}

	// Print out some info about the device
	core.LogInfo("Graphics | Present | Name")
	core.LogInfo("       %t |       %t | %s",
		outQueueInfo.GraphicsFamilyIndex != vk.MaxUint32,
		outQueueInfo.PresentFamilyIndex != vk.MaxUint32,
		vk.ToString(properties.DeviceName[:]))

	if requirements.Graphics && outQueueInfo.GraphicsFamilyIndex == vk.MaxUint32 {
		return nil, nil, fmt.Errorf("device has no graphics queue family, skipping")
	}
	if requirements.Present && outQueueInfo.PresentFamilyIndex == vk.MaxUint32 {
		return nil, nil, fmt.Errorf("device has no present-capable queue family, skipping")
	}

	core.LogDebug("Graphics Family Index: %d", outQueueInfo.GraphicsFamilyIndex)
	core.LogDebug("Present Family Index:  %d", outQueueInfo.PresentFamilyIndex)

	// Query swapchain support.
	outSwapchainSupport := &VulkanSwapchainSupportInfo{}
	if err := DeviceQuerySwapchainSupport(device, surface, outSwapchainSupport); err != nil {
		return nil, nil, err
	}

	if outSwapchainSupport.FormatCount < 1 || outSwapchainSupport.PresentModeCount < 1 {
		return nil, nil, fmt.Errorf("required swapchain support not present, skipping device")
	}

	// Device extensions.
	if len(requirements.DeviceExtensionNames) > 0 {
		available, err := enumerateDeviceExtensions(device)
		if err != nil {
			return nil, nil, err
		}
		for _, name := range requirements.DeviceExtensionNames {
			if _, ok := available[name]; !ok {
				return nil, nil, fmt.Errorf("required extension not found: '%s', skipping device", name)
			}
		}
	}

	// The render-pass cache and transfer executor are built around one fixed
	// offscreen color format; a device that cannot render to, sample from
	// and blit that format cannot host this backend.
	if requirements.OffscreenColorFormat != vk.FormatUndefined &&
		!deviceSupportsOffscreenColorFormat(device, requirements.OffscreenColorFormat) {
		return nil, nil, fmt.Errorf("offscreen color format %d lacks attachment/sample/blit support, skipping device", requirements.OffscreenColorFormat)
	}

	// A depth-stencil attachment format must exist before the swapchain can
	// create its depth image.
	if _, err := detectDepthFormat(device); err != nil {
		return nil, nil, fmt.Errorf("skipping device: %w", err)
	}

	// Device meets all requirements.
	return outQueueInfo, outSwapchainSupport, nil
}
