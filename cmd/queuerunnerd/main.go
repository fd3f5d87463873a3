/*
queuerunnerd bootstraps a Vulkan device, swapchain and render-pass cache,
then hands the result to the queue runner. It is a composition root, not a
renderer: wiring a native window and its Vulkan surface is a platform
concern left to whatever embeds this binary, registered through
SurfaceProvider below.
*/
package main

import (
	"flag"
	"fmt"
	"runtime"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkqueuerunner/engine/config"
	"github.com/spaghettifunk/vkqueuerunner/engine/core"
	"github.com/spaghettifunk/vkqueuerunner/engine/renderer/vulkan"
)

// SurfaceProvider creates the native Vulkan surface for the host platform.
// This binary ships without an implementation: it proves out the bootstrap
// sequence against whichever provider its embedder links in.
type SurfaceProvider func(instance vk.Instance) (vk.Surface, error)

var surfaceProvider SurfaceProvider

func main() {
	configPath := flag.String("config", "queuerunner.toml", "path to the configuration file")
	width := flag.Uint("width", 1280, "initial framebuffer width")
	height := flag.Uint("height", 720, "initial framebuffer height")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		core.LogFatal("loading configuration: %s", err.Error())
		return
	}

	if err := run(cfg, uint32(*width), uint32(*height)); err != nil {
		core.LogFatal("%s", err.Error())
	}
}

func run(cfg *config.Config, width, height uint32) error {
	if surfaceProvider == nil {
		return fmt.Errorf("no surface provider registered; link a platform package that sets surfaceProvider before calling run")
	}

	if err := vk.Init(); err != nil {
		return fmt.Errorf("initializing vulkan loader: %w", err)
	}

	instance, err := createInstance(cfg)
	if err != nil {
		return fmt.Errorf("creating vulkan instance: %w", err)
	}

	surface, err := surfaceProvider(instance)
	if err != nil {
		return fmt.Errorf("creating surface: %w", err)
	}

	runner, ctx, err := vulkan.Bootstrap(instance, surface, nil, width, height, cfg.RequireDiscreteGPU)
	if err != nil {
		return fmt.Errorf("bootstrapping queue runner: %w", err)
	}
	defer vulkan.DeviceDestroy(ctx)
	defer ctx.Swapchain.SwapchainDestroy(ctx)
	defer runner.DestroyDeviceObjects()

	core.LogInfo("queue runner bootstrapped and ready (debug=%t, log_level=%s)", cfg.Debug, cfg.LogLevel)
	return nil
}

func createInstance(cfg *config.Config) (vk.Instance, error) {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   vulkan.VulkanSafeString("queuerunnerd"),
		PEngineName:        vulkan.VulkanSafeString("vkqueuerunner"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	requiredExtensions := []string{"VK_KHR_surface"}
	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2")
	}
	if cfg.Debug {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugUtilsExtensionName, vk.ExtDebugReportExtensionName)
	}
	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = vulkan.VulkanSafeStrings(requiredExtensions)

	requiredLayers := []string{}
	if cfg.Debug {
		requiredLayers = []string{"VK_LAYER_KHRONOS_validation"}
		if runtime.GOOS == "darwin" {
			createInfo.Flags |= 1
		}
	}
	createInfo.EnabledLayerCount = uint32(len(requiredLayers))
	createInfo.PpEnabledLayerNames = vulkan.VulkanSafeStrings(requiredLayers)

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, nil, &instance); !vulkan.VulkanResultIsSuccess(res) {
		return nil, fmt.Errorf("%s", vulkan.VulkanResultString(res, true))
	}
	if err := vk.InitInstance(instance); err != nil {
		return nil, err
	}
	return instance, nil
}
