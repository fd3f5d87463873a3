package core

import (
	"errors"
)

// ErrSwapchainBooting reports that the swapchain was recreated mid-operation
// (surface resize, out-of-date surface). Callers should skip the current
// frame and retry against the rebuilt swapchain.
var ErrSwapchainBooting = errors.New("swapchain resized or recreated, booting")
