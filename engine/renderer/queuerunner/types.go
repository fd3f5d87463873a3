// Package queuerunner consumes a pre-recorded, high-level sequence of render
// steps handed down by the render manager and emits the corresponding
// low-level Vulkan command stream onto a command buffer.
package queuerunner

import vk "github.com/goki/vulkan"

// Image is a single GPU image bound to a framebuffer attachment role. Layout
// is the image's current tracked state; the runner reads and mutates it as
// it issues barriers and begins render passes.
type Image struct {
	Handle vk.Image
	Layout vk.ImageLayout
}

// Framebuffer aggregates a color and depth-stencil Image plus the pixel
// dimensions they share. It is externally owned by the Framebuffer Manager
// collaborator: the runner mutates Color.Layout and Depth.Layout but never
// frees the framebuffer.
type Framebuffer struct {
	Handle vk.Framebuffer
	Width  uint32
	Height uint32
	Color  *Image
	Depth  *Image
}

// RenderPassAction is the three-valued load-op selector for a render pass
// attachment.
type RenderPassAction int

const (
	ActionDontCare RenderPassAction = iota
	ActionClear
	ActionKeep
)

func (a RenderPassAction) String() string {
	switch a {
	case ActionDontCare:
		return "DontCare"
	case ActionClear:
		return "Clear"
	case ActionKeep:
		return "Keep"
	default:
		return "Unknown"
	}
}

// TransitionRequest is issued before a render step begins execution.
type TransitionRequest struct {
	Framebuffer  *Framebuffer
	TargetLayout vk.ImageLayout
}

// ClearColor is a packed 0-255 RGBA clear value, as produced by the render
// manager when recording a step.
type ClearColor [4]uint8

// Normalized converts the packed byte color to the [0,1] float range Vulkan
// clear values expect.
func (c ClearColor) Normalized() [4]float32 {
	return [4]float32{
		float32(c[0]) / 255.0,
		float32(c[1]) / 255.0,
		float32(c[2]) / 255.0,
		float32(c[3]) / 255.0,
	}
}

// ClearMask selects which attachment(s) a Clear command targets.
type ClearMask uint8

const (
	ClearColorBit ClearMask = 1 << iota
	ClearDepthBit
	ClearStencilBit
)

// AspectMask selects which aspect(s) a Copy or Blit step transitions and
// transfers.
type AspectMask uint8

const (
	AspectColor AspectMask = 1 << iota
	AspectDepth
	AspectStencil
)

// Rect2D mirrors vk.Rect2D without requiring callers to build the Vulkan
// struct directly.
type Rect2D struct {
	X, Y          int32
	Width, Height uint32
}

// Offset2D is a plain integer pixel offset.
type Offset2D struct {
	X, Y int32
}

// Step is the tagged-union input to run_steps. Render, Copy, Blit and
// Readback each implement it with an unexported marker so no other package
// can add new step kinds.
type Step interface {
	step()
}

// RenderStep records an offscreen or backbuffer render pass plus its inline
// command list. Framebuffer == nil denotes the backbuffer.
type RenderStep struct {
	Framebuffer      *Framebuffer
	ColorAction      RenderPassAction
	DepthAction      RenderPassAction
	ClearColor       ClearColor
	ClearDepth       float32
	ClearStencil     uint32
	FinalColorLayout vk.ImageLayout
	PreTransitions   []TransitionRequest
	Commands         []RenderCommand
}

func (*RenderStep) step() {}

// CopyStep requests an image-to-image copy between two framebuffers.
type CopyStep struct {
	Src, Dst  *Framebuffer
	SrcRect   Rect2D
	DstOffset Offset2D
	Aspect    AspectMask
}

func (*CopyStep) step() {}

// BlitStep requests a filtered image-to-image blit between two framebuffers.
type BlitStep struct {
	Src, Dst *Framebuffer
	SrcRect  Rect2D
	DstRect  Rect2D
	Aspect   AspectMask
	Filter   vk.Filter
}

func (*BlitStep) step() {}

// ReadbackStep requests a GPU-to-CPU image readback. It is declared for
// interface completeness but intentionally not executed: Runner.RunSteps
// logs a warning and skips it.
type ReadbackStep struct {
	Src     *Framebuffer
	Dest    []byte
	SrcRect Rect2D
}

func (*ReadbackStep) step() {}

// RenderCommand is the tagged-union inline command list embedded inside a
// RenderStep.
type RenderCommand interface {
	command()
}

type BindPipelineCmd struct{ Handle vk.Pipeline }

func (BindPipelineCmd) command() {}

type ViewportCmd struct{ Rect Rect2D }

func (ViewportCmd) command() {}

type ScissorCmd struct{ Rect Rect2D }

func (ScissorCmd) command() {}

type BlendCmd struct{ RGBA [4]float32 }

func (BlendCmd) command() {}

type StencilCmd struct {
	WriteMask   uint32
	CompareMask uint32
	Ref         uint32
}

func (StencilCmd) command() {}

type ClearCmd struct {
	Mask    ClearMask
	Color   ClearColor
	Depth   float32
	Stencil uint32
}

func (ClearCmd) command() {}

type DrawCmd struct {
	Layout       vk.PipelineLayout
	Descriptor   vk.DescriptorSet
	UBOOffsets   []uint32 // at most 3
	VertexBuffer vk.Buffer
	VertexOffset uint64
	VertexCount  uint32
}

func (DrawCmd) command() {}

type DrawIndexedCmd struct {
	Layout        vk.PipelineLayout
	Descriptor    vk.DescriptorSet
	UBOOffsets    []uint32 // at most 3
	VertexBuffer  vk.Buffer
	VertexOffset  uint64
	IndexBuffer   vk.Buffer
	IndexOffset   uint64
	IndexType     vk.IndexType
	IndexCount    uint32
	InstanceCount uint32
}

func (DrawIndexedCmd) command() {}
