package pipeline

import (
	"hash"

	"github.com/gogpu/gputypes"
)

// Guest register file limits.
const (
	NumVertexAttributes = 32
	NumVertexBuffers    = 32
	NumRenderTargets    = 8
)

// VertexAttribute describes one vertex attribute slot.
type VertexAttribute struct {
	Enabled bool
	Buffer  uint32
	Offset  uint32
	Format  gputypes.VertexFormat
}

// VertexBuffer describes one vertex buffer binding slot.
type VertexBuffer struct {
	Enabled  bool
	Stride   uint32
	StepMode gputypes.VertexStepMode
}

// DepthStencilState is the depth and stencil portion of the fixed state.
type DepthStencilState struct {
	DepthTestEnabled  bool
	DepthWriteEnabled bool
	DepthCompare      gputypes.CompareFunction
	StencilEnabled    bool
	StencilCompare    gputypes.CompareFunction
}

// RasterizerState is the rasterization portion of the fixed state.
type RasterizerState struct {
	FrontFace        gputypes.FrontFace
	CullMode         gputypes.CullMode
	DepthBiasEnabled bool

	// NDCMinusOneToOne is set when the guest uses the [-1, 1] depth
	// convention. It feeds stage specialization rather than host
	// pipeline state.
	NDCMinusOneToOne bool
}

// BlendComponent is one blend equation.
type BlendComponent struct {
	SrcFactor gputypes.BlendFactor
	DstFactor gputypes.BlendFactor
	Operation gputypes.BlendOperation
}

// BlendAttachment is the blend state of one render target.
type BlendAttachment struct {
	Enabled   bool
	Color     BlendComponent
	Alpha     BlendComponent
	WriteMask gputypes.ColorWriteMask
}

// FixedState is the snapshot of guest fixed-function registers a graphics
// pipeline depends on. It contains no pointers or slices so that pipeline
// keys embedding it compare with ==.
type FixedState struct {
	Topology  gputypes.PrimitiveTopology
	PointSize float32

	VertexAttributes [NumVertexAttributes]VertexAttribute
	VertexBuffers    [NumVertexBuffers]VertexBuffer

	Rasterizer   RasterizerState
	DepthStencil DepthStencilState
	Blend        [NumRenderTargets]BlendAttachment
}

// hashInto folds every field into h. Field order is fixed; changing it
// changes every pipeline key hash.
func (s *FixedState) hashInto(h hash.Hash64) {
	hashWriteUint32(h, uint32(s.Topology))
	hashWriteFloat32(h, s.PointSize)

	for i := range s.VertexAttributes {
		a := &s.VertexAttributes[i]
		hashWriteBool(h, a.Enabled)
		hashWriteUint32(h, a.Buffer)
		hashWriteUint32(h, a.Offset)
		hashWriteUint32(h, uint32(a.Format))
	}
	for i := range s.VertexBuffers {
		b := &s.VertexBuffers[i]
		hashWriteBool(h, b.Enabled)
		hashWriteUint32(h, b.Stride)
		hashWriteUint32(h, uint32(b.StepMode))
	}

	hashWriteUint32(h, uint32(s.Rasterizer.FrontFace))
	hashWriteUint32(h, uint32(s.Rasterizer.CullMode))
	hashWriteBool(h, s.Rasterizer.DepthBiasEnabled)
	hashWriteBool(h, s.Rasterizer.NDCMinusOneToOne)

	hashWriteBool(h, s.DepthStencil.DepthTestEnabled)
	hashWriteBool(h, s.DepthStencil.DepthWriteEnabled)
	hashWriteUint32(h, uint32(s.DepthStencil.DepthCompare))
	hashWriteBool(h, s.DepthStencil.StencilEnabled)
	hashWriteUint32(h, uint32(s.DepthStencil.StencilCompare))

	for i := range s.Blend {
		b := &s.Blend[i]
		hashWriteBool(h, b.Enabled)
		for _, c := range []BlendComponent{b.Color, b.Alpha} {
			hashWriteUint32(h, uint32(c.SrcFactor))
			hashWriteUint32(h, uint32(c.DstFactor))
			hashWriteUint32(h, uint32(c.Operation))
		}
		hashWriteUint32(h, uint32(b.WriteMask))
	}
}
