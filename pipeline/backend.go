package pipeline

import (
	vk "github.com/goki/vulkan"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga/ir"
	"github.com/nvemu/maxvk/maxwell"
)

// PipelineID identifies one backend pipeline object.
type PipelineID uint64

// StageCode is the backend-compiled form of one shader stage, typically
// SPIR-V words as bytes.
type StageCode []byte

// Specialization carries the guest state a stage translation depends on
// beyond the instruction stream itself. Two pipelines built from the same
// guest program but different specialization compile separately.
type Specialization struct {
	// BaseBinding is the first descriptor binding number assigned to
	// this stage. Stages of one pipeline share a set, so each stage is
	// compiled against its own base.
	BaseBinding uint32

	// PointSize is the fixed point size, in pixels, written by vertex
	// stages when the topology is a point list. Zero when unused.
	PointSize float32

	// AttributeTypes gives the component type of each vertex attribute
	// slot, consumed by vertex stage translation.
	AttributeTypes [NumVertexAttributes]gputypes.VertexFormat

	// NDCMinusOneToOne selects the guest depth convention of [-1, 1]
	// instead of the host's [0, 1].
	NDCMinusOneToOne bool

	// WorkgroupSize and SharedMemorySize specialize compute stages.
	WorkgroupSize    [3]uint32
	SharedMemorySize uint32
}

// StageShader is one compiled stage of a pipeline, paired with the
// resource usage its descriptor bindings were derived from.
type StageShader struct {
	Stage maxwell.ShaderStage
	Code  StageCode
	Usage maxwell.ResourceUsage
}

// GraphicsPipelineParams carries everything a backend needs to create one
// graphics pipeline object.
type GraphicsPipelineParams struct {
	Key      GraphicsPipelineKey
	Stages   []StageShader
	Bindings []vk.DescriptorSetLayoutBinding
	Template []vk.DescriptorUpdateTemplateEntry
}

// ComputePipelineParams carries everything a backend needs to create one
// compute pipeline object.
type ComputePipelineParams struct {
	Key      ComputePipelineKey
	Stage    StageShader
	Bindings []vk.DescriptorSetLayoutBinding
	Template []vk.DescriptorUpdateTemplateEntry
}

// Backend compiles stage IR and owns pipeline objects. Implementations
// live outside this package; the native package provides the reference
// one.
type Backend interface {
	// CompileStage lowers one stage module to backend code under the
	// given specialization.
	CompileStage(stage maxwell.ShaderStage, module *ir.Module, spec Specialization) (StageCode, error)

	// CreateGraphicsPipeline and CreateComputePipeline build pipeline
	// objects. Returned IDs stay valid until DestroyPipeline.
	CreateGraphicsPipeline(params GraphicsPipelineParams) (PipelineID, error)
	CreateComputePipeline(params ComputePipelineParams) (PipelineID, error)

	// DestroyPipeline releases a pipeline object. The caller guarantees
	// the pipeline is no longer referenced by in-flight work.
	DestroyPipeline(id PipelineID)
}
