package pipeline

import (
	"errors"
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/gogpu/gputypes"
	"github.com/nvemu/maxvk/maxwell"
)

// Compilation errors.
var (
	// ErrMissingPointSize is returned when a pipeline uses point
	// topology but the fixed state carries no point size for the
	// vertex stage to write.
	ErrMissingPointSize = errors.New("pipeline: point topology without point size")

	// ErrNoVertexShader is returned when a graphics key has no program
	// in the vertex slot.
	ErrNoVertexShader = errors.New("pipeline: graphics pipeline without vertex shader")
)

// CompiledPipeline is one backend pipeline object together with the
// descriptor metadata needed to bind resources to it each draw.
type CompiledPipeline struct {
	id       PipelineID
	stages   []StageShader
	bindings []vk.DescriptorSetLayoutBinding
	template []vk.DescriptorUpdateTemplateEntry
}

// ID returns the backend pipeline identifier.
func (p *CompiledPipeline) ID() PipelineID { return p.id }

// Stages returns the compiled stages in pipeline order.
func (p *CompiledPipeline) Stages() []StageShader { return p.stages }

// Bindings returns the descriptor set layout bindings of the pipeline.
func (p *CompiledPipeline) Bindings() []vk.DescriptorSetLayoutBinding { return p.bindings }

// Template returns the descriptor update template entries of the pipeline.
func (p *CompiledPipeline) Template() []vk.DescriptorUpdateTemplateEntry { return p.template }

// graphicsSpecialization derives the per-stage translation inputs from the
// fixed state.
func graphicsSpecialization(fixed *FixedState) (Specialization, error) {
	spec := Specialization{
		NDCMinusOneToOne: fixed.Rasterizer.NDCMinusOneToOne,
	}
	for i := range fixed.VertexAttributes {
		spec.AttributeTypes[i] = fixed.VertexAttributes[i].Format
	}
	if fixed.Topology == gputypes.PrimitiveTopologyPointList {
		if fixed.PointSize == 0 {
			return Specialization{}, ErrMissingPointSize
		}
		spec.PointSize = fixed.PointSize
	}
	return spec, nil
}

// BuildGraphicsPipeline compiles every active stage, assembles the
// descriptor layout and update template, and creates the backend pipeline
// object. Stages are compiled in slot order, each against the binding
// base left by the previous stage.
func BuildGraphicsPipeline(backend Backend, shaders [maxwell.NumGraphicsStages]*Shader, key GraphicsPipelineKey) (*CompiledPipeline, error) {
	if shaders[0] == nil {
		return nil, ErrNoVertexShader
	}
	spec, err := graphicsSpecialization(&key.Fixed)
	if err != nil {
		return nil, err
	}

	var (
		stages   []StageShader
		entries  []StageEntry
		bindings []vk.DescriptorSetLayoutBinding
		binding  uint32
	)
	for _, shader := range shaders {
		if shader == nil {
			continue
		}
		spec.BaseBinding = binding
		code, err := backend.CompileStage(shader.Stage(), shader.Module(), spec)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", shader.Stage(), err)
		}

		entry := StageEntry{Stage: shader.Stage(), Usage: shader.Usage()}
		stageBindings, next, err := BuildLayout([]StageEntry{entry}, binding)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, stageBindings...)
		binding = next

		stages = append(stages, StageShader{Stage: shader.Stage(), Code: code, Usage: shader.Usage()})
		entries = append(entries, entry)
	}

	template := BuildTemplate(entries)
	id, err := backend.CreateGraphicsPipeline(GraphicsPipelineParams{
		Key:      key,
		Stages:   stages,
		Bindings: bindings,
		Template: template,
	})
	if err != nil {
		return nil, err
	}
	return &CompiledPipeline{id: id, stages: stages, bindings: bindings, template: template}, nil
}

// BuildComputePipeline compiles a compute program and creates the backend
// pipeline object.
func BuildComputePipeline(backend Backend, shader *Shader, key ComputePipelineKey) (*CompiledPipeline, error) {
	spec := Specialization{
		WorkgroupSize:    key.WorkgroupSize,
		SharedMemorySize: key.SharedMemorySize,
	}
	code, err := backend.CompileStage(shader.Stage(), shader.Module(), spec)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", shader.Stage(), err)
	}

	entry := StageEntry{Stage: shader.Stage(), Usage: shader.Usage()}
	bindings, _, err := BuildLayout([]StageEntry{entry}, 0)
	if err != nil {
		return nil, err
	}
	template := BuildTemplate([]StageEntry{entry})

	stage := StageShader{Stage: shader.Stage(), Code: code, Usage: shader.Usage()}
	id, err := backend.CreateComputePipeline(ComputePipelineParams{
		Key:      key,
		Stage:    stage,
		Bindings: bindings,
		Template: template,
	})
	if err != nil {
		return nil, err
	}
	return &CompiledPipeline{
		id:       id,
		stages:   []StageShader{stage},
		bindings: bindings,
		template: template,
	}, nil
}
