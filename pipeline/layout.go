package pipeline

import (
	"errors"
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/nvemu/maxvk/maxwell"
)

// Layout construction errors.
var (
	// ErrBindingMismatch is returned when the bindings emitted for a
	// stage disagree with the stage's declared resource count.
	ErrBindingMismatch = errors.New("pipeline: descriptor binding count mismatch")
)

// StageEntry couples one active stage with its resource usage, in the
// order the stages occupy the pipeline.
type StageEntry struct {
	Stage maxwell.ShaderStage
	Usage maxwell.ResourceUsage
}

// stageFlags maps a stage to its Vulkan stage bit.
func stageFlags(stage maxwell.ShaderStage) (vk.ShaderStageFlags, error) {
	switch stage {
	case maxwell.StageVertex:
		return vk.ShaderStageFlags(vk.ShaderStageVertexBit), nil
	case maxwell.StageTessControl:
		return vk.ShaderStageFlags(vk.ShaderStageTessellationControlBit), nil
	case maxwell.StageTessEval:
		return vk.ShaderStageFlags(vk.ShaderStageTessellationEvaluationBit), nil
	case maxwell.StageGeometry:
		return vk.ShaderStageFlags(vk.ShaderStageGeometryBit), nil
	case maxwell.StageFragment:
		return vk.ShaderStageFlags(vk.ShaderStageFragmentBit), nil
	case maxwell.StageCompute:
		return vk.ShaderStageFlags(vk.ShaderStageComputeBit), nil
	default:
		return 0, fmt.Errorf("%w: %s", maxwell.ErrUnsupportedStage, stage)
	}
}

// BuildLayout produces the descriptor set layout bindings for the given
// stages. Binding numbers are assigned consecutively starting at base,
// walking stages in order and each stage's resources in canonical kind
// order. It returns the bindings and the next free binding number.
func BuildLayout(stages []StageEntry, base uint32) ([]vk.DescriptorSetLayoutBinding, uint32, error) {
	var bindings []vk.DescriptorSetLayoutBinding
	binding := base

	add := func(flags vk.ShaderStageFlags, dt vk.DescriptorType, count, arity uint32) {
		for i := uint32(0); i < count; i++ {
			bindings = append(bindings, vk.DescriptorSetLayoutBinding{
				Binding:         binding,
				DescriptorType:  dt,
				DescriptorCount: arity,
				StageFlags:      flags,
			})
			binding++
		}
	}

	for _, entry := range stages {
		flags, err := stageFlags(entry.Stage)
		if err != nil {
			return nil, 0, err
		}
		before := binding
		u := &entry.Usage

		add(flags, vk.DescriptorTypeUniformBuffer, uint32(len(u.ConstBuffers)), 1)
		add(flags, vk.DescriptorTypeStorageBuffer, uint32(len(u.GlobalBuffers)), 1)
		add(flags, vk.DescriptorTypeUniformTexelBuffer, uint32(len(u.TexelBuffers)), 1)
		for _, s := range u.Samplers {
			arity := s.Count
			if arity == 0 {
				arity = 1
			}
			add(flags, vk.DescriptorTypeCombinedImageSampler, 1, arity)
		}
		add(flags, vk.DescriptorTypeStorageImage, uint32(len(u.Images)), 1)

		if int(binding-before) != u.NumBindings() {
			return nil, 0, fmt.Errorf("%w: stage %s emitted %d, declared %d",
				ErrBindingMismatch, entry.Stage, binding-before, u.NumBindings())
		}
	}
	return bindings, binding, nil
}
