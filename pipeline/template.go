package pipeline

import (
	vk "github.com/goki/vulkan"
)

// UpdateEntrySize is the byte stride of one slot in the descriptor update
// payload. The payload is an array of 24-byte unions holding a
// VkDescriptorImageInfo, VkDescriptorBufferInfo or VkBufferView each.
const UpdateEntrySize = 24

// BuildTemplate produces the descriptor update template entries matching
// the layout BuildLayout builds for the same stages. Binding numbers and
// payload offsets advance together: binding n reads its descriptor from
// payload offset n*UpdateEntrySize, with arrayed samplers consuming one
// slot per array element.
func BuildTemplate(stages []StageEntry) []vk.DescriptorUpdateTemplateEntry {
	var entries []vk.DescriptorUpdateTemplateEntry
	binding := uint32(0)
	offset := uint32(0)

	// Each contiguous run of same-kind bindings collapses to a single
	// entry with DescriptorCount spanning the run.
	addRun := func(dt vk.DescriptorType, count uint32) {
		if count > 0 {
			entries = append(entries, vk.DescriptorUpdateTemplateEntry{
				DstBinding:      binding,
				DstArrayElement: 0,
				DescriptorCount: count,
				DescriptorType:  dt,
				Offset:          uint64(offset),
				Stride:          UpdateEntrySize,
			})
		}
		binding += count
		offset += count * UpdateEntrySize
	}

	for _, entry := range stages {
		u := &entry.Usage

		addRun(vk.DescriptorTypeUniformBuffer, uint32(len(u.ConstBuffers)))
		addRun(vk.DescriptorTypeStorageBuffer, uint32(len(u.GlobalBuffers)))

		// Updating several texel buffers through one entry crashes some
		// NVIDIA drivers. Emit one single-descriptor entry per binding.
		for range u.TexelBuffers {
			entries = append(entries, vk.DescriptorUpdateTemplateEntry{
				DstBinding:      binding,
				DstArrayElement: 0,
				DescriptorCount: 1,
				DescriptorType:  vk.DescriptorTypeUniformTexelBuffer,
				Offset:          uint64(offset),
				Stride:          UpdateEntrySize,
			})
			binding++
			offset += UpdateEntrySize
		}

		// Arrayed samplers need their own entries: the array elements
		// occupy consecutive payload slots under a single binding.
		for _, s := range u.Samplers {
			arity := s.Count
			if arity == 0 {
				arity = 1
			}
			entries = append(entries, vk.DescriptorUpdateTemplateEntry{
				DstBinding:      binding,
				DstArrayElement: 0,
				DescriptorCount: arity,
				DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
				Offset:          uint64(offset),
				Stride:          UpdateEntrySize,
			})
			binding++
			offset += arity * UpdateEntrySize
		}

		addRun(vk.DescriptorTypeStorageImage, uint32(len(u.Images)))
	}
	return entries
}
