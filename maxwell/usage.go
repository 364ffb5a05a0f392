package maxwell

// ConstBuffer is one referenced constant buffer slot.
type ConstBuffer struct {
	// Index is the guest constant buffer slot.
	Index uint32
}

// GlobalBuffer is one referenced global (storage) memory region.
type GlobalBuffer struct {
	// Index is the guest descriptor slot the region's address is read from.
	Index uint32

	// Written reports whether the program stores through the region.
	Written bool
}

// TexelBuffer is one referenced texel buffer view.
type TexelBuffer struct {
	// Index is the guest texture header slot.
	Index uint32
}

// Sampler is one referenced combined image sampler.
type Sampler struct {
	// Index is the guest texture header slot.
	Index uint32

	// Count is the declared array size. Guest shaders may statically
	// array samplers; plain samplers have Count 1.
	Count uint32
}

// Image is one referenced storage image.
type Image struct {
	// Index is the guest image header slot.
	Index uint32

	// Written reports whether the program stores to the image.
	Written bool
}

// ResourceUsage summarizes the resources one decoded program references,
// each list ordered by ascending slot index.
type ResourceUsage struct {
	ConstBuffers  []ConstBuffer
	GlobalBuffers []GlobalBuffer
	TexelBuffers  []TexelBuffer
	Samplers      []Sampler
	Images        []Image
}

// NumBindings returns the number of descriptor bindings the usage occupies.
// Every entry consumes exactly one binding; sampler arrays share a single
// binding regardless of Count.
func (u ResourceUsage) NumBindings() int {
	return len(u.ConstBuffers) + len(u.GlobalBuffers) + len(u.TexelBuffers) +
		len(u.Samplers) + len(u.Images)
}
