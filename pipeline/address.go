package pipeline

// GPUVAddr is a virtual address in the guest GPU address space.
type GPUVAddr uint64

// CPUVAddr is an address in the guest CPU address space. Invalidation
// ranges arrive in this space.
type CPUVAddr uint64

// HostID identifies the host-visible memory backing a guest allocation.
// Two guest GPU addresses aliasing the same allocation resolve to the same
// HostID. The zero value means the address is not currently mapped.
type HostID uintptr

// MemoryManager is the guest memory view the cache reads shaders through.
type MemoryManager interface {
	// Pointer resolves a guest GPU address to its host memory identity.
	// Returns 0 when the address is unmapped.
	Pointer(addr GPUVAddr) HostID

	// ReadBlock copies len(dst) words of guest memory starting at addr
	// into dst.
	ReadBlock(addr GPUVAddr, dst []uint64)

	// CPUAddress translates a guest GPU address to its guest CPU address.
	// ok is false when the address has no CPU-side mapping.
	CPUAddress(addr GPUVAddr) (cpu CPUVAddr, ok bool)
}

// Scheduler is the host GPU work queue the cache synchronizes against
// before destroying pipelines that may still be referenced in flight.
type Scheduler interface {
	// Finish blocks until all previously submitted host GPU work has
	// completed.
	Finish()
}
