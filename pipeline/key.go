package pipeline

import (
	"encoding/binary"
	"fmt"
	"hash"
	"hash/fnv"
	"math"

	"github.com/nvemu/maxvk/maxwell"
)

// ShaderAddresses holds the guest program address of each graphics stage
// slot. A zero address means the stage is disabled.
type ShaderAddresses [maxwell.NumGraphicsStages]GPUVAddr

// Contains reports whether any slot references addr. The zero address
// never matches.
func (a *ShaderAddresses) Contains(addr GPUVAddr) bool {
	if addr == 0 {
		return false
	}
	for _, got := range a {
		if got == addr {
			return true
		}
	}
	return false
}

// GraphicsPipelineKey identifies one graphics pipeline: the guest programs
// of every stage plus the fixed-function state they were compiled against.
// The type is comparable and used directly as a map key.
type GraphicsPipelineKey struct {
	Shaders ShaderAddresses
	Fixed   FixedState
}

// Hash returns an FNV-1a digest of the key, used for log correlation.
// Map lookups compare full keys; the hash is never used for identity.
func (k *GraphicsPipelineKey) Hash() uint64 {
	h := fnv.New64a()
	for _, addr := range k.Shaders {
		hashWriteUint64(h, uint64(addr))
	}
	k.Fixed.hashInto(h)
	return h.Sum64()
}

// ComputePipelineKey identifies one compute pipeline.
type ComputePipelineKey struct {
	Shader           GPUVAddr
	WorkgroupSize    [3]uint32
	SharedMemorySize uint32
}

// Hash returns an FNV-1a digest of the key, used for log correlation.
func (k *ComputePipelineKey) Hash() uint64 {
	h := fnv.New64a()
	hashWriteUint64(h, uint64(k.Shader))
	for _, dim := range k.WorkgroupSize {
		hashWriteUint32(h, dim)
	}
	hashWriteUint32(h, k.SharedMemorySize)
	return h.Sum64()
}

// keyString formats a key hash for log output.
func keyString(hash uint64) string {
	return fmt.Sprintf("0x%016X", hash)
}

// hashWriteUint32 writes a uint32 to the hash.
func hashWriteUint32(h hash.Hash64, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, _ = h.Write(buf[:])
}

// hashWriteUint64 writes a uint64 to the hash.
func hashWriteUint64(h hash.Hash64, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = h.Write(buf[:])
}

// hashWriteFloat32 writes the bit pattern of a float32 to the hash.
func hashWriteFloat32(h hash.Hash64, v float32) {
	hashWriteUint32(h, math.Float32bits(v))
}

// hashWriteBool writes a bool to the hash.
func hashWriteBool(h hash.Hash64, v bool) {
	if v {
		_, _ = h.Write([]byte{1})
	} else {
		_, _ = h.Write([]byte{0})
	}
}
