package pipeline

import (
	"testing"

	"github.com/gogpu/gputypes"
)

func TestGraphicsPipelineKeyHash(t *testing.T) {
	base := graphicsKey(0x1000)
	if base.Hash() == 0 {
		t.Error("hash of a populated key is zero")
	}
	if base.Hash() != base.Hash() {
		t.Error("hash is not deterministic")
	}

	perturbed := []GraphicsPipelineKey{base, base, base, base}
	perturbed[0].Shaders[4] = 0x2000
	perturbed[1].Fixed.Topology = gputypes.PrimitiveTopologyLineList
	perturbed[2].Fixed.Blend[7].Enabled = true
	perturbed[3].Fixed.VertexAttributes[31].Offset = 4

	seen := map[uint64]int{base.Hash(): -1}
	for i := range perturbed {
		h := perturbed[i].Hash()
		if prev, ok := seen[h]; ok {
			t.Errorf("key %d collides with key %d", i, prev)
		}
		seen[h] = i
	}
}

func TestComputePipelineKeyHash(t *testing.T) {
	a := ComputePipelineKey{Shader: 0x1000, WorkgroupSize: [3]uint32{8, 8, 1}}
	b := a
	b.SharedMemorySize = 0x400
	c := a
	c.WorkgroupSize[2] = 64

	if a.Hash() != a.Hash() {
		t.Error("hash is not deterministic")
	}
	if a.Hash() == b.Hash() || a.Hash() == c.Hash() || b.Hash() == c.Hash() {
		t.Error("distinct keys share a hash")
	}
}

func TestShaderAddressesContains(t *testing.T) {
	var addrs ShaderAddresses
	addrs[0] = 0x1000
	addrs[4] = 0x2000

	if !addrs.Contains(0x1000) || !addrs.Contains(0x2000) {
		t.Error("Contains missed a present address")
	}
	if addrs.Contains(0x3000) {
		t.Error("Contains matched an absent address")
	}
	// Disabled slots are zero; zero must never match.
	if addrs.Contains(0) {
		t.Error("Contains matched the zero address")
	}
}
