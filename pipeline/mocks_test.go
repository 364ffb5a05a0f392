package pipeline

import (
	"errors"

	"github.com/gogpu/naga/ir"
	"github.com/nvemu/maxvk/maxwell"
)

var errCompileFailed = errors.New("compile failed")

// mockMemory is a guest memory view backed by plain maps.
type mockMemory struct {
	hosts map[GPUVAddr]HostID
	cpus  map[GPUVAddr]CPUVAddr
	code  map[HostID][]uint64
}

func newMockMemory() *mockMemory {
	return &mockMemory{
		hosts: make(map[GPUVAddr]HostID),
		cpus:  make(map[GPUVAddr]CPUVAddr),
		code:  make(map[HostID][]uint64),
	}
}

// mapProgram maps a guest GPU address to a host identity, a CPU address
// and backing code words.
func (m *mockMemory) mapProgram(addr GPUVAddr, host HostID, cpu CPUVAddr, code []uint64) {
	m.hosts[addr] = host
	m.cpus[addr] = cpu
	if code != nil {
		m.code[host] = code
	}
}

func (m *mockMemory) Pointer(addr GPUVAddr) HostID { return m.hosts[addr] }

func (m *mockMemory) ReadBlock(addr GPUVAddr, dst []uint64) {
	copy(dst, m.code[m.hosts[addr]])
}

func (m *mockMemory) CPUAddress(addr GPUVAddr) (CPUVAddr, bool) {
	cpu, ok := m.cpus[addr]
	return cpu, ok
}

// mockBackend records compilation and pipeline lifecycle calls.
type mockBackend struct {
	nextID PipelineID

	compiledStages []maxwell.ShaderStage
	baseBindings   []uint32

	graphicsCreated int
	computeCreated  int
	destroyed       []PipelineID

	failCompile bool
}

func (b *mockBackend) CompileStage(stage maxwell.ShaderStage, module *ir.Module, spec Specialization) (StageCode, error) {
	if b.failCompile {
		return nil, errCompileFailed
	}
	if module == nil {
		return nil, errors.New("nil module")
	}
	b.compiledStages = append(b.compiledStages, stage)
	b.baseBindings = append(b.baseBindings, spec.BaseBinding)
	return StageCode{0x03, 0x02, 0x23, 0x07}, nil
}

func (b *mockBackend) CreateGraphicsPipeline(params GraphicsPipelineParams) (PipelineID, error) {
	b.nextID++
	b.graphicsCreated++
	return b.nextID, nil
}

func (b *mockBackend) CreateComputePipeline(params ComputePipelineParams) (PipelineID, error) {
	b.nextID++
	b.computeCreated++
	return b.nextID, nil
}

func (b *mockBackend) DestroyPipeline(id PipelineID) {
	b.destroyed = append(b.destroyed, id)
}

// mockScheduler counts drains.
type mockScheduler struct {
	finishes int
}

func (s *mockScheduler) Finish() { s.finishes++ }

// testShader builds a shader with the given usage without going through
// guest memory.
func testShader(stage maxwell.ShaderStage, usage maxwell.ResourceUsage) *Shader {
	return &Shader{
		stage:  stage,
		usage:  usage,
		module: maxwell.BuildModule(stage, usage),
	}
}
