package native

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gogpu/naga/ir"

	"github.com/nvemu/maxvk/maxwell"
	"github.com/nvemu/maxvk/pipeline"
)

func TestCompileStageEmitsSPIRV(t *testing.T) {
	backend := NewBackend(nil)
	module := maxwell.BuildModule(maxwell.StageVertex, maxwell.ResourceUsage{})

	code, err := backend.CompileStage(maxwell.StageVertex, module, pipeline.Specialization{})
	if err != nil {
		t.Fatalf("CompileStage: %v", err)
	}
	if len(code) < 20 {
		t.Fatalf("SPIR-V too short: %d bytes", len(code))
	}
	magic := uint32(code[0]) | uint32(code[1])<<8 | uint32(code[2])<<16 | uint32(code[3])<<24
	if magic != 0x07230203 {
		t.Errorf("SPIR-V magic = %#08x", magic)
	}
}

func TestCompileStageWorkgroupSize(t *testing.T) {
	backend := NewBackend(nil)
	module := maxwell.BuildModule(maxwell.StageCompute, maxwell.ResourceUsage{})

	small, err := backend.CompileStage(maxwell.StageCompute, module,
		pipeline.Specialization{WorkgroupSize: [3]uint32{8, 8, 1}})
	if err != nil {
		t.Fatalf("CompileStage(8x8x1): %v", err)
	}
	large, err := backend.CompileStage(maxwell.StageCompute, module,
		pipeline.Specialization{WorkgroupSize: [3]uint32{16, 16, 1}})
	if err != nil {
		t.Fatalf("CompileStage(16x16x1): %v", err)
	}
	if bytes.Equal(small, large) {
		t.Error("distinct workgroup sizes compiled to identical code")
	}
	if got := module.EntryPoints[0].Workgroup; got != [3]uint32{1, 1, 1} {
		t.Errorf("input module Workgroup = %v, want untouched [1 1 1]", got)
	}
}

func TestSpecializeRebasesBindings(t *testing.T) {
	usage := maxwell.ResourceUsage{
		ConstBuffers: []maxwell.ConstBuffer{{Index: 0}, {Index: 1}},
		Samplers:     []maxwell.Sampler{{Index: 0, Count: 1}},
	}
	module := maxwell.BuildModule(maxwell.StageFragment, usage)

	out := specialize(module, pipeline.Specialization{BaseBinding: 3})
	for i, gv := range out.GlobalVariables {
		if gv.Binding.Binding != uint32(3+i) {
			t.Errorf("global %d binding = %d, want %d", i, gv.Binding.Binding, 3+i)
		}
	}
	// The shared module keeps its stage-local numbering.
	for i, gv := range module.GlobalVariables {
		if gv.Binding.Binding != uint32(i) {
			t.Errorf("input module global %d binding = %d, want %d", i, gv.Binding.Binding, i)
		}
	}
}

func TestSpecializeSharedMemory(t *testing.T) {
	module := maxwell.BuildModule(maxwell.StageCompute, maxwell.ResourceUsage{})

	out := specialize(module, pipeline.Specialization{SharedMemorySize: 256})
	if len(out.GlobalVariables) != 1 {
		t.Fatalf("GlobalVariables = %d, want the shared memory array", len(out.GlobalVariables))
	}
	if out.GlobalVariables[0].Space != ir.SpaceWorkGroup {
		t.Errorf("Space = %v, want SpaceWorkGroup", out.GlobalVariables[0].Space)
	}
	if len(module.GlobalVariables) != 0 || len(module.Types) != len(out.Types)-2 {
		t.Error("input module mutated")
	}
}

func TestCompileStageNilModule(t *testing.T) {
	backend := NewBackend(nil)
	_, err := backend.CompileStage(maxwell.StageVertex, nil, pipeline.Specialization{})
	if !errors.Is(err, ErrNilModule) {
		t.Errorf("error = %v, want ErrNilModule", err)
	}
}

func TestPipelineLifecycle(t *testing.T) {
	backend := NewBackend(nil)

	gid, err := backend.CreateGraphicsPipeline(pipeline.GraphicsPipelineParams{})
	if err != nil {
		t.Fatalf("CreateGraphicsPipeline: %v", err)
	}
	cid, err := backend.CreateComputePipeline(pipeline.ComputePipelineParams{})
	if err != nil {
		t.Fatalf("CreateComputePipeline: %v", err)
	}
	if gid == cid {
		t.Error("pipeline IDs collide")
	}
	if backend.Live() != 2 {
		t.Errorf("Live = %d, want 2", backend.Live())
	}

	backend.DestroyPipeline(gid)
	backend.DestroyPipeline(gid) // double destroy is ignored
	if backend.Live() != 1 {
		t.Errorf("Live = %d, want 1", backend.Live())
	}
}

func TestSchedulerFinish(t *testing.T) {
	s := NewScheduler()
	if s.Pending() != 0 {
		t.Fatalf("Pending = %d, want 0", s.Pending())
	}

	first := s.Submit()
	second := s.Submit()
	if second <= first {
		t.Errorf("tickets not increasing: %d then %d", first, second)
	}
	if s.Pending() != 2 {
		t.Errorf("Pending = %d, want 2", s.Pending())
	}

	s.Finish()
	if s.Pending() != 0 {
		t.Errorf("Pending after Finish = %d, want 0", s.Pending())
	}
	s.Finish() // idle finish is a no-op

	if next := s.Submit(); next <= second {
		t.Errorf("ticket after finish = %d, want > %d", next, second)
	}
}

// TestCacheIntegration drives the pipeline cache end to end with the real
// backend and scheduler.
func TestCacheIntegration(t *testing.T) {
	backend := NewBackend(nil)
	scheduler := NewScheduler()
	mem := &flatMemory{hosts: map[pipeline.GPUVAddr]pipeline.HostID{
		0x1000: 1,
	}}
	cache := pipeline.New(mem, backend, scheduler)

	var key pipeline.GraphicsPipelineKey
	key.Shaders[0] = 0x1000

	compiled, err := cache.GetGraphicsPipeline(key)
	if err != nil {
		t.Fatalf("GetGraphicsPipeline: %v", err)
	}
	if backend.Live() != 1 {
		t.Errorf("Live = %d, want 1", backend.Live())
	}
	if len(compiled.Stages()) != 1 || compiled.Stages()[0].Stage != maxwell.StageVertex {
		t.Fatalf("stages = %+v, want one vertex stage", compiled.Stages())
	}
	if len(compiled.Stages()[0].Code) == 0 {
		t.Error("vertex stage has no code")
	}

	scheduler.Submit()
	cache.Invalidate(1)
	if backend.Live() != 0 {
		t.Errorf("Live after invalidate = %d, want 0", backend.Live())
	}
	if scheduler.Pending() != 0 {
		t.Errorf("Pending after invalidate = %d, want 0", scheduler.Pending())
	}
}

// flatMemory maps every address to zero-filled code.
type flatMemory struct {
	hosts map[pipeline.GPUVAddr]pipeline.HostID
}

func (m *flatMemory) Pointer(addr pipeline.GPUVAddr) pipeline.HostID { return m.hosts[addr] }

func (m *flatMemory) ReadBlock(addr pipeline.GPUVAddr, dst []uint64) {
	for i := range dst {
		dst[i] = 0
	}
}

func (m *flatMemory) CPUAddress(addr pipeline.GPUVAddr) (pipeline.CPUVAddr, bool) {
	return pipeline.CPUVAddr(addr), true
}
