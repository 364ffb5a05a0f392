// Package native is the reference pipeline backend. It lowers stage IR to
// SPIR-V through naga and tracks pipeline objects against a hal device.
//
// Device-side pipeline object creation is not wired up yet; pipeline IDs
// are handed out locally and the descriptor state is retained so that the
// hal calls can be dropped in without changing callers.
package native

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
	"github.com/gogpu/wgpu/hal"

	"github.com/nvemu/maxvk/maxwell"
	"github.com/nvemu/maxvk/pipeline"
)

// ErrNilModule is returned when compiling a nil stage module.
var ErrNilModule = errors.New("native: stage module is nil")

// pipelineIDCounter generates unique pipeline IDs.
var pipelineIDCounter uint64

func nextPipelineID() pipeline.PipelineID {
	return pipeline.PipelineID(atomic.AddUint64(&pipelineIDCounter, 1))
}

// record retains the creation state of one live pipeline.
type record struct {
	graphics bool
	stages   int
	bindings int
}

// Backend compiles stages with the naga SPIR-V backend and owns pipeline
// objects.
//
// Backend is safe for concurrent use.
type Backend struct {
	mu sync.Mutex

	// device is the hal device pipelines will be created on.
	// May be nil during testing; creation is a placeholder until the
	// hal pipeline path is wired up.
	device hal.Device

	compiler *spirv.Backend

	pipelines map[pipeline.PipelineID]record
}

// NewBackend creates a backend over device. A nil device is accepted and
// restricts the backend to placeholder pipeline objects.
func NewBackend(device hal.Device) *Backend {
	return &Backend{
		device:    device,
		compiler:  spirv.NewBackend(spirv.DefaultOptions()),
		pipelines: make(map[pipeline.PipelineID]record),
	}
}

// CompileStage lowers a stage module to SPIR-V with the pipeline's
// specialization baked in: descriptor bindings rebased to the stage's
// slice of the cross-stage set, and compute entry points taking the
// dispatch workgroup size and shared memory allocation.
func (b *Backend) CompileStage(stage maxwell.ShaderStage, module *ir.Module, spec pipeline.Specialization) (pipeline.StageCode, error) {
	if module == nil {
		return nil, ErrNilModule
	}
	code, err := b.compiler.Compile(specialize(module, spec))
	if err != nil {
		return nil, fmt.Errorf("native: compile %s: %w", stage, err)
	}
	return pipeline.StageCode(code), nil
}

// specialize returns a copy of module with spec applied. The input
// module is shared between pipelines and is never mutated.
func specialize(module *ir.Module, spec pipeline.Specialization) *ir.Module {
	out := *module

	out.GlobalVariables = make([]ir.GlobalVariable, len(module.GlobalVariables))
	copy(out.GlobalVariables, module.GlobalVariables)
	if spec.BaseBinding != 0 {
		for i := range out.GlobalVariables {
			if b := out.GlobalVariables[i].Binding; b != nil {
				rebased := *b
				rebased.Binding += spec.BaseBinding
				out.GlobalVariables[i].Binding = &rebased
			}
		}
	}

	out.EntryPoints = make([]ir.EntryPoint, len(module.EntryPoints))
	copy(out.EntryPoints, module.EntryPoints)
	for i := range out.EntryPoints {
		if out.EntryPoints[i].Stage != ir.StageCompute {
			continue
		}
		if spec.WorkgroupSize != [3]uint32{} {
			out.EntryPoints[i].Workgroup = spec.WorkgroupSize
		}
		if spec.SharedMemorySize > 0 {
			addSharedMemory(&out, spec.SharedMemorySize)
		}
	}
	return &out
}

// addSharedMemory declares the guest's shared memory window as a
// workgroup-space word array.
func addSharedMemory(module *ir.Module, size uint32) {
	words := (size + 3) / 4
	module.Types = append(append([]ir.Type(nil), module.Types...),
		ir.Type{Inner: ir.ScalarType{Kind: ir.ScalarUint, Width: 4}},
	)
	wordType := ir.TypeHandle(len(module.Types) - 1)
	module.Types = append(module.Types, ir.Type{
		Name:  "smem",
		Inner: ir.ArrayType{Base: wordType, Size: ir.ArraySize{Constant: &words}, Stride: 4},
	})
	module.GlobalVariables = append(module.GlobalVariables, ir.GlobalVariable{
		Name:  "smem",
		Type:  ir.TypeHandle(len(module.Types) - 1),
		Space: ir.SpaceWorkGroup,
	})
}

// CreateGraphicsPipeline creates a graphics pipeline object.
func (b *Backend) CreateGraphicsPipeline(params pipeline.GraphicsPipelineParams) (pipeline.PipelineID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Placeholder until hal render pipeline creation is wired up.
	_ = b.device
	id := nextPipelineID()
	b.pipelines[id] = record{
		graphics: true,
		stages:   len(params.Stages),
		bindings: len(params.Bindings),
	}
	return id, nil
}

// CreateComputePipeline creates a compute pipeline object.
func (b *Backend) CreateComputePipeline(params pipeline.ComputePipelineParams) (pipeline.PipelineID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	_ = b.device
	id := nextPipelineID()
	b.pipelines[id] = record{
		stages:   1,
		bindings: len(params.Bindings),
	}
	return id, nil
}

// DestroyPipeline releases a pipeline object. Destroying an unknown or
// already destroyed ID is ignored.
func (b *Backend) DestroyPipeline(id pipeline.PipelineID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pipelines, id)
}

// Live returns the number of pipelines created and not yet destroyed.
func (b *Backend) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pipelines)
}
