package maxwell

import (
	"fmt"
	"slices"

	"github.com/gogpu/naga/ir"
)

// Opcode classes recognized by the usage scanner, taken from the upper 12
// bits of an instruction word. This is the subset of the guest encoding
// needed for resource discovery; all other instructions are skipped.
const (
	opLDC  = 0xEF9 // load from constant buffer
	opLDG  = 0xEED // load through global memory descriptor
	opSTG  = 0xEEE // store through global memory descriptor
	opTLD  = 0xDC4 // texel fetch from a buffer view
	opTEX  = 0xDEB // texture sample
	opTLD4 = 0xDEF // texture gather
	opSULD = 0xEB0 // storage image load
	opSUST = 0xEB2 // storage image store
)

// Analyze scans a trimmed program and returns the resources it references.
// The stream is walked the same way DetermineLength walks it: scheduling
// words are skipped, and the scan honors the family's main offset.
//
// Array arity is not recoverable from the instruction stream alone; the
// scanner records Count 1 for every sampler. Callers with access to the
// bound texture headers may widen Count before layout construction.
func Analyze(code ProgramCode, isCompute bool) ResourceUsage {
	constBufs := map[uint32]bool{}
	globalBufs := map[uint32]bool{} // value: written
	texelBufs := map[uint32]bool{}
	samplers := map[uint32]bool{}
	images := map[uint32]bool{} // value: written

	mainOffset := MainOffset(isCompute)
	for offset := mainOffset; offset < len(code); offset++ {
		if isSchedWord(offset, mainOffset) {
			continue
		}
		inst := code[offset]
		if inst == 0 || inst&selfBranchMask == selfBranch {
			break
		}
		switch inst >> 52 {
		case opLDC:
			constBufs[uint32(inst>>36)&0x1F] = true
		case opLDG:
			idx := uint32(inst>>36) & 0xFF
			globalBufs[idx] = globalBufs[idx]
		case opSTG:
			globalBufs[uint32(inst>>36)&0xFF] = true
		case opTLD:
			texelBufs[uint32(inst>>36)&0x1FFF] = true
		case opTEX, opTLD4:
			samplers[uint32(inst>>36)&0x1FFF] = true
		case opSULD:
			idx := uint32(inst>>36) & 0x3F
			images[idx] = images[idx]
		case opSUST:
			images[uint32(inst>>36)&0x3F] = true
		}
	}

	var usage ResourceUsage
	for _, idx := range sortedKeys(constBufs) {
		usage.ConstBuffers = append(usage.ConstBuffers, ConstBuffer{Index: idx})
	}
	for _, idx := range sortedKeys(globalBufs) {
		usage.GlobalBuffers = append(usage.GlobalBuffers, GlobalBuffer{Index: idx, Written: globalBufs[idx]})
	}
	for _, idx := range sortedKeys(texelBufs) {
		usage.TexelBuffers = append(usage.TexelBuffers, TexelBuffer{Index: idx})
	}
	for _, idx := range sortedKeys(samplers) {
		usage.Samplers = append(usage.Samplers, Sampler{Index: idx, Count: 1})
	}
	for _, idx := range sortedKeys(images) {
		usage.Images = append(usage.Images, Image{Index: idx, Written: images[idx]})
	}
	return usage
}

func sortedKeys(m map[uint32]bool) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// BuildModule assembles the naga IR module for one decoded program: one
// global variable per referenced resource, declared in canonical kind order
// with stage-local binding numbers starting at zero. Cross-stage binding
// numbers are assigned later by the layout builder.
//
// naga models vertex, fragment and compute entry points; for the
// tessellation and geometry stages the module carries declarations only.
func BuildModule(stage ShaderStage, usage ResourceUsage) *ir.Module {
	module := &ir.Module{}

	addType := func(t ir.Type) ir.TypeHandle {
		module.Types = append(module.Types, t)
		return ir.TypeHandle(len(module.Types) - 1)
	}
	bufType := addType(ir.Type{
		Name: "block",
		Inner: ir.VectorType{
			Size:   ir.Vec4,
			Scalar: ir.ScalarType{Kind: ir.ScalarFloat, Width: 4},
		},
	})
	texelType := addType(ir.Type{Inner: ir.ImageType{Dim: ir.Dim1D, Class: ir.ImageClassSampled}})
	sampledType := addType(ir.Type{Inner: ir.ImageType{Dim: ir.Dim2D, Class: ir.ImageClassSampled}})
	storageType := addType(ir.Type{Inner: ir.ImageType{Dim: ir.Dim2D, Class: ir.ImageClassStorage}})

	binding := uint32(0)
	addGlobal := func(gv ir.GlobalVariable) {
		gv.Binding = &ir.ResourceBinding{Group: 0, Binding: binding}
		binding++
		module.GlobalVariables = append(module.GlobalVariables, gv)
	}

	for _, cb := range usage.ConstBuffers {
		addGlobal(ir.GlobalVariable{Name: fmt.Sprintf("cbuf%d", cb.Index), Type: bufType, Space: ir.SpaceUniform})
	}
	for _, gb := range usage.GlobalBuffers {
		addGlobal(ir.GlobalVariable{Name: fmt.Sprintf("gmem%d", gb.Index), Type: bufType, Space: ir.SpaceStorage})
	}
	for _, tb := range usage.TexelBuffers {
		addGlobal(ir.GlobalVariable{Name: fmt.Sprintf("tbuf%d", tb.Index), Type: texelType, Space: ir.SpaceHandle})
	}
	for _, s := range usage.Samplers {
		addGlobal(ir.GlobalVariable{Name: fmt.Sprintf("tex%d", s.Index), Type: sampledType, Space: ir.SpaceHandle})
	}
	for _, img := range usage.Images {
		addGlobal(ir.GlobalVariable{Name: fmt.Sprintf("img%d", img.Index), Type: storageType, Space: ir.SpaceHandle})
	}

	// The entry function is carried inline in the entry point, not in
	// Module.Functions.
	mainFn := ir.Function{Name: "main", Body: []ir.Statement{{Kind: ir.StmtReturn{}}}}
	switch stage {
	case StageVertex:
		module.EntryPoints = []ir.EntryPoint{{Name: "main", Stage: ir.StageVertex, Function: mainFn}}
	case StageFragment:
		module.EntryPoints = []ir.EntryPoint{{Name: "main", Stage: ir.StageFragment, Function: mainFn}}
	case StageCompute:
		module.EntryPoints = []ir.EntryPoint{{
			Name:      "main",
			Stage:     ir.StageCompute,
			Function:  mainFn,
			Workgroup: [3]uint32{1, 1, 1},
		}}
	}
	return module
}
