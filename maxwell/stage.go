package maxwell

import (
	"errors"
	"fmt"
)

// Stage errors.
var (
	// ErrUnsupportedStage is returned when a value outside the known
	// shader stage enumeration is passed to stage-kind derivation.
	ErrUnsupportedStage = errors.New("maxwell: unsupported shader stage")
)

// ShaderStage identifies one shader role in a pipeline.
type ShaderStage uint32

const (
	// StageVertex is the vertex shader stage.
	StageVertex ShaderStage = iota

	// StageTessControl is the tessellation control shader stage.
	StageTessControl

	// StageTessEval is the tessellation evaluation shader stage.
	StageTessEval

	// StageGeometry is the geometry shader stage.
	StageGeometry

	// StageFragment is the fragment shader stage.
	StageFragment

	// StageCompute is the compute shader stage.
	StageCompute

	// NumStages is the number of shader stages.
	NumStages = int(StageCompute) + 1
)

// NumGraphicsStages is the number of graphics program slots. A graphics
// pipeline carries one fixed slot per stage, in stage order; compute
// programs are dispatched individually and have no slot.
const NumGraphicsStages = 5

// String returns the stage name.
func (s ShaderStage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageTessControl:
		return "tess_control"
	case StageTessEval:
		return "tess_eval"
	case StageGeometry:
		return "geometry"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	default:
		return fmt.Sprintf("ShaderStage(%d)", uint32(s))
	}
}

// IsCompute reports whether the stage is the compute stage.
func (s ShaderStage) IsCompute() bool { return s == StageCompute }

// GraphicsStage derives the shader stage for a graphics program slot.
// Slots map 1:1 onto the five graphics stages in stage order.
// Returns ErrUnsupportedStage for slots outside [0, NumGraphicsStages).
func GraphicsStage(slot int) (ShaderStage, error) {
	if slot < 0 || slot >= NumGraphicsStages {
		return StageVertex, fmt.Errorf("%w: program slot %d", ErrUnsupportedStage, slot)
	}
	return ShaderStage(slot), nil
}
