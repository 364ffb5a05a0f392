package maxwell

// ProgramCode is a raw guest shader instruction word stream.
type ProgramCode []uint64

const (
	// MaxProgramWords is the fixed window, in 64-bit instruction words,
	// read from guest memory when decoding a program. Guest programs
	// never exceed this length.
	MaxProgramWords = 0x1000

	// schedPeriod is the interval at which non-executable scheduling
	// words are packed into the instruction stream, counted from the
	// main offset.
	schedPeriod = 4

	// GraphicsMainOffset is the offset of the first executable word in a
	// graphics program. The ten preceding words are a fixed header.
	GraphicsMainOffset = 10

	// ComputeMainOffset is the offset of the first executable word in a
	// compute program. Compute kernels have no header.
	ComputeMainOffset = 0

	// selfBranch is the encoded branch that jumps to itself. Guest
	// programs end with one.
	selfBranch = 0xE2400FFFFF07000F

	// selfBranchMask clears the condition-code field, which is a
	// don't-care for the termination check.
	selfBranchMask = 0xFFFFFFFFFF7FFFFF
)

// MainOffset returns the offset of the first executable instruction word
// for the given program family.
func MainOffset(isCompute bool) int {
	if isCompute {
		return ComputeMainOffset
	}
	return GraphicsMainOffset
}

// isSchedWord reports whether the word at offset is a scheduling word.
// Scheduling words appear once every schedPeriod instructions, counted
// from mainOffset.
func isSchedWord(offset, mainOffset int) bool {
	return (offset-mainOffset)%schedPeriod == 0
}

// DetermineLength returns the number of instruction words that constitute
// one shader program, terminator included.
//
// The stream is scanned forward from the family's main offset. At every
// position that is not a scheduling-word position, two termination
// conditions are checked: the word is a branch-to-self (masked to ignore
// the condition code), or the word is entirely zero. The first word
// satisfying either condition ends the program.
//
// If no terminator is found the full input length is returned; valid guest
// streams always terminate.
func DetermineLength(code ProgramCode, isCompute bool) int {
	mainOffset := MainOffset(isCompute)
	offset := mainOffset
	for offset < len(code) {
		inst := code[offset]
		if !isSchedWord(offset, mainOffset) {
			if inst&selfBranchMask == selfBranch {
				break
			}
			if inst == 0 {
				break
			}
		}
		offset++
	}
	return min(offset+1, len(code))
}
