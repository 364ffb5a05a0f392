// Package maxwell handles the guest GPU instruction stream: shader stage
// enumeration, program boundary decoding, and resource-usage analysis.
//
// Guest shader programs carry no explicit length field. Program length is
// inferred from a trampoline convention used by the guest compiler: every
// program ends on a branch-to-self instruction or on a zero word. See
// DetermineLength.
//
// Analyze derives the resources a trimmed program references (constant
// buffers, global buffers, texel buffers, samplers, images), and BuildModule
// assembles the matching naga IR module consumed by the native backend.
package maxwell
