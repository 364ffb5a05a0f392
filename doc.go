// Package maxvk implements the just-in-time shader and pipeline cache of a
// guest-GPU command translator.
//
// # Overview
//
// maxvk turns raw Maxwell-style guest instruction streams and fixed rendering
// state into compiled, backend-native pipeline objects, and keeps those
// objects valid as guest state and guest memory change over time. It sits
// between an upstream command decoder (which decides what to draw) and a
// native backend (which executes) and only produces and caches the artifacts
// needed to execute.
//
// # Architecture
//
// The module is organized into:
//   - maxwell: the guest ISA side. Shader stages, program boundary
//     decoding, resource-usage analysis and naga IR construction.
//   - pipeline: the shader and pipeline caches, the descriptor layout and
//     update-template builders, and the collaborator interfaces.
//   - native: the reference Backend, compiling stage IR to SPIR-V through
//     gogpu/naga.
//   - internal/tracker: the guest address range index driving invalidation.
//
// # Collaborators
//
// Guest memory resolution, GPU work scheduling and native pipeline object
// construction are consumed through interfaces declared in the pipeline
// package; see pipeline.MemoryManager, pipeline.Scheduler and
// pipeline.Backend.
package maxvk

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
