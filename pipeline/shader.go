package pipeline

import (
	"github.com/gogpu/naga/ir"

	"github.com/nvemu/maxvk"
	"github.com/nvemu/maxvk/internal/tracker"
	"github.com/nvemu/maxvk/maxwell"
)

// Shader is one decoded guest shader program. It is immutable after
// creation; invalidation replaces the whole object.
type Shader struct {
	stage   maxwell.ShaderStage
	gpuAddr GPUVAddr
	hostID  HostID
	code    maxwell.ProgramCode
	usage   maxwell.ResourceUsage
	module  *ir.Module
}

// Stage returns the stage the program was decoded for.
func (s *Shader) Stage() maxwell.ShaderStage { return s.stage }

// GPUAddr returns the guest GPU address the program was read from.
func (s *Shader) GPUAddr() GPUVAddr { return s.gpuAddr }

// HostID returns the host memory identity of the program, or 0 when the
// address was unmapped at decode time.
func (s *Shader) HostID() HostID { return s.hostID }

// Code returns the trimmed instruction stream, terminator included.
func (s *Shader) Code() maxwell.ProgramCode { return s.code }

// Usage returns the resources the program references.
func (s *Shader) Usage() maxwell.ResourceUsage { return s.usage }

// Module returns the IR module built from the program.
func (s *Shader) Module() *ir.Module { return s.module }

// newShader reads a program window from guest memory, trims it, and
// decodes it. When the address is unmapped the window reads as zero and
// the program decodes to an empty body; this happens when the guest binds
// a stage speculatively before mapping its code.
func newShader(mem MemoryManager, stage maxwell.ShaderStage, gpuAddr GPUVAddr, hostID HostID) *Shader {
	code := make(maxwell.ProgramCode, maxwell.MaxProgramWords)
	if hostID == 0 {
		maxvk.Logger().Warn("unmapped shader address, substituting zero window",
			"stage", stage.String(),
			"gpu_addr", uint64(gpuAddr))
	} else {
		mem.ReadBlock(gpuAddr, code)
	}
	code = code[:maxwell.DetermineLength(code, stage.IsCompute())]
	usage := maxwell.Analyze(code, stage.IsCompute())
	return &Shader{
		stage:   stage,
		gpuAddr: gpuAddr,
		hostID:  hostID,
		code:    code,
		usage:   usage,
		module:  maxwell.BuildModule(stage, usage),
	}
}

// ShaderCache holds decoded shaders keyed by host memory identity, so
// guest address aliases of one allocation share a single entry. Entries
// with no host identity are never stored; such shaders are returned to
// the caller but owned by nobody.
type ShaderCache struct {
	mem     MemoryManager
	entries map[HostID]*Shader
	ranges  *tracker.Index[HostID]
}

// NewShaderCache creates an empty shader cache over mem.
func NewShaderCache(mem MemoryManager) *ShaderCache {
	return &ShaderCache{
		mem:     mem,
		entries: make(map[HostID]*Shader),
		ranges:  tracker.New[HostID](),
	}
}

// GetOrCreate returns the cached shader for the program at gpuAddr,
// decoding it on first use. Aliased addresses resolving to the same host
// memory return the same shader regardless of the address used.
func (c *ShaderCache) GetOrCreate(stage maxwell.ShaderStage, gpuAddr GPUVAddr) *Shader {
	hostID := c.mem.Pointer(gpuAddr)
	if hostID != 0 {
		if shader, ok := c.entries[hostID]; ok {
			return shader
		}
	}

	shader := newShader(c.mem, stage, gpuAddr, hostID)
	if hostID == 0 {
		return shader
	}

	c.entries[hostID] = shader
	if cpu, ok := c.mem.CPUAddress(gpuAddr); ok {
		c.ranges.Register(hostID, uint64(cpu), uint64(len(shader.Code()))*8)
	} else {
		// Without a guest CPU range the entry cannot be reached by
		// write-driven region invalidation.
		maxvk.Logger().Warn("shader has no guest CPU mapping",
			"stage", stage.String(),
			"gpu_addr", uint64(gpuAddr))
	}
	return shader
}

// Get returns the cached shader for hostID, if present.
func (c *ShaderCache) Get(hostID HostID) (*Shader, bool) {
	shader, ok := c.entries[hostID]
	return shader, ok
}

// Remove drops the shader for hostID and its range registration.
// Returns the removed shader, or nil if none was cached.
func (c *ShaderCache) Remove(hostID HostID) *Shader {
	shader, ok := c.entries[hostID]
	if !ok {
		return nil
	}
	delete(c.entries, hostID)
	c.ranges.Unregister(hostID)
	return shader
}

// Overlapping returns the host identities of cached shaders whose code
// windows intersect the given guest CPU range.
func (c *ShaderCache) Overlapping(addr CPUVAddr, size uint64) []HostID {
	return c.ranges.Overlapping(uint64(addr), size)
}

// Len returns the number of cached shaders.
func (c *ShaderCache) Len() int { return len(c.entries) }
