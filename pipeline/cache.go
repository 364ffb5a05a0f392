package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/nvemu/maxvk"
	"github.com/nvemu/maxvk/maxwell"
)

// ErrShaderNotResolved is returned when a pipeline key references a
// program whose guest address has no host memory backing at build time.
// Zero-window substitution is reserved for speculative probing through
// GetShaderPrograms; by the time a pipeline is built the program must be
// mapped.
var ErrShaderNotResolved = errors.New("pipeline: referenced shader not resolvable")

// Stats is a snapshot of cache activity counters.
type Stats struct {
	// FastPathHits counts lookups satisfied by the last-used slot
	// without touching the maps.
	FastPathHits uint64

	// Hits and Misses count map lookups past the fast path.
	Hits   uint64
	Misses uint64

	// Invalidations counts shader invalidations that found a cached
	// shader. Drains counts scheduler waits forced by invalidation;
	// at most one per invalidation batch.
	Invalidations uint64
	Drains        uint64

	// Entry counts at snapshot time.
	Shaders           int
	GraphicsPipelines int
	ComputePipelines  int
}

// Cache resolves guest draw and dispatch state to compiled pipelines.
//
// One Cache serves one guest GPU channel. Lookups arrive in command
// order from a single processing goroutine; the mutex exists for
// auxiliary readers such as Stats, not to order lookups.
type Cache struct {
	mu        sync.Mutex
	mem       MemoryManager
	backend   Backend
	scheduler Scheduler
	shaders   *ShaderCache

	graphics map[GraphicsPipelineKey]*CompiledPipeline
	compute  map[ComputePipelineKey]*CompiledPipeline

	// Last-used slots. Consecutive draws overwhelmingly reuse the
	// previous pipeline, so an equality check against one remembered
	// key skips the map walk.
	lastGraphicsKey GraphicsPipelineKey
	lastGraphics    *CompiledPipeline
	lastComputeKey  ComputePipelineKey
	lastCompute     *CompiledPipeline

	fastPathHits  uint64
	hits          uint64
	misses        uint64
	invalidations uint64
	drains        uint64
}

// New creates an empty pipeline cache over the given guest memory view,
// backend and scheduler.
func New(mem MemoryManager, backend Backend, scheduler Scheduler) *Cache {
	return &Cache{
		mem:       mem,
		backend:   backend,
		scheduler: scheduler,
		shaders:   NewShaderCache(mem),
		graphics:  make(map[GraphicsPipelineKey]*CompiledPipeline),
		compute:   make(map[ComputePipelineKey]*CompiledPipeline),
	}
}

// GetShaderPrograms decodes (or retrieves) the shader of every enabled
// graphics stage slot. Slots with a zero address stay nil.
func (c *Cache) GetShaderPrograms(addrs ShaderAddresses) ([maxwell.NumGraphicsStages]*Shader, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out [maxwell.NumGraphicsStages]*Shader
	for slot, addr := range addrs {
		if addr == 0 {
			continue
		}
		stage, err := maxwell.GraphicsStage(slot)
		if err != nil {
			return out, err
		}
		out[slot] = c.shaders.GetOrCreate(stage, addr)
	}
	return out, nil
}

// GetGraphicsPipeline returns the pipeline for key, compiling it on first
// use. Repeating the previous key returns the same pipeline through the
// last-used slot.
func (c *Cache) GetGraphicsPipeline(key GraphicsPipelineKey) (*CompiledPipeline, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastGraphics != nil && key == c.lastGraphicsKey {
		c.fastPathHits++
		return c.lastGraphics, nil
	}
	if pipeline, ok := c.graphics[key]; ok {
		c.hits++
		c.lastGraphicsKey = key
		c.lastGraphics = pipeline
		return pipeline, nil
	}
	c.misses++

	var shaders [maxwell.NumGraphicsStages]*Shader
	for slot, addr := range key.Shaders {
		if addr == 0 {
			continue
		}
		stage, err := maxwell.GraphicsStage(slot)
		if err != nil {
			return nil, err
		}
		shader := c.shaders.GetOrCreate(stage, addr)
		if shader.HostID() == 0 {
			return nil, fmt.Errorf("%w: %s at %#x", ErrShaderNotResolved, stage, uint64(addr))
		}
		shaders[slot] = shader
	}

	maxvk.Logger().Info("compiling graphics pipeline",
		"key", keyString(key.Hash()))
	pipeline, err := BuildGraphicsPipeline(c.backend, shaders, key)
	if err != nil {
		return nil, err
	}
	c.graphics[key] = pipeline
	c.lastGraphicsKey = key
	c.lastGraphics = pipeline
	return pipeline, nil
}

// GetComputePipeline returns the pipeline for key, compiling it on first
// use. Like the graphics path it remembers the last-used key.
func (c *Cache) GetComputePipeline(key ComputePipelineKey) (*CompiledPipeline, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastCompute != nil && key == c.lastComputeKey {
		c.fastPathHits++
		return c.lastCompute, nil
	}
	if pipeline, ok := c.compute[key]; ok {
		c.hits++
		c.lastComputeKey = key
		c.lastCompute = pipeline
		return pipeline, nil
	}
	c.misses++

	shader := c.shaders.GetOrCreate(maxwell.StageCompute, key.Shader)
	if shader.HostID() == 0 {
		return nil, fmt.Errorf("%w: compute at %#x", ErrShaderNotResolved, uint64(key.Shader))
	}

	maxvk.Logger().Info("compiling compute pipeline",
		"key", keyString(key.Hash()))
	pipeline, err := BuildComputePipeline(c.backend, shader, key)
	if err != nil {
		return nil, err
	}
	c.compute[key] = pipeline
	c.lastComputeKey = key
	c.lastCompute = pipeline
	return pipeline, nil
}

// Invalidate removes the shader backed by hostID and every pipeline that
// was built from it. Unknown identities are ignored, so callers may
// forward every guest memory write without filtering.
//
// The scheduler is drained before the first pipeline destruction and at
// most once per call, since destroyed pipelines may still be referenced
// by in-flight GPU work.
func (c *Cache) Invalidate(hostID HostID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidate(hostID)
}

// InvalidateRegion invalidates every cached shader whose code window
// intersects the given guest CPU range.
func (c *Cache) InvalidateRegion(addr CPUVAddr, size uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, hostID := range c.shaders.Overlapping(addr, size) {
		c.invalidate(hostID)
	}
}

func (c *Cache) invalidate(hostID HostID) {
	shader, ok := c.shaders.Get(hostID)
	if !ok {
		return
	}
	c.invalidations++
	addr := shader.GPUAddr()

	drained := false
	drain := func() {
		if drained {
			return
		}
		drained = true
		c.drains++
		maxvk.Logger().Debug("draining scheduler for pipeline invalidation",
			"gpu_addr", uint64(addr))
		c.scheduler.Finish()
	}

	for key, pipeline := range c.graphics {
		if !key.Shaders.Contains(addr) {
			continue
		}
		drain()
		c.backend.DestroyPipeline(pipeline.ID())
		delete(c.graphics, key)
		if c.lastGraphics == pipeline {
			c.lastGraphics = nil
		}
	}
	for key, pipeline := range c.compute {
		if key.Shader != addr {
			continue
		}
		drain()
		c.backend.DestroyPipeline(pipeline.ID())
		delete(c.compute, key)
		if c.lastCompute == pipeline {
			c.lastCompute = nil
		}
	}

	// The shader entry is removed only after its dependent pipelines.
	c.shaders.Remove(hostID)

	maxvk.Logger().Debug("invalidated shader",
		"gpu_addr", uint64(addr),
		"drained", drained)
}

// Stats returns a snapshot of cache statistics.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		FastPathHits:      c.fastPathHits,
		Hits:              c.hits,
		Misses:            c.misses,
		Invalidations:     c.invalidations,
		Drains:            c.drains,
		Shaders:           c.shaders.Len(),
		GraphicsPipelines: len(c.graphics),
		ComputePipelines:  len(c.compute),
	}
}
