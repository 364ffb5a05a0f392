// Package pipeline caches compiled host pipelines for a guest GPU command
// stream. It decodes guest shader programs into IR, derives Vulkan
// descriptor layouts and update templates from their resource usage, and
// deduplicates pipeline compilation behind content-addressed keys.
//
// The cache is driven by a single logical command processor: lookups and
// invalidations are serialized by the caller's command ordering, and the
// internal locking only guards against auxiliary readers such as stats
// collection.
package pipeline
