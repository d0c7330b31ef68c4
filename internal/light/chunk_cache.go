package light

import (
	"github.com/df-mc/dragonfly/server/block/cube"

	"github.com/OCharnyshevich/minecraft-light/internal/light/shape"
)

// chunkCacheSize is the number of recently used chunks kept by chunkCache.
const chunkCacheSize = 2

// chunkCache remembers the last few chunks fetched from a ChunkSource. Lookups
// during propagation are highly local, so most of them hit one of two chunks.
type chunkCache struct {
	src    ChunkSource
	pos    [chunkCacheSize]ChunkPos
	chunks [chunkCacheSize]LightChunk
}

func newChunkCache(src ChunkSource) *chunkCache {
	c := &chunkCache{src: src}
	c.clear()
	return c
}

// chunk returns the chunk at pos, or false if the source has none.
func (c *chunkCache) chunk(pos ChunkPos) (LightChunk, bool) {
	for i := 0; i < chunkCacheSize; i++ {
		if c.chunks[i] != nil && c.pos[i] == pos {
			return c.chunks[i], true
		}
	}
	ch, ok := c.src.ChunkForLighting(pos.X, pos.Z)
	if !ok || ch == nil {
		return nil, false
	}
	copy(c.pos[1:], c.pos[:chunkCacheSize-1])
	copy(c.chunks[1:], c.chunks[:chunkCacheSize-1])
	c.pos[0], c.chunks[0] = pos, ch
	return ch, true
}

// clear drops every cached chunk so no stale handle outlives an unload.
func (c *chunkCache) clear() {
	for i := range c.chunks {
		c.chunks[i] = nil
		c.pos[i] = ChunkPos{}
	}
}

// OpacityAndEmission implements BlockAccess. Voxels in chunks that are not
// available are treated as opaque and dark.
func (c *chunkCache) OpacityAndEmission(pos cube.Pos) (uint8, uint8) {
	ch, ok := c.chunk(ChunkPos{X: int32(pos[0] >> 4), Z: int32(pos[2] >> 4)})
	if !ok {
		return MaxLevel + 1, 0
	}
	return ch.OpacityAndEmission(pos)
}

// FaceOcclusionShape implements BlockAccess.
func (c *chunkCache) FaceOcclusionShape(pos cube.Pos, face cube.Face) shape.Face {
	ch, ok := c.chunk(ChunkPos{X: int32(pos[0] >> 4), Z: int32(pos[2] >> 4)})
	if !ok {
		return shape.Full
	}
	return ch.FaceOcclusionShape(pos, face)
}
