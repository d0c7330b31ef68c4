package light

import (
	"github.com/df-mc/dragonfly/server/block/cube"

	"github.com/OCharnyshevich/minecraft-light/internal/light/shape"
)

// BlockAccess exposes the block properties light depends on.
type BlockAccess interface {
	// OpacityAndEmission returns the opacity (0..16) and the emitted light
	// (0..15) of the block at pos.
	OpacityAndEmission(pos cube.Pos) (opacity, emission uint8)
	// FaceOcclusionShape returns the part of the given side of pos that the
	// block covers for light occlusion purposes.
	FaceOcclusionShape(pos cube.Pos, face cube.Face) shape.Face
}

// LightChunk is a loaded chunk column that light can be computed for.
type LightChunk interface {
	BlockAccess
	// SkyHeight returns the lowest Y at which the column (x, z) is open to the
	// sky: one above the highest block with a non-zero opacity.
	SkyHeight(x, z int) int
	// LightSources calls fn for every block in the chunk that emits light.
	LightSources(fn func(pos cube.Pos, emission uint8))
}

// ChunkSource hands out chunks for lighting. A missing chunk is not an error,
// it only means the chunk is not ready yet.
type ChunkSource interface {
	ChunkForLighting(x, z int32) (LightChunk, bool)
}
