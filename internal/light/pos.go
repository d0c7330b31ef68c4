package light

import (
	"fmt"
	"math"

	"github.com/df-mc/dragonfly/server/block/cube"
)

// Addr is a voxel position packed into a single int64 so that it can key maps
// and sit in queues without allocation. X and Z use 26 bits each, Y uses 12.
type Addr int64

// SelfSource is the pseudo-address a voxel's own emission is propagated from.
// It is never a spatial position.
const SelfSource Addr = math.MaxInt64

const (
	packedXZBits = 26
	packedYBits  = 12

	xOffset = packedYBits + packedXZBits
	zOffset = packedYBits

	xzMask = 1<<packedXZBits - 1
	yMask  = 1<<packedYBits - 1
)

// PackPos packs a block position into an Addr.
func PackPos(pos cube.Pos) Addr {
	return pack(pos[0], pos[1], pos[2])
}

func pack(x, y, z int) Addr {
	return Addr(int64(x&xzMask)<<xOffset | int64(z&xzMask)<<zOffset | int64(y&yMask))
}

// X returns the block X coordinate.
func (a Addr) X() int { return int(int64(a) >> xOffset) }

// Y returns the block Y coordinate.
func (a Addr) Y() int { return int(int64(a) << (64 - packedYBits) >> (64 - packedYBits)) }

// Z returns the block Z coordinate.
func (a Addr) Z() int { return int(int64(a) << (64 - xOffset) >> (64 - packedXZBits)) }

// Pos unpacks the address.
func (a Addr) Pos() cube.Pos { return cube.Pos{a.X(), a.Y(), a.Z()} }

// Section returns the section holding the voxel.
func (a Addr) Section() SectionPos {
	return SectionPos{X: int32(a.X() >> 4), Y: int32(a.Y() >> 4), Z: int32(a.Z() >> 4)}
}

// Column returns the chunk column holding the voxel.
func (a Addr) Column() ChunkPos {
	return ChunkPos{X: int32(a.X() >> 4), Z: int32(a.Z() >> 4)}
}

// Offset returns the neighbouring address across face.
func (a Addr) Offset(face cube.Face) Addr {
	d := faceOffsets[face]
	return pack(a.X()+d[0], a.Y()+d[1], a.Z()+d[2])
}

func (a Addr) String() string {
	if a == SelfSource {
		return "self"
	}
	return fmt.Sprintf("(%d, %d, %d)", a.X(), a.Y(), a.Z())
}

// faces lists the six faces in the order neighbours are visited.
var faces = [6]cube.Face{cube.FaceDown, cube.FaceUp, cube.FaceNorth, cube.FaceSouth, cube.FaceWest, cube.FaceEast}

var faceOffsets = [6][3]int{
	cube.FaceDown:  {0, -1, 0},
	cube.FaceUp:    {0, 1, 0},
	cube.FaceNorth: {0, 0, -1},
	cube.FaceSouth: {0, 0, 1},
	cube.FaceWest:  {-1, 0, 0},
	cube.FaceEast:  {1, 0, 0},
}

// SectionPos identifies a 16x16x16 section.
type SectionPos struct {
	X, Y, Z int32
}

// Column returns the chunk column of the section.
func (s SectionPos) Column() ChunkPos { return ChunkPos{X: s.X, Z: s.Z} }

// Offset returns the adjacent section across face.
func (s SectionPos) Offset(face cube.Face) SectionPos {
	d := faceOffsets[face]
	return SectionPos{X: s.X + int32(d[0]), Y: s.Y + int32(d[1]), Z: s.Z + int32(d[2])}
}

// Origin returns the address of the section's minimum corner.
func (s SectionPos) Origin() Addr {
	return pack(int(s.X)<<4, int(s.Y)<<4, int(s.Z)<<4)
}

// ChunkPos identifies a chunk column.
type ChunkPos struct {
	X, Z int32
}

// localIndex is the nibble index of a voxel inside its section: ((y<<4)|z)<<4|x.
func localIndex(x, y, z int) int {
	return ((y&0xF)<<4|z&0xF)<<4 | x&0xF
}
