// Package shape projects block collision boxes onto the faces of a voxel so the
// light engine can tell whether two adjacent blocks jointly seal their shared
// face.
package shape

import (
	"math"

	"github.com/df-mc/dragonfly/server/block/cube"
)

// resolution is the number of cells along one edge of a face.
const resolution = 16

// Face is the covered area of one block face as a 16x16 bitmap. The zero value
// is an uncovered face.
type Face [4]uint64

// Full is a completely covered face.
var Full = Face{^uint64(0), ^uint64(0), ^uint64(0), ^uint64(0)}

// Box is an axis aligned box in block-local coordinates, 0..1 on each axis.
type Box struct {
	MinX, MinY, MinZ float64
	MaxX, MaxY, MaxZ float64
}

// FullBox is a box filling the whole voxel.
var FullBox = Box{MaxX: 1, MaxY: 1, MaxZ: 1}

func (f *Face) set(u, v int) {
	i := v*resolution + u
	f[i>>6] |= 1 << (uint(i) & 63)
}

// Covered reports whether cell (u, v) is covered.
func (f Face) Covered(u, v int) bool {
	i := v*resolution + u
	return f[i>>6]&(1<<(uint(i)&63)) != 0
}

// Union returns the cells covered by either face.
func (f Face) Union(o Face) Face {
	return Face{f[0] | o[0], f[1] | o[1], f[2] | o[2], f[3] | o[3]}
}

// IsFull reports whether every cell is covered.
func (f Face) IsFull() bool { return f == Full }

// IsEmpty reports whether no cell is covered.
func (f Face) IsEmpty() bool { return f == Face{} }

// Occludes reports whether two faces pressed against each other leave no gap
// for light to pass through.
func Occludes(a, b Face) bool {
	return a.Union(b).IsFull()
}

// FromBoxes projects the parts of boxes touching the given side of the voxel
// onto that side.
func FromBoxes(boxes []Box, face cube.Face) Face {
	var f Face
	for _, b := range boxes {
		var touches bool
		var u0, u1, v0, v1 float64
		switch face {
		case cube.FaceDown:
			touches, u0, u1, v0, v1 = b.MinY <= 0, b.MinX, b.MaxX, b.MinZ, b.MaxZ
		case cube.FaceUp:
			touches, u0, u1, v0, v1 = b.MaxY >= 1, b.MinX, b.MaxX, b.MinZ, b.MaxZ
		case cube.FaceNorth:
			touches, u0, u1, v0, v1 = b.MinZ <= 0, b.MinX, b.MaxX, b.MinY, b.MaxY
		case cube.FaceSouth:
			touches, u0, u1, v0, v1 = b.MaxZ >= 1, b.MinX, b.MaxX, b.MinY, b.MaxY
		case cube.FaceWest:
			touches, u0, u1, v0, v1 = b.MinX <= 0, b.MinZ, b.MaxZ, b.MinY, b.MaxY
		case cube.FaceEast:
			touches, u0, u1, v0, v1 = b.MaxX >= 1, b.MinZ, b.MaxZ, b.MinY, b.MaxY
		}
		if !touches {
			continue
		}
		ul, uh := cells(u0, u1)
		vl, vh := cells(v0, v1)
		for v := vl; v < vh; v++ {
			for u := ul; u < uh; u++ {
				f.set(u, v)
			}
		}
	}
	return f
}

// cells returns the half-open range of cells fully inside [lo, hi].
func cells(lo, hi float64) (int, int) {
	const eps = 1e-7
	l := int(math.Ceil(lo*resolution - eps))
	h := int(math.Floor(hi*resolution + eps))
	return max(l, 0), min(h, resolution)
}
