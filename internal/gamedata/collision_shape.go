package gamedata

import (
	"encoding/json"
	"fmt"

	"github.com/OCharnyshevich/minecraft-light/internal/light/shape"
)

// CollisionShapes mirrors blockCollisionShapes.json: every block name maps to
// one shape ID, or one per metadata value, and every shape ID to its boxes.
type CollisionShapes struct {
	Blocks map[string]ShapeIDs   `json:"blocks"`
	Shapes map[int][]BoundingBox `json:"shapes"`
}

// ShapeIDs is the shape of each metadata value of a block. A block with a
// single shape for every state has one entry.
type ShapeIDs []int

func (s *ShapeIDs) UnmarshalJSON(data []byte) error {
	var one int
	if err := json.Unmarshal(data, &one); err == nil {
		*s = ShapeIDs{one}
		return nil
	}
	var many []int
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("shape ids: %w", err)
	}
	*s = many
	return nil
}

// ForMeta returns the shape ID of the given metadata value.
func (s ShapeIDs) ForMeta(meta int) (int, bool) {
	switch {
	case len(s) == 0:
		return 0, false
	case meta < len(s):
		return s[meta], true
	default:
		return s[0], true
	}
}

type BoundingBox struct {
	MinX, MinY, MinZ float64
	MaxX, MaxY, MaxZ float64
}

// UnmarshalJSON reads the [minX, minY, minZ, maxX, maxY, maxZ] form used by
// minecraft-data.
func (b *BoundingBox) UnmarshalJSON(data []byte) error {
	var v [6]float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("bounding box: %w", err)
	}
	*b = BoundingBox{MinX: v[0], MinY: v[1], MinZ: v[2], MaxX: v[3], MaxY: v[4], MaxZ: v[5]}
	return nil
}

func (b BoundingBox) MarshalJSON() ([]byte, error) {
	return json.Marshal([6]float64{b.MinX, b.MinY, b.MinZ, b.MaxX, b.MaxY, b.MaxZ})
}

// Box converts the bounding box for face projection.
func (b BoundingBox) Box() shape.Box {
	return shape.Box{MinX: b.MinX, MinY: b.MinY, MinZ: b.MinZ, MaxX: b.MaxX, MaxY: b.MaxY, MaxZ: b.MaxZ}
}

// IsFullCube reports whether the boxes fill the voxel exactly.
func IsFullCube(boxes []BoundingBox) bool {
	return len(boxes) == 1 && boxes[0].Box() == shape.FullBox
}
