package gamedata

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/df-mc/dragonfly/server/block/cube"

	"github.com/OCharnyshevich/minecraft-light/internal/light/shape"
)

const (
	blocksFile = "blocks.json"
	shapesFile = "blockCollisionShapes.json"
)

var allFaces = [6]cube.Face{cube.FaceDown, cube.FaceUp, cube.FaceNorth, cube.FaceSouth, cube.FaceWest, cube.FaceEast}

// Blocks indexes block types and the light properties of their states.
type Blocks struct {
	byID   map[int]Block
	byName map[string]Block
	// occlusion holds the face shapes of states that only partly fill their
	// voxel. Every other state occludes nothing by shape.
	occlusion map[int32]*[6]shape.Face
}

// NewBlocks indexes blocks and projects the partial collision shapes in
// shapes onto the faces of their states. shapes may be nil.
func NewBlocks(blocks []Block, shapes *CollisionShapes) *Blocks {
	b := &Blocks{
		byID:      make(map[int]Block, len(blocks)),
		byName:    make(map[string]Block, len(blocks)),
		occlusion: make(map[int32]*[6]shape.Face),
	}
	for _, blk := range blocks {
		b.byID[blk.ID] = blk
		b.byName[blk.Name] = blk
	}
	if shapes == nil {
		return b
	}
	for name, ids := range shapes.Blocks {
		blk, ok := b.byName[name]
		if !ok || blk.FilterLight >= 15 {
			continue
		}
		for meta := 0; meta < 16; meta++ {
			id, ok := ids.ForMeta(meta)
			if !ok {
				continue
			}
			boxes := shapes.Shapes[id]
			// Full cubes that let light through (glass, leaves) do not seal
			// their faces.
			if len(boxes) == 0 || IsFullCube(boxes) {
				continue
			}
			converted := make([]shape.Box, len(boxes))
			for i, bb := range boxes {
				converted[i] = bb.Box()
			}
			var faces [6]shape.Face
			for _, f := range allFaces {
				faces[f] = shape.FromBoxes(converted, f)
			}
			b.occlusion[StateID(blk.ID, meta)] = &faces
		}
	}
	return b
}

func (b *Blocks) ByID(id int) (Block, bool) {
	blk, ok := b.byID[id]
	return blk, ok
}

func (b *Blocks) ByName(name string) (Block, bool) {
	blk, ok := b.byName[name]
	return blk, ok
}

// All returns every block sorted by ID.
func (b *Blocks) All() []Block {
	out := make([]Block, 0, len(b.byID))
	for _, blk := range b.byID {
		out = append(out, blk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Light returns the opacity and light emission of a block state. Unknown
// states are opaque and dark.
func (b *Blocks) Light(state int32) (opacity, emission uint8) {
	id, _ := SplitState(state)
	blk, ok := b.byID[id]
	if !ok {
		return 15, 0
	}
	return uint8(min(max(blk.FilterLight, 0), 15)), uint8(min(max(blk.EmitLight, 0), 15))
}

// FaceShape returns the part of the given face a block state seals against
// light.
func (b *Blocks) FaceShape(state int32, face cube.Face) shape.Face {
	if faces, ok := b.occlusion[state]; ok {
		return faces[face]
	}
	return shape.Face{}
}

// LoadDir reads blocks.json and, if present, blockCollisionShapes.json from a
// minecraft-data version directory.
func LoadDir(dir string) (*Blocks, error) {
	blocks, shapes, err := ReadDir(dir)
	if err != nil {
		return nil, err
	}
	return NewBlocks(blocks, shapes), nil
}

// ReadDir parses the block tables of a minecraft-data version directory
// without indexing them. shapes is nil if the directory has none.
func ReadDir(dir string) (blocks []Block, shapes *CollisionShapes, err error) {
	data, err := os.ReadFile(filepath.Join(dir, blocksFile))
	if err != nil {
		return nil, nil, fmt.Errorf("read blocks: %w", err)
	}
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, nil, fmt.Errorf("parse blocks: %w", err)
	}

	data, err = os.ReadFile(filepath.Join(dir, shapesFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, nil, fmt.Errorf("read collision shapes: %w", err)
	default:
		shapes = &CollisionShapes{}
		if err := json.Unmarshal(data, shapes); err != nil {
			return nil, nil, fmt.Errorf("parse collision shapes: %w", err)
		}
	}
	return blocks, shapes, nil
}

var versions = map[string]func() *Blocks{}

// Register makes a block table available to Load under name.
func Register(name string, factory func() *Blocks) {
	versions[name] = factory
}

// Load returns a registered block table.
func Load(name string) (*Blocks, error) {
	f, ok := versions[name]
	if !ok {
		return nil, fmt.Errorf("unknown version: %s", name)
	}
	return f(), nil
}

func RegisteredVersions() []string {
	names := make([]string, 0, len(versions))
	for name := range versions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
