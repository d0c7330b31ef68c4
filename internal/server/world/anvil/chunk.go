package anvil

import (
	"bytes"
	"fmt"

	"github.com/Tnze/go-mc/nbt"

	"github.com/OCharnyshevich/minecraft-light/internal/light"
	"github.com/OCharnyshevich/minecraft-light/internal/server/world/gen"
)

// Chunk is the 1.8 Anvil chunk root compound.
type Chunk struct {
	Level Level `nbt:"Level"`
}

type Level struct {
	XPos             int32     `nbt:"xPos"`
	ZPos             int32     `nbt:"zPos"`
	LastUpdate       int64     `nbt:"LastUpdate"`
	TerrainPopulated int8      `nbt:"TerrainPopulated"`
	LightPopulated   int8      `nbt:"LightPopulated"`
	Sections         []Section `nbt:"Sections"`
	Biomes           []byte    `nbt:"Biomes"`
	HeightMap        []int32   `nbt:"HeightMap"`
}

// Section holds one 16-block section. Blocks, Add and Data split the block
// states into id bits 0-7, id bits 8-11 and metadata.
type Section struct {
	Y          int8   `nbt:"Y"`
	Blocks     []byte `nbt:"Blocks"`
	Add        []byte `nbt:"Add,omitempty"`
	Data       []byte `nbt:"Data"`
	BlockLight []byte `nbt:"BlockLight"`
	SkyLight   []byte `nbt:"SkyLight"`
}

// EncodeChunkNBT encodes a chunk as MC 1.8 NBT with the light of the given
// layers. heights is the chunk's sky height map.
func EncodeChunkNBT(cx, cz int, chunk *gen.ChunkData, heights [256]int32, block, sky light.LayerView) ([]byte, error) {
	lvl := Level{
		XPos:             int32(cx),
		ZPos:             int32(cz),
		TerrainPopulated: 1,
		LightPopulated:   1,
		Biomes:           chunk.Biomes[:],
		HeightMap:        heights[:],
	}

	for secY := 0; secY < gen.SectionCount; secY++ {
		sec := chunk.Sections[secY]
		if sec == nil {
			continue
		}
		s := Section{
			Y:      int8(secY),
			Blocks: make([]byte, 4096),
			Data:   make([]byte, 2048),
		}
		hasAdd := false
		add := make([]byte, 2048)
		for i, state := range sec.Blocks {
			blockID := state >> 4
			s.Blocks[i] = byte(blockID)
			if blockID > 255 {
				hasAdd = true
			}
			setNibble(add, i, byte(blockID>>8))
			setNibble(s.Data, i, byte(state&0xF))
		}
		if hasAdd {
			s.Add = add
		}

		pos := light.SectionPos{X: int32(cx), Y: int32(secY), Z: int32(cz)}
		s.BlockLight = sectionLight(block, pos)
		s.SkyLight = sectionLight(sky, pos)
		lvl.Sections = append(lvl.Sections, s)
	}

	var buf bytes.Buffer
	if err := nbt.NewEncoder(&buf).Encode(Chunk{Level: lvl}, ""); err != nil {
		return nil, fmt.Errorf("encode chunk (%d,%d): %w", cx, cz, err)
	}
	return buf.Bytes(), nil
}

// DecodeChunkNBT decodes a chunk written by EncodeChunkNBT.
func DecodeChunkNBT(data []byte) (*Chunk, error) {
	var c Chunk
	if _, err := nbt.NewDecoder(bytes.NewReader(data)).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode chunk: %w", err)
	}
	return &c, nil
}

// sectionLight returns the nibble array of a section, dark if the layer holds
// nothing for it.
func sectionLight(v light.LayerView, pos light.SectionPos) []byte {
	if v != nil {
		if data, ok := v.SectionData(pos); ok {
			return data
		}
	}
	return make([]byte, light.SectionBytes)
}

// setNibble sets a 4-bit value at the given block index in a nibble array.
func setNibble(arr []byte, index int, val byte) {
	byteIdx := index / 2
	if index%2 == 0 {
		arr[byteIdx] = (arr[byteIdx] & 0xF0) | (val & 0x0F)
	} else {
		arr[byteIdx] = (arr[byteIdx] & 0x0F) | ((val & 0x0F) << 4)
	}
}
