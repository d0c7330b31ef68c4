package gen

// SectionCount is the number of 16-block sections in a chunk column.
const SectionCount = 16

// ChunkPos identifies a chunk column.
type ChunkPos struct {
	X, Z int
}

// Section holds the block states of a 16x16x16 cube indexed by
// y*256 + z*16 + x.
type Section struct {
	Blocks [4096]uint16
}

// ChunkData is a generated chunk column. Nil sections are all air.
type ChunkData struct {
	Sections [SectionCount]*Section
	Biomes   [256]byte
}

// GetBlock returns the block state at local coordinates.
func (c *ChunkData) GetBlock(x, y, z int) uint16 {
	if y < 0 || y >= SectionCount*16 {
		return 0
	}
	sec := c.Sections[y>>4]
	if sec == nil {
		return 0
	}
	return sec.Blocks[(y&0xF)*256+z*16+x]
}

// SetBlock sets the block state at local coordinates, allocating the section
// on the first non-air write.
func (c *ChunkData) SetBlock(x, y, z int, state uint16) {
	if y < 0 || y >= SectionCount*16 {
		return
	}
	sec := c.Sections[y>>4]
	if sec == nil {
		if state == 0 {
			return
		}
		sec = &Section{}
		c.Sections[y>>4] = sec
	}
	sec.Blocks[(y&0xF)*256+z*16+x] = state
}

func (c *ChunkData) SetBiome(x, z int, biome byte) {
	c.Biomes[z*16+x] = biome
}
