package gen

// Block states placed by the generators, in the 1.8 id<<4|meta layout.
const (
	blockStone     = 1
	blockGrass     = 2
	blockDirt      = 3
	blockBedrock   = 7
	blockWater     = 9
	blockSand      = 12
	blockLog       = 17
	blockLeaves    = 18
	blockGlowstone = 89
)

const (
	biomePlains byte = 1
	biomeBeach  byte = 16
)

// Generator produces the base terrain of chunk columns.
type Generator interface {
	Generate(chunkX, chunkZ int) *ChunkData
	// HeightAt returns the Y of the topmost terrain block of a column.
	HeightAt(blockX, blockZ int) int
}

// FlatGenerator produces a superflat world: bedrock at y=0, stone at y=1-2,
// dirt at y=3 and grass at y=4.
type FlatGenerator struct{}

func NewFlatGenerator(seed int64) *FlatGenerator {
	return &FlatGenerator{}
}

func (g *FlatGenerator) Generate(chunkX, chunkZ int) *ChunkData {
	c := &ChunkData{}
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			c.SetBlock(x, 0, z, blockBedrock<<4)
			c.SetBlock(x, 1, z, blockStone<<4)
			c.SetBlock(x, 2, z, blockStone<<4)
			c.SetBlock(x, 3, z, blockDirt<<4)
			c.SetBlock(x, 4, z, blockGrass<<4)
			c.SetBiome(x, z, biomePlains)
		}
	}
	return c
}

func (g *FlatGenerator) HeightAt(blockX, blockZ int) int {
	return 4
}
