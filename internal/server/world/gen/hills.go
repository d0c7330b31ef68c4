package gen

const (
	seaLevel   = 62
	maxTerrain = 200
)

// HillsGenerator produces rolling noise terrain with lakes below sea level,
// scattered trees and glowstone lamps on the surface.
type HillsGenerator struct {
	seed    int64
	terrain *NoiseGenerator
	detail  *NoiseGenerator
	flora   *NoiseGenerator
}

// NewHillsGenerator creates a HillsGenerator from a seed.
func NewHillsGenerator(seed int64) *HillsGenerator {
	return &HillsGenerator{
		seed:    seed,
		terrain: NewNoiseGenerator(seed),
		detail:  NewNoiseGenerator(seed + 1),
		flora:   NewNoiseGenerator(seed + 2),
	}
}

func (g *HillsGenerator) Generate(chunkX, chunkZ int) *ChunkData {
	c := &ChunkData{}

	// Pass 1: terrain.
	var heights [16][16]int
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			h := g.HeightAt(chunkX*16+x, chunkZ*16+z)
			heights[x][z] = h
			g.fillColumn(c, x, z, h)
		}
	}

	// Pass 2: surface decoration. Trees keep two blocks from the chunk edge
	// so their leaves stay inside the column.
	for x := 2; x < 14; x++ {
		for z := 2; z < 14; z++ {
			h := heights[x][z]
			if h <= seaLevel {
				continue
			}
			bx, bz := chunkX*16+x, chunkZ*16+z
			switch g.feature(bx, bz) {
			case featureTree:
				placeTree(c, x, h+1, z)
			case featureLamp:
				c.SetBlock(x, h+1, z, blockGlowstone<<4)
			}
		}
	}
	return c
}

// HeightAt combines a broad and a detail octave noise into a terrain height.
func (g *HillsGenerator) HeightAt(blockX, blockZ int) int {
	base := g.terrain.OctaveNoise2D(float64(blockX)/128, float64(blockZ)/128, 5, 0.5)
	detail := g.detail.OctaveNoise2D(float64(blockX)/32, float64(blockZ)/32, 3, 0.5)
	h := int(seaLevel + 2 + base*20 + detail*4)
	return min(max(h, 1), maxTerrain)
}

func (g *HillsGenerator) fillColumn(c *ChunkData, x, z, height int) {
	c.SetBlock(x, 0, z, blockBedrock<<4)
	for y := 1; y <= height-4; y++ {
		c.SetBlock(x, y, z, blockStone<<4)
	}
	top, filler := uint16(blockGrass<<4), uint16(blockDirt<<4)
	biome := biomePlains
	if height <= seaLevel+1 {
		top, filler = blockSand<<4, blockSand<<4
		biome = biomeBeach
	}
	for y := max(height-3, 1); y < height; y++ {
		c.SetBlock(x, y, z, filler)
	}
	c.SetBlock(x, height, z, top)
	for y := height + 1; y <= seaLevel; y++ {
		c.SetBlock(x, y, z, blockWater<<4)
	}
	c.SetBiome(x, z, biome)
}

type feature int

const (
	featureNone feature = iota
	featureTree
	featureLamp
)

// feature picks the decoration of a surface column from a per-column hash,
// thinned by the flora noise so trees cluster into groves.
func (g *HillsGenerator) feature(bx, bz int) feature {
	h := uint64(bx)*0x9E3779B97F4A7C15 ^ uint64(bz)*0xC2B2AE3D27D4EB4F ^ uint64(g.seed)
	h ^= h >> 31
	h *= 0xBF58476D1CE4E5B9
	h ^= h >> 29
	roll := h % 1000

	grove := g.flora.Noise2D(float64(bx)/48, float64(bz)/48) > 0.3
	switch {
	case grove && roll < 20:
		return featureTree
	case roll >= 998:
		return featureLamp
	}
	return featureNone
}

// placeTree grows a small oak with its trunk base at (x, y, z).
func placeTree(c *ChunkData, x, y, z int) {
	const trunk = 4
	for dy := 0; dy < trunk; dy++ {
		c.SetBlock(x, y+dy, z, blockLog<<4)
	}
	for dy := trunk - 2; dy <= trunk; dy++ {
		r := 2
		if dy == trunk {
			r = 1
		}
		for dx := -r; dx <= r; dx++ {
			for dz := -r; dz <= r; dz++ {
				if dx == 0 && dz == 0 && dy < trunk {
					continue
				}
				if c.GetBlock(x+dx, y+dy, z+dz) == 0 {
					c.SetBlock(x+dx, y+dy, z+dz, blockLeaves<<4)
				}
			}
		}
	}
}
