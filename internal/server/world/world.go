package world

import (
	"sync"

	"github.com/OCharnyshevich/minecraft-light/internal/gamedata"
	"github.com/OCharnyshevich/minecraft-light/internal/server/world/gen"
)

const (
	MinY = 0
	MaxY = gen.SectionCount*16 - 1
)

// BlockPos represents a block position in the world.
type BlockPos struct {
	X, Y, Z int
}

// override is a player modification on top of generated terrain.
type override struct {
	state int32
	base  int32
}

// column is a generated chunk with overrides applied and its sky heights.
type column struct {
	data *gen.ChunkData
	// heights holds one above the highest light-filtering block per
	// (z<<4)|x, 0 for an open column.
	heights [256]int32
}

// World tracks block state with a generator for base terrain and overrides
// for modifications. Chunks are generated on first access and dropped again
// when unloaded; overrides outlive them.
type World struct {
	mu        sync.RWMutex
	blocks    map[BlockPos]override
	generator gen.Generator
	registry  *gamedata.Blocks
	chunks    map[gen.ChunkPos]*column
	loaded    map[gen.ChunkPos]bool
}

// NewWorld creates a new World with the given generator. registry supplies
// the light properties of block states.
func NewWorld(generator gen.Generator, registry *gamedata.Blocks) *World {
	return &World{
		blocks:    make(map[BlockPos]override),
		generator: generator,
		registry:  registry,
		chunks:    make(map[gen.ChunkPos]*column),
		loaded:    make(map[gen.ChunkPos]bool),
	}
}

// Blocks returns the block registry of the world.
func (w *World) Blocks() *gamedata.Blocks { return w.registry }

// getOrGenerate returns the column at pos, generating it if needed.
func (w *World) getOrGenerate(pos gen.ChunkPos) *column {
	w.mu.RLock()
	if c, ok := w.chunks[pos]; ok {
		w.mu.RUnlock()
		return c
	}
	w.mu.RUnlock()

	c := &column{data: w.generator.Generate(pos.X, pos.Z)}

	w.mu.Lock()
	defer w.mu.Unlock()
	// Double-check after acquiring write lock.
	if existing, ok := w.chunks[pos]; ok {
		return existing
	}
	for bp, o := range w.blocks {
		if bp.X>>4 == pos.X && bp.Z>>4 == pos.Z {
			c.data.SetBlock(bp.X&0xF, bp.Y, bp.Z&0xF, uint16(o.state))
		}
	}
	w.computeHeights(c)
	w.chunks[pos] = c
	return c
}

// computeHeights fills the sky heights of c from its blocks.
func (w *World) computeHeights(c *column) {
	for z := 0; z < 16; z++ {
		for x := 0; x < 16; x++ {
			c.heights[z<<4|x] = int32(w.scanHeight(c, x, MaxY, z))
		}
	}
}

// scanHeight returns one above the highest light-filtering block at or below
// from in the local column (x, z).
func (w *World) scanHeight(c *column, x, from, z int) int {
	for y := from; y >= MinY; y-- {
		if opacity, _ := w.registry.Light(int32(c.data.GetBlock(x, y, z))); opacity > 0 {
			return y + 1
		}
	}
	return MinY
}

// GetBlock returns the block state ID at the given position.
func (w *World) GetBlock(x, y, z int) int32 {
	if y < MinY || y > MaxY {
		return 0
	}
	c := w.getOrGenerate(gen.ChunkPos{X: x >> 4, Z: z >> 4})

	w.mu.RLock()
	defer w.mu.RUnlock()
	return int32(c.data.GetBlock(x&0xF, y, z&0xF))
}

// SetBlock stores a block state and returns the previous one. Restoring the
// generated state drops the override.
func (w *World) SetBlock(x, y, z int, stateID int32) int32 {
	if y < MinY || y > MaxY {
		return 0
	}
	c := w.getOrGenerate(gen.ChunkPos{X: x >> 4, Z: z >> 4})

	w.mu.Lock()
	defer w.mu.Unlock()

	lx, lz := x&0xF, z&0xF
	old := int32(c.data.GetBlock(lx, y, lz))
	bpos := BlockPos{x, y, z}
	o, ok := w.blocks[bpos]
	if !ok {
		o.base = old
	}
	if stateID == o.base {
		delete(w.blocks, bpos)
	} else {
		w.blocks[bpos] = override{state: stateID, base: o.base}
	}
	c.data.SetBlock(lx, y, lz, uint16(stateID))

	idx := lz<<4 | lx
	h := int(c.heights[idx])
	opacity, _ := w.registry.Light(stateID)
	switch {
	case opacity > 0 && y+1 > h:
		c.heights[idx] = int32(y + 1)
	case opacity == 0 && y+1 == h:
		c.heights[idx] = int32(w.scanHeight(c, lx, y-1, lz))
	}
	return old
}

// LoadOverrides replaces every override, applying them to generated chunks.
func (w *World) LoadOverrides(overrides map[BlockPos]int32) {
	for pos, state := range overrides {
		w.SetBlock(pos.X, pos.Y, pos.Z, state)
	}
}

// ForEachOverride calls fn for every block override under a read lock.
func (w *World) ForEachOverride(fn func(pos BlockPos, stateID int32)) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for pos, o := range w.blocks {
		fn(pos, o.state)
	}
}

// LoadChunk generates the chunk at (cx, cz) if needed and marks it loaded.
func (w *World) LoadChunk(cx, cz int) {
	pos := gen.ChunkPos{X: cx, Z: cz}
	w.getOrGenerate(pos)

	w.mu.Lock()
	w.loaded[pos] = true
	w.mu.Unlock()
}

// UnloadChunk marks the chunk at (cx, cz) unloaded and drops its blocks.
func (w *World) UnloadChunk(cx, cz int) {
	pos := gen.ChunkPos{X: cx, Z: cz}

	w.mu.Lock()
	delete(w.loaded, pos)
	delete(w.chunks, pos)
	w.mu.Unlock()
}

// Loaded reports whether the chunk at (cx, cz) is loaded.
func (w *World) Loaded(cx, cz int) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.loaded[gen.ChunkPos{X: cx, Z: cz}]
}

// LoadedChunks returns the positions of all loaded chunks.
func (w *World) LoadedChunks() []gen.ChunkPos {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]gen.ChunkPos, 0, len(w.loaded))
	for pos := range w.loaded {
		out = append(out, pos)
	}
	return out
}

// CopyChunk returns a copy of the blocks of a loaded chunk and its sky
// heights.
func (w *World) CopyChunk(cx, cz int) (*gen.ChunkData, [256]int32, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	pos := gen.ChunkPos{X: cx, Z: cz}
	c, ok := w.chunks[pos]
	if !ok || !w.loaded[pos] {
		return nil, [256]int32{}, false
	}
	data := &gen.ChunkData{Biomes: c.data.Biomes}
	for i, sec := range c.data.Sections {
		if sec != nil {
			cp := *sec
			data.Sections[i] = &cp
		}
	}
	return data, c.heights, true
}

// PreGenerateRadius loads every chunk within radius of (0, 0) and returns how
// many there are.
func (w *World) PreGenerateRadius(radius int) int {
	count := 0
	for cx := -radius; cx <= radius; cx++ {
		for cz := -radius; cz <= radius; cz++ {
			w.LoadChunk(cx, cz)
			count++
		}
	}
	return count
}

// SpawnHeight returns the terrain height at spawn (0, 0) + 1 for the player to stand on.
func (w *World) SpawnHeight() int {
	return w.generator.HeightAt(0, 0) + 1
}
