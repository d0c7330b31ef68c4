// Package light computes block light and sky light for a voxel world and keeps
// it correct while the world is edited, loaded and unloaded. All work is done
// on the caller's goroutine in bounded batches through Engine.RunUpdates.
package light

import (
	"log/slog"

	"github.com/df-mc/dragonfly/server/block/cube"
)

// Config selects the layers an Engine runs and the vertical range it covers.
type Config struct {
	BlockLight bool
	SkyLight   bool
	Range      cube.Range
}

// LayerView is a read-only view of one layer as of the last update pass.
type LayerView interface {
	// Level returns the level of the voxel at pos, 0 being the brightest.
	Level(pos cube.Pos) int
	// Brightness returns 15 minus the level of the voxel at pos.
	Brightness(pos cube.Pos) int
	// SectionData returns the nibble array of a section in the persisted
	// layout, or false if there is none.
	SectionData(sec SectionPos) ([]byte, bool)
	// Sections lists the sections with data.
	Sections() []SectionPos
}

// darkView stands in for a layer the engine does not run.
type darkView struct{}

func (darkView) Level(cube.Pos) int                    { return MaxLevel }
func (darkView) Brightness(cube.Pos) int               { return 0 }
func (darkView) SectionData(SectionPos) ([]byte, bool) { return nil, false }
func (darkView) Sections() []SectionPos                { return nil }

// Engine owns the light layers of one dimension. It is not safe for concurrent
// use; LayerView reads are the exception, they only touch published data.
type Engine struct {
	conf  Config
	log   *slog.Logger
	cache *chunkCache
	block *layer
	sky   *layer
}

// New creates an Engine reading blocks through src.
func New(src ChunkSource, conf Config, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	e := &Engine{conf: conf, log: log, cache: newChunkCache(src)}
	if conf.BlockLight {
		e.block = newLayer(BlockLight, e.cache, conf.Range)
	}
	if conf.SkyLight {
		e.sky = newLayer(SkyLight, e.cache, conf.Range)
	}
	return e
}

func (e *Engine) layers() []*layer {
	ls := make([]*layer, 0, 2)
	if e.block != nil {
		ls = append(ls, e.block)
	}
	if e.sky != nil {
		ls = append(ls, e.sky)
	}
	return ls
}

func (e *Engine) layer(kind Kind) *layer {
	if kind == SkyLight {
		return e.sky
	}
	return e.block
}

// CheckBlock revalidates light around pos after the block there changed its
// opacity, shape or emission.
func (e *Engine) CheckBlock(pos cube.Pos) {
	a := PackPos(pos)
	for _, l := range e.layers() {
		l.checkBlock(a)
	}
}

// OnBlockEmissionIncrease lights pos with the given emission straight away.
func (e *Engine) OnBlockEmissionIncrease(pos cube.Pos, emission int) {
	if e.block != nil {
		e.block.onBlockEmissionIncrease(PackPos(pos), min(max(emission, 0), MaxLevel))
	}
}

// LoadChunk makes the chunk column at (x, z) ready for lighting and seeds its
// sources. It reports false if the chunk source does not have it yet.
func (e *Engine) LoadChunk(x, z int32) bool {
	col := ChunkPos{X: x, Z: z}
	ch, ok := e.cache.chunk(col)
	if !ok {
		return false
	}
	for _, l := range e.layers() {
		l.enableChunk(col, ch)
	}
	e.log.Debug("light chunk loaded", "x", x, "z", z)
	return true
}

// UnloadChunk makes the chunk column at (x, z) inert. Its data is dropped
// unless it is retained.
func (e *Engine) UnloadChunk(x, z int32) {
	col := ChunkPos{X: x, Z: z}
	for _, l := range e.layers() {
		l.disableChunk(col)
	}
	e.cache.clear()
	e.log.Debug("light chunk unloaded", "x", x, "z", z)
}

// RetainData keeps the light of the column at (x, z) resident while it is
// unloaded so that a quick reload does not need recomputing.
func (e *Engine) RetainData(x, z int32, retain bool) {
	for _, l := range e.layers() {
		l.storage.retainData(ChunkPos{X: x, Z: z}, retain)
	}
}

// QueueSectionData installs externally supplied light for sec on the next
// update pass. It panics if raw is not nil and not SectionBytes long.
func (e *Engine) QueueSectionData(kind Kind, sec SectionPos, raw []byte, trustEdges bool) {
	if l := e.layer(kind); l != nil {
		l.storage.QueueSectionData(sec, raw, trustEdges)
	}
}

// HasLightWork reports whether any update is pending.
func (e *Engine) HasLightWork() bool {
	for _, l := range e.layers() {
		if l.hasWork() || l.storage.hasPending() {
			return true
		}
	}
	return false
}

// QueueSize returns the number of nodes waiting to be settled.
func (e *Engine) QueueSize() int {
	var n int
	for _, l := range e.layers() {
		n += l.queueSize()
	}
	return n
}

// RunUpdates settles at most budget nodes split evenly between the layers,
// handing budget one layer leaves unused to the other, then publishes the
// result. It returns the unused budget.
func (e *Engine) RunUpdates(budget int) int {
	e.cache.clear()
	defer e.cache.clear()

	for _, l := range e.layers() {
		l.storage.MarkNewInconsistencies(l.graph, l.kind == SkyLight, false)
	}

	left := budget
	switch {
	case e.block != nil && e.sky != nil:
		half := budget / 2
		left = e.block.runUpdates(half)
		left = e.sky.runUpdates(budget - half + left)
		if left > 0 && e.block.hasWork() {
			left = e.block.runUpdates(left)
		}
	case e.block != nil:
		left = e.block.runUpdates(budget)
	case e.sky != nil:
		left = e.sky.runUpdates(budget)
	}

	for _, l := range e.layers() {
		l.storage.SwapSectionMap()
	}
	if pending := e.QueueSize(); pending > 0 {
		e.log.Debug("light updates pending", "queued", pending, "budget", budget)
	}
	return left
}

// Layer returns a read-only view of a layer. Layers the engine does not run
// read as fully dark.
func (e *Engine) Layer(kind Kind) LayerView {
	if l := e.layer(kind); l != nil {
		return l.storage
	}
	return darkView{}
}

// RawBrightness combines both layers into the brightness seen at pos: the
// brighter of block light and sky light dimmed by ambientDarkness.
func (e *Engine) RawBrightness(pos cube.Pos, ambientDarkness int) int {
	block := e.Layer(BlockLight).Brightness(pos)
	sky := e.Layer(SkyLight).Brightness(pos) - ambientDarkness
	return max(block, sky, 0)
}
