package light

import (
	"testing"

	"github.com/df-mc/dragonfly/server/block/cube"

	"github.com/OCharnyshevich/minecraft-light/internal/light/shape"
)

type testBlock struct {
	opacity  uint8
	emission uint8
	sealed   bool
}

// testWorld is a sparse block map. Absent blocks are air.
type testWorld struct {
	ra     cube.Range
	blocks map[cube.Pos]testBlock
	loaded map[ChunkPos]bool
}

func newTestWorld(ra cube.Range, radius int32) *testWorld {
	w := &testWorld{ra: ra, blocks: make(map[cube.Pos]testBlock), loaded: make(map[ChunkPos]bool)}
	for x := -radius; x <= radius; x++ {
		for z := -radius; z <= radius; z++ {
			w.loaded[ChunkPos{X: x, Z: z}] = true
		}
	}
	return w
}

func (w *testWorld) ChunkForLighting(x, z int32) (LightChunk, bool) {
	if !w.loaded[ChunkPos{X: x, Z: z}] {
		return nil, false
	}
	return testChunk{w: w, pos: ChunkPos{X: x, Z: z}}, true
}

// loadAll loads every chunk of the world into e.
func (w *testWorld) loadAll(t *testing.T, e *Engine) {
	t.Helper()
	for pos := range w.loaded {
		if !e.LoadChunk(pos.X, pos.Z) {
			t.Fatalf("LoadChunk(%d, %d) = false", pos.X, pos.Z)
		}
	}
}

type testChunk struct {
	w   *testWorld
	pos ChunkPos
}

func (c testChunk) OpacityAndEmission(pos cube.Pos) (uint8, uint8) {
	b := c.w.blocks[pos]
	return b.opacity, b.emission
}

func (c testChunk) FaceOcclusionShape(pos cube.Pos, _ cube.Face) shape.Face {
	if c.w.blocks[pos].sealed {
		return shape.Full
	}
	return shape.Face{}
}

func (c testChunk) SkyHeight(x, z int) int {
	for y := c.w.ra.Max(); y >= c.w.ra.Min(); y-- {
		if c.w.blocks[cube.Pos{x, y, z}].opacity > 0 {
			return y + 1
		}
	}
	return c.w.ra.Min()
}

func (c testChunk) LightSources(fn func(pos cube.Pos, emission uint8)) {
	for pos, b := range c.w.blocks {
		if b.emission > 0 && int32(pos[0]>>4) == c.pos.X && int32(pos[2]>>4) == c.pos.Z {
			fn(pos, b.emission)
		}
	}
}

// settle runs updates until no work is left.
func settle(t *testing.T, e *Engine) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		e.RunUpdates(10000)
		if !e.HasLightWork() {
			return
		}
	}
	t.Fatal("light did not settle")
}

// assertSettled checks the level of every voxel in the box [min, max] against
// the level derived from its source and neighbours.
func assertSettled(t *testing.T, e *Engine, kind Kind, lo, hi cube.Pos) {
	t.Helper()
	l := e.layer(kind)
	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				a := pack(x, y, z)
				if l.fixed(a) {
					continue
				}
				want := l.computeLevel(a, a, MaxLevel)
				if got := l.level(a); got != want {
					t.Fatalf("%s level at %v = %d, derived %d", kind, a, got, want)
				}
			}
		}
	}
}

func manhattan(a, b cube.Pos) int {
	d := 0
	for i := 0; i < 3; i++ {
		v := a[i] - b[i]
		if v < 0 {
			v = -v
		}
		d += v
	}
	return d
}

var testRange = cube.Range{0, 63}

func TestSingleSourceOpenAir(t *testing.T) {
	w := newTestWorld(testRange, 2)
	src := cube.Pos{0, 32, 0}
	w.blocks[src] = testBlock{emission: 15}

	e := New(w, Config{BlockLight: true, Range: testRange}, nil)
	w.loadAll(t, e)
	settle(t, e)

	view := e.Layer(BlockLight)
	for x := -18; x <= 18; x += 3 {
		for y := 14; y <= 50; y += 2 {
			for z := -18; z <= 18; z += 3 {
				pos := cube.Pos{x, y, z}
				want := min(manhattan(pos, src), MaxLevel)
				if got := view.Level(pos); got != want {
					t.Fatalf("Level(%v) = %d, want %d", pos, got, want)
				}
			}
		}
	}
	assertSettled(t, e, BlockLight, cube.Pos{-17, 15, -17}, cube.Pos{17, 49, 17})
}

func TestSettledGraphIsIdempotent(t *testing.T) {
	w := newTestWorld(testRange, 1)
	w.blocks[cube.Pos{3, 20, 3}] = testBlock{emission: 12}

	e := New(w, Config{BlockLight: true, SkyLight: true, Range: testRange}, nil)
	w.loadAll(t, e)
	settle(t, e)

	if got := e.RunUpdates(500); got != 500 {
		t.Errorf("RunUpdates(500) on settled engine = %d, want 500", got)
	}
	if e.QueueSize() != 0 {
		t.Errorf("QueueSize() = %d, want 0", e.QueueSize())
	}
}

func TestBrighteningSettlesEachNodeOnce(t *testing.T) {
	w := newTestWorld(testRange, 2)
	e := New(w, Config{BlockLight: true, Range: testRange}, nil)
	w.loadAll(t, e)
	settle(t, e)

	src := cube.Pos{0, 32, 0}
	w.blocks[src] = testBlock{emission: 15}
	e.OnBlockEmissionIncrease(src, 15)

	const budget = 1 << 20
	used := budget - e.RunUpdates(budget)

	lit := 0
	for x := -15; x <= 15; x++ {
		for y := 17; y <= 47; y++ {
			for z := -15; z <= 15; z++ {
				if manhattan(cube.Pos{x, y, z}, src) < MaxLevel {
					lit++
				}
			}
		}
	}
	if used != lit {
		t.Errorf("settled %d nodes, want exactly the %d lit voxels", used, lit)
	}
}

// wall fills the plane x = wx across the loaded area.
func wall(w *testWorld, wx int, b testBlock) {
	for y := w.ra.Min(); y <= w.ra.Max(); y++ {
		for z := -48; z <= 63; z++ {
			w.blocks[cube.Pos{wx, y, z}] = b
		}
	}
}

func TestOpaqueWallBlocksLight(t *testing.T) {
	w := newTestWorld(testRange, 2)
	src, target := cube.Pos{0, 32, 0}, cube.Pos{3, 32, 0}
	w.blocks[src] = testBlock{emission: 15}
	wall(w, 1, testBlock{opacity: 15})

	e := New(w, Config{BlockLight: true, Range: testRange}, nil)
	w.loadAll(t, e)
	settle(t, e)

	if got := e.Layer(BlockLight).Level(target); got != MaxLevel {
		t.Fatalf("target behind wall = %d, want %d", got, MaxLevel)
	}
	if got := e.Layer(BlockLight).Level(cube.Pos{-1, 32, 0}); got != 1 {
		t.Fatalf("voxel in front of source = %d, want 1", got)
	}

	// Removing the wall lets the target reconverge to its open-air distance.
	for pos, b := range w.blocks {
		if pos[0] == 1 && b.opacity == 15 {
			delete(w.blocks, pos)
			e.CheckBlock(pos)
		}
	}
	settle(t, e)

	if got := e.Layer(BlockLight).Level(target); got != 3 {
		t.Fatalf("target after wall removal = %d, want 3", got)
	}
	assertSettled(t, e, BlockLight, cube.Pos{-5, 27, -5}, cube.Pos{5, 37, 5})
}

func TestSealedFacesBlockLight(t *testing.T) {
	w := newTestWorld(testRange, 2)
	src, target := cube.Pos{0, 32, 0}, cube.Pos{3, 32, 0}
	w.blocks[src] = testBlock{emission: 15}
	// Transparent blocks whose shapes seal every face still stop light.
	wall(w, 1, testBlock{sealed: true})

	e := New(w, Config{BlockLight: true, Range: testRange}, nil)
	w.loadAll(t, e)
	settle(t, e)

	if got := e.Layer(BlockLight).Level(target); got != MaxLevel {
		t.Errorf("target behind sealed wall = %d, want %d", got, MaxLevel)
	}
}

func TestTranslucentBlockAttenuates(t *testing.T) {
	w := newTestWorld(testRange, 2)
	src := cube.Pos{0, 32, 0}
	w.blocks[src] = testBlock{emission: 15}
	wall(w, 1, testBlock{opacity: 3})

	e := New(w, Config{BlockLight: true, Range: testRange}, nil)
	w.loadAll(t, e)
	settle(t, e)

	// Entering the wall costs 3, leaving it costs 1.
	if got := e.Layer(BlockLight).Level(cube.Pos{1, 32, 0}); got != 3 {
		t.Errorf("inside wall = %d, want 3", got)
	}
	if got := e.Layer(BlockLight).Level(cube.Pos{2, 32, 0}); got != 4 {
		t.Errorf("behind wall = %d, want 4", got)
	}
}

func TestRemovingSourceLeavesNoStaleLight(t *testing.T) {
	w := newTestWorld(testRange, 2)
	src := cube.Pos{0, 32, 0}
	w.blocks[src] = testBlock{emission: 15}

	e := New(w, Config{BlockLight: true, Range: testRange}, nil)
	w.loadAll(t, e)
	settle(t, e)

	delete(w.blocks, src)
	e.CheckBlock(src)
	settle(t, e)

	view := e.Layer(BlockLight)
	for x := -16; x <= 16; x++ {
		for y := 16; y <= 48; y++ {
			for z := -16; z <= 16; z++ {
				if got := view.Level(cube.Pos{x, y, z}); got != MaxLevel {
					t.Fatalf("Level(%d, %d, %d) = %d after source removal, want %d", x, y, z, got, MaxLevel)
				}
			}
		}
	}
}

func TestDimmingSourceKeepsSecondSource(t *testing.T) {
	w := newTestWorld(testRange, 2)
	a, b := cube.Pos{0, 32, 0}, cube.Pos{6, 32, 0}
	w.blocks[a] = testBlock{emission: 15}
	w.blocks[b] = testBlock{emission: 10}

	e := New(w, Config{BlockLight: true, Range: testRange}, nil)
	w.loadAll(t, e)
	settle(t, e)

	if got := e.Layer(BlockLight).Level(b); got != 5 {
		t.Fatalf("weaker source lit by stronger one = %d, want 5", got)
	}

	w.blocks[a] = testBlock{emission: 4}
	e.CheckBlock(a)
	settle(t, e)

	view := e.Layer(BlockLight)
	if got := view.Level(a); got != 11 {
		t.Errorf("dimmed source = %d, want 11", got)
	}
	if got := view.Level(b); got != 5 {
		t.Errorf("second source = %d, want 5", got)
	}
	if got := view.Level(cube.Pos{3, 32, 0}); got != 8 {
		t.Errorf("between sources = %d, want 8", got)
	}
	assertSettled(t, e, BlockLight, cube.Pos{-8, 24, -8}, cube.Pos{14, 40, 8})
}

func TestSkyOpenColumn(t *testing.T) {
	ra := cube.Range{0, 31}
	w := newTestWorld(ra, 1)
	for x := -16; x < 32; x++ {
		for z := -16; z < 32; z++ {
			w.blocks[cube.Pos{x, 8, z}] = testBlock{opacity: 15}
		}
	}

	e := New(w, Config{SkyLight: true, Range: ra}, nil)
	w.loadAll(t, e)
	settle(t, e)

	view := e.Layer(SkyLight)
	for y := 31; y > 8; y-- {
		if got := view.Level(cube.Pos{4, y, 4}); got != 0 {
			t.Fatalf("sky level at y=%d = %d, want 0", y, got)
		}
	}
	for y := 8; y >= 0; y-- {
		if got := view.Level(cube.Pos{4, y, 4}); got != MaxLevel {
			t.Fatalf("sky level at y=%d = %d, want %d", y, got, MaxLevel)
		}
	}
	if got := e.RawBrightness(cube.Pos{4, 20, 4}, 0); got != 15 {
		t.Errorf("RawBrightness above floor = %d, want 15", got)
	}
	if got := e.RawBrightness(cube.Pos{4, 20, 4}, 11); got != 4 {
		t.Errorf("RawBrightness with ambient darkness 11 = %d, want 4", got)
	}
}

func TestSkyRoofAndReopen(t *testing.T) {
	ra := cube.Range{0, 31}
	w := newTestWorld(ra, 1)
	for x := -16; x < 32; x++ {
		for z := -16; z < 32; z++ {
			w.blocks[cube.Pos{x, 4, z}] = testBlock{opacity: 15}
		}
	}
	e := New(w, Config{SkyLight: true, Range: ra}, nil)
	w.loadAll(t, e)
	settle(t, e)

	// A 3x3 roof at y=20 shades the voxels under it; the centre column is
	// two steps from open sky.
	for x := 3; x <= 5; x++ {
		for z := 3; z <= 5; z++ {
			pos := cube.Pos{x, 20, z}
			w.blocks[pos] = testBlock{opacity: 15}
			e.CheckBlock(pos)
		}
	}
	settle(t, e)

	view := e.Layer(SkyLight)
	if got := view.Level(cube.Pos{4, 19, 4}); got != 2 {
		t.Errorf("under roof centre = %d, want 2", got)
	}
	if got := view.Level(cube.Pos{3, 10, 4}); got != 1 {
		t.Errorf("under roof edge = %d, want 1", got)
	}
	if got := view.Level(cube.Pos{4, 20, 4}); got != MaxLevel {
		t.Errorf("inside roof = %d, want %d", got, MaxLevel)
	}
	assertSettled(t, e, SkyLight, cube.Pos{0, 5, 0}, cube.Pos{8, 25, 8})

	for x := 3; x <= 5; x++ {
		for z := 3; z <= 5; z++ {
			pos := cube.Pos{x, 20, z}
			delete(w.blocks, pos)
			e.CheckBlock(pos)
		}
	}
	settle(t, e)

	for y := 5; y <= 20; y++ {
		if got := view.Level(cube.Pos{4, y, 4}); got != 0 {
			t.Fatalf("reopened column at y=%d = %d, want 0", y, got)
		}
	}
	assertSettled(t, e, SkyLight, cube.Pos{0, 5, 0}, cube.Pos{8, 25, 8})
}

func TestBudgetIsResumable(t *testing.T) {
	w := newTestWorld(testRange, 2)
	e := New(w, Config{BlockLight: true, Range: testRange}, nil)
	w.loadAll(t, e)
	settle(t, e)

	for i := 0; i < 10; i++ {
		pos := cube.Pos{-30 + i*7, 32, 0}
		w.blocks[pos] = testBlock{emission: 14}
		e.OnBlockEmissionIncrease(pos, 14)
	}
	if got := e.QueueSize(); got != 10 {
		t.Fatalf("QueueSize() = %d, want 10", got)
	}

	if got := e.RunUpdates(1); got != 0 {
		t.Fatalf("RunUpdates(1) = %d, want 0", got)
	}
	if !e.HasLightWork() || e.QueueSize() < 9 {
		t.Fatalf("QueueSize() after one update = %d, want at least 9", e.QueueSize())
	}

	calls := 0
	for e.HasLightWork() {
		e.RunUpdates(64)
		calls++
	}
	if calls < 2 {
		t.Errorf("drained in %d calls, expected the work to span several", calls)
	}
	assertSettled(t, e, BlockLight, cube.Pos{-32, 25, -7}, cube.Pos{40, 39, 7})
}

func TestFairBudgetSplit(t *testing.T) {
	ra := cube.Range{0, 31}
	w := newTestWorld(ra, 1)
	// A translucent floor leaves plenty of sky light to spread below it.
	for x := -16; x < 32; x++ {
		for z := -16; z < 32; z++ {
			w.blocks[cube.Pos{x, 8, z}] = testBlock{opacity: 1}
		}
	}
	e := New(w, Config{BlockLight: true, SkyLight: true, Range: ra}, nil)
	w.loadAll(t, e)

	// The block layer has nothing to do, so its half goes to the sky layer.
	if left := e.RunUpdates(100); left != 0 {
		t.Fatalf("RunUpdates(100) = %d, want the sky layer to use all of it", left)
	}
	settle(t, e)
	if got := e.Layer(SkyLight).Level(cube.Pos{4, 8, 4}); got != 1 {
		t.Errorf("inside translucent floor = %d, want 1", got)
	}
	if got := e.Layer(SkyLight).Level(cube.Pos{4, 5, 4}); got != 4 {
		t.Errorf("below translucent floor = %d, want 4", got)
	}
}

func TestChunkReadiness(t *testing.T) {
	w := newTestWorld(testRange, 0)
	src := cube.Pos{14, 32, 8}
	w.blocks[src] = testBlock{emission: 15}

	e := New(w, Config{BlockLight: true, Range: testRange}, nil)
	w.loadAll(t, e)
	settle(t, e)

	// The neighbouring chunk is not loaded yet.
	if got := e.Layer(BlockLight).Level(cube.Pos{17, 32, 8}); got != MaxLevel {
		t.Fatalf("unloaded neighbour = %d, want %d", got, MaxLevel)
	}
	if e.LoadChunk(1, 0) {
		t.Fatal("LoadChunk of a chunk the source lacks should fail")
	}

	w.loaded[ChunkPos{X: 1, Z: 0}] = true
	if !e.LoadChunk(1, 0) {
		t.Fatal("LoadChunk(1, 0) = false")
	}
	settle(t, e)
	if got := e.Layer(BlockLight).Level(cube.Pos{17, 32, 8}); got != 3 {
		t.Errorf("newly loaded neighbour = %d, want 3", got)
	}

	e.UnloadChunk(1, 0)
	settle(t, e)
	if got := e.Layer(BlockLight).Level(cube.Pos{17, 32, 8}); got != MaxLevel {
		t.Errorf("unloaded chunk = %d, want %d", got, MaxLevel)
	}
	if got := e.Layer(BlockLight).Level(src); got != 0 {
		t.Errorf("source after neighbour unload = %d, want 0", got)
	}
}

func TestRetainedChunkKeepsLight(t *testing.T) {
	w := newTestWorld(testRange, 0)
	src := cube.Pos{8, 32, 8}
	w.blocks[src] = testBlock{emission: 15}

	e := New(w, Config{BlockLight: true, Range: testRange}, nil)
	w.loadAll(t, e)
	settle(t, e)

	e.RetainData(0, 0, true)
	e.UnloadChunk(0, 0)
	e.RunUpdates(10)
	if got := e.Layer(BlockLight).Level(cube.Pos{9, 32, 8}); got != 1 {
		t.Fatalf("retained level = %d, want 1", got)
	}

	e.RetainData(0, 0, false)
	e.RunUpdates(10)
	if got := e.Layer(BlockLight).Level(cube.Pos{9, 32, 8}); got != MaxLevel {
		t.Fatalf("released level = %d, want %d", got, MaxLevel)
	}
}

func TestRetainedReloadFinishesRemoval(t *testing.T) {
	w := newTestWorld(testRange, 0)
	src := cube.Pos{8, 32, 8}
	w.blocks[src] = testBlock{emission: 15}

	e := New(w, Config{BlockLight: true, Range: testRange}, nil)
	w.loadAll(t, e)
	settle(t, e)

	// The removal is still queued when the chunk goes away.
	e.RetainData(0, 0, true)
	delete(w.blocks, src)
	e.CheckBlock(src)
	e.UnloadChunk(0, 0)
	if !e.LoadChunk(0, 0) {
		t.Fatal("LoadChunk(0, 0) = false")
	}
	settle(t, e)

	view := e.Layer(BlockLight)
	for _, pos := range []cube.Pos{src, {8, 33, 8}, {12, 32, 8}} {
		if got := view.Level(pos); got != MaxLevel {
			t.Errorf("level at %v after reload = %d, want %d", pos, got, MaxLevel)
		}
	}
	assertSettled(t, e, BlockLight, cube.Pos{0, 16, 0}, cube.Pos{15, 47, 15})
}

func TestSkyBatchLoadOrder(t *testing.T) {
	roofed, open := ChunkPos{X: 0, Z: 0}, ChunkPos{X: 1, Z: 0}
	for _, order := range [][2]ChunkPos{{roofed, open}, {open, roofed}} {
		w := newTestWorld(testRange, 0)
		w.loaded[open] = true
		for x := 0; x < 16; x++ {
			for z := 0; z < 16; z++ {
				w.blocks[cube.Pos{x, 40, z}] = testBlock{opacity: 15}
			}
		}

		e := New(w, Config{SkyLight: true, Range: testRange}, nil)
		for _, pos := range order {
			if !e.LoadChunk(pos.X, pos.Z) {
				t.Fatalf("LoadChunk(%d, %d) = false", pos.X, pos.Z)
			}
		}
		settle(t, e)

		view := e.Layer(SkyLight)
		if got := view.Level(cube.Pos{15, 30, 5}); got != 1 {
			t.Errorf("order %v: level under roof edge = %d, want 1", order, got)
		}
		if got := view.Level(cube.Pos{10, 30, 5}); got != 6 {
			t.Errorf("order %v: level under roof = %d, want 6", order, got)
		}
		assertSettled(t, e, SkyLight, cube.Pos{0, 0, 0}, cube.Pos{31, 63, 15})
	}
}

func TestMissingLayersReadDark(t *testing.T) {
	w := newTestWorld(testRange, 0)
	e := New(w, Config{Range: testRange}, nil)
	w.loadAll(t, e)

	if got := e.RunUpdates(10); got != 10 {
		t.Errorf("RunUpdates(10) without layers = %d, want 10", got)
	}
	if got := e.RawBrightness(cube.Pos{1, 2, 3}, 0); got != 0 {
		t.Errorf("RawBrightness without layers = %d, want 0", got)
	}
	if _, ok := e.Layer(SkyLight).SectionData(SectionPos{}); ok {
		t.Error("missing layer should have no section data")
	}
}
