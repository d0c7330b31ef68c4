package server

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/df-mc/dragonfly/server/block/cube"

	"github.com/OCharnyshevich/minecraft-light/internal/light"
	"github.com/OCharnyshevich/minecraft-light/internal/server/storage"
	"github.com/OCharnyshevich/minecraft-light/internal/server/world"
	"github.com/OCharnyshevich/minecraft-light/internal/server/world/anvil"
	"github.com/OCharnyshevich/minecraft-light/internal/server/world/gen"
)

// Dimension pairs a world with its light engine. All methods are safe for
// concurrent use; the engine itself only ever runs under mu.
type Dimension struct {
	name   string
	log    *slog.Logger
	retain bool

	mu     sync.Mutex
	world  *world.World
	engine *light.Engine
	lights *storage.LightStore // nil when light is not persisted
}

func newDimension(name string, w *world.World, skyLight, retain bool, lights *storage.LightStore, log *slog.Logger) *Dimension {
	log = log.With("dimension", name)
	return &Dimension{
		name:   name,
		log:    log,
		retain: retain,
		world:  w,
		engine: light.New(w, light.Config{BlockLight: true, SkyLight: skyLight, Range: world.Range}, log),
		lights: lights,
	}
}

// Name returns the name of the dimension.
func (d *Dimension) Name() string { return d.name }

// World returns the block world of the dimension.
func (d *Dimension) World() *world.World { return d.world }

// LoadChunk loads the chunk at (x, z), restoring its stored light if any.
func (d *Dimension) LoadChunk(x, z int32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.world.LoadChunk(int(x), int(z))
	if d.lights != nil {
		n, err := d.lights.LoadColumn(d.engine, x, z)
		if err != nil {
			return fmt.Errorf("load light of chunk (%d,%d): %w", x, z, err)
		}
		if n > 0 {
			d.log.Debug("restored light sections", "x", x, "z", z, "sections", n)
		}
	}
	d.engine.RetainData(x, z, d.retain)
	if !d.engine.LoadChunk(x, z) {
		return fmt.Errorf("chunk (%d,%d) not available for lighting", x, z)
	}
	return nil
}

// LoadRadius loads every chunk within radius of the origin and returns how
// many were loaded.
func (d *Dimension) LoadRadius(radius int) (int, error) {
	count := 0
	for cx := -radius; cx <= radius; cx++ {
		for cz := -radius; cz <= radius; cz++ {
			if err := d.LoadChunk(int32(cx), int32(cz)); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

// unloadBudget is the update budget of each pass run before an unload.
const unloadBudget = 1 << 16

// UnloadChunk persists the light of the chunk at (x, z) and unloads it.
// Pending updates are run first so that the saved light is settled.
func (d *Dimension) UnloadChunk(x, z int32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.lights != nil {
		d.engine.RunUpdates(unloadBudget)
		for d.engine.QueueSize() > 0 {
			d.engine.RunUpdates(unloadBudget)
		}
		for _, kind := range []light.Kind{light.BlockLight, light.SkyLight} {
			if _, err := d.lights.SaveColumn(kind, d.engine.Layer(kind), x, z, world.Range); err != nil {
				return fmt.Errorf("save light of chunk (%d,%d): %w", x, z, err)
			}
		}
	}
	d.engine.UnloadChunk(x, z)
	d.world.UnloadChunk(int(x), int(z))
	return nil
}

// SetBlock changes the block at pos and schedules the light around it for
// revalidation.
func (d *Dimension) SetBlock(pos cube.Pos, state int32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if old := d.world.SetBlock(pos[0], pos[1], pos[2], state); old != state {
		d.engine.CheckBlock(pos)
	}
}

// Tick runs one budgeted light pass and returns the number of updates used.
func (d *Dimension) Tick(budget int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return budget - d.engine.RunUpdates(budget)
}

// HasLightWork reports whether light updates are pending.
func (d *Dimension) HasLightWork() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.HasLightWork()
}

// QueueSize returns the number of pending light updates.
func (d *Dimension) QueueSize() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.QueueSize()
}

// Level returns the published light level of a layer at pos.
func (d *Dimension) Level(kind light.Kind, pos cube.Pos) int {
	return d.engine.Layer(kind).Level(pos)
}

// Brightness returns the combined brightness at pos.
func (d *Dimension) Brightness(pos cube.Pos, ambientDarkness int) int {
	return d.engine.RawBrightness(pos, ambientDarkness)
}

// Save writes the block overrides and the published light of the dimension.
func (d *Dimension) Save(store *storage.Storage) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := store.SaveWorld(d.name, d.world); err != nil {
		return fmt.Errorf("save %s overrides: %w", d.name, err)
	}
	if d.lights == nil {
		return nil
	}
	total := 0
	for _, kind := range []light.Kind{light.BlockLight, light.SkyLight} {
		n, err := d.lights.SaveLayer(kind, d.engine.Layer(kind))
		if err != nil {
			return fmt.Errorf("save %s light: %w", d.name, err)
		}
		total += n
	}
	d.log.Debug("saved light", "sections", total)
	return nil
}

// ExportAnvil writes every loaded chunk with its light to region files in
// dir and returns how many chunks were written.
func (d *Dimension) ExportAnvil(dir string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	block, sky := d.engine.Layer(light.BlockLight), d.engine.Layer(light.SkyLight)
	regions := make(map[[2]int]map[gen.ChunkPos][]byte)
	count := 0
	for _, pos := range d.world.LoadedChunks() {
		data, heights, ok := d.world.CopyChunk(pos.X, pos.Z)
		if !ok {
			continue
		}
		nbtData, err := anvil.EncodeChunkNBT(pos.X, pos.Z, data, heights, block, sky)
		if err != nil {
			return count, err
		}
		key := [2]int{pos.X >> 5, pos.Z >> 5}
		if regions[key] == nil {
			regions[key] = make(map[gen.ChunkPos][]byte)
		}
		regions[key][pos] = nbtData
		count++
	}
	for key, chunks := range regions {
		if err := anvil.SaveRegion(dir, key[0], key[1], chunks); err != nil {
			return count, fmt.Errorf("save region (%d,%d): %w", key[0], key[1], err)
		}
	}
	return count, nil
}

func (d *Dimension) close() error {
	if d.lights == nil {
		return nil
	}
	return d.lights.Close()
}
