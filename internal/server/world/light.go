package world

import (
	"github.com/df-mc/dragonfly/server/block/cube"

	"github.com/OCharnyshevich/minecraft-light/internal/light"
	"github.com/OCharnyshevich/minecraft-light/internal/light/shape"
	"github.com/OCharnyshevich/minecraft-light/internal/server/world/gen"
)

// Range is the vertical extent of the world.
var Range = cube.Range{MinY, MaxY}

// ChunkForLighting implements light.ChunkSource. Only loaded chunks are
// handed out.
func (w *World) ChunkForLighting(x, z int32) (light.LightChunk, bool) {
	pos := gen.ChunkPos{X: int(x), Z: int(z)}

	w.mu.RLock()
	defer w.mu.RUnlock()
	c, ok := w.chunks[pos]
	if !ok || !w.loaded[pos] {
		return nil, false
	}
	return &lightChunk{w: w, c: c, pos: pos}, true
}

// lightChunk exposes one column to the light engine.
type lightChunk struct {
	w   *World
	c   *column
	pos gen.ChunkPos
}

func (lc *lightChunk) state(pos cube.Pos) int32 {
	if pos[1] < MinY || pos[1] > MaxY {
		return 0
	}
	lc.w.mu.RLock()
	defer lc.w.mu.RUnlock()
	return int32(lc.c.data.GetBlock(pos[0]&0xF, pos[1], pos[2]&0xF))
}

func (lc *lightChunk) OpacityAndEmission(pos cube.Pos) (uint8, uint8) {
	return lc.w.registry.Light(lc.state(pos))
}

func (lc *lightChunk) FaceOcclusionShape(pos cube.Pos, face cube.Face) shape.Face {
	return lc.w.registry.FaceShape(lc.state(pos), face)
}

func (lc *lightChunk) SkyHeight(x, z int) int {
	lc.w.mu.RLock()
	defer lc.w.mu.RUnlock()
	return int(lc.c.heights[(z&0xF)<<4|x&0xF])
}

// LightSources reports every emitting block. fn is called without the world
// lock held.
func (lc *lightChunk) LightSources(fn func(pos cube.Pos, emission uint8)) {
	type source struct {
		pos      cube.Pos
		emission uint8
	}
	var sources []source

	baseX, baseZ := lc.pos.X<<4, lc.pos.Z<<4
	lc.w.mu.RLock()
	for i, sec := range lc.c.data.Sections {
		if sec == nil {
			continue
		}
		for idx, state := range sec.Blocks {
			if state == 0 {
				continue
			}
			if _, emission := lc.w.registry.Light(int32(state)); emission > 0 {
				pos := cube.Pos{baseX + idx&0xF, i<<4 + idx>>8, baseZ + (idx>>4)&0xF}
				sources = append(sources, source{pos: pos, emission: emission})
			}
		}
	}
	lc.w.mu.RUnlock()

	for _, s := range sources {
		fn(s.pos, s.emission)
	}
}
