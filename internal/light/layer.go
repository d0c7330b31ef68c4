package light

import (
	"github.com/df-mc/dragonfly/server/block/cube"

	"github.com/OCharnyshevich/minecraft-light/internal/light/shape"
)

// Kind selects one of the two light layers.
type Kind uint8

const (
	BlockLight Kind = iota
	SkyLight
)

func (k Kind) String() string {
	if k == SkyLight {
		return "sky"
	}
	return "block"
}

// occludedLevel is the edge rule both layers share: light loses at least one
// level per step, more through translucent blocks, and none passes into an
// opaque block or through a face the two blocks seal between them.
func occludedLevel(access BlockAccess, from, to Addr, face cube.Face, level int) int {
	if level >= MaxLevel {
		return MaxLevel
	}
	opacity, _ := access.OpacityAndEmission(to.Pos())
	if int(opacity) >= MaxLevel {
		return MaxLevel
	}
	a := access.FaceOcclusionShape(from.Pos(), face)
	b := access.FaceOcclusionShape(to.Pos(), face.Opposite())
	if shape.Occludes(a, b) {
		return MaxLevel
	}
	return level + max(1, int(opacity))
}

// blockRules light voxels by the emission of their blocks.
type blockRules struct {
	access BlockAccess
}

func (r blockRules) sourceLevel(a Addr) int {
	_, emission := r.access.OpacityAndEmission(a.Pos())
	return MaxLevel - min(int(emission), MaxLevel)
}

func (r blockRules) edgeLevel(from, to Addr, face cube.Face, level int) int {
	return occludedLevel(r.access, from, to, face, level)
}

// skyRules have no sources of their own: voxels open to the sky are fixed at
// level 0 by the storage.
type skyRules struct {
	access BlockAccess
}

func (skyRules) sourceLevel(Addr) int { return MaxLevel }

func (r skyRules) edgeLevel(from, to Addr, face cube.Face, level int) int {
	return occludedLevel(r.access, from, to, face, level)
}

// layer couples a graph with the layer specific handling of chunk loads and
// block changes.
type layer struct {
	*graph
	kind  Kind
	cache *chunkCache
}

func newLayer(kind Kind, cache *chunkCache, ra cube.Range) *layer {
	var rules layerRules = blockRules{access: cache}
	if kind == SkyLight {
		rules = skyRules{access: cache}
	}
	return &layer{graph: newGraph(rules, NewStorage(kind == SkyLight, ra)), kind: kind, cache: cache}
}

// checkBlock rechecks a and its neighbours after the block at a changed. For
// the sky layer a change of the column's sky height also turns the voxels in
// between into or out of sources.
func (l *layer) checkBlock(a Addr) {
	if l.kind == SkyLight {
		l.updateSkyHeight(a)
	}
	l.checkNode(a)
	for _, face := range faces {
		l.checkNode(a.Offset(face))
	}
}

// onBlockEmissionIncrease seeds a with the given emission without waiting for
// a full recheck.
func (l *layer) onBlockEmissionIncrease(a Addr, emission int) {
	if !l.storage.ready(a) {
		l.storage.deferUntilReady(a.Section(), a)
		return
	}
	l.checkEdge(SelfSource, a, MaxLevel-emission, true)
}

func (l *layer) updateSkyHeight(a Addr) {
	old, ok := l.storage.height(a)
	if !ok {
		return
	}
	ch, ok := l.cache.chunk(a.Column())
	if !ok {
		return
	}
	h := ch.SkyHeight(a.X(), a.Z())
	lo, hi := l.storage.ra.Min(), l.storage.ra.Max()
	switch {
	case h > old:
		// Voxels [old, h) lost the sky. They are stored at the level they were
		// implicitly at so that the decrease reaches whatever they lit.
		l.storage.setHeight(a, h)
		for y := max(old, lo); y < h && y <= hi; y++ {
			c := pack(a.X(), y, a.Z())
			l.storage.setStoredLevel(c, 0)
			l.checkNode(c)
		}
	case h < old:
		l.storage.setHeight(a, h)
		for y := max(h, lo); y < old && y <= hi; y++ {
			c := pack(a.X(), y, a.Z())
			l.removeFromQueue(c)
			l.checkNeighbors(c, 0, true)
		}
	}
}

// enableChunk makes the column ready and seeds its sources.
func (l *layer) enableChunk(col ChunkPos, ch LightChunk) {
	l.storage.setColumnEnabled(col, true)
	if l.kind == BlockLight {
		ch.LightSources(func(pos cube.Pos, emission uint8) {
			l.onBlockEmissionIncrease(PackPos(pos), int(emission))
		})
		return
	}

	baseX, baseZ := int(col.X)<<4, int(col.Z)<<4
	for z := 0; z < 16; z++ {
		for x := 0; x < 16; x++ {
			l.storage.setHeight(pack(baseX+x, 0, baseZ+z), ch.SkyHeight(baseX+x, baseZ+z))
		}
	}
	lo, hi := l.storage.ra.Min(), l.storage.ra.Max()
	for z := 0; z < 16; z++ {
		for x := 0; x < 16; x++ {
			top := pack(baseX+x, 0, baseZ+z)
			h, _ := l.storage.height(top)
			// Voxels below the sky height that touch an exposed voxel, either
			// the one above or one in a lower neighbouring column.
			from := h - 1
			for _, face := range faces[2:] {
				if hn, ok := l.storage.height(top.Offset(face)); ok && hn < from {
					from = hn
				}
			}
			for y := max(from, lo); y < h && y <= hi; y++ {
				l.checkNode(pack(baseX+x, y, baseZ+z))
			}
			// Roofed voxels of enabled neighbour columns that now face
			// exposed voxels of this one.
			for _, face := range faces[2:] {
				nb := top.Offset(face)
				if nb.Column() == col {
					continue
				}
				hn, ok := l.storage.height(nb)
				if !ok || hn <= h {
					continue
				}
				for y := max(h, lo); y < hn && y <= hi; y++ {
					l.checkNode(pack(nb.X(), y, nb.Z()))
				}
			}
		}
	}
}

// disableChunk drops queued work inside the column and makes it not ready.
// Work dropped from a retained column is rechecked when it is enabled again,
// since its kept data may hold light that was about to be removed.
func (l *layer) disableChunk(col ChunkPos) {
	dropped := l.takeQueued(func(a Addr) bool { return a.Column() == col })
	if l.storage.retained[col] {
		for _, a := range dropped {
			l.storage.deferUntilReady(a.Section(), a)
		}
	}
	l.storage.setColumnEnabled(col, false)
}
