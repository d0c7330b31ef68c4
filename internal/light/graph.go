package light

import "github.com/df-mc/dragonfly/server/block/cube"

// layerRules supplies the layer specific parts of propagation.
type layerRules interface {
	// sourceLevel returns the level a voxel holds on its own account,
	// independent of its neighbours.
	sourceLevel(a Addr) int
	// edgeLevel returns the level light at level in from gives to, where to
	// is the neighbour of from across face.
	edgeLevel(from, to Addr, face cube.Face, level int) int
}

// graph maintains the settled levels of one layer. Every voxel's level is the
// minimum of its source level and its neighbours' levels plus the cost of the
// edge between them, capped at MaxLevel.
//
// Pending work lives entirely in the queue: each queued node carries the level
// it was last computed to have, and runUpdates settles nodes lowest level
// first. A node whose computed level is brighter than its stored one is simply
// lowered and its neighbours relaxed. A node that got darker is reset to
// MaxLevel and requeued at its computed level, and every neighbour that may
// have been lit through it is re-derived from all of its other neighbours.
type graph struct {
	rules   layerRules
	storage *Storage
	queue   *updateQueue
}

func newGraph(rules layerRules, storage *Storage) *graph {
	return &graph{rules: rules, storage: storage, queue: newUpdateQueue()}
}

func clampLevel(l int) int {
	return min(max(l, 0), MaxLevel)
}

// fixed reports whether a's level is not derived by the graph.
func (g *graph) fixed(a Addr) bool {
	return a == SelfSource || g.storage.exposed(a)
}

func (g *graph) level(a Addr) int {
	if a == SelfSource {
		return 0
	}
	return g.storage.storedLevel(a)
}

// checkNode re-evaluates a and queues it if its stored level disagrees with
// the level derived from its source and neighbours. Nodes in sections that
// are not ready are rechecked once the section becomes ready.
func (g *graph) checkNode(a Addr) {
	if !g.storage.ready(a) {
		g.storage.deferUntilReady(a.Section(), a)
		return
	}
	g.checkEdge(a, a, MaxLevel, false)
}

// checkEdge re-evaluates to after the edge from -> to changed. If brighter is
// set, to can only get brighter and level is the level it is offered through
// the edge. Otherwise to is re-derived from scratch ignoring from, with level
// as what from still offers.
func (g *graph) checkEdge(from, to Addr, level int, brighter bool) {
	computed, queued := g.queue.get(to)
	g.relax(from, to, level, g.level(to), computed, queued, brighter)
}

func (g *graph) relax(from, to Addr, level, old, computed int, queued, brighter bool) {
	if g.fixed(to) {
		return
	}
	level, old = clampLevel(level), clampLevel(old)
	if !queued {
		computed = old
	}
	var n int
	if brighter {
		n = min(computed, level)
	} else {
		n = clampLevel(g.computeLevel(to, from, level))
	}
	if old != n {
		g.queue.enqueue(to, min(old, n), n)
	} else if queued {
		g.queue.remove(to)
	}
}

// computeLevel derives the level of a from its source and every ready
// neighbour except excluded, starting from level.
func (g *graph) computeLevel(a, excluded Addr, level int) int {
	if excluded != SelfSource {
		level = min(level, g.rules.sourceLevel(a))
		if level == 0 {
			return 0
		}
	}
	for _, face := range faces {
		nb := a.Offset(face)
		if nb == excluded {
			continue
		}
		if !g.storage.ready(nb) {
			g.storage.deferUntilReady(nb.Section(), a)
			continue
		}
		if l := g.rules.edgeLevel(nb, a, face.Opposite(), g.level(nb)); l < level {
			level = l
			if level == 0 {
				return 0
			}
		}
	}
	return level
}

// checkNeighbors propagates a change of a's level to its neighbours. With
// brighter set, level is a's new level and neighbours are relaxed against it;
// otherwise level is a's previous level and neighbours that could have been
// lit through a are re-derived.
func (g *graph) checkNeighbors(a Addr, level int, brighter bool) {
	for _, face := range faces {
		nb := a.Offset(face)
		if !g.storage.ready(nb) {
			g.storage.deferUntilReady(nb.Section(), nb)
			continue
		}
		g.checkNeighbor(a, nb, face, level, brighter)
	}
}

func (g *graph) checkNeighbor(from, to Addr, face cube.Face, level int, brighter bool) {
	computed, queued := g.queue.get(to)
	offered := clampLevel(g.rules.edgeLevel(from, to, face, level))
	old := g.level(to)
	if brighter {
		g.relax(from, to, offered, old, computed, queued, true)
		return
	}
	current := computed
	if !queued {
		current = clampLevel(old)
	}
	if offered == current {
		g.relax(from, to, MaxLevel, old, computed, queued, false)
	}
}

// runUpdates settles up to budget queued nodes and returns the unused budget.
func (g *graph) runUpdates(budget int) int {
	for budget > 0 {
		a, computed, ok := g.queue.pop()
		if !ok {
			break
		}
		budget--
		level := clampLevel(g.level(a))
		switch {
		case computed < level:
			g.storage.setStoredLevel(a, computed)
			g.checkNeighbors(a, computed, true)
		case computed > level:
			g.queue.enqueue(a, computed, computed)
			g.storage.setStoredLevel(a, MaxLevel)
			g.checkNeighbors(a, level, false)
		}
	}
	return budget
}

func (g *graph) removeFromQueue(a Addr) { g.queue.remove(a) }

func (g *graph) dropQueued(pred func(Addr) bool) { g.queue.removeIf(pred) }

// takeQueued removes the queued nodes matching pred and returns them.
func (g *graph) takeQueued(pred func(Addr) bool) []Addr { return g.queue.removeIf(pred) }

func (g *graph) hasWork() bool { return g.queue.len() > 0 }

func (g *graph) queueSize() int { return g.queue.len() }
