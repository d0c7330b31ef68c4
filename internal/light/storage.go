package light

import (
	"fmt"

	"github.com/df-mc/atomic"
	"github.com/df-mc/dragonfly/server/block/cube"
)

// nodeChecker is the part of the propagation graph storage drives when
// sections change structurally.
type nodeChecker interface {
	checkNode(a Addr)
	dropQueued(pred func(Addr) bool)
}

// columnHeights holds the sky height of every column of a chunk, indexed by
// (z<<4)|x.
type columnHeights struct {
	h      [256]int32
	shared bool
}

// snapshot is a published, read-only view of a Storage.
type snapshot struct {
	sections map[SectionPos]*DataLayer
	heights  map[ChunkPos]*columnHeights
}

type queuedSection struct {
	layer      *DataLayer
	trustEdges bool
}

// Storage keeps the light sections of one layer. Writes go to the updating map;
// SwapSectionMap publishes a copy-on-write snapshot of it for readers outside
// the update pass.
type Storage struct {
	sky bool
	ra  cube.Range

	sections map[SectionPos]*DataLayer
	heights  map[ChunkPos]*columnHeights
	changed  map[SectionPos]struct{}
	dirty    bool

	published atomic.Value[*snapshot]

	enabled   map[ChunkPos]bool
	retained  map[ChunkPos]bool
	flipped   map[ChunkPos]struct{}
	queued    map[SectionPos]queuedSection
	untrusted map[SectionPos]struct{}
	deferred  map[SectionPos]map[Addr]struct{}
}

// NewStorage creates an empty storage for a layer spanning the vertical range
// ra. Sky storages treat voxels at or above a column's sky height as fully lit.
func NewStorage(sky bool, ra cube.Range) *Storage {
	s := &Storage{
		sky:       sky,
		ra:        ra,
		sections:  make(map[SectionPos]*DataLayer),
		heights:   make(map[ChunkPos]*columnHeights),
		changed:   make(map[SectionPos]struct{}),
		enabled:   make(map[ChunkPos]bool),
		retained:  make(map[ChunkPos]bool),
		flipped:   make(map[ChunkPos]struct{}),
		queued:    make(map[SectionPos]queuedSection),
		untrusted: make(map[SectionPos]struct{}),
		deferred:  make(map[SectionPos]map[Addr]struct{}),
	}
	s.published.Store(&snapshot{sections: map[SectionPos]*DataLayer{}, heights: map[ChunkPos]*columnHeights{}})
	return s
}

func (s *Storage) inRange(y int) bool {
	return y >= s.ra.Min() && y <= s.ra.Max()
}

// sectionReady reports whether light inside sec may be read and written.
func (s *Storage) sectionReady(sec SectionPos) bool {
	y := int(sec.Y) << 4
	return y+15 >= s.ra.Min() && y <= s.ra.Max() && s.enabled[sec.Column()]
}

// ready reports whether the voxel at a may be read and written.
func (s *Storage) ready(a Addr) bool {
	return s.inRange(a.Y()) && s.enabled[a.Column()]
}

// height returns the sky height of the column holding a.
func (s *Storage) height(a Addr) (int, bool) {
	ch, ok := s.heights[a.Column()]
	if !ok {
		return 0, false
	}
	return int(ch.h[(a.Z()&0xF)<<4|a.X()&0xF]), true
}

func (s *Storage) setHeight(a Addr, h int) {
	col := a.Column()
	ch, ok := s.heights[col]
	if !ok {
		ch = &columnHeights{}
		s.heights[col] = ch
	} else if ch.shared {
		c := *ch
		c.shared = false
		ch = &c
		s.heights[col] = ch
	}
	ch.h[(a.Z()&0xF)<<4|a.X()&0xF] = int32(h)
	s.dirty = true
}

// exposed reports whether a is open to the sky. Always false for block storage.
func (s *Storage) exposed(a Addr) bool {
	if !s.sky {
		return false
	}
	h, ok := s.height(a)
	return ok && a.Y() >= h
}

// storedLevel returns the level of a in the updating map. Voxels without data
// are at MaxLevel.
func (s *Storage) storedLevel(a Addr) int {
	if s.exposed(a) {
		return 0
	}
	dl, ok := s.sections[a.Section()]
	if !ok {
		return MaxLevel
	}
	return dl.Level(localIndex(a.X(), a.Y(), a.Z()))
}

// setStoredLevel writes the level of a. Writes to sections that are not ready
// are dropped and a is rechecked once the section becomes ready.
func (s *Storage) setStoredLevel(a Addr, level int) {
	if !s.ready(a) {
		s.deferUntilReady(a.Section(), a)
		return
	}
	sec := a.Section()
	idx := localIndex(a.X(), a.Y(), a.Z())
	dl, ok := s.sections[sec]
	switch {
	case !ok:
		if level == MaxLevel {
			return
		}
		dl = &DataLayer{}
		s.sections[sec] = dl
	case dl.Level(idx) == level:
		return
	case dl.shared:
		dl = dl.copyLayer()
		s.sections[sec] = dl
	}
	dl.setBrightness(idx, uint8(MaxLevel-level))
	s.changed[sec] = struct{}{}
}

// hasPending reports whether queued section data or newly enabled columns
// still await the next update pass.
func (s *Storage) hasPending() bool {
	return len(s.queued) > 0 || len(s.flipped) > 0
}

// deferUntilReady records that a must be rechecked once sec is ready.
func (s *Storage) deferUntilReady(sec SectionPos, a Addr) {
	y := int(sec.Y) << 4
	if y+15 < s.ra.Min() || y > s.ra.Max() {
		return
	}
	set, ok := s.deferred[sec]
	if !ok {
		set = make(map[Addr]struct{})
		s.deferred[sec] = set
	}
	set[a] = struct{}{}
}

// setColumnEnabled flips the readiness of a chunk column. Disabling a column
// that is not retained drops its data.
func (s *Storage) setColumnEnabled(col ChunkPos, enabled bool) {
	if enabled {
		if !s.enabled[col] {
			s.enabled[col] = true
			s.flipped[col] = struct{}{}
		}
		return
	}
	delete(s.enabled, col)
	delete(s.flipped, col)
	if s.retained[col] {
		return
	}
	s.removeColumn(col)
}

// retainData keeps the data of col resident while it is disabled.
func (s *Storage) retainData(col ChunkPos, retain bool) {
	if retain {
		s.retained[col] = true
		return
	}
	delete(s.retained, col)
	if !s.enabled[col] {
		s.removeColumn(col)
	}
}

// removeColumn drops every section, height and pending install of col.
func (s *Storage) removeColumn(col ChunkPos) {
	for sec := range s.sections {
		if sec.Column() == col {
			delete(s.sections, sec)
			delete(s.changed, sec)
			s.dirty = true
		}
	}
	for sec := range s.deferred {
		if sec.Column() == col {
			delete(s.deferred, sec)
		}
	}
	for sec := range s.queued {
		if sec.Column() == col {
			delete(s.queued, sec)
		}
	}
	if _, ok := s.heights[col]; ok {
		delete(s.heights, col)
		s.dirty = true
	}
}

// QueueSectionData stores externally supplied data for sec to be installed on
// the next update pass. A nil slice installs an empty section. Unless
// trustEdges is set, voxels on the boundary of sec are revalidated against
// their neighbours once installed.
func (s *Storage) QueueSectionData(sec SectionPos, raw []byte, trustEdges bool) {
	dl := emptyLayer
	if raw != nil {
		dl = NewDataLayer(raw)
	}
	s.queued[sec] = queuedSection{layer: dl, trustEdges: trustEdges}
}

// installQueued moves queued data of ready columns into the updating map.
func (s *Storage) installQueued(g nodeChecker) {
	for sec, q := range s.queued {
		if !s.sectionReady(sec) {
			continue
		}
		delete(s.queued, sec)
		s.sections[sec] = q.layer
		s.changed[sec] = struct{}{}
		g.dropQueued(func(a Addr) bool { return a.Section() == sec })
		if !q.trustEdges {
			s.untrusted[sec] = struct{}{}
		}
	}
}

// hasData reports whether sec holds any non-default light.
func (s *Storage) hasData(sec SectionPos) bool {
	dl, ok := s.sections[sec]
	return ok && dl != emptyLayer && dl.data != nil
}

// MarkNewInconsistencies installs queued data and rechecks every voxel whose
// neighbourhood changed readiness: nodes deferred on a section that is now
// ready and, unless skipEdgePropagation is set, the voxels on both sides of
// every face between a newly ready section and a ready neighbour. Faces where
// neither side holds data are skipped unless includeSky is set, as are faces
// between two newly enabled sections without installed data.
func (s *Storage) MarkNewInconsistencies(g nodeChecker, includeSky, skipEdgePropagation bool) {
	s.installQueued(g)

	// fresh maps every section to recheck to whether it holds installed data
	// that was not vouched for.
	fresh := make(map[SectionPos]bool, len(s.untrusted))
	for col := range s.flipped {
		for y := s.ra.Min() >> 4; y <= s.ra.Max()>>4; y++ {
			fresh[SectionPos{X: col.X, Y: int32(y), Z: col.Z}] = false
		}
	}
	for sec := range s.untrusted {
		fresh[sec] = true
	}
	clear(s.flipped)
	clear(s.untrusted)

	for sec, untrusted := range fresh {
		if !s.sectionReady(sec) {
			continue
		}
		if set, ok := s.deferred[sec]; ok {
			delete(s.deferred, sec)
			for a := range set {
				g.checkNode(a)
			}
		}
		if skipEdgePropagation {
			continue
		}
		for _, face := range faces {
			nb := sec.Offset(face)
			if !s.sectionReady(nb) {
				continue
			}
			if !includeSky && !s.hasData(sec) && !s.hasData(nb) {
				continue
			}
			// Propagation inside a batch of newly enabled sections already
			// crosses their shared faces.
			if nbUntrusted, ok := fresh[nb]; ok && !untrusted && !nbUntrusted {
				continue
			}
			checkBoundary(g, sec, face)
		}
	}
}

// checkBoundary rechecks the 256 voxel pairs across the given face of sec.
func checkBoundary(g nodeChecker, sec SectionPos, face cube.Face) {
	o := sec.Origin()
	ox, oy, oz := o.X(), o.Y(), o.Z()
	for i := 0; i < 16; i++ {
		for j := 0; j < 16; j++ {
			var a Addr
			switch face {
			case cube.FaceDown:
				a = pack(ox+i, oy, oz+j)
			case cube.FaceUp:
				a = pack(ox+i, oy+15, oz+j)
			case cube.FaceNorth:
				a = pack(ox+i, oy+j, oz)
			case cube.FaceSouth:
				a = pack(ox+i, oy+j, oz+15)
			case cube.FaceWest:
				a = pack(ox, oy+j, oz+i)
			case cube.FaceEast:
				a = pack(ox+15, oy+j, oz+i)
			}
			g.checkNode(a)
			g.checkNode(a.Offset(face))
		}
	}
}

// SwapSectionMap publishes the updating map. Sections that became uniformly
// dark are compacted back to the shared empty layer first.
func (s *Storage) SwapSectionMap() {
	if len(s.changed) == 0 && !s.dirty {
		return
	}
	for sec := range s.changed {
		if dl, ok := s.sections[sec]; ok && dl != emptyLayer && dl.Empty() {
			s.sections[sec] = emptyLayer
		}
	}
	snap := &snapshot{
		sections: make(map[SectionPos]*DataLayer, len(s.sections)),
		heights:  make(map[ChunkPos]*columnHeights, len(s.heights)),
	}
	for sec, dl := range s.sections {
		dl.shared = true
		snap.sections[sec] = dl
	}
	for col, ch := range s.heights {
		ch.shared = true
		snap.heights[col] = ch
	}
	s.published.Store(snap)
	clear(s.changed)
	s.dirty = false
}

// Level returns the published level of the voxel at pos.
func (s *Storage) Level(pos cube.Pos) int {
	a := PackPos(pos)
	snap := s.published.Load()
	if s.sky {
		if ch, ok := snap.heights[a.Column()]; ok && a.Y() >= int(ch.h[(a.Z()&0xF)<<4|a.X()&0xF]) {
			return 0
		}
	}
	dl, ok := snap.sections[a.Section()]
	if !ok {
		return MaxLevel
	}
	return dl.Level(localIndex(a.X(), a.Y(), a.Z()))
}

// Brightness returns the published brightness of the voxel at pos.
func (s *Storage) Brightness(pos cube.Pos) int {
	return MaxLevel - s.Level(pos)
}

// SectionData returns the published nibble array of sec in the persisted
// layout, or false if the storage holds nothing for it. Sky-exposed voxels
// are reported at full brightness.
func (s *Storage) SectionData(sec SectionPos) ([]byte, bool) {
	snap := s.published.Load()
	dl, hasLayer := snap.sections[sec]
	ch, hasHeights := snap.heights[sec.Column()]
	if !hasLayer && !(s.sky && hasHeights) {
		return nil, false
	}
	out := emptyLayer.Bytes()
	if hasLayer {
		out = dl.Bytes()
	}
	if s.sky && hasHeights {
		exposed := &DataLayer{data: out}
		baseY := int(sec.Y) << 4
		for z := 0; z < 16; z++ {
			for x := 0; x < 16; x++ {
				for y := max(int(ch.h[z<<4|x])-baseY, 0); y < 16; y++ {
					exposed.setBrightness(localIndex(x, y, z), MaxLevel)
				}
			}
		}
	}
	return out, true
}

// Sections returns the positions of every section with published data.
func (s *Storage) Sections() []SectionPos {
	snap := s.published.Load()
	out := make([]SectionPos, 0, len(snap.sections))
	for sec := range snap.sections {
		out = append(out, sec)
	}
	return out
}

func (s *Storage) String() string {
	return fmt.Sprintf("Storage(sky=%v, sections=%d, columns=%d)", s.sky, len(s.sections), len(s.enabled))
}
