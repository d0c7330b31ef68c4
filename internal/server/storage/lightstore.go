package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Tnze/go-mc/nbt"
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/opt"
	"github.com/df-mc/goleveldb/leveldb/util"

	"github.com/OCharnyshevich/minecraft-light/internal/light"
)

// lightFormat is bumped whenever the record layout changes.
const lightFormat = 1

var versionKey = []byte("~format")

// sectionRecord is the NBT value stored for one section of one layer.
type sectionRecord struct {
	Kind  int8   `nbt:"Kind"`
	X     int32  `nbt:"X"`
	Y     int32  `nbt:"Y"`
	Z     int32  `nbt:"Z"`
	Light []byte `nbt:"Light"`
}

// LightStore persists the published light sections of one dimension in a
// LevelDB database. Keys are kind, x, z, y so a column is a key prefix.
type LightStore struct {
	db  *leveldb.DB
	log *slog.Logger
}

// OpenLightStore opens or creates the light database at path.
func OpenLightStore(path string, log *slog.Logger) (*LightStore, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{Compression: opt.SnappyCompression})
	if err != nil {
		return nil, fmt.Errorf("open light store %s: %w", path, err)
	}
	return newLightStore(db, log)
}

func newLightStore(db *leveldb.DB, log *slog.Logger) (*LightStore, error) {
	s := &LightStore{db: db, log: log}

	raw, err := db.Get(versionKey, nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		var v [4]byte
		binary.BigEndian.PutUint32(v[:], lightFormat)
		if err := db.Put(versionKey, v[:], nil); err != nil {
			db.Close()
			return nil, fmt.Errorf("write light store format: %w", err)
		}
	case err != nil:
		db.Close()
		return nil, fmt.Errorf("read light store format: %w", err)
	case len(raw) != 4 || binary.BigEndian.Uint32(raw) != lightFormat:
		db.Close()
		return nil, fmt.Errorf("light store format %x, want %d", raw, lightFormat)
	}
	return s, nil
}

// Close closes the database.
func (s *LightStore) Close() error {
	return s.db.Close()
}

func columnPrefix(kind light.Kind, x, z int32) []byte {
	key := make([]byte, 9, 13)
	key[0] = byte(kind)
	binary.BigEndian.PutUint32(key[1:5], uint32(x))
	binary.BigEndian.PutUint32(key[5:9], uint32(z))
	return key
}

func sectionKey(kind light.Kind, sec light.SectionPos) []byte {
	return binary.BigEndian.AppendUint32(columnPrefix(kind, sec.X, sec.Z), uint32(sec.Y))
}

// SaveLayer writes every section of view in a single batch and returns how
// many were written. Sections the view no longer holds are left untouched.
func (s *LightStore) SaveLayer(kind light.Kind, view light.LayerView) (int, error) {
	return s.SaveSections(kind, view, view.Sections())
}

// SaveColumn writes the sections of column (x, z) within ra that view holds.
func (s *LightStore) SaveColumn(kind light.Kind, view light.LayerView, x, z int32, ra cube.Range) (int, error) {
	var secs []light.SectionPos
	for y := ra.Min() >> 4; y <= ra.Max()>>4; y++ {
		secs = append(secs, light.SectionPos{X: x, Y: int32(y), Z: z})
	}
	return s.SaveSections(kind, view, secs)
}

// SaveSections writes the given sections of view in a single batch and
// returns how many were written. Sections view has no data for are skipped.
func (s *LightStore) SaveSections(kind light.Kind, view light.LayerView, secs []light.SectionPos) (int, error) {
	batch := new(leveldb.Batch)
	for _, sec := range secs {
		data, ok := view.SectionData(sec)
		if !ok {
			continue
		}
		var buf bytes.Buffer
		rec := sectionRecord{Kind: int8(kind), X: sec.X, Y: sec.Y, Z: sec.Z, Light: data}
		if err := nbt.NewEncoder(&buf).Encode(rec, ""); err != nil {
			return 0, fmt.Errorf("encode %v section %v: %w", kind, sec, err)
		}
		batch.Put(sectionKey(kind, sec), buf.Bytes())
	}
	if batch.Len() == 0 {
		return 0, nil
	}
	if err := s.db.Write(batch, nil); err != nil {
		return 0, fmt.Errorf("write %v sections: %w", kind, err)
	}
	return batch.Len(), nil
}

// Section returns the stored nibble array of one section.
func (s *LightStore) Section(kind light.Kind, sec light.SectionPos) ([]byte, bool, error) {
	raw, err := s.db.Get(sectionKey(kind, sec), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %v section %v: %w", kind, sec, err)
	}
	rec, err := decodeRecord(raw)
	if err != nil {
		return nil, false, err
	}
	return rec.Light, true, nil
}

// LoadColumn queues the stored sections of column (x, z) on e for both
// layers and returns how many were queued. Stored edges are not trusted as
// the neighbours may have changed since they were written.
func (s *LightStore) LoadColumn(e *light.Engine, x, z int32) (int, error) {
	n := 0
	for _, kind := range []light.Kind{light.BlockLight, light.SkyLight} {
		iter := s.db.NewIterator(util.BytesPrefix(columnPrefix(kind, x, z)), nil)
		for iter.Next() {
			rec, err := decodeRecord(iter.Value())
			if err != nil {
				iter.Release()
				return n, err
			}
			if len(rec.Light) != light.SectionBytes {
				s.log.Warn("skipping malformed light section", "kind", kind, "x", rec.X, "y", rec.Y, "z", rec.Z, "bytes", len(rec.Light))
				continue
			}
			e.QueueSectionData(kind, light.SectionPos{X: rec.X, Y: rec.Y, Z: rec.Z}, rec.Light, false)
			n++
		}
		iter.Release()
		if err := iter.Error(); err != nil {
			return n, fmt.Errorf("iterate %v column (%d,%d): %w", kind, x, z, err)
		}
	}
	return n, nil
}

func decodeRecord(raw []byte) (sectionRecord, error) {
	var rec sectionRecord
	if _, err := nbt.NewDecoder(bytes.NewReader(raw)).Decode(&rec); err != nil {
		return rec, fmt.Errorf("decode light section: %w", err)
	}
	return rec, nil
}
