package storage

import (
	"log/slog"
	"testing"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/goleveldb/leveldb"
	lvlstorage "github.com/df-mc/goleveldb/leveldb/storage"

	"github.com/OCharnyshevich/minecraft-light/internal/light"
	"github.com/OCharnyshevich/minecraft-light/internal/server/world"
)

func newMemLightStore(t *testing.T) *LightStore {
	t.Helper()
	db, err := leveldb.Open(lvlstorage.NewMemStorage(), nil)
	if err != nil {
		t.Fatalf("open memory db: %v", err)
	}
	s, err := newLightStore(db, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("newLightStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// litWorld returns a flat world with glowstone at (4, 5, 4) and a settled
// engine over chunk (0, 0).
func litWorld(t *testing.T) (*world.World, *light.Engine) {
	t.Helper()
	w := newFlatWorld(t)
	w.LoadChunk(0, 0)
	w.SetBlock(4, 5, 4, 89<<4)

	e := light.New(w, light.Config{BlockLight: true, SkyLight: true, Range: world.Range}, nil)
	e.LoadChunk(0, 0)
	for e.HasLightWork() {
		e.RunUpdates(4096)
	}
	return w, e
}

func TestLightStoreSaveLayer(t *testing.T) {
	s := newMemLightStore(t)
	_, e := litWorld(t)

	n, err := s.SaveLayer(light.BlockLight, e.Layer(light.BlockLight))
	if err != nil {
		t.Fatalf("SaveLayer: %v", err)
	}
	if n == 0 {
		t.Fatal("SaveLayer wrote nothing")
	}

	data, ok, err := s.Section(light.BlockLight, light.SectionPos{})
	if err != nil || !ok {
		t.Fatalf("Section = %v, %v", ok, err)
	}
	// (4, 5, 4) has index 1348, the low nibble of byte 674.
	if got := data[674] & 0xF; got != 15 {
		t.Errorf("stored brightness at the source = %d, want 15", got)
	}

	if _, ok, err := s.Section(light.SkyLight, light.SectionPos{}); ok || err != nil {
		t.Errorf("unsaved sky section = %v, %v", ok, err)
	}
}

func TestLightStoreSaveColumn(t *testing.T) {
	s := newMemLightStore(t)
	_, e := litWorld(t)

	n, err := s.SaveColumn(light.SkyLight, e.Layer(light.SkyLight), 0, 0, world.Range)
	if err != nil {
		t.Fatalf("SaveColumn: %v", err)
	}
	if n != 16 {
		t.Errorf("SaveColumn wrote %d sections, want 16", n)
	}
	data, ok, _ := s.Section(light.SkyLight, light.SectionPos{Y: 10})
	if !ok || data[0] != 0xFF {
		t.Error("open sky section not stored at full brightness")
	}
}

func TestLightStoreLoadColumn(t *testing.T) {
	s := newMemLightStore(t)
	w, e := litWorld(t)
	if _, err := s.SaveLayer(light.BlockLight, e.Layer(light.BlockLight)); err != nil {
		t.Fatalf("SaveLayer: %v", err)
	}

	fresh := light.New(w, light.Config{BlockLight: true, Range: world.Range}, nil)
	n, err := s.LoadColumn(fresh, 0, 0)
	if err != nil {
		t.Fatalf("LoadColumn: %v", err)
	}
	if n == 0 {
		t.Fatal("LoadColumn queued nothing")
	}
	fresh.LoadChunk(0, 0)
	// Installing queued data needs no budget.
	fresh.RunUpdates(0)

	if got := fresh.Layer(light.BlockLight).Level(cube.Pos{6, 5, 4}); got != 2 {
		t.Errorf("level two blocks from the source = %d, want 2", got)
	}
}

func TestLightStoreReopen(t *testing.T) {
	dir := t.TempDir()
	log := slog.New(slog.DiscardHandler)

	s, err := OpenLightStore(dir, log)
	if err != nil {
		t.Fatalf("OpenLightStore: %v", err)
	}
	_, e := litWorld(t)
	if _, err := s.SaveLayer(light.BlockLight, e.Layer(light.BlockLight)); err != nil {
		t.Fatalf("SaveLayer: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = OpenLightStore(dir, log)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, ok, err := s.Section(light.BlockLight, light.SectionPos{}); !ok || err != nil {
		t.Errorf("Section after reopen = %v, %v", ok, err)
	}
}

func TestLightStoreRejectsOtherFormat(t *testing.T) {
	dir := t.TempDir()
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Put(versionKey, []byte{0, 0, 0, 9}, nil); err != nil {
		t.Fatal(err)
	}
	db.Close()

	if _, err := OpenLightStore(dir, slog.New(slog.DiscardHandler)); err == nil {
		t.Fatal("expected an error for format 9")
	}
}
