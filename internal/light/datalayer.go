package light

import (
	"errors"
	"fmt"
)

const (
	// MaxLevel is the darkest level a voxel can hold.
	MaxLevel = 15
	// levelCount is the number of distinct levels, one queue bucket each.
	levelCount = MaxLevel + 1

	// SectionBytes is the size of one section's nibble array: 4096 nibbles.
	SectionBytes = 16 * 16 * 16 / 2
)

// ErrInvalidSectionData is the panic value (wrapped) raised when a collaborator
// hands the engine a section array of the wrong size.
var ErrInvalidSectionData = errors.New("invalid section light data")

// DataLayer holds one section of light for one layer as brightness nibbles
// (15 - level). A nil data slice means every voxel is at the default, fully
// dark brightness of 0.
type DataLayer struct {
	data []byte
	// shared is set once the layer has been published; it must be copied
	// before it is written to again.
	shared bool
}

// emptyLayer is the immutable default for sections that hold no light.
var emptyLayer = &DataLayer{shared: true}

// NewDataLayer returns a layer backed by raw, which must be SectionBytes long.
// The slice is copied.
func NewDataLayer(raw []byte) *DataLayer {
	if len(raw) != SectionBytes {
		panic(fmt.Errorf("%w: %d bytes, want %d", ErrInvalidSectionData, len(raw), SectionBytes))
	}
	dl := &DataLayer{data: make([]byte, SectionBytes)}
	copy(dl.data, raw)
	return dl
}

// brightness returns the nibble at index.
func (dl *DataLayer) brightness(index int) uint8 {
	if dl.data == nil {
		return 0
	}
	b := dl.data[index>>1]
	if index&1 == 0 {
		return b & 0x0F
	}
	return b >> 4
}

// setBrightness writes the nibble at index, allocating the backing array on
// the first non-zero write.
func (dl *DataLayer) setBrightness(index int, v uint8) {
	if dl.data == nil {
		if v == 0 {
			return
		}
		dl.data = make([]byte, SectionBytes)
	}
	i := index >> 1
	if index&1 == 0 {
		dl.data[i] = dl.data[i]&0xF0 | v&0x0F
	} else {
		dl.data[i] = dl.data[i]&0x0F | (v&0x0F)<<4
	}
}

// Level returns the light level of the voxel at local index.
func (dl *DataLayer) Level(index int) int {
	return MaxLevel - int(dl.brightness(index))
}

// Empty reports whether every voxel in the layer is at the default level.
func (dl *DataLayer) Empty() bool {
	for _, b := range dl.data {
		if b != 0 {
			return false
		}
	}
	return true
}

// Bytes returns a copy of the layer in the persisted layout.
func (dl *DataLayer) Bytes() []byte {
	out := make([]byte, SectionBytes)
	copy(out, dl.data)
	return out
}

// copyLayer returns a private, writable copy.
func (dl *DataLayer) copyLayer() *DataLayer {
	if dl.data == nil {
		return &DataLayer{}
	}
	c := &DataLayer{data: make([]byte, SectionBytes)}
	copy(c.data, dl.data)
	return c
}
