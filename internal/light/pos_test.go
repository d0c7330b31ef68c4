package light

import (
	"testing"

	"github.com/df-mc/dragonfly/server/block/cube"
)

func TestPackRoundTrip(t *testing.T) {
	tests := []cube.Pos{
		{0, 0, 0},
		{15, 255, 15},
		{-1, -64, -1},
		{-33554432, 2047, 33554431},
		{123456, -2048, -654321},
	}
	for _, pos := range tests {
		if got := PackPos(pos).Pos(); got != pos {
			t.Errorf("PackPos(%v).Pos() = %v", pos, got)
		}
	}
}

func TestAddrSectionAndColumn(t *testing.T) {
	a := pack(-1, 17, 32)
	if got, want := a.Section(), (SectionPos{X: -1, Y: 1, Z: 2}); got != want {
		t.Errorf("Section() = %v, want %v", got, want)
	}
	if got, want := a.Column(), (ChunkPos{X: -1, Z: 2}); got != want {
		t.Errorf("Column() = %v, want %v", got, want)
	}
	if got, want := a.Section().Origin().Pos(), (cube.Pos{-16, 16, 32}); got != want {
		t.Errorf("Origin() = %v, want %v", got, want)
	}
}

func TestAddrOffset(t *testing.T) {
	a := pack(0, 0, 0)
	want := map[cube.Face]cube.Pos{
		cube.FaceDown:  {0, -1, 0},
		cube.FaceUp:    {0, 1, 0},
		cube.FaceNorth: {0, 0, -1},
		cube.FaceSouth: {0, 0, 1},
		cube.FaceWest:  {-1, 0, 0},
		cube.FaceEast:  {1, 0, 0},
	}
	for face, pos := range want {
		if got := a.Offset(face).Pos(); got != pos {
			t.Errorf("Offset(%v) = %v, want %v", face, got, pos)
		}
		if back := a.Offset(face).Offset(face.Opposite()); back != a {
			t.Errorf("Offset(%v) then opposite = %v, want %v", face, back, a)
		}
	}
}

func TestLocalIndex(t *testing.T) {
	if got := localIndex(1, 0, 0); got != 1 {
		t.Errorf("localIndex(1, 0, 0) = %d, want 1", got)
	}
	if got := localIndex(0, 0, 1); got != 16 {
		t.Errorf("localIndex(0, 0, 1) = %d, want 16", got)
	}
	if got := localIndex(0, 1, 0); got != 256 {
		t.Errorf("localIndex(0, 1, 0) = %d, want 256", got)
	}
	if got := localIndex(-1, -1, -1); got != 4095 {
		t.Errorf("localIndex(-1, -1, -1) = %d, want 4095", got)
	}
}

func TestSelfSourceString(t *testing.T) {
	if got := SelfSource.String(); got != "self" {
		t.Errorf("SelfSource.String() = %q, want %q", got, "self")
	}
	if got := pack(1, -2, 3).String(); got != "(1, -2, 3)" {
		t.Errorf("String() = %q", got)
	}
}
