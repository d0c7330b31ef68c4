package anvil

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zlib"

	"github.com/OCharnyshevich/minecraft-light/internal/server/world/gen"
)

const (
	sectorSize      = 4096
	headerSectors   = 2 // location table + timestamp table
	compressionZlib = 2
)

// RegionPath returns the path of the .mca file for region (rx, rz).
func RegionPath(dir string, rx, rz int) string {
	return filepath.Join(dir, fmt.Sprintf("r.%d.%d.mca", rx, rz))
}

// SaveRegion writes all provided chunks to a .mca region file.
// chunks maps chunk positions to their uncompressed NBT data.
func SaveRegion(dir string, rx, rz int, chunks map[gen.ChunkPos][]byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create region dir: %w", err)
	}

	locations := make([]byte, sectorSize)
	timestamps := make([]byte, sectorSize)
	now := uint32(time.Now().Unix())

	var dataBuf bytes.Buffer
	currentSector := uint32(headerSectors)

	for pos, nbtData := range chunks {
		if pos.X>>5 != rx || pos.Z>>5 != rz {
			return fmt.Errorf("chunk (%d,%d) is outside region (%d,%d)", pos.X, pos.Z, rx, rz)
		}
		var cbuf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&cbuf, zlib.DefaultCompression)
		if err != nil {
			return fmt.Errorf("create zlib writer: %w", err)
		}
		if _, err := zw.Write(nbtData); err != nil {
			return fmt.Errorf("compress chunk (%d,%d): %w", pos.X, pos.Z, err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("close zlib writer: %w", err)
		}

		// length (4 bytes) + compression (1 byte) + compressed NBT, padded
		// to a sector boundary.
		payloadLen := uint32(cbuf.Len()) + 1
		totalLen := 4 + payloadLen
		sectorCount := (totalLen + sectorSize - 1) / sectorSize
		if sectorCount > 0xFF {
			return fmt.Errorf("chunk (%d,%d) needs %d sectors", pos.X, pos.Z, sectorCount)
		}

		off := ((pos.X & 31) + (pos.Z&31)*32) * 4
		binary.BigEndian.PutUint32(locations[off:off+4], currentSector<<8|sectorCount)
		binary.BigEndian.PutUint32(timestamps[off:off+4], now)

		var header [5]byte
		binary.BigEndian.PutUint32(header[0:4], payloadLen)
		header[4] = compressionZlib
		dataBuf.Write(header[:])
		dataBuf.Write(cbuf.Bytes())
		if pad := int(sectorCount)*sectorSize - int(totalLen); pad > 0 {
			dataBuf.Write(make([]byte, pad))
		}
		currentSector += sectorCount
	}

	path := RegionPath(dir, rx, rz)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp region file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmp)
	}()

	if _, err := f.Write(locations); err != nil {
		return fmt.Errorf("write locations: %w", err)
	}
	if _, err := f.Write(timestamps); err != nil {
		return fmt.Errorf("write timestamps: %w", err)
	}
	if _, err := f.Write(dataBuf.Bytes()); err != nil {
		return fmt.Errorf("write chunk data: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close region file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename region file: %w", err)
	}
	return nil
}

// ReadRegion reads every chunk of region (rx, rz) and returns their
// uncompressed NBT data. A missing file yields no chunks.
func ReadRegion(dir string, rx, rz int) (map[gen.ChunkPos][]byte, error) {
	raw, err := os.ReadFile(RegionPath(dir, rx, rz))
	if errors.Is(err, os.ErrNotExist) {
		return map[gen.ChunkPos][]byte{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read region file: %w", err)
	}
	if len(raw) < headerSectors*sectorSize {
		return nil, fmt.Errorf("region file too short: %d bytes", len(raw))
	}

	chunks := make(map[gen.ChunkPos][]byte)
	for i := 0; i < 1024; i++ {
		entry := binary.BigEndian.Uint32(raw[i*4 : i*4+4])
		if entry == 0 {
			continue
		}
		pos := gen.ChunkPos{X: rx<<5 | i&31, Z: rz<<5 | i>>5}
		start := int(entry>>8) * sectorSize
		if start+5 > len(raw) {
			return nil, fmt.Errorf("chunk (%d,%d) points past the end of the file", pos.X, pos.Z)
		}
		payloadLen := int(binary.BigEndian.Uint32(raw[start : start+4]))
		if payloadLen < 1 || start+4+payloadLen > len(raw) {
			return nil, fmt.Errorf("chunk (%d,%d) has bad length %d", pos.X, pos.Z, payloadLen)
		}
		if c := raw[start+4]; c != compressionZlib {
			return nil, fmt.Errorf("chunk (%d,%d) uses unsupported compression %d", pos.X, pos.Z, c)
		}
		zr, err := zlib.NewReader(bytes.NewReader(raw[start+5 : start+4+payloadLen]))
		if err != nil {
			return nil, fmt.Errorf("open chunk (%d,%d): %w", pos.X, pos.Z, err)
		}
		data, err := io.ReadAll(zr)
		zr.Close()
		if err != nil {
			return nil, fmt.Errorf("decompress chunk (%d,%d): %w", pos.X, pos.Z, err)
		}
		chunks[pos] = data
	}
	return chunks, nil
}
