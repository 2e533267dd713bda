package shader

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// diskCacheMagic identifies the persisted shader-cache file format.
const diskCacheMagic uint32 = 0x52534853 // "SHSR" little-endian

const diskCacheVersion uint32 = 1

// diskEntry is one persisted compiled shader: its cache key plus the raw
// bytecode, enough to repopulate a Manager without recompiling.
type diskEntry struct {
	Key      CacheKey
	Bytecode []byte
}

// SaveDiskCache writes every entry currently in m to w in the persisted
// binary format: a header (magic, version, entry count) followed by one
// record per entry (key fields, then a length-prefixed bytecode blob),
// all little-endian.
func SaveDiskCache(w io.Writer, m *Manager) error {
	bw := bufio.NewWriter(w)

	m.mu.Lock()
	entries := make([]diskEntry, 0, len(m.byKey))
	for k, s := range m.byKey {
		entries = append(entries, diskEntry{Key: k, Bytecode: s.Raw})
	}
	m.mu.Unlock()

	if err := binary.Write(bw, binary.LittleEndian, diskCacheMagic); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, diskCacheVersion); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(entries))); err != nil {
		return err
	}
	for _, e := range entries {
		if err := writeDiskEntry(bw, e); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeDiskEntry(w io.Writer, e diskEntry) error {
	if _, err := w.Write(e.Key.Source[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(e.Key.Stage)); err != nil {
		return err
	}
	model := []byte(e.Key.Model)
	if err := binary.Write(w, binary.LittleEndian, uint32(len(model))); err != nil {
		return err
	}
	if _, err := w.Write(model); err != nil {
		return err
	}
	if _, err := w.Write(e.Key.Options[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(e.Bytecode))); err != nil {
		return err
	}
	_, err := w.Write(e.Bytecode)
	return err
}

func readDiskEntry(r io.Reader) (diskEntry, error) {
	var e diskEntry
	if _, err := io.ReadFull(r, e.Key.Source[:]); err != nil {
		return e, err
	}
	var stage uint8
	if err := binary.Read(r, binary.LittleEndian, &stage); err != nil {
		return e, err
	}
	e.Key.Stage = Stage(stage)

	var modelLen uint32
	if err := binary.Read(r, binary.LittleEndian, &modelLen); err != nil {
		return e, err
	}
	model := make([]byte, modelLen)
	if _, err := io.ReadFull(r, model); err != nil {
		return e, err
	}
	e.Key.Model = ShaderModel(model)

	if _, err := io.ReadFull(r, e.Key.Options[:]); err != nil {
		return e, err
	}

	var blobLen uint32
	if err := binary.Read(r, binary.LittleEndian, &blobLen); err != nil {
		return e, err
	}
	e.Bytecode = make([]byte, blobLen)
	if _, err := io.ReadFull(r, e.Bytecode); err != nil {
		return e, err
	}
	return e, nil
}

// LoadDiskCache reads a file written by SaveDiskCache and repopulates m,
// keyed by the persisted CacheKey (so a subsequent Manager.Get with
// matching source+options hits immediately without recompiling).
// Populating by key rather than by path means the cache survives source
// files being moved, as long as their content is unchanged.
func LoadDiskCache(r io.Reader, m *Manager) (int, error) {
	var magic, version, count uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return 0, err
	}
	if magic != diskCacheMagic {
		return 0, fmt.Errorf("shader: disk cache has bad magic %#x", magic)
	}
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return 0, err
	}
	if version != diskCacheVersion {
		return 0, fmt.Errorf("shader: disk cache version %d unsupported (want %d)", version, diskCacheVersion)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	loaded := 0
	for i := uint32(0); i < count; i++ {
		e, err := readDiskEntry(r)
		if err != nil {
			return loaded, err
		}
		m.byKey[e.Key] = &Shader{Stage: e.Key.Stage, Raw: e.Bytecode}
		loaded++
	}
	return loaded, nil
}
