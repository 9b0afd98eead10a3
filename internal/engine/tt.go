package engine

import (
	"unsafe"

	"github.com/thichuong/GameCoTuong/internal/xiangqi"
)

// Bound kinds for transposition entries. AlphaFlag marks an upper bound
// (the search failed low, true value <= Score), BetaFlag a lower bound
// (fail high, true value >= Score), ExactFlag a score inside the window.
const (
	AlphaFlag uint8 = iota + 1
	BetaFlag
	ExactFlag
)

// TTEntry is one transposition table slot. Move is the zero Move when
// the stored node had no best move to offer.
type TTEntry struct {
	Key   uint64
	Move  xiangqi.Move
	Score int32
	Depth int8
	Flag  uint8
}

// TransTable is a fixed-size, power-of-two keyed transposition table.
// Probes verify the full key, so an index collision can only miss,
// never return another position's entry. Not safe for concurrent use;
// each search owns its table.
type TransTable struct {
	entries []TTEntry
	mask    uint64
}

// NewTransTable sizes the table to at most sizeMB megabytes, rounded
// down to a power of two entries.
func NewTransTable(sizeMB int) *TransTable {
	entrySize := int(unsafe.Sizeof(TTEntry{}))
	want := sizeMB * 1024 * 1024 / entrySize

	size := 1
	for size <= want {
		size *= 2
	}
	size /= 2
	if size == 0 {
		size = 1024
	}

	return &TransTable{
		entries: make([]TTEntry, size),
		mask:    uint64(size - 1),
	}
}

// Probe returns the entry stored for key, if any.
func (t *TransTable) Probe(key uint64) (TTEntry, bool) {
	entry := t.entries[key&t.mask]
	if entry.Key != key {
		return TTEntry{}, false
	}
	return entry, true
}

// GetMove returns the stored best move for key, if the entry exists and
// carries one.
func (t *TransTable) GetMove(key uint64) (xiangqi.Move, bool) {
	entry, ok := t.Probe(key)
	if !ok || entry.Move.From == entry.Move.To {
		return xiangqi.Move{}, false
	}
	return entry.Move, true
}

// Store writes an entry, replacing the slot on a key mismatch or when
// the new depth is at least the stored depth.
func (t *TransTable) Store(key uint64, mv xiangqi.Move, score, depth int, flag uint8) {
	idx := key & t.mask
	entry := &t.entries[idx]

	if entry.Key != key || depth >= int(entry.Depth) {
		*entry = TTEntry{
			Key:   key,
			Move:  mv,
			Score: int32(score),
			Depth: int8(depth),
			Flag:  flag,
		}
	}
}

// Clear wipes every slot.
func (t *TransTable) Clear() {
	for i := range t.entries {
		t.entries[i] = TTEntry{}
	}
}
