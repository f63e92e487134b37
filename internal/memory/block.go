package memory

import "math/bits"

// MaxEntries bounds the block size so the occupancy vector fits in a
// single uint64 word.
const MaxEntries = 64

// Block is the associative array: a fixed set of cells searched by key
// equality rather than by address. Lookup, Used, Full and FreeIndex are
// combinational — they are computed from the committed state and are
// unaffected by writes staged in the same tick, so a search always sees
// the array as it was before the current step's write.
//
// The addressed-write path is a plain slot index plus a staged (key,
// value) pair; at most the active controller writes in any given tick.
type Block struct {
	cells     []Cell
	keyMask   uint64
	valueMask uint64
}

// NewBlock builds a block of n cells with keys and values truncated to
// the given widths. n must be in [1, MaxEntries].
func NewBlock(n int, keyBits, valueBits uint) *Block {
	if n < 1 || n > MaxEntries {
		panic("memory: block size out of range")
	}
	return &Block{
		cells:     make([]Cell, n),
		keyMask:   WidthMask(keyBits),
		valueMask: WidthMask(valueBits),
	}
}

// WidthMask returns a mask selecting the low bits of a field of the given
// width. Widths of 64 and above select the whole word.
func WidthMask(bits uint) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return 1<<bits - 1
}

func (b *Block) Len() int { return len(b.cells) }

// Lookup searches all cells for an occupied slot holding key and returns
// the first match, lowest index winning. Key 0 never matches: it is the
// vacancy sentinel, and a vacant cell's key compares equal to it.
func (b *Block) Lookup(key uint64) (hit bool, value uint64, index int) {
	key &= b.keyMask
	if key == 0 {
		return false, 0, 0
	}
	for i := range b.cells {
		if b.cells[i].Key() == key {
			return true, b.cells[i].Value(), i
		}
	}
	return false, 0, 0
}

// Used returns the occupancy vector, bit i set when cell i holds an entry.
func (b *Block) Used() uint64 {
	var used uint64
	for i := range b.cells {
		if b.cells[i].Occupied() {
			used |= 1 << uint(i)
		}
	}
	return used
}

func (b *Block) Full() bool {
	return bits.OnesCount64(b.Used()) == len(b.cells)
}

// FreeIndex returns the lowest vacant slot index. The second return is
// false when the block is full.
func (b *Block) FreeIndex() (int, bool) {
	for i := range b.cells {
		if !b.cells[i].Occupied() {
			return i, true
		}
	}
	return 0, false
}

// Occupied counts the cells currently holding an entry.
func (b *Block) Occupied() int {
	return bits.OnesCount64(b.Used())
}

// Write stages (key, value) into the addressed cell for the next tick
// boundary. An out-of-range index is a caller contract violation.
func (b *Block) Write(index int, key, value uint64) {
	if index < 0 || index >= len(b.cells) {
		panic("memory: write index out of range")
	}
	b.cells[index].Write(key&b.keyMask, value&b.valueMask)
}

// Tick commits all staged writes.
func (b *Block) Tick() {
	for i := range b.cells {
		b.cells[i].Tick()
	}
}

// Reset clears every cell immediately.
func (b *Block) Reset() {
	for i := range b.cells {
		b.cells[i].Clear()
	}
}
