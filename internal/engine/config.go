package engine

import (
	"fmt"

	"regcache/internal/memory"
)

// Default geometry: 16 slots, 16-bit keys, 64-bit values on a 32-bit
// bus.
const (
	DefaultEntries   = 16
	DefaultKeyBits   = 16
	DefaultValueBits = 64
	DefaultWordBits  = 32
)

// Config sizes the cache. Zero fields take the defaults; everything else
// is validated by New. The key must fit a single bus word because the key
// register occupies exactly one word of the register map, while values
// may span several words.
type Config struct {
	Entries   int
	KeyBits   uint
	ValueBits uint
	WordBits  uint
}

func (c Config) withDefaults() Config {
	if c.Entries == 0 {
		c.Entries = DefaultEntries
	}
	if c.KeyBits == 0 {
		c.KeyBits = DefaultKeyBits
	}
	if c.ValueBits == 0 {
		c.ValueBits = DefaultValueBits
	}
	if c.WordBits == 0 {
		c.WordBits = DefaultWordBits
	}
	return c
}

func (c Config) validate() error {
	if c.Entries < 1 || c.Entries > memory.MaxEntries {
		return fmt.Errorf("entries %d out of range [1, %d]", c.Entries, memory.MaxEntries)
	}
	if c.WordBits < 8 || c.WordBits > 64 {
		return fmt.Errorf("word width %d out of range [8, 64]", c.WordBits)
	}
	if c.KeyBits < 1 || c.KeyBits > c.WordBits {
		return fmt.Errorf("key width %d out of range [1, %d]", c.KeyBits, c.WordBits)
	}
	if c.ValueBits < 1 || c.ValueBits > 64 {
		return fmt.Errorf("value width %d out of range [1, 64]", c.ValueBits)
	}
	return nil
}

// ValueWords is the number of bus words a value spans.
func (c Config) ValueWords() int {
	return int((c.ValueBits + c.WordBits - 1) / c.WordBits)
}
