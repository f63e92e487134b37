package memory

// Cell is one storage slot: a key register paired with a value register.
// Occupancy is not stored anywhere; it is derived from the key, with key 0
// reserved as the vacancy sentinel. Writing (0, 0) to a cell is therefore
// how a slot is deleted.
type Cell struct {
	key   Register
	value Register
}

func (c *Cell) Key() uint64   { return c.key.Value() }
func (c *Cell) Value() uint64 { return c.value.Value() }

func (c *Cell) Occupied() bool { return c.key.Value() != 0 }

// Write stages a new (key, value) pair for the next tick boundary.
func (c *Cell) Write(key, value uint64) {
	c.key.Write(key)
	c.value.Write(value)
}

func (c *Cell) Tick() {
	c.key.Tick()
	c.value.Tick()
}

func (c *Cell) Clear() {
	c.key.Clear()
	c.value.Clear()
}
