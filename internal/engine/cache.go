package engine

import (
	"fmt"

	"regcache/internal/bus"
	"regcache/internal/controller"
	"regcache/internal/memory"
	"regcache/internal/model"
)

// opTickBudget bounds the polling loop in the protocol driver. The
// slowest operation (a failing DELETE) completes within six ticks of the
// trigger regardless of configuration.
const opTickBudget = 64

// Cache is the clocked top level: the bus adapter, the dispatcher and the
// associative block advancing in one synchronous domain. Tick evaluates
// everything from a consistent snapshot of the previous boundary and
// commits once, so a search in tick T never observes a write staged in
// tick T.
//
// Cache is not safe for concurrent use; it models a single synchronous
// design, and callers that share one (such as the HTTP layer) serialize
// around it.
type Cache struct {
	cfg     Config
	block   *memory.Block
	disp    *controller.Dispatcher
	adapter *bus.Adapter
	ticks   uint64
}

func New(cfg Config) (*Cache, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("cache config: %w", err)
	}
	return &Cache{
		cfg:     cfg,
		block:   memory.NewBlock(cfg.Entries, cfg.KeyBits, cfg.ValueBits),
		disp:    controller.NewDispatcher(),
		adapter: bus.NewAdapter(cfg.WordBits, cfg.KeyBits, cfg.ValueBits, cfg.ValueWords()),
	}, nil
}

func (c *Cache) Config() Config     { return c.cfg }
func (c *Cache) Layout() bus.Layout { return c.adapter.Layout() }
func (c *Cache) Ticks() uint64      { return c.ticks }

// Occupied counts the slots currently holding an entry.
func (c *Cache) Occupied() int { return c.block.Occupied() }

func (c *Cache) AdapterState() bus.FSMState        { return c.adapter.State() }
func (c *Cache) DispatcherState() controller.State { return c.disp.State() }

// BusWrite performs one bus write beat against the register file. The
// return value is the grant; it is withheld while an operation is in
// flight.
func (c *Cache) BusWrite(addr int, data uint64) bool {
	return c.adapter.Write(addr, data)
}

// BusRead performs one bus read beat. Always granted.
func (c *Cache) BusRead(addr int) uint64 {
	return c.adapter.Read(addr)
}

// Tick advances the whole design one synchronization step:
// a pending start pulse hands the assembled request to the dispatcher,
// the dispatcher evaluates its active sub-operation against the pre-write
// array view, the block commits staged writes at the boundary, and the
// adapter latches any registered completion.
func (c *Cache) Tick() {
	if c.adapter.Starting() {
		c.disp.Start(c.adapter.Request())
	}
	if w, ok := c.disp.Tick(c.view()); ok {
		c.block.Write(w.Index, w.Key, w.Value)
	}
	c.block.Tick()
	if c.adapter.State() == bus.FSMWait && c.disp.Done() {
		c.adapter.Complete(c.disp.Hit(), c.disp.Err(), c.disp.Value())
	}
	c.adapter.Tick()
	c.ticks++
}

// view snapshots the array's combinational outputs for the in-flight key.
func (c *Cache) view() controller.ArrayView {
	hit, value, index := c.block.Lookup(c.disp.Request().Key)
	free, ok := c.block.FreeIndex()
	return controller.ArrayView{
		Hit:   hit,
		Value: value,
		Index: index,
		Used:  c.block.Used(),
		Free:  free,
		Full:  !ok,
	}
}

// Reset clears the array, the dispatcher and the register file. Nothing
// survives it; the store has no persistence.
func (c *Cache) Reset() {
	c.block.Reset()
	c.disp.Reset()
	c.adapter.Reset()
}

// Get runs the full bus protocol for a READ: write key, trigger, poll
// status, read result words. A miss is (0, false, nil), not an error.
func (c *Cache) Get(key uint64) (uint64, bool, error) {
	st, result, err := c.exec(model.Get, key, 0)
	if err != nil {
		return 0, false, err
	}
	if st&bus.StatusHit == 0 {
		return 0, false, nil
	}
	return result, true, nil
}

// Upsert runs the full bus protocol for an UPSERT: write value words,
// write key, trigger, poll status.
func (c *Cache) Upsert(key, value uint64) error {
	st, _, err := c.exec(model.Upsert, key, value)
	if err != nil {
		return err
	}
	if st&bus.StatusError != 0 {
		return ErrCapacityExceeded
	}
	return nil
}

// Delete runs the full bus protocol for a DELETE.
func (c *Cache) Delete(key uint64) error {
	st, _, err := c.exec(model.Delete, key, 0)
	if err != nil {
		return err
	}
	if st&bus.StatusError != 0 {
		return ErrKeyNotFound
	}
	return nil
}

// exec drives the register-mapped protocol sequence a bus requester
// would: stage value words (UPSERT only), stage the key, write the op
// register as the trigger, then tick the design while polling the
// status register for done. It returns the final status word and the
// assembled result.
func (c *Cache) exec(op model.Op, key, value uint64) (status, result uint64, err error) {
	lay := c.adapter.Layout()
	wordMask := memory.WidthMask(c.cfg.WordBits)

	if op == model.Upsert {
		words := value
		for i := 0; i < lay.ValueWords; i++ {
			if !c.BusWrite(lay.Value(i), words&wordMask) {
				return 0, 0, fmt.Errorf("%s: value word %d write not granted", op, i)
			}
			words >>= c.cfg.WordBits
		}
	}
	if !c.BusWrite(lay.Key(), key) {
		return 0, 0, fmt.Errorf("%s: key write not granted", op)
	}
	if !c.BusWrite(lay.Op(), uint64(op)) {
		return 0, 0, fmt.Errorf("%s: op write not granted", op)
	}

	for i := 0; i < opTickBudget; i++ {
		c.Tick()
		st := c.BusRead(lay.Status())
		if st&bus.StatusDone != 0 {
			for w := lay.ValueWords - 1; w >= 0; w-- {
				result = result<<c.cfg.WordBits | c.BusRead(lay.Result(w))
			}
			return st, result, nil
		}
	}
	return 0, 0, fmt.Errorf("%s: %w", op, ErrStalled)
}
