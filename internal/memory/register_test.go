package memory

import "testing"

func TestRegisterWriteCommitsAtTick(t *testing.T) {
	var r Register

	r.Write(0x55)
	if got := r.Value(); got != 0 {
		t.Fatalf("staged write visible before tick: got %#x", got)
	}
	r.Tick()
	if got := r.Value(); got != 0x55 {
		t.Fatalf("after tick: got %#x, want 0x55", got)
	}

	// A later tick with nothing staged must not disturb the value.
	r.Tick()
	if got := r.Value(); got != 0x55 {
		t.Fatalf("value not retained: got %#x", got)
	}
}

func TestRegisterLastWriteWins(t *testing.T) {
	var r Register
	r.Write(0xAA)
	r.Write(0x33)
	r.Tick()
	if got := r.Value(); got != 0x33 {
		t.Fatalf("got %#x, want 0x33", got)
	}
}

func TestRegisterClearDropsStagedWrite(t *testing.T) {
	var r Register
	r.Write(0xAB)
	r.Clear()
	r.Tick()
	if got := r.Value(); got != 0 {
		t.Fatalf("clear during write: got %#x, want 0", got)
	}
}

func TestCellOccupancyDerivedFromKey(t *testing.T) {
	var c Cell
	if c.Occupied() {
		t.Fatal("fresh cell reports occupied")
	}
	c.Write(7, 99)
	c.Tick()
	if !c.Occupied() {
		t.Fatal("cell with non-zero key reports vacant")
	}
	c.Write(0, 0)
	c.Tick()
	if c.Occupied() {
		t.Fatal("cell cleared to key 0 still reports occupied")
	}
}
