package e2e

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestPutGetDeleteLifecycle(t *testing.T) {
	sut := startSystemUnderTest(t)
	defer sut.Close()
	client := NewClient(sut.BaseURL, nil)
	ctx := testContext(t)

	const key = uint64(0x5A5A)

	if err := client.Put(ctx, key, 1111); err != nil {
		t.Fatalf("put v1: %v", err)
	}
	got, err := client.Get(ctx, key)
	if err != nil {
		t.Fatalf("get v1: %v", err)
	}
	if got != 1111 {
		t.Fatalf("value mismatch: got %d want 1111", got)
	}

	if err := client.Put(ctx, key, 2222); err != nil {
		t.Fatalf("put v2: %v", err)
	}
	got, err = client.Get(ctx, key)
	if err != nil {
		t.Fatalf("get v2: %v", err)
	}
	if got != 2222 {
		t.Fatalf("value mismatch after overwrite: got %d want 2222", got)
	}

	if err := client.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := client.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := client.Delete(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestIdempotentWritesKeepOneSlot(t *testing.T) {
	sut := startSystemUnderTest(t)
	defer sut.Close()
	client := NewClient(sut.BaseURL, nil)
	ctx := testContext(t)

	before, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("status before: %v", err)
	}

	const key = uint64(0x77)
	for i := 0; i < 3; i++ {
		if err := client.Put(ctx, key, uint64(1000+i)); err != nil {
			t.Fatalf("put attempt %d: %v", i, err)
		}
	}

	got, err := client.Get(ctx, key)
	if err != nil {
		t.Fatalf("get after repeated writes: %v", err)
	}
	if got != 1002 {
		t.Fatalf("value mismatch: got %d want 1002", got)
	}

	after, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("status after: %v", err)
	}
	if after.Occupied != before.Occupied+1 {
		t.Fatalf("occupancy %d -> %d, want exactly one new slot", before.Occupied, after.Occupied)
	}

	if err := client.Delete(ctx, key); err != nil {
		t.Fatalf("cleanup delete: %v", err)
	}
}

func TestCapacityExhaustion(t *testing.T) {
	sut := startSystemUnderTest(t)
	defer sut.Close()
	client := NewClient(sut.BaseURL, nil)
	ctx := testContext(t)

	st, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	free := st.Entries - st.Occupied
	if free <= 0 {
		t.Skipf("store already full (%d/%d)", st.Occupied, st.Entries)
	}

	// Fill every free slot, then one more insert must be refused.
	base := uint64(0x4000)
	var filled []uint64
	defer func() {
		for _, k := range filled {
			_ = client.Delete(ctx, k)
		}
	}()
	for i := 0; i < free; i++ {
		k := base + uint64(i)
		if err := client.Put(ctx, k, uint64(i)); err != nil {
			t.Fatalf("fill put %d: %v", i, err)
		}
		filled = append(filled, k)
	}

	if err := client.Put(ctx, base+uint64(free), 1); !errors.Is(err, ErrCapacity) {
		t.Fatalf("put on full store: got %v, want capacity error", err)
	}

	// Updating a resident key must still work at full occupancy.
	if err := client.Put(ctx, base, 9999); err != nil {
		t.Fatalf("in-place update on full store: %v", err)
	}
	got, err := client.Get(ctx, base)
	if err != nil || got != 9999 {
		t.Fatalf("read back updated key: %d, %v", got, err)
	}
}

func TestSentinelKeyRejected(t *testing.T) {
	sut := startSystemUnderTest(t)
	defer sut.Close()
	ctx := testContext(t)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		req, err := http.NewRequestWithContext(ctx, method, sut.BaseURL+"/v1/keys/0", nil)
		if err != nil {
			t.Fatalf("build request: %v", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s key 0: %v", method, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s key 0 = %d, want 400", method, resp.StatusCode)
		}
	}
}

func TestRawBusRoundTrip(t *testing.T) {
	sut := startSystemUnderTest(t)
	defer sut.Close()
	client := NewClient(sut.BaseURL, nil)
	ctx := testContext(t)

	// Assume the default geometry: two 32-bit value words, status at
	// offset 4, result words at 5 and 6.
	st, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Entries == 0 {
		t.Fatal("status reported zero entries")
	}

	writes := []struct {
		addr int
		data uint64
	}{
		{2, 0xDEADBEEF}, // value low word
		{3, 0xCAFE},     // value high word
		{1, 0x1234},     // key
		{0, 2},          // op = UPSERT, triggers
	}
	for _, wr := range writes {
		granted, err := client.BusWrite(ctx, wr.addr, wr.data)
		if err != nil {
			t.Fatalf("bus write addr %d: %v", wr.addr, err)
		}
		if !granted {
			t.Fatalf("bus write addr %d not granted", wr.addr)
		}
	}

	var status uint64
	for i := 0; i < 16; i++ {
		status, err = client.BusRead(ctx, 4)
		if err != nil {
			t.Fatalf("status poll: %v", err)
		}
		if status&1 != 0 {
			break
		}
	}
	if status&1 == 0 {
		t.Fatalf("done bit never set, last status %#x", status)
	}
	if status&4 != 0 {
		t.Fatalf("upsert errored, status %#x", status)
	}

	// The store written over the raw bus must be visible to the REST path.
	got, err := client.Get(ctx, 0x1234)
	if err != nil {
		t.Fatalf("get after raw upsert: %v", err)
	}
	if got != 0xCAFE_DEADBEEF {
		t.Fatalf("raw upsert value = %#x, want 0xCAFEDEADBEEF", got)
	}

	if err := client.Delete(ctx, 0x1234); err != nil {
		t.Fatalf("cleanup delete: %v", err)
	}
}

func TestRestartLosesAllEntries(t *testing.T) {
	sut := startSystemUnderTest(t)
	defer sut.Close()
	if sut.restart == nil {
		t.Skip("restart testing requires a controllable server process")
	}

	client := NewClient(sut.BaseURL, nil)
	ctx := testContext(t)
	const key = uint64(0xE11)

	if err := client.Put(ctx, key, 42); err != nil {
		t.Fatalf("put before restart: %v", err)
	}

	sut.restart(t)

	// The register file is volatile state; nothing survives a restart.
	if _, err := client.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected empty store after restart, got %v", err)
	}
	st, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("status after restart: %v", err)
	}
	if st.Occupied != 0 {
		t.Fatalf("occupancy %d after restart, want 0", st.Occupied)
	}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
