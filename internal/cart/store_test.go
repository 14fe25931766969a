package cart

import (
	"context"
	"errors"
	"testing"

	json "github.com/goccy/go-json"

	"candyshop/internal/domain"
)

func testProduct(id, name string, price int64) domain.Product {
	return domain.Product{
		ID:           id,
		Name:         name,
		CurrentPrice: &domain.PriceHistory{ProductID: id, NewPrice: price},
	}
}

func anonStore(t *testing.T, kv KV) *Store {
	t.Helper()
	s, err := NewStore(context.Background(), kv, nil, Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func userStore(t *testing.T, kv KV, userID string) *Store {
	t.Helper()
	s, err := NewStore(context.Background(), kv, func() string { return userID }, Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func checkCount(t *testing.T, s *Store) {
	t.Helper()
	sum := 0
	for _, item := range s.Items() {
		sum += item.Quantity
	}
	if got := s.Count(); got != sum {
		t.Fatalf("count %d does not match quantity sum %d", got, sum)
	}
}

func TestAdd_AccumulatesWithoutDuplicates(t *testing.T) {
	ctx := context.Background()
	s := anonStore(t, NewMemoryKV())

	if err := s.Add(ctx, testProduct("p1", "Caramel", 10000)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(ctx, testProduct("p2", "Nougat", 5000)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(ctx, testProduct("p1", "Caramel", 10000)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	items := s.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 lines, got %d: %+v", len(items), items)
	}
	if items[0].ProductID != "p1" || items[0].Quantity != 2 {
		t.Fatalf("unexpected first line %+v", items[0])
	}
	if !items[0].Selected || !items[1].Selected {
		t.Fatalf("new lines must default to selected: %+v", items)
	}
	if s.Count() != 3 {
		t.Fatalf("expected count 3, got %d", s.Count())
	}
	checkCount(t, s)
}

func TestAdd_RejectsMalformedProduct(t *testing.T) {
	ctx := context.Background()
	s := anonStore(t, NewMemoryKV())

	cases := []domain.Product{
		{},
		{ID: "p1"},
		{ID: "p1", Name: "Caramel"},
		{ID: "p1", Name: "Caramel", CurrentPrice: &domain.PriceHistory{NewPrice: 0}},
	}
	for _, p := range cases {
		if err := s.Add(ctx, p); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected validation error for %+v, got %v", p, err)
		}
	}
	if len(s.Items()) != 0 {
		t.Fatalf("rejected adds must not mutate state: %+v", s.Items())
	}
}

func TestUpdateQuantity_DeltaAndFloor(t *testing.T) {
	ctx := context.Background()
	s := anonStore(t, NewMemoryKV())
	if err := s.Add(ctx, testProduct("p1", "Caramel", 10000)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := s.UpdateQuantity(ctx, "p1", 4); err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if got := s.Items()[0].Quantity; got != 5 {
		t.Fatalf("expected quantity 5, got %d", got)
	}

	if err := s.UpdateQuantity(ctx, "p1", -4); err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if got := s.Items()[0].Quantity; got != 1 {
		t.Fatalf("expected quantity 1, got %d", got)
	}

	// Driving the quantity below 1 removes the line instead of clamping.
	if err := s.UpdateQuantity(ctx, "p1", -1); err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if len(s.Items()) != 0 {
		t.Fatalf("expected line removed, got %+v", s.Items())
	}
	checkCount(t, s)
}

func TestUpdateQuantity_UnknownProductIsNoop(t *testing.T) {
	ctx := context.Background()
	s := anonStore(t, NewMemoryKV())
	if err := s.UpdateQuantity(ctx, "missing", 3); err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if len(s.Items()) != 0 || s.Count() != 0 {
		t.Fatalf("no-op expected, got %+v", s.Items())
	}
}

func TestSetQuantity_DiscardsInvalidInput(t *testing.T) {
	ctx := context.Background()
	s := anonStore(t, NewMemoryKV())
	if err := s.Add(ctx, testProduct("p1", "Caramel", 10000)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := s.SetQuantity(ctx, "p1", 0); err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}
	if err := s.SetQuantity(ctx, "p1", -2); err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}
	if got := s.Items()[0].Quantity; got != 1 {
		t.Fatalf("invalid input must leave state unchanged, got quantity %d", got)
	}

	if err := s.SetQuantity(ctx, "p1", 7); err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}
	if got := s.Items()[0].Quantity; got != 7 {
		t.Fatalf("expected quantity 7, got %d", got)
	}
	checkCount(t, s)
}

func TestToggleSelected_DoubleFlipRestores(t *testing.T) {
	ctx := context.Background()
	s := anonStore(t, NewMemoryKV())
	if err := s.Add(ctx, testProduct("p1", "Caramel", 10000)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := s.ToggleSelected(ctx, "p1"); err != nil {
		t.Fatalf("ToggleSelected: %v", err)
	}
	if s.Items()[0].Selected {
		t.Fatalf("expected deselected after first toggle")
	}
	if err := s.ToggleSelected(ctx, "p1"); err != nil {
		t.Fatalf("ToggleSelected: %v", err)
	}
	if !s.Items()[0].Selected {
		t.Fatalf("expected selected restored after second toggle")
	}

	// Unknown ids never error.
	if err := s.ToggleSelected(ctx, "missing"); err != nil {
		t.Fatalf("ToggleSelected: %v", err)
	}
}

func TestRemove_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := anonStore(t, NewMemoryKV())
	if err := s.Add(ctx, testProduct("p1", "Caramel", 10000)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	before := s.Items()
	if err := s.Remove(ctx, "unknown-id"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove(ctx, "unknown-id"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	after := s.Items()
	if len(before) != len(after) || before[0] != after[0] {
		t.Fatalf("removing an unknown id twice changed state: %+v vs %+v", before, after)
	}

	if err := s.Remove(ctx, "p1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(s.Items()) != 0 {
		t.Fatalf("expected empty cart, got %+v", s.Items())
	}
}

func TestRemoveSelected_KeepsUnselected(t *testing.T) {
	ctx := context.Background()
	s := anonStore(t, NewMemoryKV())
	if err := s.Add(ctx, testProduct("p1", "Caramel", 10000)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(ctx, testProduct("p2", "Nougat", 5000)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.ToggleSelected(ctx, "p2"); err != nil {
		t.Fatalf("ToggleSelected: %v", err)
	}

	if err := s.RemoveSelected(ctx); err != nil {
		t.Fatalf("RemoveSelected: %v", err)
	}
	items := s.Items()
	if len(items) != 1 || items[0].ProductID != "p2" {
		t.Fatalf("expected only unselected p2 to survive, got %+v", items)
	}

	// Nothing selected anymore: a second call is a no-op.
	if err := s.RemoveSelected(ctx); err != nil {
		t.Fatalf("RemoveSelected: %v", err)
	}
	if len(s.Items()) != 1 {
		t.Fatalf("no-op expected, got %+v", s.Items())
	}
}

func TestClear_DeletesStorageEntry(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	s := anonStore(t, kv)
	if err := s.Add(ctx, testProduct("p1", "Caramel", 10000)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(s.Items()) != 0 || s.Count() != 0 {
		t.Fatalf("expected empty cart, got %+v", s.Items())
	}
	if _, ok, _ := kv.Get(ctx, Anonymous().Key()); ok {
		t.Fatalf("expected anonymous key deleted, not just emptied")
	}
}

func TestSelectedSubtotal_Pinned(t *testing.T) {
	ctx := context.Background()
	s := anonStore(t, NewMemoryKV())
	if err := s.Add(ctx, testProduct("p1", "Caramel", 10000)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.UpdateQuantity(ctx, "p1", 1); err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if err := s.Add(ctx, testProduct("p2", "Nougat", 5000)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.ToggleSelected(ctx, "p2"); err != nil {
		t.Fatalf("ToggleSelected: %v", err)
	}

	if got := s.SelectedSubtotal(ctx); got != 20000 {
		t.Fatalf("expected subtotal 20000, got %d", got)
	}
}

func TestSelectedSubtotal_ZeroPriceContributesNothing(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	// A stored cart may carry a zero snapshot price from an older session.
	raw, _ := json.Marshal([]domain.CartItem{
		{ProductID: "p1", Name: "Caramel", Price: 0, Quantity: 3, Selected: true},
		{ProductID: "p2", Name: "Nougat", Price: 5000, Quantity: 1, Selected: true},
	})
	if err := kv.Set(ctx, Anonymous().Key(), string(raw)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	s := anonStore(t, kv)
	if got := s.SelectedSubtotal(ctx); got != 5000 {
		t.Fatalf("expected subtotal 5000, got %d", got)
	}
}

func TestSelectedSubtotal_LivePolicy(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	lookup := func(_ context.Context, productID string) (int64, error) {
		if productID == "p1" {
			return 12000, nil
		}
		return 0, errors.New("catalog unavailable")
	}
	s, err := NewStore(ctx, kv, nil, Options{Policy: PriceLive, Lookup: lookup})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.Add(ctx, testProduct("p1", "Caramel", 10000)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(ctx, testProduct("p2", "Nougat", 5000)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// p1 refreshes to 12000, p2's lookup fails and falls back to 5000.
	if got := s.SelectedSubtotal(ctx); got != 17000 {
		t.Fatalf("expected subtotal 17000, got %d", got)
	}
}

func TestLoginMerge_AccumulatesAndDeletesAnonymous(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()

	anon := anonStore(t, kv)
	if err := anon.Add(ctx, testProduct("p1", "Caramel", 10000)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := anon.UpdateQuantity(ctx, "p1", 1); err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}

	userRaw, _ := json.Marshal([]domain.CartItem{
		{ProductID: "p1", Name: "Caramel", Price: 10000, Quantity: 1, Selected: true},
		{ProductID: "p2", Name: "Nougat", Price: 5000, Quantity: 3, Selected: true},
	})
	if err := kv.Set(ctx, ForUser("u7").Key(), string(userRaw)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	s := userStore(t, kv, "u7")
	items := s.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 merged lines, got %+v", items)
	}
	if items[0].ProductID != "p1" || items[0].Quantity != 3 {
		t.Fatalf("expected p1 quantity 3, got %+v", items[0])
	}
	if items[1].ProductID != "p2" || items[1].Quantity != 3 {
		t.Fatalf("expected p2 quantity 3, got %+v", items[1])
	}

	if _, ok, _ := kv.Get(ctx, Anonymous().Key()); ok {
		t.Fatalf("anonymous partition must be deleted after merge")
	}

	// Merged result is persisted under the user key.
	stored, ok, err := kv.Get(ctx, ForUser("u7").Key())
	if err != nil || !ok {
		t.Fatalf("expected user partition persisted, ok=%v err=%v", ok, err)
	}
	var persisted []domain.CartItem
	if err := json.Unmarshal([]byte(stored), &persisted); err != nil {
		t.Fatalf("unmarshal persisted: %v", err)
	}
	if len(persisted) != 2 || persisted[0].Quantity != 3 {
		t.Fatalf("persisted mismatch: %+v", persisted)
	}
}

func TestLoginMerge_Idempotent(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()

	anon := anonStore(t, kv)
	if err := anon.Add(ctx, testProduct("p1", "Caramel", 10000)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	first := userStore(t, kv, "u7")
	want := first.Items()

	// No intervening anonymous activity: a second construction must find
	// nothing to merge.
	second := userStore(t, kv, "u7")
	got := second.Items()
	if len(got) != len(want) {
		t.Fatalf("merge ran twice: %+v vs %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("merge ran twice: %+v vs %+v", got[i], want[i])
		}
	}
}

func TestLoginMerge_UserSelectedFlagWins(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()

	anonRaw, _ := json.Marshal([]domain.CartItem{
		{ProductID: "p1", Name: "Caramel", Price: 10000, Quantity: 2, Selected: true},
		{ProductID: "p3", Name: "Fudge", Price: 8000, Quantity: 1, Selected: false},
	})
	if err := kv.Set(ctx, Anonymous().Key(), string(anonRaw)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	userRaw, _ := json.Marshal([]domain.CartItem{
		{ProductID: "p1", Name: "Caramel", Price: 10000, Quantity: 1, Selected: false},
	})
	if err := kv.Set(ctx, ForUser("u7").Key(), string(userRaw)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	s := userStore(t, kv, "u7")
	items := s.Items()
	if items[0].ProductID != "p1" || items[0].Selected {
		t.Fatalf("user partition's selected flag must win: %+v", items[0])
	}
	// Items new to the user cart come in selected regardless of their
	// anonymous flag.
	if items[1].ProductID != "p3" || !items[1].Selected {
		t.Fatalf("new items must default to selected: %+v", items[1])
	}
}

func TestPersistence_RoundTripAfterEveryMutation(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	s := anonStore(t, kv)

	mutate := []func() error{
		func() error { return s.Add(ctx, testProduct("p1", "Caramel", 10000)) },
		func() error { return s.Add(ctx, testProduct("p2", "Nougat", 5000)) },
		func() error { return s.UpdateQuantity(ctx, "p1", 2) },
		func() error { return s.ToggleSelected(ctx, "p2") },
		func() error { return s.SetQuantity(ctx, "p2", 4) },
		func() error { return s.Remove(ctx, "p1") },
	}
	for i, op := range mutate {
		if err := op(); err != nil {
			t.Fatalf("op %d: %v", i, err)
		}
		raw, ok, err := kv.Get(ctx, Anonymous().Key())
		if err != nil || !ok {
			t.Fatalf("op %d: expected stored value, ok=%v err=%v", i, ok, err)
		}
		var stored []domain.CartItem
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			t.Fatalf("op %d: unmarshal: %v", i, err)
		}
		mem := s.Items()
		if len(stored) != len(mem) {
			t.Fatalf("op %d: storage and memory diverged: %+v vs %+v", i, stored, mem)
		}
		for j := range mem {
			if stored[j] != mem[j] {
				t.Fatalf("op %d line %d: %+v vs %+v", i, j, stored[j], mem[j])
			}
		}
	}
}

type failingKV struct {
	KV
	fail bool
}

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	if f.fail {
		return errors.New("quota exceeded")
	}
	return f.KV.Set(ctx, key, value)
}

func TestStorageFailure_MemoryStaysAuthoritative(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{KV: NewMemoryKV()}
	s := anonStore(t, kv)

	kv.fail = true
	err := s.Add(ctx, testProduct("p1", "Caramel", 10000))
	if err == nil {
		t.Fatalf("expected storage error to propagate")
	}
	// The mutation itself survives; storage is a cache, not the owner.
	if len(s.Items()) != 1 || s.Count() != 1 {
		t.Fatalf("in-memory state lost after storage failure: %+v", s.Items())
	}
}

func TestReload_ReplacesMemoryFromStorage(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	s := anonStore(t, kv)
	if err := s.Add(ctx, testProduct("p1", "Caramel", 10000)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	raw, _ := json.Marshal([]domain.CartItem{
		{ProductID: "p9", Name: "Toffee", Price: 3000, Quantity: 2, Selected: true},
	})
	if err := kv.Set(ctx, Anonymous().Key(), string(raw)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := s.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	items := s.Items()
	if len(items) != 1 || items[0].ProductID != "p9" {
		t.Fatalf("expected reloaded items, got %+v", items)
	}
}

func TestPartitionID_Keys(t *testing.T) {
	if got := Anonymous().Key(); got != "cart" {
		t.Fatalf("anonymous key = %q", got)
	}
	if got := ForUser("42").Key(); got != "cart_42" {
		t.Fatalf("user key = %q", got)
	}
	if !Anonymous().IsAnonymous() || ForUser("42").IsAnonymous() {
		t.Fatalf("partition identity misreported")
	}
}
