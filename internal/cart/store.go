package cart

import (
	"context"
	"fmt"
	"sync"

	json "github.com/goccy/go-json"

	"candyshop/internal/domain"
)

// PricePolicy controls which price SelectedSubtotal charges for a line.
type PricePolicy int

const (
	// PricePinned uses the snapshot captured when the item was added.
	PricePinned PricePolicy = iota
	// PriceLive asks the lookup for the current catalog price and falls
	// back to the snapshot when the lookup fails or returns nothing.
	PriceLive
)

// PriceLookup resolves a product's current price for the PriceLive policy.
type PriceLookup func(ctx context.Context, productID string) (int64, error)

// UserIDFunc reports the signed-in user's id, or "" before login.
type UserIDFunc func() string

// Options tune a Store beyond its storage and identity wiring.
type Options struct {
	Policy PricePolicy
	Lookup PriceLookup
}

// Store holds the authoritative in-memory cart for one session and mirrors
// every mutation to the active storage partition. Storage is a cache of the
// cart, not its owner: when a write fails the error is reported but the
// in-memory state keeps serving the session.
type Store struct {
	mu     sync.Mutex
	kv     KV
	userID UserIDFunc
	policy PricePolicy
	lookup PriceLookup
	items  []domain.CartItem
}

// NewStore loads the active partition and, when a user id is present and an
// anonymous cart exists, merges the anonymous items into the user partition
// and deletes the anonymous key. The merge is idempotent: once the key is
// gone a second construction finds nothing to merge.
func NewStore(ctx context.Context, kv KV, userID UserIDFunc, opts Options) (*Store, error) {
	if userID == nil {
		userID = func() string { return "" }
	}
	s := &Store{
		kv:     kv,
		userID: userID,
		policy: opts.Policy,
		lookup: opts.Lookup,
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	part := s.partition()
	items, err := s.read(ctx, part.Key())
	if err != nil {
		return err
	}
	s.items = items

	if part.IsAnonymous() {
		return nil
	}

	anon, ok, err := s.readRaw(ctx, anonymousKey)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	anonItems, err := decodeItems(anon)
	if err != nil {
		return fmt.Errorf("decode anonymous cart: %w", err)
	}
	s.items = mergeItems(s.items, anonItems)
	if err := s.persist(ctx, part); err != nil {
		return err
	}
	return s.kv.Delete(ctx, anonymousKey)
}

// mergeItems folds anonymous lines into the user's lines: quantities
// accumulate per product id and a user line keeps its selected flag; items
// the user cart has never seen come in selected.
func mergeItems(user, anon []domain.CartItem) []domain.CartItem {
	merged := make([]domain.CartItem, len(user))
	copy(merged, user)
	for _, item := range anon {
		idx := indexOf(merged, item.ProductID)
		if idx >= 0 {
			merged[idx].Quantity += item.Quantity
			continue
		}
		item.Selected = true
		merged = append(merged, item)
	}
	return merged
}

// Add appends a new line with quantity 1, or bumps the quantity when the
// product is already in the cart. The product must carry an id, a name and
// a current price; anything less is a caller contract violation.
func (s *Store) Add(ctx context.Context, p domain.Product) error {
	if p.ID == "" || p.Name == "" || p.CurrentPrice == nil || p.CurrentPrice.NewPrice <= 0 {
		return fmt.Errorf("%w: product requires id, name and price", domain.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.items, p.ID)
	if idx >= 0 {
		s.items[idx].Quantity++
	} else {
		s.items = append(s.items, domain.CartItem{
			ProductID: p.ID,
			Name:      p.Name,
			ImageURL:  p.ImageURL,
			Price:     p.CurrentPrice.NewPrice,
			Quantity:  1,
			Selected:  true,
		})
	}
	return s.persist(ctx, s.partition())
}

// UpdateQuantity applies a signed delta to a line's quantity. A result
// below 1 removes the line instead. Unknown product ids are a no-op.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.items, productID)
	if idx < 0 {
		return nil
	}
	next := s.items[idx].Quantity + delta
	if next < 1 {
		s.items = append(s.items[:idx], s.items[idx+1:]...)
	} else {
		s.items[idx].Quantity = next
	}
	return s.persist(ctx, s.partition())
}

// SetQuantity handles direct quantity-input edits. Values below 1 are
// discarded, matching a storefront that never renders such a state; valid
// values go through the same path as UpdateQuantity.
func (s *Store) SetQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.items, productID)
	if idx < 0 {
		return nil
	}
	if s.items[idx].Quantity == quantity {
		return nil
	}
	s.items[idx].Quantity = quantity
	return s.persist(ctx, s.partition())
}

// ToggleSelected flips whether a line participates in the next checkout.
func (s *Store) ToggleSelected(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.items, productID)
	if idx < 0 {
		return nil
	}
	s.items[idx].Selected = !s.items[idx].Selected
	return s.persist(ctx, s.partition())
}

// Remove drops a line entirely. Removing an absent id is a no-op, which
// keeps double-clicked delete buttons harmless.
func (s *Store) Remove(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.items, productID)
	if idx < 0 {
		return nil
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	return s.persist(ctx, s.partition())
}

// RemoveSelected drops every selected line, typically right after checkout.
func (s *Store) RemoveSelected(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	removed := false
	for _, item := range s.items {
		if item.Selected {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	if !removed {
		return nil
	}
	s.items = kept
	return s.persist(ctx, s.partition())
}

// Clear empties the cart and deletes the active partition's storage entry.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	return s.kv.Delete(ctx, s.partition().Key())
}

// Reload replaces the in-memory items with whatever the active partition
// holds, discarding unsaved state. Used when a view wants to resync.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.read(ctx, s.partition().Key())
	if err != nil {
		return err
	}
	s.items = items
	return nil
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// Count is the sum of quantities across all lines, recomputed on demand.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, item := range s.items {
		total += item.Quantity
	}
	return total
}

// SelectedSubtotal sums price times quantity over the selected lines. With
// the PriceLive policy each line consults the lookup first and falls back
// to its snapshot; a missing or zero price contributes nothing.
func (s *Store) SelectedSubtotal(ctx context.Context) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, item := range s.items {
		if !item.Selected {
			continue
		}
		price := item.Price
		if s.policy == PriceLive && s.lookup != nil {
			if live, err := s.lookup(ctx, item.ProductID); err == nil && live > 0 {
				price = live
			}
		}
		if price <= 0 {
			continue
		}
		total += price * int64(item.Quantity)
	}
	return total
}

// partition resolves the active partition through the identity accessor.
// Resolved per operation so a login between calls switches the target key.
func (s *Store) partition() PartitionID {
	if id := s.userID(); id != "" {
		return ForUser(id)
	}
	return Anonymous()
}

func (s *Store) persist(ctx context.Context, part PartitionID) error {
	data, err := json.Marshal(s.items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.kv.Set(ctx, part.Key(), string(data)); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

func (s *Store) read(ctx context.Context, key string) ([]domain.CartItem, error) {
	raw, ok, err := s.readRaw(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	items, err := decodeItems(raw)
	if err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", key, err)
	}
	return items, nil
}

func (s *Store) readRaw(ctx context.Context, key string) (string, bool, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("read cart %s: %w", key, err)
	}
	return raw, ok, nil
}

func decodeItems(raw string) ([]domain.CartItem, error) {
	var items []domain.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func indexOf(items []domain.CartItem, productID string) int {
	for i, item := range items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}
