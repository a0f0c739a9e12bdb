package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/seedling-limiter/internal/limiter"
	pkgerrors "github.com/angelmondragon/seedling-limiter/pkg/errors"
	"github.com/angelmondragon/seedling-limiter/pkg/redis"
)

// kvStore is the subset of the redis client the cart store relies on.
type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(sessionID string) string
}

// Store keeps one JSON cart per storefront session in Redis.
type Store struct {
	kv  kvStore
	ttl time.Duration
}

type document struct {
	Lines     []limiter.CartLine `json:"lines"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewStore builds a cart store. Every write refreshes the ttl.
func NewStore(kv kvStore, ttl time.Duration) (*Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	return &Store{kv: kv, ttl: ttl}, nil
}

// LineKey identifies a cart line by product and variation.
func LineKey(productID, variationID int64) string {
	return fmt.Sprintf("p%d-v%d", productID, variationID)
}

// Lines returns the session's lines in insertion order. A missing cart is empty.
func (s *Store) Lines(ctx context.Context, sessionID string) ([]limiter.CartLine, error) {
	doc, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return doc.Lines, nil
}

// Line returns a single line by key.
func (s *Store) Line(ctx context.Context, sessionID, key string) (limiter.CartLine, bool, error) {
	doc, err := s.load(ctx, sessionID)
	if err != nil {
		return limiter.CartLine{}, false, err
	}
	if i := indexOf(doc.Lines, key); i >= 0 {
		return doc.Lines[i], true, nil
	}
	return limiter.CartLine{}, false, nil
}

// Add merges quantity into the line for product+variation, creating it when absent.
func (s *Store) Add(ctx context.Context, sessionID string, productID, variationID int64, quantity int) (limiter.CartLine, error) {
	if quantity <= 0 {
		return limiter.CartLine{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	doc, err := s.load(ctx, sessionID)
	if err != nil {
		return limiter.CartLine{}, err
	}

	key := LineKey(productID, variationID)
	var line limiter.CartLine
	if i := indexOf(doc.Lines, key); i >= 0 {
		merged := limiter.AddQuantities(doc.Lines[i].Quantity, quantity)
		if merged > limiter.MaxQuantity {
			return limiter.CartLine{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds the cart line maximum").
				WithDetails(map[string]any{"max": limiter.MaxQuantity})
		}
		doc.Lines[i].Quantity = merged
		line = doc.Lines[i]
	} else {
		line = limiter.CartLine{Key: key, ProductID: productID, VariationID: variationID, Quantity: quantity}
		doc.Lines = append(doc.Lines, line)
	}

	if err := s.save(ctx, sessionID, doc); err != nil {
		return limiter.CartLine{}, err
	}
	return line, nil
}

// SetQuantity overwrites a line's quantity; quantity <= 0 removes the line.
// ok is false when the line does not exist.
func (s *Store) SetQuantity(ctx context.Context, sessionID, key string, quantity int) (limiter.CartLine, bool, error) {
	doc, err := s.load(ctx, sessionID)
	if err != nil {
		return limiter.CartLine{}, false, err
	}
	i := indexOf(doc.Lines, key)
	if i < 0 {
		return limiter.CartLine{}, false, nil
	}

	line := doc.Lines[i]
	line.Quantity = quantity
	if quantity <= 0 {
		doc.Lines = append(doc.Lines[:i], doc.Lines[i+1:]...)
	} else {
		doc.Lines[i] = line
	}

	if err := s.save(ctx, sessionID, doc); err != nil {
		return limiter.CartLine{}, false, err
	}
	return line, true, nil
}

// Remove deletes a line and reports whether it existed.
func (s *Store) Remove(ctx context.Context, sessionID, key string) (bool, error) {
	_, ok, err := s.SetQuantity(ctx, sessionID, key, 0)
	return ok, err
}

// Clear drops the whole session cart.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := s.kv.Del(ctx, s.kv.CartKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *Store) load(ctx context.Context, sessionID string) (document, error) {
	if strings.TrimSpace(sessionID) == "" {
		return document{}, pkgerrors.New(pkgerrors.CodeValidation, "cart session required")
	}
	raw, err := s.kv.Get(ctx, s.kv.CartKey(sessionID))
	if redis.IsNil(err) {
		return document{}, nil
	}
	if err != nil {
		return document{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read cart")
	}
	var doc document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return document{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode cart")
	}
	return doc, nil
}

func (s *Store) save(ctx context.Context, sessionID string, doc document) error {
	doc.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(doc)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := s.kv.Set(ctx, s.kv.CartKey(sessionID), string(payload), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write cart")
	}
	return nil
}

func indexOf(lines []limiter.CartLine, key string) int {
	for i, line := range lines {
		if line.Key == key {
			return i
		}
	}
	return -1
}
