package limiter

import "context"

// CartLine is a read-only snapshot of one line held by the cart collaborator.
// VariationID is zero for simple products.
type CartLine struct {
	Key         string `json:"key"`
	ProductID   int64  `json:"product_id"`
	VariationID int64  `json:"variation_id"`
	Quantity    int    `json:"quantity"`
}

// CategoryMembership answers whether a parent product sits in a category.
type CategoryMembership interface {
	InCategory(ctx context.Context, productID int64, slug string) (bool, error)
}

// MembershipFunc adapts a plain function to CategoryMembership.
type MembershipFunc func(ctx context.Context, productID int64, slug string) (bool, error)

func (f MembershipFunc) InCategory(ctx context.Context, productID int64, slug string) (bool, error) {
	return f(ctx, productID, slug)
}

// VariationInfo is the display data used in variation messages.
type VariationInfo struct {
	Name       string
	Attributes string
}

type VariationResolver interface {
	DescribeVariation(ctx context.Context, variationID int64) (VariationInfo, error)
}

type CategoryResolver interface {
	CategoryName(ctx context.Context, slug string) (string, error)
}

type membershipKey struct {
	productID int64
	slug      string
}

// memoMembership caches answers for the lifetime of one evaluation.
type memoMembership struct {
	inner CategoryMembership
	seen  map[membershipKey]bool
}

func memoize(inner CategoryMembership) *memoMembership {
	if m, ok := inner.(*memoMembership); ok {
		return m
	}
	return &memoMembership{inner: inner, seen: map[membershipKey]bool{}}
}

func (m *memoMembership) InCategory(ctx context.Context, productID int64, slug string) (bool, error) {
	key := membershipKey{productID: productID, slug: slug}
	if v, ok := m.seen[key]; ok {
		return v, nil
	}
	v, err := m.inner.InCategory(ctx, productID, slug)
	if err != nil {
		return false, err
	}
	m.seen[key] = v
	return v, nil
}
