package limiter

import (
	"context"
	"errors"
)

// membership builds a predicate from product id to category slugs and
// counts how often it is consulted.
func membership(categories map[int64][]string) *countingMembership {
	return &countingMembership{categories: categories}
}

type countingMembership struct {
	categories map[int64][]string
	calls      int
	err        error
}

func (m *countingMembership) InCategory(_ context.Context, productID int64, slug string) (bool, error) {
	m.calls++
	if m.err != nil {
		return false, m.err
	}
	for _, s := range m.categories[productID] {
		if s == slug {
			return true, nil
		}
	}
	return false, nil
}

type stubVariations map[int64]VariationInfo

func (s stubVariations) DescribeVariation(_ context.Context, variationID int64) (VariationInfo, error) {
	return s[variationID], nil
}

type stubCategories map[string]string

func (s stubCategories) CategoryName(_ context.Context, slug string) (string, error) {
	return s[slug], nil
}

type failingVariations struct{}

func (failingVariations) DescribeVariation(context.Context, int64) (VariationInfo, error) {
	return VariationInfo{}, errors.New("catalog offline")
}
