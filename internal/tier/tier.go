// Package tier defines the deployment-fixed subscription tier hierarchy.
package tier

import (
	"errors"
	"strings"
)

var (
	ErrUnknownTier    = errors.New("unknown_tier")
	ErrEmptyHierarchy = errors.New("empty_hierarchy")
	ErrDuplicateTier  = errors.New("duplicate_tier")
)

// Tier is a subscription level code, e.g. "basic" or "vip".
type Tier string

func (t Tier) String() string { return string(t) }

// Normalize lowercases and trims a raw tier code.
func Normalize(raw string) Tier {
	return Tier(strings.ToLower(strings.TrimSpace(raw)))
}

// Hierarchy is a total ordering over tier codes. It is built once at startup
// from configuration and never mutated afterwards, so lookups are safe for
// concurrent use.
type Hierarchy struct {
	ranks   map[Tier]int
	ordered []Tier
}

// NewHierarchy builds a hierarchy from codes listed lowest rank first.
func NewHierarchy(codes []string) (*Hierarchy, error) {
	if len(codes) == 0 {
		return nil, ErrEmptyHierarchy
	}

	ranks := make(map[Tier]int, len(codes))
	ordered := make([]Tier, 0, len(codes))
	for i, code := range codes {
		t := Normalize(code)
		if t == "" {
			return nil, ErrEmptyHierarchy
		}
		if _, exists := ranks[t]; exists {
			return nil, ErrDuplicateTier
		}
		ranks[t] = i
		ordered = append(ordered, t)
	}

	return &Hierarchy{ranks: ranks, ordered: ordered}, nil
}

// Rank returns the integer rank of t, lowest tier first.
func (h *Hierarchy) Rank(t Tier) (int, error) {
	rank, ok := h.ranks[Normalize(string(t))]
	if !ok {
		return 0, ErrUnknownTier
	}
	return rank, nil
}

// Compare returns -1, 0 or 1 as a ranks below, equal to, or above b.
func (h *Hierarchy) Compare(a, b Tier) (int, error) {
	ra, err := h.Rank(a)
	if err != nil {
		return 0, err
	}
	rb, err := h.Rank(b)
	if err != nil {
		return 0, err
	}
	switch {
	case ra < rb:
		return -1, nil
	case ra > rb:
		return 1, nil
	default:
		return 0, nil
	}
}

// MeetsOrExceeds reports whether a subscriber on sub may access content requiring req.
func (h *Hierarchy) MeetsOrExceeds(sub, req Tier) (bool, error) {
	cmp, err := h.Compare(sub, req)
	if err != nil {
		return false, err
	}
	return cmp >= 0, nil
}

// Known reports whether t is part of the hierarchy.
func (h *Hierarchy) Known(t Tier) bool {
	_, ok := h.ranks[Normalize(string(t))]
	return ok
}

// Tiers returns the tier codes ordered lowest rank first.
func (h *Hierarchy) Tiers() []Tier {
	out := make([]Tier, len(h.ordered))
	copy(out, h.ordered)
	return out
}
