// Package domain defines the entitlement decision contract.
package domain

import (
	"context"
	"errors"

	contentdomain "github.com/smallbiznis/fangate/internal/content/domain"
)

// Reason explains an entitlement decision. Denial is a normal outcome,
// never an error.
type Reason string

const (
	ReasonFree                 Reason = "free"
	ReasonNoTierRequirement    Reason = "no_tier_requirement"
	ReasonTierMet              Reason = "tier_met"
	ReasonNoActiveSubscription Reason = "no_active_subscription"
	ReasonInsufficientTier     Reason = "insufficient_tier"
)

// Decision is the access verdict for one (subscriber, content item) pair.
type Decision struct {
	Allow  bool   `json:"allow"`
	Reason Reason `json:"reason"`
}

func Allow(reason Reason) Decision { return Decision{Allow: true, Reason: reason} }
func Deny(reason Reason) Decision  { return Decision{Allow: false, Reason: reason} }

type Service interface {
	// Resolve decides whether subscriberID may view item. It is read-only,
	// idempotent and safe for arbitrary concurrent use.
	Resolve(ctx context.Context, subscriberID string, item contentdomain.ContentItem) (Decision, error)
}

var (
	ErrInvalidSubscriber = errors.New("invalid_subscriber")
	ErrLookupTimeout     = errors.New("lookup_timeout")
)
