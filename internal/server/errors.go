package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	automationdomain "github.com/smallbiznis/fangate/internal/automation/domain"
	contentdomain "github.com/smallbiznis/fangate/internal/content/domain"
	entitlementdomain "github.com/smallbiznis/fangate/internal/entitlement/domain"
	subscriptiondomain "github.com/smallbiznis/fangate/internal/subscription/domain"
	"github.com/smallbiznis/fangate/internal/tier"
)

var badRequestErrors = []error{
	entitlementdomain.ErrInvalidSubscriber,
	subscriptiondomain.ErrInvalidSubscriber,
	subscriptiondomain.ErrInvalidCreator,
	subscriptiondomain.ErrInvalidTier,
	subscriptiondomain.ErrInvalidPeriod,
	automationdomain.ErrInvalidTrigger,
	automationdomain.ErrInvalidEvent,
	automationdomain.ErrInvalidCreator,
	automationdomain.ErrInvalidRule,
	automationdomain.ErrInvalidAction,
	automationdomain.ErrInvalidTierScope,
}

func respondError(c *gin.Context, err error) {
	switch {
	case matchAny(err, badRequestErrors):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound),
		errors.Is(err, automationdomain.ErrRuleNotFound),
		errors.Is(err, contentdomain.ErrContentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, subscriptiondomain.ErrSubscriptionExists),
		errors.Is(err, subscriptiondomain.ErrAlreadyCancelled),
		errors.Is(err, automationdomain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, tier.ErrUnknownTier):
		// Unknown tier codes mean corrupted upstream data, not caller error.
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, entitlementdomain.ErrLookupTimeout),
		errors.Is(err, automationdomain.ErrLookupTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

func matchAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
