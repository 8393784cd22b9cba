package service

import (
	"context"
	"strings"
	"time"

	"github.com/noah-isme/jobboard-api/internal/repository"
)

// Unlimited is the ceiling reported for callers without an attempt limit.
const Unlimited = 0

// AttemptPolicy decides how many attempts a user gets per assessment.
type AttemptPolicy struct {
	subscriptions  repository.SubscriptionRepository
	defaultLimit   int
	unlimitedTiers map[string]struct{}
	now            func() time.Time
}

// NewAttemptPolicy builds a policy granting unlimited attempts to active
// subscribers of any of the given tiers and defaultLimit to everyone else.
func NewAttemptPolicy(subscriptions repository.SubscriptionRepository, defaultLimit int, unlimitedTiers []string) *AttemptPolicy {
	if defaultLimit <= 0 {
		defaultLimit = 2
	}
	tiers := make(map[string]struct{}, len(unlimitedTiers))
	for _, tier := range unlimitedTiers {
		if normalized := strings.ToUpper(strings.TrimSpace(tier)); normalized != "" {
			tiers[normalized] = struct{}{}
		}
	}
	return &AttemptPolicy{
		subscriptions:  subscriptions,
		defaultLimit:   defaultLimit,
		unlimitedTiers: tiers,
		now:            time.Now,
	}
}

// MaxAttempts returns the ceiling for userID, or Unlimited.
func (p *AttemptPolicy) MaxAttempts(ctx context.Context, userID uint) (int, error) {
	if p.subscriptions == nil || len(p.unlimitedTiers) == 0 {
		return p.defaultLimit, nil
	}

	now := p.now()
	subscriptions, err := p.subscriptions.ListActive(ctx, userID, now)
	if err != nil {
		return 0, err
	}

	for _, subscription := range subscriptions {
		if !subscription.IsActive(now) {
			continue
		}
		if _, ok := p.unlimitedTiers[strings.ToUpper(subscription.Type)]; ok {
			return Unlimited, nil
		}
	}
	return p.defaultLimit, nil
}
