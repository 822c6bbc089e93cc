package domain

import "time"

// TierBronze is the entry tier every new customer starts in.
const TierBronze = "Bronze"

// CustomerLoyalty tracks a customer's points balance and current tier.
type CustomerLoyalty struct {
	UserID         string    `json:"user_id"`
	TierID         int64     `json:"tier_id"`
	CurrentPoints  int       `json:"current_points"`
	LifetimePoints int       `json:"lifetime_points"`
	UpdatedAt      time.Time `json:"updated_at"`
}
