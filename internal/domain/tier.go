package domain

// Tier is the classification bucket for a product's remaining shelf life.
type Tier string

const (
	TierFresh   Tier = "fresh"
	TierWarning Tier = "warning"
	TierExpired Tier = "expired"
)

func (t Tier) String() string {
	return string(t)
}

func (t Tier) IsExpired() bool {
	return t == TierExpired
}

func (t Tier) IsWarning() bool {
	return t == TierWarning
}

// Status is the derived view of a product's expiry date at a reference time.
// It is never persisted.
type Status struct {
	Tier            Tier   `json:"tier"`
	Label           string `json:"label"`
	Color           string `json:"color"`
	DaysUntilExpiry int    `json:"daysUntilExpiry"`
}
