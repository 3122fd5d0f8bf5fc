package expiry

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/domain"
)

const (
	// DefaultWarningDays is the largest day count still classified as warning.
	// Today (0) through three days out are warning; four and beyond are fresh.
	DefaultWarningDays = 3

	ColorExpired = "#FF3B30"
	ColorWarning = "#FF9500"
	ColorFresh   = "#34C759"
)

type Classifier struct {
	warningDays int
	loc         *time.Location
}

func NewClassifier(warningDays int, loc *time.Location) *Classifier {
	if warningDays < 0 {
		warningDays = DefaultWarningDays
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Classifier{
		warningDays: warningDays,
		loc:         loc,
	}
}

func (c *Classifier) Location() *time.Location {
	return c.loc
}

// Classify maps an expiry date to its tier and label as seen at ref.
func (c *Classifier) Classify(expiryDate civil.Date, ref time.Time) domain.Status {
	days := c.DaysUntilExpiry(expiryDate, ref)

	status := domain.Status{
		Tier:            c.tierFor(days),
		Label:           Label(days),
		DaysUntilExpiry: days,
	}
	status.Color = ColorFor(status.Tier)

	return status
}

// DaysUntilExpiry counts calendar days from ref's date in the classifier's location
// to the expiry date. Any time during the expiry day itself counts as 0. Days are
// counted on the calendar, so 23h and 25h days around DST changes count as one.
func (c *Classifier) DaysUntilExpiry(expiryDate civil.Date, ref time.Time) int {
	return expiryDate.DaysSince(civil.DateOf(ref.In(c.loc)))
}

// Midnight returns the start of the given calendar day in the classifier's location.
func (c *Classifier) Midnight(d civil.Date) time.Time {
	return d.In(c.loc)
}

// InWindow reports whether days falls in [0, windowDays].
func InWindow(days, windowDays int) bool {
	return days >= 0 && days <= windowDays
}

func (c *Classifier) tierFor(days int) domain.Tier {
	switch {
	case days < 0:
		return domain.TierExpired
	case days <= c.warningDays:
		return domain.TierWarning
	default:
		return domain.TierFresh
	}
}

func Label(days int) string {
	switch {
	case days < 0:
		return "Expired"
	case days == 0:
		return "Expires today"
	case days == 1:
		return "Expires tomorrow"
	default:
		return fmt.Sprintf("Expires in %d days", days)
	}
}

func ColorFor(tier domain.Tier) string {
	switch tier {
	case domain.TierExpired:
		return ColorExpired
	case domain.TierWarning:
		return ColorWarning
	default:
		return ColorFresh
	}
}
