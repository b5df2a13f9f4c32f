package contracts

import "cloud.google.com/go/civil"

// ExpiringWindow is the number of days before the end date during which a
// contract is classified as StatusExpiringSoon. It is independent of the
// AlertConfig toggles.
const ExpiringWindow = 30

// DaysUntil returns the calendar days from today to end. Negative once end
// has passed.
func DaysUntil(end, today civil.Date) int {
	return end.DaysSince(today)
}

// DeriveStatus computes the status for a stored status and end date.
// StatusTerminated is returned unchanged.
func DeriveStatus(stored Status, end *civil.Date, today civil.Date) Status {
	if stored == StatusTerminated {
		return StatusTerminated
	}

	if end == nil {
		return StatusActive
	}

	days := DaysUntil(*end, today)

	switch {
	case days < 0:
		return StatusExpired
	case days <= ExpiringWindow:
		return StatusExpiringSoon
	default:
		return StatusActive
	}
}

// Classify returns a copy of c with its status re-derived for today. The
// configuration is accepted for symmetry with the other operations and does
// not affect the result.
func Classify(c Contract, _ AlertConfig, today civil.Date) Contract {
	c.Status = DeriveStatus(c.Status, c.EndDate, today)

	return c
}

// ClassifyAll classifies every contract into a new slice.
func ClassifyAll(in []Contract, cfg AlertConfig, today civil.Date) []Contract {
	out := make([]Contract, len(in))
	for i := range in {
		out[i] = Classify(in[i], cfg, today)
	}

	return out
}
