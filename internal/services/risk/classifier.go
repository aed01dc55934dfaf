package risk

import (
	"FraudDash/internal/domain/models"
)

// Band is a coarse risk bucket for a fraud probability.
type Band int

const (
	Low Band = iota
	Medium
	High
)

// Band boundaries. Both are exclusive lower bounds of the next band up.
const (
	MediumAbove = 0.3
	HighAbove   = 0.6
)

// Risk level labels as the scoring API spells them.
const (
	LabelLow    = "Low Risk"
	LabelMedium = "Medium Risk"
	LabelHigh   = "High Risk"
)

// Classify maps a probability in [0,1] to its band.
func Classify(p float64) Band {
	switch {
	case p > HighAbove:
		return High
	case p > MediumAbove:
		return Medium
	default:
		return Low
	}
}

// ParseLabel maps an API risk level back to a band.
func ParseLabel(label string) (Band, bool) {
	switch label {
	case LabelHigh:
		return High, true
	case LabelMedium:
		return Medium, true
	case LabelLow:
		return Low, true
	}
	return Low, false
}

func (b Band) String() string {
	switch b {
	case High:
		return LabelHigh
	case Medium:
		return LabelMedium
	default:
		return LabelLow
	}
}

// Tone is the bar colour for the band.
func (b Band) Tone() models.Tone {
	switch b {
	case High:
		return models.ToneRed
	case Medium:
		return models.ToneYellow
	default:
		return models.ToneGreen
	}
}

// Advice is the operator hint shown under a scored transaction.
func (b Band) Advice() string {
	switch b {
	case High:
		return "High risk - Manual review recommended"
	case Medium:
		return "Medium risk - Proceed with caution"
	default:
		return "Low risk - Transaction appears legitimate"
	}
}
