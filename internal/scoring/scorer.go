package scoring

import "math"

// Weights of the composite match score
const (
	DescriptionWeight = 0.6
	TypeWeight        = 0.2
	SensitivityWeight = 0.2
)

// Score combines a description match percentage (0-100) with the type and
// sensitivity checks into a 0-100 score, rounded half up.
func Score(descriptionPct float64, typeMatch, sensitivityMatch bool) int {
	total := descriptionPct * (DescriptionWeight * 100)
	if typeMatch {
		total += 100 * (TypeWeight * 100)
	}
	if sensitivityMatch {
		total += 100 * (SensitivityWeight * 100)
	}
	return int(math.Floor(total/100 + 0.5))
}

// Band is the classification of a score used for color and severity coding
type Band struct {
	Name   string
	Status string
}

var (
	BandHigh   = Band{Name: "high", Status: "healthy"}
	BandMedium = Band{Name: "medium", Status: "warning"}
	BandLow    = Band{Name: "low", Status: "critical"}
)

// BandFor classifies a score: >=80 high, 60-79 medium, below 60 low
func BandFor(score int) Band {
	switch {
	case score >= 80:
		return BandHigh
	case score >= 60:
		return BandMedium
	default:
		return BandLow
	}
}
