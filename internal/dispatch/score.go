package dispatch

import "aquaalert.org/aquaalert/models"

// baseScores maps a priority tier to its base score. Unrecognised tiers
// fall back to the "normal" base so scoring stays total over arbitrary
// persisted records.
var baseScores = map[string]int{
	models.PriorityLow:       10,
	models.PriorityNormal:    30,
	models.PriorityMedium:    30,
	models.PriorityHigh:      60,
	models.PriorityEmergency: 90,
}

const defaultBaseScore = 30

// Score computes the emergency priority score of a deployment, an integer
// in [0, 100]. It is pure and never fails: out-of-range inputs are clamped
// rather than rejected, because it must be safe on any persisted record.
//
// The score is the priority tier base (10/30/30/60/90), plus one point per
// 100 people affected (capped at 50), plus the vulnerability index (capped
// at 10), minus 15 when alternative water sources are available, clamped
// to [0, 100].
//
// Note that the tier bases do not dominate unconditionally: a low-tier
// deployment with a very large affected population can outscore a
// high-tier one that has alternative sources. The formula is kept exactly
// as the historical scores were computed; ranking consumers rely on the
// literal values.
func Score(d *models.Deployment) int {
	base, ok := baseScores[d.Priority]
	if !ok {
		base = defaultBaseScore
	}

	population := d.PopulationAffected
	if population < 0 {
		population = 0
	}
	populationScore := population / 100
	if populationScore > 50 {
		populationScore = 50
	}

	vulnerability := clamp(d.VulnerabilityIndex, 0, 10)

	penalty := 0
	if d.AlternativeSourcesAvailable {
		penalty = -15
	}

	return clamp(base+populationScore+vulnerability+penalty, 0, 100)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
