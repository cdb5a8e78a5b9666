package scanner

import (
	"math"

	"phishguard/internal/classifier"
	"phishguard/internal/models"
)

// Risk weights. Each rule fires independently; the two certificate rules
// are mutually exclusive by construction.
const (
	baseScore = 10

	weightInvalidCert   = 40
	weightExpiringCert  = 10
	weightNewDomain     = 50
	weightKeywordHits   = 30
	weightRedirectChain = 20

	maxScore = 99

	// certExpiryWindowDays: a valid certificate about to lapse is only
	// mildly suspicious on its own.
	certExpiryWindowDays = 30

	// newDomainAgeDays: registrations younger than this are the single
	// strongest heuristic signal.
	newDomainAgeDays = 30

	// longChainHops: more than this many hops suggests cloaking.
	longChainHops = 2
)

// Verdict composition thresholds.
const (
	overrideRiskThreshold = 75
	defaultSafeThreshold  = 30
)

// Score reduces four collector reports to a bounded heuristic risk score.
// Pure: no I/O, order-independent, clamped to [0, maxScore]. The server
// report deliberately contributes nothing (its blacklist field is a stub).
func Score(cert models.CertificateReport, domain models.DomainReport, content models.ContentReport, chain []models.Hop) int {
	score := baseScore

	if !cert.Valid {
		score += weightInvalidCert
	} else if cert.DaysLeft < certExpiryWindowDays {
		score += weightExpiringCert
	}

	// AgeDays < 0 is the failed-lookup sentinel, not a newborn domain.
	if domain.AgeDays >= 0 && domain.AgeDays < newDomainAgeDays {
		score += weightNewDomain
	}

	if content.Status == models.ContentSuspicious {
		score += weightKeywordHits
	}

	if len(chain) > longChainHops {
		score += weightRedirectChain
	}

	if score > maxScore {
		score = maxScore
	}
	return score
}

// ComposeVerdict blends the heuristic risk score with the classifier
// prediction into the final label, confidence and threat type.
//
// The confidence rule max(classifier %, risk score) mixes a
// probability-derived percentage with an additive heuristic; the two are
// not calibrated against each other, so the blend favours whichever
// signal is more alarming rather than expressing a real probability.
func ComposeVerdict(risk int, pred classifier.Prediction, content models.ContentReport, domain models.DomainReport) (verdict string, confidence float64, threatType string) {
	verdict = pred.Label
	if risk > overrideRiskThreshold {
		// A screaming heuristic outranks the classifier either way.
		verdict = models.VerdictPhishing
	} else if risk < defaultSafeThreshold && pred.Label == models.VerdictUnknown {
		verdict = models.VerdictSafe
	}

	confidence = pred.Confidence
	if float64(risk) > confidence {
		confidence = float64(risk)
	}
	confidence = math.Round(confidence*100) / 100

	threatType = models.ThreatSafe
	if verdict == models.VerdictPhishing {
		threatType = classifyThreat(content, domain)
	}
	return verdict, confidence, threatType
}

func classifyThreat(content models.ContentReport, domain models.DomainReport) string {
	for _, kw := range content.Keywords {
		if kw == "login" {
			return models.ThreatCredential
		}
	}

	// An unknown age defaults to "not suspicious by age".
	age := domain.AgeDays
	if age < 0 {
		age = 100
	}
	if age < newDomainAgeDays {
		return models.ThreatNewDomain
	}

	return models.ThreatMalicious
}
