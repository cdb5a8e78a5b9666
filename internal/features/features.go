// Package features extracts the numeric URL feature vector consumed by
// the phishing classifier.
package features

import (
	"net/url"
	"strings"
	"unicode"

	"phishguard/internal/models"
)

// VectorSize is the fixed length of the extracted feature vector.
const VectorSize = 7

// Extract returns the feature vector for a URL. The positions are part of
// the model contract and must match training-time extraction exactly:
//
//	[0] URL length
//	[1] dot count
//	[2] hyphen count
//	[3] "@" count
//	[4] digit count
//	[5] dot count of the hostname (subdomain estimate)
//	[6] 1 if the scheme is https, else 0
//
// Reordering or changing any position silently invalidates the trained
// model; retrain if this ever has to change.
func Extract(rawURL string) []float64 {
	vector := make([]float64, 0, VectorSize)

	vector = append(vector, float64(len(rawURL)))
	vector = append(vector, float64(strings.Count(rawURL, ".")))
	vector = append(vector, float64(strings.Count(rawURL, "-")))
	vector = append(vector, float64(strings.Count(rawURL, "@")))

	digits := 0
	for _, r := range rawURL {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	vector = append(vector, float64(digits))

	var host, scheme string
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
		scheme = u.Scheme
	}
	vector = append(vector, float64(strings.Count(host, ".")))

	https := 0.0
	if scheme == "https" {
		https = 1.0
	}
	vector = append(vector, https)

	return vector
}

// Summarize produces the informational features block of a scan result.
// Unlike Extract it is presentation, not a model input.
func Summarize(rawURL string) models.FeatureSummary {
	return models.FeatureSummary{
		Length:          len(rawURL),
		SuspiciousChars: strings.Count(rawURL, "@") + strings.Count(rawURL, "-"),
		Subdomains:      strings.Count(rawURL, ".") - 1,
		HTTPS:           strings.HasPrefix(rawURL, "https"),
	}
}
