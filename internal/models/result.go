package models

import (
	"encoding/json"
	"strconv"
)

// Final verdict labels. The classifier emits the same set, so the verdict
// composer can start from the classifier's label directly.
const (
	VerdictPhishing = "PHISHING"
	VerdictSafe     = "SAFE"
	VerdictUnknown  = "UNKNOWN"
)

// Content analyzer statuses.
const (
	ContentClean      = "Clean"
	ContentSuspicious = "Suspicious"
	ContentDenied     = "Unknown (Access Denied)"
)

// Threat type classifications, only meaningful when the verdict is PHISHING.
const (
	ThreatSafe       = "Safe"
	ThreatCredential = "Credential Harvesting"
	ThreatNewDomain  = "Newly Registered Domain"
	ThreatMalicious  = "Malicious Content"
)

// CertificateReport describes the TLS certificate presented on port 443.
// On failure the date fields hold "N/A" and Valid is false.
type CertificateReport struct {
	Issuer   string `json:"issuer"`
	IssuedOn string `json:"issued_on"`
	Expires  string `json:"expires"`
	DaysLeft int    `json:"days_left"`
	Valid    bool   `json:"valid"`
	Error    string `json:"error,omitempty"`
}

// DomainReport describes the registration record of the scanned domain.
// AgeDays is -1 when the lookup failed; downstream consumers must treat
// that sentinel as "unknown", never as "very new".
type DomainReport struct {
	Registrar       string `json:"registrar"`
	Created         string `json:"created"`
	AgeDays         int    `json:"age_days"`
	RawCreationDate string `json:"raw_creation_date,omitempty"`
	Error           string `json:"error,omitempty"`
}

// ServerReport carries hosting information for the resolved address.
// Geolocation is best-effort: enrichment failure leaves Location and
// Provider at "Unknown" without degrading the rest of the report.
type ServerReport struct {
	IP        string `json:"ip"`
	Location  string `json:"location"`
	Provider  string `json:"provider"`
	Blacklist string `json:"blacklist"`
	Error     string `json:"error,omitempty"`
}

// ContentReport holds the keyword scan of the fetched page.
type ContentReport struct {
	Status     string   `json:"status"`
	Keywords   []string `json:"keywords"`
	Homoglyphs string   `json:"homoglyphs"`
	Error      string   `json:"error,omitempty"`
}

// HopCode is the status of one redirect hop. It marshals as a plain
// integer, except for the failure marker which renders as the string
// "Error" (the first element of a degraded chain).
type HopCode struct {
	Code   int
	Failed bool
}

func (c HopCode) MarshalJSON() ([]byte, error) {
	if c.Failed {
		return []byte(`"Error"`), nil
	}
	return []byte(strconv.Itoa(c.Code)), nil
}

func (c *HopCode) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		c.Code = n
		c.Failed = false
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	c.Code = 0
	c.Failed = true
	return nil
}

// Hop is one step of a redirect chain. A degraded chain has exactly two
// hops: {original URL, "Error"} followed by {error message, 0}.
type Hop struct {
	Source string  `json:"source"`
	Code   HopCode `json:"code"`
}

// ScanDetails nests the five collector reports inside a scan result.
type ScanDetails struct {
	SSL       CertificateReport `json:"ssl"`
	Domain    DomainReport      `json:"domain"`
	Content   ContentReport     `json:"content"`
	Redirects []Hop             `json:"redirects"`
	Server    ServerReport      `json:"server"`
}

// FeatureSummary is the human-readable features block of the API payload.
// Informational only; the classifier consumes the numeric vector from the
// features package instead.
type FeatureSummary struct {
	Length          int  `json:"length"`
	SuspiciousChars int  `json:"suspicious_chars"`
	Subdomains      int  `json:"subdomains"`
	HTTPS           bool `json:"https"`
}

// ScanResult is the complete outcome of one URL scan. It is fully derived
// from the collector reports plus the classifier output and is never
// mutated after construction.
type ScanResult struct {
	URL        string         `json:"url"`
	Result     string         `json:"result"`
	Confidence float64        `json:"confidence"`
	RiskScore  int            `json:"riskScore"`
	ThreatType string         `json:"threatType"`
	Details    ScanDetails    `json:"details"`
	Features   FeatureSummary `json:"features"`
	Duration   string         `json:"duration,omitempty"`
	Error      string         `json:"error,omitempty"`
}
