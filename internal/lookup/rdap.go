package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"phishguard/internal/models"
)

// rdapBase is the RDAP bootstrap endpoint. rdap.org redirects to the
// authoritative server for the queried TLD. Overridable in tests.
var rdapBase = "https://rdap.org/domain/"

type rdapResponse struct {
	Events []struct {
		Action string `json:"eventAction"`
		Date   string `json:"eventDate"`
	} `json:"events"`
	Entities []struct {
		Roles      []string          `json:"roles"`
		VCardArray []json.RawMessage `json:"vcardArray"`
	} `json:"entities"`
}

// LookupRegistration queries the domain's RDAP record and reports the
// registrar, creation date and age in whole days. Multi-valued upstream
// fields collapse to their first entry.
func LookupRegistration(ctx context.Context, domain string, pURL *url.URL) (models.DomainReport, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rdapBase+domain, nil)
	if err != nil {
		return models.DomainReport{}, Classify(err)
	}
	req.Header.Set("Accept", "application/rdap+json")

	resp, err := DoProxiedRequest(req, pURL)
	if err != nil {
		return models.DomainReport{}, Classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return models.DomainReport{}, &Failure{
			Kind: KindProtocol,
			Err:  fmt.Errorf("rdap lookup returned status %d", resp.StatusCode),
		}
	}

	var record rdapResponse
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return models.DomainReport{}, parseFailure("malformed rdap response: %w", err)
	}

	created, ok := registrationDate(record)
	if !ok {
		// A record without a registration event cannot yield an age;
		// treating it as a lookup failure keeps the -1 sentinel honest.
		return models.DomainReport{}, parseFailure("rdap record has no registration event")
	}

	ageDays, createdStr := describeAge(created, time.Now())

	return models.DomainReport{
		Registrar:       registrarName(record),
		Created:         createdStr,
		AgeDays:         ageDays,
		RawCreationDate: created.Format(time.RFC3339),
	}, nil
}

// registrationDate finds the first registration/creation event.
func registrationDate(record rdapResponse) (time.Time, bool) {
	for _, event := range record.Events {
		if event.Action != "registration" && event.Action != "creation" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, event.Date); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// registrarName extracts the display name of the first registrar entity.
// RDAP encodes contact details as jCard: vcardArray[1] is a list of
// property tuples ["fn", {params}, "text", "GoDaddy.com, LLC"].
func registrarName(record rdapResponse) string {
	for _, entity := range record.Entities {
		if !hasRole(entity.Roles, "registrar") {
			continue
		}
		if len(entity.VCardArray) < 2 {
			continue
		}
		var props [][]interface{}
		if err := json.Unmarshal(entity.VCardArray[1], &props); err != nil {
			continue
		}
		for _, prop := range props {
			if len(prop) < 4 {
				continue
			}
			if name, ok := prop[0].(string); !ok || name != "fn" {
				continue
			}
			if value, ok := prop[3].(string); ok && value != "" {
				return value
			}
		}
	}
	return "Unknown"
}

func hasRole(roles []string, want string) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}

// describeAge renders the creation date the way the dashboard expects:
// "Today" inside the first day, "N days ago" inside the first month,
// then "Y years ago" (integer years, falling back to days when the
// domain is older than a month but younger than a year).
func describeAge(created, now time.Time) (int, string) {
	ageDays := int(now.Sub(created).Hours() / 24)
	// A future-dated event (clock skew, bad registry data) counts as
	// registered today; negative values are reserved for the failed-lookup
	// sentinel and would otherwise hide a brand-new domain.
	if ageDays < 0 {
		ageDays = 0
	}
	switch {
	case ageDays < 1:
		return ageDays, "Today"
	case ageDays < 30:
		return ageDays, fmt.Sprintf("%d days ago", ageDays)
	default:
		years := ageDays / 365
		if years > 0 {
			return ageDays, fmt.Sprintf("%d years ago", years)
		}
		return ageDays, fmt.Sprintf("%d days ago", ageDays)
	}
}

// DegradedDomainReport is the documented failure shape. AgeDays carries
// the -1 sentinel, which must never be read as "registered recently".
func DegradedDomainReport(err error) models.DomainReport {
	return models.DomainReport{
		Registrar: "Hidden / Error",
		Created:   "Unknown",
		AgeDays:   -1,
		Error:     err.Error(),
	}
}
