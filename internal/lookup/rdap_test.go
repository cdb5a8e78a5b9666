package lookup

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDescribeAge(t *testing.T) {
	now := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		created  time.Time
		wantDays int
		wantStr  string
	}{
		{
			name:     "Registered Today",
			created:  now.Add(-6 * time.Hour),
			wantDays: 0,
			wantStr:  "Today",
		},
		{
			name:     "Days Old",
			created:  now.AddDate(0, 0, -12),
			wantDays: 12,
			wantStr:  "12 days ago",
		},
		{
			name:     "Months Old Falls Back To Days",
			created:  now.AddDate(0, 0, -90),
			wantDays: 90,
			wantStr:  "90 days ago",
		},
		{
			name:     "Years Old",
			created:  now.AddDate(0, 0, -3700),
			wantDays: 3700,
			wantStr:  "10 years ago",
		},
		{
			name:     "Future Date Clamps To Today",
			created:  now.AddDate(0, 0, 3),
			wantDays: 0,
			wantStr:  "Today",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days, str := describeAge(tt.created, now)
			if days != tt.wantDays {
				t.Errorf("ageDays = %d, want %d", days, tt.wantDays)
			}
			if str != tt.wantStr {
				t.Errorf("created = %q, want %q", str, tt.wantStr)
			}
		})
	}
}

func TestLookupRegistration(t *testing.T) {
	created := time.Now().AddDate(-4, 0, 0).UTC()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/example.com" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/rdap+json")
		fmt.Fprintf(w, `{
			"events": [
				{"eventAction": "expiration", "eventDate": "2027-01-01T00:00:00Z"},
				{"eventAction": "registration", "eventDate": %q}
			],
			"entities": [
				{"roles": ["registrant"], "vcardArray": ["vcard", [["fn", {}, "text", "Privacy Service"]]]},
				{"roles": ["registrar"], "vcardArray": ["vcard", [
					["version", {}, "text", "4.0"],
					["fn", {}, "text", "Example Registrar, LLC"]
				]]}
			]
		}`, created.Format(time.RFC3339))
	}))
	defer srv.Close()

	oldBase := rdapBase
	rdapBase = srv.URL + "/"
	defer func() { rdapBase = oldBase }()

	report, err := LookupRegistration(context.Background(), "example.com", nil)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}

	if report.Registrar != "Example Registrar, LLC" {
		t.Errorf("registrar = %q, want the registrar entity's fn", report.Registrar)
	}
	if report.AgeDays < 1459 || report.AgeDays > 1462 {
		t.Errorf("ageDays = %d, want ~1461 (4 years)", report.AgeDays)
	}
	if report.Created != "4 years ago" {
		t.Errorf("created = %q, want \"4 years ago\"", report.Created)
	}
}

func TestLookupRegistrationNoEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"events": [], "entities": []}`)
	}))
	defer srv.Close()

	oldBase := rdapBase
	rdapBase = srv.URL + "/"
	defer func() { rdapBase = oldBase }()

	_, err := LookupRegistration(context.Background(), "example.com", nil)
	if err == nil {
		t.Fatal("expected an error for a record without a registration event")
	}

	report := DegradedDomainReport(err)
	if report.AgeDays != -1 {
		t.Errorf("degraded ageDays = %d, want -1 sentinel", report.AgeDays)
	}
	if report.Registrar != "Hidden / Error" {
		t.Errorf("degraded registrar = %q, want \"Hidden / Error\"", report.Registrar)
	}
	if report.Created != "Unknown" {
		t.Errorf("degraded created = %q, want Unknown", report.Created)
	}
}

func TestLookupRegistrationUnreachable(t *testing.T) {
	// Reserve a port, then close the listener so the dial is refused.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	l.Close()

	oldBase := rdapBase
	rdapBase = "http://" + addr + "/"
	defer func() { rdapBase = oldBase }()

	_, err = LookupRegistration(context.Background(), "example.com", nil)
	if err == nil {
		t.Fatal("expected an error for an unreachable registry")
	}

	var failure *Failure
	if !errors.As(err, &failure) {
		t.Fatalf("expected a classified *Failure, got %T", err)
	}

	report := DegradedDomainReport(err)
	if report.AgeDays != -1 || report.Registrar != "Hidden / Error" {
		t.Errorf("degraded report = %+v, want -1 sentinel and \"Hidden / Error\"", report)
	}
}

func TestLookupRegistrationNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	oldBase := rdapBase
	rdapBase = srv.URL + "/"
	defer func() { rdapBase = oldBase }()

	_, err := LookupRegistration(context.Background(), "no-such-domain.example", nil)
	if err == nil {
		t.Fatal("expected an error for a 404 response")
	}
}
