package lookup

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFirstIPv4(t *testing.T) {
	tests := []struct {
		name string
		ips  []net.IP
		want string
	}{
		{
			name: "IPv4 Preferred Over IPv6",
			ips:  []net.IP{net.ParseIP("2001:db8::1"), net.ParseIP("93.184.216.34")},
			want: "93.184.216.34",
		},
		{
			name: "IPv6 Only",
			ips:  []net.IP{net.ParseIP("2001:db8::1")},
			want: "2001:db8::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := firstIPv4(tt.ips); got != tt.want {
				t.Errorf("firstIPv4 = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEnrichGeo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"city": "Amsterdam", "countryCode": "NL", "isp": "Example Hosting BV"}`))
	}))
	defer srv.Close()

	oldBase := geoBase
	geoBase = srv.URL + "/"
	defer func() { geoBase = oldBase }()

	geo, ok := enrichGeo(context.Background(), "93.184.216.34", nil)
	if !ok {
		t.Fatal("expected enrichment to succeed")
	}
	if geo.location() != "Amsterdam, NL" {
		t.Errorf("location = %s, want Amsterdam, NL", geo.location())
	}
	if geo.provider() != "Example Hosting BV" {
		t.Errorf("provider = %s, want Example Hosting BV", geo.provider())
	}
}

func TestEnrichGeoFailureIsSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	oldBase := geoBase
	geoBase = srv.URL + "/"
	defer func() { geoBase = oldBase }()

	if _, ok := enrichGeo(context.Background(), "93.184.216.34", nil); ok {
		t.Error("expected enrichment to report failure on a non-200 response")
	}
}

func TestLocateServerUnresolvable(t *testing.T) {
	// .invalid is reserved (RFC 2606) and never resolves.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := LocateServer(ctx, "host.invalid", nil)
	if err == nil {
		t.Fatal("expected an error for an unresolvable host")
	}

	var failure *Failure
	if !errors.As(err, &failure) {
		t.Fatalf("expected a classified *Failure, got %T", err)
	}

	report := DegradedServerReport(err)
	if report.IP != "N/A" || report.Location != "N/A" || report.Provider != "N/A" {
		t.Errorf("degraded report = %+v, want N/A placeholders", report)
	}
	if report.Blacklist != "Unknown" {
		t.Errorf("blacklist = %s, want Unknown", report.Blacklist)
	}
}
