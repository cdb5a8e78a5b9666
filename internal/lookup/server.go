package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"phishguard/internal/models"
)

const geoLookupBudget = 3 * time.Second

// geoBase is the free ip-api.com endpoint (no API key, rate limited).
// Overridable in tests.
var geoBase = "http://ip-api.com/json/"

// hostResolver fails fast instead of waiting on a slow DNS server; a scan
// should never stall behind one unresponsive resolver.
var hostResolver = &net.Resolver{
	PreferGo: true,
	Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
		d := net.Dialer{
			Timeout: 3 * time.Second,
		}
		return d.DialContext(ctx, network, address)
	},
}

// LocateServer resolves the hostname to an address and enriches it with
// best-effort geolocation. Resolution failure degrades the whole report;
// enrichment failure only leaves Location/Provider at "Unknown".
func LocateServer(ctx context.Context, hostname string, pURL *url.URL) (models.ServerReport, error) {
	ips, err := hostResolver.LookupIP(ctx, "ip", hostname)
	if err != nil {
		return models.ServerReport{}, Classify(err)
	}
	if len(ips) == 0 {
		return models.ServerReport{}, &Failure{Kind: KindDNS, Err: fmt.Errorf("no addresses for %s", hostname)}
	}

	ip := firstIPv4(ips)

	report := models.ServerReport{
		IP:       ip,
		Location: "Unknown",
		Provider: "Unknown",
		// No real blacklist source is wired; the status is a static
		// placeholder until one is.
		Blacklist: "Clean",
	}

	if geo, ok := enrichGeo(ctx, ip, pURL); ok {
		report.Location = geo.location()
		report.Provider = geo.provider()
	}

	return report, nil
}

// firstIPv4 mirrors a classic gethostbyname: prefer the first IPv4
// address, fall back to whatever came first.
func firstIPv4(ips []net.IP) string {
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return v4.String()
		}
	}
	return ips[0].String()
}

type geoInfo struct {
	City        string `json:"city"`
	CountryCode string `json:"countryCode"`
	ISP         string `json:"isp"`
}

func (g geoInfo) location() string {
	city := g.City
	if city == "" {
		city = "Unknown"
	}
	cc := g.CountryCode
	if cc == "" {
		cc = "Unknown"
	}
	return city + ", " + cc
}

func (g geoInfo) provider() string {
	if g.ISP == "" {
		return "Unknown"
	}
	return g.ISP
}

// enrichGeo is a best-effort capability with its own short deadline.
// Every failure mode (network error, non-200, timeout, bad JSON) reports
// a degraded outcome instead of an error.
func enrichGeo(ctx context.Context, ip string, pURL *url.URL) (geoInfo, bool) {
	geoCtx, cancel := context.WithTimeout(ctx, geoLookupBudget)
	defer cancel()

	req, err := http.NewRequestWithContext(geoCtx, "GET", geoBase+ip, nil)
	if err != nil {
		return geoInfo{}, false
	}

	resp, err := DoProxiedRequest(req, pURL)
	if err != nil {
		return geoInfo{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return geoInfo{}, false
	}

	var geo geoInfo
	if err := json.NewDecoder(resp.Body).Decode(&geo); err != nil {
		return geoInfo{}, false
	}
	return geo, true
}

// DegradedServerReport is the documented failure shape for an
// unresolvable host.
func DegradedServerReport(err error) models.ServerReport {
	return models.ServerReport{
		IP:        "N/A",
		Location:  "N/A",
		Provider:  "N/A",
		Blacklist: "Unknown",
		Error:     err.Error(),
	}
}
