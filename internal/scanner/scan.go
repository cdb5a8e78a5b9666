// Package scanner orchestrates the forensic signal collectors and reduces
// their reports to a scored, labelled scan result.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"phishguard/internal/classifier"
	"phishguard/internal/features"
	"phishguard/internal/lookup"
	"phishguard/internal/models"
	"phishguard/internal/proxy"
)

// Per-collector time budgets. Each collector is bounded on its own so one
// unreachable target cannot stall the rest of the scan.
const (
	certBudget     = 5 * time.Second
	domainBudget   = 5 * time.Second
	serverBudget   = 5 * time.Second
	contentBudget  = 5 * time.Second
	redirectBudget = 5 * time.Second
)

// ErrEmptyURL and ErrInvalidURL are the only scan failures visible to
// callers; everything past input validation degrades into the result.
var (
	ErrEmptyURL   = errors.New("no URL provided")
	ErrInvalidURL = errors.New("invalid URL format")
)

// Scanner runs forensic scans. The classifier is an injected dependency;
// construct with classifier.Absent{} to run heuristic-only.
type Scanner struct {
	clf classifier.Classifier
}

func New(clf classifier.Classifier) *Scanner {
	if clf == nil {
		clf = classifier.Absent{}
	}
	return &Scanner{clf: clf}
}

// Target is a normalized scan input: the full URL with an explicit
// scheme, plus the derived hostname and registrable domain.
type Target struct {
	URL      string
	Hostname string
	Domain   string
}

// NormalizeTarget validates the raw URL and prepends https:// when the
// scheme is missing. These are the only client errors a scan can surface.
func NormalizeTarget(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, ErrEmptyURL
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return Target{}, ErrInvalidURL
	}

	host := u.Hostname()
	return Target{
		URL:      raw,
		Hostname: host,
		// Registration lookups use the hostname as-is; RDAP bootstrap
		// resolves subdomained queries to the parent registration.
		Domain: host,
	}, nil
}

// Scan runs all five collectors concurrently, scores the reports and
// composes the final verdict. Collector failures never surface: each one
// degrades to its documented failure-shape report, so a scan that passes
// input validation always completes with a well-formed result.
func (s *Scanner) Scan(ctx context.Context, rawURL string) (models.ScanResult, error) {
	target, err := NormalizeTarget(rawURL)
	if err != nil {
		return models.ScanResult{}, err
	}

	start := time.Now()

	// Pin one proxy for the whole scan so every signal is observed from
	// the same vantage point.
	var pinnedProxy *url.URL
	if proxy.Enabled() {
		pinnedProxy = proxy.Global.Next()
	}

	var (
		mu      sync.Mutex
		details models.ScanDetails
	)

	var wg sync.WaitGroup
	collect := func(budget time.Duration, fn func(ctx context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, budget)
			defer cancel()
			fn(cctx)
		}()
	}

	collect(certBudget, func(cctx context.Context) {
		report, err := lookup.InspectCertificate(cctx, target.Hostname)
		if err != nil {
			report = lookup.DegradedCertificateReport(err)
		}
		mu.Lock()
		details.SSL = report
		mu.Unlock()
	})

	collect(domainBudget, func(cctx context.Context) {
		report, err := lookup.LookupRegistration(cctx, target.Domain, pinnedProxy)
		if err != nil {
			report = lookup.DegradedDomainReport(err)
		}
		mu.Lock()
		details.Domain = report
		mu.Unlock()
	})

	collect(serverBudget, func(cctx context.Context) {
		report, err := lookup.LocateServer(cctx, target.Hostname, pinnedProxy)
		if err != nil {
			report = lookup.DegradedServerReport(err)
		}
		mu.Lock()
		details.Server = report
		mu.Unlock()
	})

	collect(contentBudget, func(cctx context.Context) {
		report, err := lookup.AnalyzeContent(cctx, target.URL, pinnedProxy)
		if err != nil {
			report = lookup.DegradedContentReport(err)
		}
		mu.Lock()
		details.Content = report
		mu.Unlock()
	})

	collect(redirectBudget, func(cctx context.Context) {
		chain, err := lookup.TraceRedirects(cctx, target.URL, pinnedProxy)
		if err != nil {
			chain = lookup.DegradedRedirectChain(target.URL, err)
		}
		mu.Lock()
		details.Redirects = chain
		mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return models.ScanResult{}, fmt.Errorf("scan interrupted: %w", ctx.Err())
	}

	risk := Score(details.SSL, details.Domain, details.Content, details.Redirects)
	prediction := s.clf.Predict(features.Extract(target.URL))
	verdict, confidence, threatType := ComposeVerdict(risk, prediction, details.Content, details.Domain)

	return models.ScanResult{
		URL:        target.URL,
		Result:     verdict,
		Confidence: confidence,
		RiskScore:  risk,
		ThreatType: threatType,
		Details:    details,
		Features:   features.Summarize(target.URL),
		Duration:   time.Since(start).String(),
	}, nil
}
