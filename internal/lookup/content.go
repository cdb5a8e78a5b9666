package lookup

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"phishguard/internal/models"
)

// phishingKeywords is the fixed scan list. Order matters: matches are
// reported in list order, truncated to maxReportedKeywords.
var phishingKeywords = []string{
	"login", "verify", "account", "password", "urgent",
	"update", "suspend", "bank", "secure",
}

const (
	maxReportedKeywords = 5

	// suspicionThreshold is the number of distinct keyword hits above
	// which the page is flagged Suspicious.
	suspicionThreshold = 2

	// maxContentBytes caps how much of the page body is parsed.
	maxContentBytes = 512 * 1024
)

// AnalyzeContent fetches the page with a browser-like request and scans
// its visible text for the phishing keyword set. Punycode in the URL is
// flagged independently of the fetch.
func AnalyzeContent(ctx context.Context, rawURL string, pURL *url.URL) (models.ContentReport, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return models.ContentReport{}, Classify(err)
	}
	req.Header.Set("User-Agent", randomBrowserUserAgent())

	resp, err := DoProxiedRequest(req, pURL)
	if err != nil {
		return models.ContentReport{}, Classify(err)
	}
	defer resp.Body.Close()

	text, err := visibleText(io.LimitReader(resp.Body, maxContentBytes))
	if err != nil {
		return models.ContentReport{}, parseFailure("content parse failed: %w", err)
	}

	return BuildContentReport(rawURL, text), nil
}

// BuildContentReport scans already-extracted page text. Pure; split out so
// keyword and punycode logic is testable without a fetch.
func BuildContentReport(rawURL, text string) models.ContentReport {
	lower := strings.ToLower(text)

	var matched []string
	for _, kw := range phishingKeywords {
		if strings.Contains(lower, kw) {
			matched = append(matched, kw)
		}
	}

	// Suspicion is judged on the full match count, before truncation.
	status := models.ContentClean
	if len(matched) > suspicionThreshold {
		status = models.ContentSuspicious
	}
	if len(matched) > maxReportedKeywords {
		matched = matched[:maxReportedKeywords]
	}
	if matched == nil {
		matched = []string{}
	}

	return models.ContentReport{
		Status:     status,
		Keywords:   matched,
		Homoglyphs: punycodeFlag(rawURL),
	}
}

// punycodeFlag detects IDN homoglyph attacks by their ACE prefix.
func punycodeFlag(rawURL string) string {
	if strings.Contains(rawURL, "xn--") {
		return "Punycode Detected"
	}
	return "None"
}

// visibleText walks the HTML tree collecting text nodes, skipping script
// and style subtrees.
func visibleText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "noscript") {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return sb.String(), nil
}

// DegradedContentReport is the documented failure shape: the page could
// not be read, so keyword and punycode signals are unknown.
func DegradedContentReport(err error) models.ContentReport {
	return models.ContentReport{
		Status:     models.ContentDenied,
		Keywords:   []string{},
		Homoglyphs: "Unknown",
		Error:      err.Error(),
	}
}
