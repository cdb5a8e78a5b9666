package lookup

import (
	"context"
	"net/http"
	"net/url"

	"phishguard/internal/models"
)

// maxRedirectHops bounds the manual trace; anything past the scorer's
// chain-length rule is recorded but not followed forever.
const maxRedirectHops = 10

// TraceRedirects issues HEAD requests hop by hop and records the chain of
// (location, status) pairs, terminated by the final response. Redirects
// are never followed automatically: each Location header is resolved
// against the current URL and walked explicitly.
func TraceRedirects(ctx context.Context, rawURL string, pURL *url.URL) ([]models.Hop, error) {
	chain := make([]models.Hop, 0, 2)
	current := rawURL

	for hop := 0; hop < maxRedirectHops; hop++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, current, nil)
		if err != nil {
			return nil, Classify(err)
		}
		req.Header.Set("User-Agent", genericUserAgent)

		resp, err := doProxiedNoRedirectRequest(req, pURL)
		if err != nil {
			// A mid-chain failure degrades the whole trace; partial
			// chains would misreport where the URL actually lands.
			return nil, Classify(err)
		}
		resp.Body.Close()

		if resp.StatusCode >= 300 && resp.StatusCode < 400 {
			if loc := resp.Header.Get("Location"); loc != "" {
				next, perr := url.Parse(loc)
				if perr == nil {
					chain = append(chain, models.Hop{
						Source: current,
						Code:   models.HopCode{Code: resp.StatusCode},
					})
					current = resp.Request.URL.ResolveReference(next).String()
					continue
				}
			}
		}

		chain = append(chain, models.Hop{
			Source: current,
			Code:   models.HopCode{Code: resp.StatusCode},
		})
		return chain, nil
	}

	// Hop budget exhausted; report what was observed.
	return chain, nil
}

// DegradedRedirectChain is the documented failure shape: a synthetic
// two-element chain holding the URL with an error marker, then the error
// message with code 0.
func DegradedRedirectChain(rawURL string, err error) []models.Hop {
	return []models.Hop{
		{Source: rawURL, Code: models.HopCode{Failed: true}},
		{Source: err.Error(), Code: models.HopCode{Code: 0}},
	}
}
