package lookup

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
)

func redirectTestServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/hop1", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/hop2", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/hop2", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	return httptest.NewServer(mux)
}

func TestTraceRedirects(t *testing.T) {
	srv := redirectTestServer()
	defer srv.Close()

	chain, err := TraceRedirects(context.Background(), srv.URL+"/hop1", nil)
	if err != nil {
		t.Fatalf("trace failed: %v", err)
	}

	if len(chain) != 3 {
		t.Fatalf("expected 3 hops, got %d", len(chain))
	}
	if chain[0].Code.Code != 301 || chain[1].Code.Code != 302 {
		t.Errorf("unexpected redirect codes: %+v", chain)
	}
	last := chain[len(chain)-1]
	if last.Code.Code != 200 {
		t.Errorf("final hop status = %d, want 200", last.Code.Code)
	}
	if last.Source != srv.URL+"/final" {
		t.Errorf("final hop source = %s, want %s/final", last.Source, srv.URL)
	}
}

func TestTraceRedirectsNoRedirect(t *testing.T) {
	srv := redirectTestServer()
	defer srv.Close()

	chain, err := TraceRedirects(context.Background(), srv.URL+"/final", nil)
	if err != nil {
		t.Fatalf("trace failed: %v", err)
	}
	if len(chain) != 1 || chain[0].Code.Code != 200 {
		t.Errorf("expected single 200 hop, got %+v", chain)
	}
}

func TestTraceRedirectsHopCap(t *testing.T) {
	srv := redirectTestServer()
	defer srv.Close()

	chain, err := TraceRedirects(context.Background(), srv.URL+"/loop", nil)
	if err != nil {
		t.Fatalf("trace failed: %v", err)
	}
	if len(chain) != maxRedirectHops {
		t.Errorf("expected the hop cap to bind at %d, got %d", maxRedirectHops, len(chain))
	}
}

func TestTraceRedirectsUnreachable(t *testing.T) {
	// Reserve a port, then close the listener so the dial is refused.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	target := "http://" + l.Addr().String()
	l.Close()

	_, err = TraceRedirects(context.Background(), target, nil)
	if err == nil {
		t.Fatal("expected an error for an unreachable target")
	}

	var failure *Failure
	if !errors.As(err, &failure) {
		t.Fatalf("expected a classified *Failure, got %T", err)
	}

	chain := DegradedRedirectChain(target, err)
	if len(chain) != 2 {
		t.Fatalf("degraded chain must have 2 elements, got %d", len(chain))
	}
	if chain[0].Source != target || !chain[0].Code.Failed {
		t.Errorf("first element should be {url, Error}, got %+v", chain[0])
	}
	if chain[1].Source != err.Error() || chain[1].Code.Code != 0 || chain[1].Code.Failed {
		t.Errorf("second element should be {errMsg, 0}, got %+v", chain[1])
	}
}
