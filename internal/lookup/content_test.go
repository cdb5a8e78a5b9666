package lookup

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"phishguard/internal/models"
)

func TestBuildContentReport(t *testing.T) {
	tests := []struct {
		name         string
		url          string
		text         string
		wantStatus   string
		wantKeywords []string
		wantFlag     string
	}{
		{
			name:         "Clean Page",
			url:          "https://example.com",
			text:         "Welcome to our corporate homepage.",
			wantStatus:   models.ContentClean,
			wantKeywords: []string{},
			wantFlag:     "None",
		},
		{
			name:         "Two Keywords Still Clean",
			url:          "https://example.com",
			text:         "Please login to your account.",
			wantStatus:   models.ContentClean,
			wantKeywords: []string{"login", "account"},
			wantFlag:     "None",
		},
		{
			name:         "Three Keywords Is Suspicious",
			url:          "https://example.com",
			text:         "URGENT: verify your password now",
			wantStatus:   models.ContentSuspicious,
			wantKeywords: []string{"verify", "password", "urgent"},
			wantFlag:     "None",
		},
		{
			name:       "Keyword List Caps At Five",
			url:        "https://example.com",
			text:       "login verify account password urgent update suspend bank secure",
			wantStatus: models.ContentSuspicious,
			// List order, not text order, first five only.
			wantKeywords: []string{"login", "verify", "account", "password", "urgent"},
			wantFlag:     "None",
		},
		{
			name:         "Punycode In URL",
			url:          "https://xn--pple-43d.com",
			text:         "hello",
			wantStatus:   models.ContentClean,
			wantKeywords: []string{},
			wantFlag:     "Punycode Detected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := BuildContentReport(tt.url, tt.text)
			if report.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", report.Status, tt.wantStatus)
			}
			if !reflect.DeepEqual(report.Keywords, tt.wantKeywords) {
				t.Errorf("keywords = %v, want %v", report.Keywords, tt.wantKeywords)
			}
			if report.Homoglyphs != tt.wantFlag {
				t.Errorf("homoglyphs = %s, want %s", report.Homoglyphs, tt.wantFlag)
			}
		})
	}
}

func TestAnalyzeContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head>
			<script>var bank = "verify update suspend";</script>
			<style>.urgent { color: red }</style>
		</head><body>
			<h1>Sign in</h1>
			<p>Login to your Account and confirm your Password.</p>
		</body></html>`))
	}))
	defer srv.Close()

	report, err := AnalyzeContent(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	// Script/style text must not count: only login, account, password.
	want := []string{"login", "account", "password"}
	if !reflect.DeepEqual(report.Keywords, want) {
		t.Errorf("keywords = %v, want %v", report.Keywords, want)
	}
	if report.Status != models.ContentSuspicious {
		t.Errorf("status = %s, want %s", report.Status, models.ContentSuspicious)
	}
}

func TestAnalyzeContentUnreachable(t *testing.T) {
	// Reserve a port, then close the listener so the dial is refused.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	target := "http://" + l.Addr().String()
	l.Close()

	_, err = AnalyzeContent(context.Background(), target, nil)
	if err == nil {
		t.Fatal("expected an error for an unreachable target")
	}

	var failure *Failure
	if !errors.As(err, &failure) {
		t.Fatalf("expected a classified *Failure, got %T", err)
	}

	report := DegradedContentReport(err)
	if report.Status != models.ContentDenied {
		t.Errorf("status = %s, want %s", report.Status, models.ContentDenied)
	}
	if len(report.Keywords) != 0 {
		t.Errorf("keywords should be empty, got %v", report.Keywords)
	}
	if report.Homoglyphs != "Unknown" {
		t.Errorf("homoglyphs = %s, want Unknown", report.Homoglyphs)
	}
}
