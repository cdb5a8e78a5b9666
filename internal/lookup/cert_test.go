package lookup

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"math/big"
	"net"
	"testing"
	"time"
)

func makeCert(t *testing.T, issuerOrg, issuerCN string, notBefore, notAfter time.Time) *x509.Certificate {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}

	issuer := pkix.Name{CommonName: issuerCN}
	if issuerOrg != "" {
		issuer.Organization = []string{issuerOrg}
	}

	// Self-signed: the subject doubles as the issuer on the parsed cert.
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      issuer,
		NotBefore:    notBefore,
		NotAfter:     notAfter,
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("creating certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parsing certificate: %v", err)
	}
	return cert
}

func TestBuildCertificateReport(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Valid Certificate", func(t *testing.T) {
		cert := makeCert(t, "Example CA Org", "Example CA",
			now.AddDate(0, -2, 0), now.AddDate(0, 2, 0))

		report := BuildCertificateReport(cert, now)
		if !report.Valid {
			t.Error("expected valid=true inside the validity window")
		}
		if report.Issuer != "Example CA Org" {
			t.Errorf("issuer = %s, want organization name", report.Issuer)
		}
		if report.DaysLeft <= 0 {
			t.Errorf("daysLeft = %d, want positive", report.DaysLeft)
		}
		if report.IssuedOn != "Jan 01, 2026" {
			t.Errorf("issuedOn = %s, want Jan 01, 2026", report.IssuedOn)
		}
	})

	t.Run("Expired Certificate", func(t *testing.T) {
		cert := makeCert(t, "", "Lone CN Issuer",
			now.AddDate(-1, 0, 0), now.AddDate(0, 0, -10))

		report := BuildCertificateReport(cert, now)
		if report.Valid {
			t.Error("expected valid=false after expiry")
		}
		if report.DaysLeft >= 0 {
			t.Errorf("daysLeft = %d, want negative for an expired cert", report.DaysLeft)
		}
		if report.Issuer != "Lone CN Issuer" {
			t.Errorf("issuer = %s, want common-name fallback", report.Issuer)
		}
	})

	t.Run("Not Yet Valid", func(t *testing.T) {
		cert := makeCert(t, "Future CA", "",
			now.AddDate(0, 0, 5), now.AddDate(1, 0, 0))

		report := BuildCertificateReport(cert, now)
		if report.Valid {
			t.Error("expected valid=false before notBefore")
		}
	})
}

func TestInspectCertificateUnreachable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	l.Close()

	start := time.Now()
	_, err = inspectCertificate(context.Background(), addr, "scan-target.example")
	if err == nil {
		t.Fatal("expected an error for a refused connection")
	}
	if elapsed := time.Since(start); elapsed > certDialBudget {
		t.Errorf("inspection took %s, exceeding the %s budget", elapsed, certDialBudget)
	}

	var failure *Failure
	if !errors.As(err, &failure) {
		t.Fatalf("expected a classified *Failure, got %T", err)
	}

	report := DegradedCertificateReport(err)
	if report.Valid {
		t.Error("degraded report must be invalid")
	}
	if report.IssuedOn != "N/A" || report.Expires != "N/A" {
		t.Errorf("degraded report dates = %s/%s, want N/A placeholders", report.IssuedOn, report.Expires)
	}
	if report.Error == "" {
		t.Error("degraded report must carry the error message")
	}
}
