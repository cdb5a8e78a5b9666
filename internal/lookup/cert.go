package lookup

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"time"

	"phishguard/internal/models"
)

const (
	tlsPort        = "443"
	certDialBudget = 5 * time.Second

	// Date rendering used in the certificate report, e.g. "Mar 14, 2026".
	certDateLayout = "Jan 02, 2006"
)

// InspectCertificate connects to hostname on the TLS port, retrieves the
// peer certificate and reports its validity window. Any failure (DNS,
// refused connection, timeout, handshake error) comes back as a classified
// *Failure; the caller converts it to the degraded report shape.
func InspectCertificate(ctx context.Context, hostname string) (models.CertificateReport, error) {
	return inspectCertificate(ctx, net.JoinHostPort(hostname, tlsPort), hostname)
}

func inspectCertificate(ctx context.Context, addr, serverName string) (models.CertificateReport, error) {
	dialer := tls.Dialer{
		NetDialer: &net.Dialer{Timeout: certDialBudget},
		Config:    &tls.Config{ServerName: serverName},
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return models.CertificateReport{}, Classify(err)
	}
	defer conn.Close()

	state := conn.(*tls.Conn).ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return models.CertificateReport{}, &Failure{Kind: KindProtocol, Err: errors.New("no peer certificate presented")}
	}

	return BuildCertificateReport(state.PeerCertificates[0], time.Now()), nil
}

// BuildCertificateReport derives the report fields from a parsed peer
// certificate. Pure; split out so the date and validity logic is testable
// without a live handshake.
func BuildCertificateReport(cert *x509.Certificate, now time.Time) models.CertificateReport {
	issuer := "Unknown"
	if len(cert.Issuer.Organization) > 0 {
		issuer = cert.Issuer.Organization[0]
	} else if cert.Issuer.CommonName != "" {
		issuer = cert.Issuer.CommonName
	}

	// DaysLeft goes negative once the certificate has expired.
	daysLeft := int(cert.NotAfter.Sub(now).Hours() / 24)
	valid := !now.Before(cert.NotBefore) && !now.After(cert.NotAfter)

	return models.CertificateReport{
		Issuer:   issuer,
		IssuedOn: cert.NotBefore.Format(certDateLayout),
		Expires:  cert.NotAfter.Format(certDateLayout),
		DaysLeft: daysLeft,
		Valid:    valid,
	}
}

// DegradedCertificateReport is the documented failure shape: placeholder
// dates, valid=false, and the error captured for the caller.
func DegradedCertificateReport(err error) models.CertificateReport {
	return models.CertificateReport{
		Issuer:   "Not Found / Error",
		IssuedOn: "N/A",
		Expires:  "N/A",
		DaysLeft: 0,
		Valid:    false,
		Error:    err.Error(),
	}
}
