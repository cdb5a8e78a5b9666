package lookup

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// FailureKind tags the broad class of a collector failure. Collectors
// return a *Failure instead of swallowing errors; the scan layer converts
// it into the documented degraded report shape at the boundary.
type FailureKind string

const (
	KindTimeout  FailureKind = "timeout"
	KindDNS      FailureKind = "dns"
	KindConnect  FailureKind = "connect"
	KindProtocol FailureKind = "protocol"
	KindParse    FailureKind = "parse"
)

// Failure is a classified collector error.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Kind)
	}
	return f.Err.Error()
}

func (f *Failure) Unwrap() error { return f.Err }

// Classify wraps err with the failure kind that best describes it.
func Classify(err error) *Failure {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Failure{Kind: KindDNS, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Failure{Kind: KindTimeout, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Failure{Kind: KindTimeout, Err: err}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &Failure{Kind: KindConnect, Err: err}
	}

	return &Failure{Kind: KindProtocol, Err: err}
}

func parseFailure(format string, args ...interface{}) *Failure {
	return &Failure{Kind: KindParse, Err: fmt.Errorf(format, args...)}
}
