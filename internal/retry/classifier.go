package retry

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQLClassifier implements Classifier for PostgreSQL and
// network-level errors.
//
// SQLSTATE classes treated as transient:
//   - 08 connection exception
//   - 53 insufficient resources (includes 53100 disk full: retrying a
//     bulk copy against a full disk is pointless, but the class also
//     covers too-many-connections which does recover)
//   - 57 operator intervention (admin shutdown, cannot connect now)
//   - 40001 serialization failure, 40P01 deadlock
//   - 55P03 lock not available
//
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
type PostgreSQLClassifier struct{}

// NewPostgreSQLClassifier creates a new PostgreSQL error classifier.
func NewPostgreSQLClassifier() *PostgreSQLClassifier {
	return &PostgreSQLClassifier{}
}

// IsTransient determines if an error is temporary and retryable.
func (c *PostgreSQLClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isTransientCode(pgErr.Code)
	}

	if isNetworkError(err) {
		return true
	}

	return matchesTransientMessage(err)
}

func isTransientCode(code string) bool {
	if strings.HasPrefix(code, "08") ||
		strings.HasPrefix(code, "53") ||
		strings.HasPrefix(code, "57") {
		return true
	}

	switch code {
	case "40001", // serialization_failure
		"40P01", // deadlock_detected
		"55P03": // lock_not_available
		return true
	}
	return false
}

func isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() || dnsErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Temporary() || opErr.Timeout() {
			return true
		}
		if opErr.Err != nil {
			for _, errno := range []syscall.Errno{
				syscall.ECONNREFUSED,
				syscall.ECONNRESET,
				syscall.ENETUNREACH,
				syscall.EHOSTUNREACH,
			} {
				if errors.Is(opErr.Err, errno) {
					return true
				}
			}
		}
	}

	return false
}

// matchesTransientMessage catches connection failures that surface as
// plain strings from intermediate layers (pools, proxies).
func matchesTransientMessage(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection refused",
		"connection reset",
		"connection timeout",
		"no such host",
		"network is unreachable",
		"i/o timeout",
		"broken pipe",
		"too many connections",
		"server closed the connection",
		"unexpected eof",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
