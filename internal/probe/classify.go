package probe

import (
	"context"
	"errors"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/hamed0406/uptimewatch/internal/domain"
)

// Classify maps the error of the final failed attempt onto an offline
// outcome. Typed errors from net are checked first; matching on the error
// text is a last-resort heuristic for transports that hide their cause.
func Classify(err error) (domain.Outcome, string) {
	if err == nil {
		return domain.OutcomeUnknown, ""
	}
	if errors.Is(err, context.Canceled) {
		return domain.OutcomeUnknown, "cancelled"
	}

	detail := err.Error()
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		// url.Error carries the target URL, which must not leak into labels.
		detail = ue.Err.Error()
	}

	if isTimeout(err) {
		return domain.OutcomeOfflineTimeout, detail
	}
	var de *net.DNSError
	if errors.As(err, &de) {
		return domain.OutcomeOfflineDNS, detail
	}

	low := strings.ToLower(detail)
	switch {
	case strings.Contains(low, "timeout"):
		return domain.OutcomeOfflineTimeout, detail
	case strings.Contains(low, "dns"), strings.Contains(low, "no such host"):
		return domain.OutcomeOfflineDNS, detail
	}
	return domain.OutcomeOfflineOther, detail
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
