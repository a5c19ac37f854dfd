package probe

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

// DNSClass values, from most to least healthy.
const (
	DNSResolves      = "RESOLVES"
	DNSNoARecord     = "NO_A_RECORD"
	DNSServfail      = "SERVFAIL_or_TIMEOUT"
	DNSNXDomain      = "NXDOMAIN"
	DNSInvalidDomain = "INVALID_NAME"
)

// DNSDiagnosis explains why a DNS-classified probe failed. It is logged next
// to the transition so the operator can tell a dead domain from a flaky
// resolver.
type DNSDiagnosis struct {
	Domain        string
	IPs           []net.IP
	CNAME         string
	Nameservers   []string
	Class         string
	ResolverError string
}

var dnsTimeout = 3 * time.Second

func DiagnoseDNS(ctx context.Context, domain string) DNSDiagnosis {
	d := DNSDiagnosis{Domain: strings.TrimSpace(domain)}
	if d.Domain == "" || strings.Contains(d.Domain, "://") {
		d.Class = DNSInvalidDomain
		return d
	}

	ctx, cancel := context.WithTimeout(ctx, dnsTimeout)
	defer cancel()
	r := &net.Resolver{}

	ips, err := r.LookupIP(ctx, "ip", d.Domain)
	switch {
	case err == nil && len(ips) > 0:
		d.IPs = ips
		d.Class = DNSResolves
	case err != nil:
		d.ResolverError = err.Error()
		var de *net.DNSError
		if errors.As(err, &de) {
			if de.IsNotFound {
				d.Class = DNSNXDomain
			} else if de.IsTemporary || de.Timeout() {
				d.Class = DNSServfail
			}
		}
	}

	if cname, err := r.LookupCNAME(ctx, d.Domain); err == nil && !strings.EqualFold(cname, d.Domain+".") {
		d.CNAME = strings.TrimSuffix(cname, ".")
	}

	if ns, err := r.LookupNS(ctx, d.Domain); err == nil && len(ns) > 0 {
		for _, n := range ns {
			d.Nameservers = append(d.Nameservers, strings.TrimSuffix(n.Host, "."))
		}
		if d.Class == DNSNXDomain {
			d.Class = DNSNoARecord
		}
	}

	if d.Class == "" {
		switch {
		case len(d.Nameservers) > 0:
			d.Class = DNSNoARecord
		case d.ResolverError != "":
			d.Class = DNSServfail
		default:
			d.Class = DNSNXDomain
		}
	}
	return d
}
