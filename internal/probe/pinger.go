package probe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-ping/ping"
)

const DefaultPingTimeout = time.Second

var errNoReply = errors.New("no echo reply")

// Pinger measures round-trip latency to a host in milliseconds.
type Pinger interface {
	Ping(ctx context.Context, host string) (int, error)
}

// Latency is the advisory wrapper used by the monitor: any failure, including
// a nil pinger or an empty host, yields nil.
func Latency(ctx context.Context, p Pinger, host string) *int {
	if p == nil || host == "" {
		return nil
	}
	ms, err := p.Ping(ctx, host)
	if err != nil {
		return nil
	}
	return &ms
}

// ICMPPinger sends a single echo request with go-ping. Unprivileged (UDP)
// mode is used unless Privileged is set.
type ICMPPinger struct {
	Timeout    time.Duration
	Privileged bool
}

func (p *ICMPPinger) Ping(ctx context.Context, host string) (int, error) {
	pinger, err := ping.NewPinger(host)
	if err != nil {
		return 0, err
	}
	pinger.Count = 1
	pinger.Timeout = orDefault(p.Timeout)
	pinger.SetPrivileged(p.Privileged)

	done := make(chan error, 1)
	go func() { done <- pinger.Run() }()

	select {
	case <-ctx.Done():
		pinger.Stop()
		return 0, ctx.Err()
	case err := <-done:
		if err != nil {
			return 0, err
		}
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return 0, errNoReply
	}
	return int(stats.AvgRtt.Milliseconds()), nil
}

// CommandPinger shells out to the OS ping tool. Flag syntax follows GOOS.
type CommandPinger struct {
	Timeout time.Duration
	GOOS    string

	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func NewCommandPinger(timeout time.Duration) *CommandPinger {
	return &CommandPinger{Timeout: orDefault(timeout), GOOS: runtime.GOOS}
}

func (p *CommandPinger) Ping(ctx context.Context, host string) (int, error) {
	timeout := orDefault(p.Timeout)
	// the process itself needs headroom beyond the echo timeout
	cctx, cancel := context.WithTimeout(ctx, timeout+time.Second)
	defer cancel()

	run := p.run
	if run == nil {
		run = runCommand
	}
	out, err := run(cctx, "ping", p.Args(host)...)
	if err != nil {
		return 0, err
	}
	ms, ok := ParseRTT(string(out))
	if !ok {
		return 0, fmt.Errorf("no round-trip time in ping output")
	}
	return ms, nil
}

// Args builds the single-echo argument list for the target platform.
func (p *CommandPinger) Args(host string) []string {
	timeout := orDefault(p.Timeout)
	goos := p.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	if goos == "windows" {
		return []string{"-n", "1", "-w", strconv.FormatInt(timeout.Milliseconds(), 10), host}
	}
	secs := int(math.Ceil(timeout.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return []string{"-c", "1", "-W", strconv.Itoa(secs), host}
}

var rttPattern = regexp.MustCompile(`(?i)(?:time|tempo)\s*[=<]\s*([0-9]+(?:[.,][0-9]+)?)\s*ms`)

// ParseRTT extracts the round-trip time marker from ping output. Both the
// POSIX ("time=12.3 ms") and localized Windows ("tempo=12ms") forms match.
func ParseRTT(out string) (int, bool) {
	m := rttPattern.FindStringSubmatch(out)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return int(v), true
}

// FallbackPinger returns the first successful measurement. Typical use is
// ICMP first, then the OS tool when raw sockets are not permitted.
type FallbackPinger []Pinger

func (f FallbackPinger) Ping(ctx context.Context, host string) (int, error) {
	err := errNoReply
	for _, p := range f {
		if p == nil {
			continue
		}
		var ms int
		if ms, err = p.Ping(ctx, host); err == nil {
			return ms, nil
		}
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
	}
	return 0, err
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

func orDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultPingTimeout
	}
	return d
}
