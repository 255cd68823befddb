// Package guard implements per-address throttling, a temporary block
// list and single-use anti-forgery tokens for the room creation path.
//
// The request validation here is best-effort bot filtering over
// client-controlled headers. It is not a security boundary.
package guard

import (
	"strings"
	"sync"
	"time"

	"github.com/voxroom/voxroom/internal/application/config"
	"github.com/voxroom/voxroom/internal/application/metric"
	"github.com/voxroom/voxroom/internal/domain"
)

// ConsumeResult is the outcome of a token consumption attempt.
type ConsumeResult string

const (
	ResultOK          ConsumeResult = "ok"
	ResultInvalid     ConsumeResult = "invalid"
	ResultExpired     ConsumeResult = "expired"
	ResultTooFast     ConsumeResult = "too_fast"
	ResultForbidden   ConsumeResult = "forbidden"
	ResultRateLimited ConsumeResult = "rate_limited"
)

// RequestMetadata carries the headers the heuristic validation looks at.
type RequestMetadata struct {
	UserAgent    string
	Origin       string
	SecFetchSite string
}

type rateRecord struct {
	count   int
	resetAt time.Time
}

type tokenRecord struct {
	addr     string
	issuedAt time.Time
}

type Guard struct {
	cfg config.GuardConfig

	allowedOrigins map[string]struct{}

	now func() time.Time

	mu      sync.Mutex
	rates   map[string]*rateRecord
	blocked map[string]time.Time
	tokens  map[string]tokenRecord
}

func New(cfg config.GuardConfig, allowedOrigins []string, now func() time.Time) *Guard {
	if now == nil {
		now = time.Now
	}

	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[normalizeOrigin(o)] = struct{}{}
	}

	return &Guard{
		cfg:            cfg,
		allowedOrigins: origins,
		now:            now,
		rates:          make(map[string]*rateRecord),
		blocked:        make(map[string]time.Time),
		tokens:         make(map[string]tokenRecord),
	}
}

// CheckRateLimit reports whether addr may perform a protected request.
// Exceeding the ceiling inside one window promotes the address to the
// block list, after which every check is denied until the block expires,
// independent of window resets.
func (g *Guard) CheckRateLimit(addr string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()

	if g.isBlockedLocked(addr, now) {
		metric.IncrementGuardDenials("blocked")
		return false
	}

	rec, ok := g.rates[addr]
	if !ok || !now.Before(rec.resetAt) {
		g.rates[addr] = &rateRecord{count: 1, resetAt: now.Add(g.cfg.RateWindow)}
		return true
	}

	rec.count++

	if rec.count > g.cfg.RateCeiling {
		g.blocked[addr] = now.Add(g.cfg.BlockDuration)
		metric.IncrementGuardDenials("rate")
		return false
	}

	return true
}

// IsBlocked reports whether addr is currently on the block list.
func (g *Guard) IsBlocked(addr string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.isBlockedLocked(addr, g.now())
}

func (g *Guard) isBlockedLocked(addr string, now time.Time) bool {
	until, ok := g.blocked[addr]
	if !ok {
		return false
	}

	if !now.Before(until) {
		delete(g.blocked, addr)
		return false
	}

	return true
}

// IssueToken stores a fresh single-use token for addr and returns it.
// Tokens expire on their own; SweepExpired discards the leftovers.
func (g *Guard) IssueToken(addr string) string {
	token := domain.NewSecret(18)

	g.mu.Lock()
	defer g.mu.Unlock()

	g.tokens[token] = tokenRecord{addr: addr, issuedAt: g.now()}

	return token
}

// ConsumeToken validates and spends a token. The token is deleted on
// lookup regardless of outcome and only spendable from the address it
// was issued to. Replay-speed consumption and failed request validation
// also put the address on the block list.
func (g *Guard) ConsumeToken(token, addr string, meta RequestMetadata) ConsumeResult {
	g.mu.Lock()

	rec, ok := g.tokens[token]
	if !ok {
		g.mu.Unlock()
		metric.IncrementGuardDenials("invalid_token")
		return ResultInvalid
	}

	delete(g.tokens, token)

	if rec.addr != addr {
		g.mu.Unlock()
		metric.IncrementGuardDenials("address_mismatch")
		return ResultForbidden
	}

	now := g.now()
	age := now.Sub(rec.issuedAt)

	if age > g.cfg.TokenLifetime {
		g.mu.Unlock()
		metric.IncrementGuardDenials("expired_token")
		return ResultExpired
	}

	if age < g.cfg.TokenMinAge {
		g.blocked[addr] = now.Add(g.cfg.BlockDuration)
		g.mu.Unlock()
		metric.IncrementGuardDenials("too_fast")
		return ResultTooFast
	}

	g.mu.Unlock()

	if !g.IsValidRequest(meta) {
		g.mu.Lock()
		g.blocked[addr] = g.now().Add(g.cfg.BlockDuration)
		g.mu.Unlock()
		metric.IncrementGuardDenials("forbidden")
		return ResultForbidden
	}

	if !g.CheckRateLimit(addr) {
		return ResultRateLimited
	}

	return ResultOK
}

// IsValidRequest is the heuristic gate: a recognizable browser agent, an
// allow-listed origin and, when present, same-origin fetch metadata.
func (g *Guard) IsValidRequest(meta RequestMetadata) bool {
	if !strings.Contains(meta.UserAgent, "Mozilla/") {
		return false
	}

	if _, ok := g.allowedOrigins[normalizeOrigin(meta.Origin)]; !ok {
		return false
	}

	switch meta.SecFetchSite {
	case "", "same-origin", "same-site", "none":
		return true
	default:
		return false
	}
}

// SweepExpired drops rate records whose window elapsed, expired tokens
// and expired block entries to bound memory.
func (g *Guard) SweepExpired(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for addr, rec := range g.rates {
		if !now.Before(rec.resetAt) {
			delete(g.rates, addr)
		}
	}

	for token, rec := range g.tokens {
		if now.Sub(rec.issuedAt) > g.cfg.TokenLifetime {
			delete(g.tokens, token)
		}
	}

	for addr, until := range g.blocked {
		if !now.Before(until) {
			delete(g.blocked, addr)
		}
	}
}

func normalizeOrigin(origin string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(origin)), "/")
}
