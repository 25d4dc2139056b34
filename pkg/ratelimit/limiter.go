// Package ratelimit implements a Redis backed token bucket shared by every
// API replica.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/cesarmartin1/crm-david/pkg/config"
	"github.com/redis/go-redis/v9"
)

// IdentityType tells authenticated callers apart from anonymous ones
type IdentityType int

const (
	IdentityAnonymous IdentityType = iota
	IdentityAuthenticated
)

// Rule is the bucket applied to one endpoint and identity. Limit tokens
// refill over Window and Burst extra tokens may be spent at once.
type Rule struct {
	Limit  int
	Burst  int
	Window time.Duration
}

// Result is the outcome of one Allow call
type Result struct {
	Allowed      bool
	Remaining    int
	RetryAfter   time.Duration
	Limit        int
	Window       time.Duration
	ResetAfter   time.Duration
	IdentityKey  string
	EndpointKey  string
	IdentityType IdentityType
}

// ARGV: capacity, refill rate per second, now in seconds, key ttl in ms.
// Floats are returned as strings since Lua numbers are truncated in replies.
const tokenBucketScript = `
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil or ts == nil then
  tokens = capacity
  ts = now
end

tokens = math.min(capacity, tokens + math.max(0, now - ts) * rate)

local allowed = 0
local retry = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
else
  retry = (1 - tokens) / rate
end

redis.call("HSET", KEYS[1], "tokens", tokens, "ts", now)
redis.call("PEXPIRE", KEYS[1], ttl)

return {allowed, tostring(tokens), tostring(retry)}
`

// Limiter evaluates token buckets in Redis
type Limiter struct {
	client redis.UniversalClient
	cfg    config.RateLimitConfig
	script *redis.Script
	now    func() time.Time
}

// NewLimiter creates a limiter
func NewLimiter(client redis.UniversalClient, cfg config.RateLimitConfig) *Limiter {
	return &Limiter{
		client: client,
		cfg:    cfg,
		script: redis.NewScript(tokenBucketScript),
		now:    time.Now,
	}
}

// WithNow replaces the clock
func (l *Limiter) WithNow(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Enabled reports whether requests are being limited
func (l *Limiter) Enabled() bool {
	return l != nil && l.cfg.Enabled
}

// Load registers the bucket script with Redis ahead of the first request
func (l *Limiter) Load(ctx context.Context) error {
	if err := l.script.Load(ctx, l.client).Err(); err != nil {
		return fmt.Errorf("failed to load rate limit script: %w", err)
	}
	return nil
}

// ScriptHash returns the SHA1 the bucket script is invoked by
func (l *Limiter) ScriptHash() string {
	return l.script.Hash()
}

// RuleFor resolves the rule of an endpoint group for an identity type
func (l *Limiter) RuleFor(endpoint string, identity IdentityType) Rule {
	rule := Rule{Limit: l.cfg.DefaultLimit, Burst: l.cfg.DefaultBurst, Window: l.cfg.Window()}
	if identity == IdentityAnonymous {
		rule.Limit, rule.Burst = l.cfg.AnonymousLimit, l.cfg.AnonymousBurst
	}

	if o, ok := l.cfg.EndpointOverrides[endpoint]; ok {
		limit, burst := o.AuthenticatedLimit, o.AuthenticatedBurst
		if identity == IdentityAnonymous {
			limit, burst = o.AnonymousLimit, o.AnonymousBurst
		}
		if limit > 0 {
			rule.Limit = limit
		}
		if burst >= 0 {
			rule.Burst = burst
		}
		if o.WindowSeconds > 0 {
			rule.Window = time.Duration(o.WindowSeconds) * time.Second
		}
	}

	if rule.Burst < 0 {
		rule.Burst = 0
	}
	return rule
}

// Allow takes one token from the bucket of identity on endpoint. A disabled
// limiter or a rule without a positive limit always allows.
func (l *Limiter) Allow(ctx context.Context, endpoint, identity string, rule Rule, identityType IdentityType) (*Result, error) {
	res := &Result{
		Allowed:      true,
		Remaining:    rule.Limit,
		Limit:        rule.Limit,
		Window:       rule.Window,
		IdentityKey:  identity,
		EndpointKey:  endpoint,
		IdentityType: identityType,
	}
	if !l.cfg.Enabled || rule.Limit <= 0 {
		return res, nil
	}

	window := rule.Window
	if window <= 0 {
		window = l.cfg.Window()
	}
	capacity := rule.Limit + rule.Burst
	rate := float64(rule.Limit) / window.Seconds()
	now := float64(l.now().UnixNano()) / float64(time.Second)

	raw, err := l.script.Run(ctx, l.client, []string{l.key(endpoint, identity)},
		strconv.Itoa(capacity),
		formatFloat(rate),
		formatFloat(now),
		strconv.FormatInt((2 * window).Milliseconds(), 10),
	).Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate rate limit: %w", err)
	}
	if len(raw) != 3 {
		return nil, fmt.Errorf("unexpected rate limit reply of %d values", len(raw))
	}

	tokens := toFloat(raw[1])
	res.Allowed = toInt(raw[0]) == 1
	res.Remaining = int(math.Floor(tokens))
	res.RetryAfter = seconds(toFloat(raw[2]))
	res.ResetAfter = seconds((float64(capacity) - tokens) / rate)
	return res, nil
}

func (l *Limiter) key(endpoint, identity string) string {
	return l.cfg.RedisPrefix + ":" + endpoint + ":" + identity
}

func seconds(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(math.Ceil(s * float64(time.Second)))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 10, 64)
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0
		}
		return i
	}
	return 0
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}
