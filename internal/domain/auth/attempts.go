package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"melodix-server-go/internal/domain/auth/model"
)

const loginAttemptsPrefix = "login_attempts:"

// recordAttempt runs the whole read-modify-write server side so concurrent
// failures for one identifier cannot under-count or race past the threshold.
// ARGV: 1=success flag, 2=now (unix ms), 3=threshold, 4=lock expiry (unix ms),
// 5=record window (seconds).
var recordAttemptScript = redis.NewScript(`
local key = KEYS[1]
if ARGV[1] == "1" then
  redis.call("DEL", key)
  return 0
end
local count = redis.call("HINCRBY", key, "count", 1)
redis.call("HSET", key, "last_attempt", ARGV[2])
if count >= tonumber(ARGV[3]) then
  redis.call("HSET", key, "locked_until", ARGV[4])
end
redis.call("EXPIRE", key, ARGV[5])
return count
`)

// AttemptGuard tracks consecutive login failures per identifier and imposes
// a timed lockout. Lockout is per identifier (email), not per IP.
type AttemptGuard struct {
	client    *redis.Client
	threshold int
	lockout   time.Duration
	window    time.Duration
	logger    model.Logger
}

// NewAttemptGuard wires the guard onto the shared cache.
func NewAttemptGuard(
	client *redis.Client,
	threshold int,
	lockout time.Duration,
	window time.Duration,
	logger model.Logger,
) *AttemptGuard {
	if threshold <= 0 {
		threshold = 5
	}
	if lockout <= 0 {
		lockout = 15 * time.Minute
	}
	if window <= 0 {
		window = time.Hour
	}
	return &AttemptGuard{
		client:    client,
		threshold: threshold,
		lockout:   lockout,
		window:    window,
		logger:    logger,
	}
}

func attemptsKey(identifier string) string { return loginAttemptsPrefix + identifier }

// RecordAttempt updates the failure counter atomically. Success clears the
// record entirely; every failure re-applies the record window. Returns the
// consecutive-failure count after the update.
func (g *AttemptGuard) RecordAttempt(ctx context.Context, identifier string, success bool) (int, error) {
	successArg := "0"
	if success {
		successArg = "1"
	}
	now := time.Now()

	count, err := recordAttemptScript.Run(ctx, g.client,
		[]string{attemptsKey(identifier)},
		successArg,
		now.UnixMilli(),
		g.threshold,
		now.Add(g.lockout).UnixMilli(),
		int(g.window.Seconds()),
	).Int()
	if err != nil {
		return 0, err
	}

	if !success && count == g.threshold {
		g.logger.Warn("identifier locked after %d failed attempts: %s", count, identifier)
	}
	return count, nil
}

// IsLocked reports whether a lock exists for the identifier and is still in
// the future.
func (g *AttemptGuard) IsLocked(ctx context.Context, identifier string) (bool, error) {
	raw, err := g.client.HGet(ctx, attemptsKey(identifier), "locked_until").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	lockedUntil, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, err
	}
	return time.Now().UnixMilli() < lockedUntil, nil
}
