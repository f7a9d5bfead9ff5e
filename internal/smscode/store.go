// Package smscode holds the Redis-backed one-time state of the MFA flow:
// SMS login codes and used challenge-token markers. Delivery itself is an
// external collaborator; this package only decides whether a code may be
// sent and whether a submitted code matches.
package smscode

//go:generate mockgen -destination=../mocks/mock_smscode_store.go -package=mocks github.com/abrahamahn/abe-stack-auth/internal/smscode Store

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"

	autherror "github.com/abrahamahn/abe-stack-auth/internal/errors"
)

type Store interface {
	// IssueCode enforces the hourly and daily per-user send limits and
	// stores a fresh code. It returns the plaintext code for the delivery
	// collaborator, or a RateLimitedError carrying a retry-after hint.
	IssueCode(ctx context.Context, userID string) (string, error)
	// VerifyCode reports whether the submitted code matches the stored one.
	// A match consumes the code; concurrent submissions of the same code
	// resolve to exactly one winner.
	VerifyCode(ctx context.Context, userID, code string) (bool, error)
	// ConsumeChallenge marks a challenge token's JTI used for its remaining
	// lifetime. It returns false when the JTI was already consumed.
	ConsumeChallenge(ctx context.Context, jti string, ttl time.Duration) (bool, error)
}

type Config struct {
	CodeTTL     time.Duration
	HourlyLimit int
	DailyLimit  int
}

type RedisStore struct {
	client *redis.Client
	cfg    Config
}

func NewRedisStore(client *redis.Client, cfg Config) *RedisStore {
	return &RedisStore{client: client, cfg: cfg}
}

func codeKey(userID string) string { return "sms:code:" + userID }

func hourlyKey(userID string) string { return "sms:sent:h:" + userID }
func dailyKey(userID string) string  { return "sms:sent:d:" + userID }

func challengeKey(jti string) string { return "mfa:challenge:used:" + jti }

// consumeCodeScript deletes the stored code only when the submitted hash
// matches, in one atomic step, so two concurrent submissions of the same
// code cannot both pass and a wrong submission never destroys the code.
var consumeCodeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (s *RedisStore) IssueCode(ctx context.Context, userID string) (string, error) {
	if err := s.checkAndCount(ctx, hourlyKey(userID), s.cfg.HourlyLimit, time.Hour); err != nil {
		return "", err
	}
	if err := s.checkAndCount(ctx, dailyKey(userID), s.cfg.DailyLimit, 24*time.Hour); err != nil {
		return "", err
	}

	code, err := generateCode()
	if err != nil {
		return "", err
	}

	if err := s.client.Set(ctx, codeKey(userID), hashCode(code), s.cfg.CodeTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store sms code: %w", err)
	}

	return code, nil
}

func (s *RedisStore) VerifyCode(ctx context.Context, userID, code string) (bool, error) {
	res, err := consumeCodeScript.Run(ctx, s.client, []string{codeKey(userID)}, hashCode(code)).Int()
	if err != nil {
		return false, fmt.Errorf("failed to verify sms code: %w", err)
	}
	return res == 1, nil
}

func (s *RedisStore) ConsumeChallenge(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = time.Minute
	}
	ok, err := s.client.SetNX(ctx, challengeKey(jti), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to consume challenge: %w", err)
	}
	return ok, nil
}

// checkAndCount increments the window counter and maps an exceeded limit
// to a RateLimitedError with the key's remaining TTL as the retry hint.
func (s *RedisStore) checkAndCount(ctx context.Context, key string, limit int, window time.Duration) error {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to count sms sends: %w", err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return fmt.Errorf("failed to set sms counter expiry: %w", err)
		}
	}
	if int(count) > limit {
		retryAfter, err := s.client.TTL(ctx, key).Result()
		if err != nil || retryAfter < 0 {
			retryAfter = window
		}
		return autherror.NewRateLimited(retryAfter)
	}
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
