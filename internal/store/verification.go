// internal/store/verification.go
package store

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

const verificationTTL = 10 * time.Minute

// VerificationCodes issues and checks short-lived verification codes
// backed by redis.
type VerificationCodes struct {
	client *redis.Client
	ttl    time.Duration
	gen    func() string
}

// NewVerificationCodes builds the code store with a 10-minute TTL and a
// random 6-digit generator.
func NewVerificationCodes(client *redis.Client) *VerificationCodes {
	return &VerificationCodes{
		client: client,
		ttl:    verificationTTL,
		gen:    randomCode,
	}
}

func randomCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken
		return fmt.Sprintf("%06d", time.Now().UnixNano()%1000000)
	}
	return fmt.Sprintf("%06d", n.Int64())
}

func verificationKey(recipient string) string {
	return "verification:" + recipient
}

// Issue generates a code for the recipient and stores it with the TTL.
func (v *VerificationCodes) Issue(ctx context.Context, recipient string) (string, error) {
	code := v.gen()
	if err := v.client.Set(ctx, verificationKey(recipient), code, v.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store verification code: %w", err)
	}
	return code, nil
}

// Verify checks the submitted code and consumes it on a match.
func (v *VerificationCodes) Verify(ctx context.Context, recipient, code string) (bool, error) {
	key := verificationKey(recipient)
	stored, err := v.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load verification code: %w", err)
	}
	if stored != code {
		return false, nil
	}
	if err := v.client.Del(ctx, key).Err(); err != nil {
		return false, fmt.Errorf("failed to consume verification code: %w", err)
	}
	return true, nil
}
