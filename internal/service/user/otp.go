package user

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// otpStore keeps pending verification codes in a TTL cache, one code per
// user. Issuing a new code replaces any outstanding one.
type otpStore struct {
	codes *gocache.Cache
}

func newOTPStore(ttl time.Duration) *otpStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &otpStore{codes: gocache.New(ttl, 10*time.Minute)}
}

func (o *otpStore) issue(userID string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())
	o.codes.SetDefault(userID, code)
	return code, nil
}

func (o *otpStore) consume(userID, code string) bool {
	stored, ok := o.codes.Get(userID)
	if !ok || stored.(string) != code {
		return false
	}
	o.codes.Delete(userID)
	return true
}
