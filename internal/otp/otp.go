package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/imagebox/imagebox/internal/domain"
)

// Generator produces a fixed-length numeric code. It is a function type so
// tests can inject a deterministic one.
type Generator func() string

var codeSpace = func() *big.Int {
	n := big.NewInt(1)
	for i := 0; i < domain.OtpLength; i++ {
		n.Mul(n, big.NewInt(10))
	}
	return n
}()

// NewCode returns a random 6-digit code, zero-padded.
func NewCode() string {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		// crypto/rand should never fail; fall back to a clock-derived code
		return fmt.Sprintf("%06d", time.Now().UnixNano()%900000+100000)
	}
	return fmt.Sprintf("%0*d", domain.OtpLength, n)
}
