package recoltes

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// ErrCodeSpaceExhausted signals that no unique code was found even in the
// extended space. At expected volumes this indicates a broken uniqueness
// check, not genuine exhaustion.
var ErrCodeSpaceExhausted = errors.New("unable to generate a unique recolte code")

const codeAttempts = 8

// GenerateUniqueCode draws bounded random zero-padded codes, preferring the
// familiar 6-digit form and widening to 10 digits if the short space keeps
// colliding.
func GenerateUniqueCode(ctx context.Context, exists func(context.Context, string) (bool, error)) (string, error) {
	if code, err := draw(ctx, 6, exists); err == nil {
		return code, nil
	} else if !errors.Is(err, ErrCodeSpaceExhausted) {
		return "", err
	}
	return draw(ctx, 10, exists)
}

func draw(ctx context.Context, digits int, exists func(context.Context, string) (bool, error)) (string, error) {
	bound := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	for attempt := 0; attempt < codeAttempts; attempt++ {
		n, err := rand.Int(rand.Reader, bound)
		if err != nil {
			return "", fmt.Errorf("recoltes: draw code: %w", err)
		}
		code := fmt.Sprintf("%0*d", digits, n)
		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}
