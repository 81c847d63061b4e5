package transfers

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const codeDigits = 6

var codeBound = new(big.Int).Exp(big.NewInt(10), big.NewInt(codeDigits), nil)

// generateCode draws a zero-padded 6-digit verification code. Codes are not
// required to be unique across transfers, only unguessable.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeBound)
	if err != nil {
		return "", fmt.Errorf("transfers: draw code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}
