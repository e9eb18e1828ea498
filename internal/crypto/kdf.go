// kdf.go derives symmetric keys from passwords using scrypt.
//
// The cost parameters are configuration (see config.IssuerEnvironment) and are never derived
// from the input. Given the same password, salt and parameters the derived key is identical.

package crypto

import (
	"context"
	"fmt"

	"golang.org/x/crypto/scrypt"
	"golang.org/x/text/unicode/norm"
)

// DerivedKeySize is the length of keys derived from passwords.
const DerivedKeySize = 32

// SaltSize is the length of the random salt generated for each password envelope.
const SaltSize = 32

// ScryptParams are the scrypt cost parameters.
type ScryptParams struct {
	// N is the CPU/memory cost, a power of two greater than 1.
	N int
	// R is the block size.
	R int
	// P is the parallelisation factor.
	P int
}

// DefaultScryptParams are the interactive-login parameters recommended by the scrypt paper.
var DefaultScryptParams = ScryptParams{N: 1 << 14, R: 8, P: 1}

// Validate checks the parameters before any derivation is attempted.
func (p ScryptParams) Validate() error {
	if p.N <= 1 || p.N&(p.N-1) != 0 {
		return NewValidationError(fmt.Sprintf("scrypt N must be a power of two greater than 1, got %d", p.N))
	}
	if p.R < 1 || p.P < 1 {
		return NewValidationError(fmt.Sprintf("scrypt r and p must be positive, got r=%d p=%d", p.R, p.P))
	}
	if uint64(p.R)*uint64(p.P) >= 1<<30 {
		return NewValidationError("scrypt r*p must be less than 2^30")
	}
	return nil
}

// NormalizePassword returns the NFKC normalized UTF-8 bytes of password.
func NormalizePassword(password string) []byte {
	return []byte(norm.NFKC.String(password))
}

// DeriveKey derives a DerivedKeySize byte key from password and salt.
//
// scrypt itself cannot be interrupted; if ctx ends first DeriveKey returns the context error
// and the derivation finishes in the background.
func DeriveKey(ctx context.Context, password string, salt []byte, params ScryptParams) ([]byte, error) {
	if err := params.Validate(); err != nil {
		return nil, WrapKeyDerivationError(err, "invalid key derivation parameters")
	}
	if len(salt) == 0 {
		return nil, WrapKeyDerivationError(NewValidationError("salt is empty"), "invalid key derivation input")
	}
	if err := ctx.Err(); err != nil {
		return nil, WrapKeyDerivationError(err, "key derivation cancelled")
	}

	type derived struct {
		key []byte
		err error
	}
	done := make(chan derived, 1)

	go func() {
		key, err := scrypt.Key(NormalizePassword(password), salt, params.N, params.R, params.P, DerivedKeySize)
		done <- derived{key: key, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, WrapKeyDerivationError(ctx.Err(), "key derivation cancelled")
	case d := <-done:
		if d.err != nil {
			return nil, WrapKeyDerivationError(d.err, "scrypt failed")
		}
		return d.key, nil
	}
}
