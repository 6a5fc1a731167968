package secretcode

import (
	"context"
	"crypto/rand"
	"math/big"

	"parkgate/internal/pkg/errs"
)

const (
	CodeLength = 6

	numericCharset      = "0123456789"
	alphanumericCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	attemptsPerCharset = 5
)

// UniquenessChecker reports whether a candidate code already belongs to an
// active reservation.
type UniquenessChecker interface {
	CodeInUse(ctx context.Context, code string) (bool, error)
}

// Generator produces fixed-length verification codes, retrying against
// storage for uniqueness. It starts with a numeric charset and falls back to
// alphanumeric before giving up; exhaustion is a fatal configuration error,
// never an infinite retry.
type Generator struct {
	checker UniquenessChecker
}

func NewGenerator(checker UniquenessChecker) *Generator {
	return &Generator{checker: checker}
}

func (g *Generator) Generate(ctx context.Context) (string, error) {
	for _, charset := range []string{numericCharset, alphanumericCharset} {
		for attempt := 0; attempt < attemptsPerCharset; attempt++ {
			code, err := randomCode(charset, CodeLength)
			if err != nil {
				return "", errs.Wrap(err, "failed to generate secret code")
			}
			inUse, err := g.checker.CodeInUse(ctx, code)
			if err != nil {
				return "", errs.Wrap(err, "failed to check secret code uniqueness")
			}
			if !inUse {
				return code, nil
			}
		}
	}
	return "", errs.ErrCodeSpaceExhausted
}

func randomCode(charset string, length int) (string, error) {
	max := big.NewInt(int64(len(charset)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = charset[n.Int64()]
	}
	return string(buf), nil
}
