// Package reference issues booking references: a fixed prefix followed by
// uppercase alphanumerics, checked against the store for collisions.
package reference

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

const charset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ErrExhausted is returned when every attempt collided with an existing reference.
var ErrExhausted = errors.New("no free booking reference")

// ExistsFunc reports whether a reference is already taken.
type ExistsFunc func(ctx context.Context, ref string) (bool, error)

type Generator struct {
	prefix      string
	length      int
	maxAttempts int
	rand        io.Reader
}

func New() *Generator {
	return &Generator{
		prefix:      "EH-",
		length:      9,
		maxAttempts: 5,
		rand:        rand.Reader,
	}
}

// Code returns one candidate reference.
func (g *Generator) Code() (string, error) {
	out := make([]byte, 0, len(g.prefix)+g.length)
	out = append(out, g.prefix...)

	// Bytes at or above the largest multiple of len(charset) are dropped so
	// every symbol is equally likely.
	const limit = 256 - 256%len(charset)

	buf := make([]byte, g.length*2)
	for len(out) < len(g.prefix)+g.length {
		if _, err := io.ReadFull(g.rand, buf); err != nil {
			return "", fmt.Errorf("reference.Generator.Code:%w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, charset[int(b)%len(charset)])
			if len(out) == len(g.prefix)+g.length {
				break
			}
		}
	}

	return string(out), nil
}

// Unique draws references until exists reports a free one.
func (g *Generator) Unique(ctx context.Context, exists ExistsFunc) (string, error) {
	const op = "reference.Generator.Unique"

	for range g.maxAttempts {
		ref, err := g.Code()
		if err != nil {
			return "", fmt.Errorf("%s:%w", op, err)
		}

		taken, err := exists(ctx, ref)
		if err != nil {
			return "", fmt.Errorf("%s:%w", op, err)
		}
		if !taken {
			return ref, nil
		}
	}

	return "", fmt.Errorf("%s:%w", op, ErrExhausted)
}
