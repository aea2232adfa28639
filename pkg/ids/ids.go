// Package ids generates prefixed short string IDs for all persisted rows.
// Format: prefix_nanoid (e.g. "tag_V1StGXR8_Z5jdHi6B-myT").
package ids

import (
	"github.com/pkg/errors"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const length = 21

// New returns a new prefixed ID. It only fails if the system can't provide
// enough entropy for secure random generation.
func New(prefix string) (string, error) {
	id, err := gonanoid.New(length)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return prefix + "_" + id, nil
}

// MustNew is like New but panics on failure. Use during initialization or in
// tests where entropy exhaustion should crash.
func MustNew(prefix string) string {
	id, err := New(prefix)
	if err != nil {
		panic(err)
	}
	return id
}
