package analysis

import (
	"crypto/rand"
	"regexp"
)

const (
	// IDAlphabet is the set of characters generated ids are drawn from.
	IDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	// IDLength is the length of generated ids.
	IDLength = 8
)

var generatedIDPattern = regexp.MustCompile(`^[0-9A-Za-z]{8}$`)

// IsGeneratedIDShape reports whether id looks like a generated id.
func IsGeneratedIDShape(id string) bool {
	return generatedIDPattern.MatchString(id)
}

// IDGenerator produces fresh translatable ids. Generators do not check for
// collisions with existing ids.
type IDGenerator interface {
	NewID() string
}

// IDGeneratorFunc adapts a function to IDGenerator.
type IDGeneratorFunc func() string

func (f IDGeneratorFunc) NewID() string { return f() }

// RandomIDs draws ids uniformly from IDAlphabet using crypto/rand. It is safe
// for concurrent use.
type RandomIDs struct{}

// largest multiple of len(IDAlphabet) that fits in a byte
const idRejectAbove = 256 - 256%len(IDAlphabet)

func (RandomIDs) NewID() string {
	out := make([]byte, 0, IDLength)
	buf := make([]byte, IDLength*2)
	for len(out) < IDLength {
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		for _, b := range buf {
			if int(b) >= idRejectAbove {
				continue
			}
			out = append(out, IDAlphabet[int(b)%len(IDAlphabet)])
			if len(out) == IDLength {
				break
			}
		}
	}
	return string(out)
}
