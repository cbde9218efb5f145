package cart

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ID strategies accepted by NewIDGenerator
const (
	IDStrategyRandom = "random"
	IDStrategySlug   = "slug"
)

// IDPrefix starts every synthesized product ID
const IDPrefix = "prod-"

const (
	base36         = "0123456789abcdefghijklmnopqrstuvwxyz"
	randomIDLength = 9
	slugHashLength = 8
	maxSlugLength  = 40
)

// IDGenerator assigns IDs to product cards that do not carry one
type IDGenerator interface {
	Generate(candidate Item) string
}

// IDGeneratorFunc adapts a function to IDGenerator
type IDGeneratorFunc func(candidate Item) string

// Generate implements IDGenerator
func (f IDGeneratorFunc) Generate(candidate Item) string {
	return f(candidate)
}

// NewIDGenerator returns the generator for a strategy name
func NewIDGenerator(strategy string) (IDGenerator, error) {
	switch strategy {
	case "", IDStrategyRandom:
		return RandomIDGenerator{}, nil
	case IDStrategySlug:
		return SlugIDGenerator{}, nil
	default:
		return nil, fmt.Errorf("unknown id strategy %q", strategy)
	}
}

// RandomIDGenerator returns "prod-" plus nine random base-36 characters.
// Two adds of the same card therefore produce two separate lines.
type RandomIDGenerator struct{}

// Generate implements IDGenerator
func (RandomIDGenerator) Generate(Item) string {
	b := make([]byte, randomIDLength)
	for i := range b {
		b[i] = base36[rand.IntN(len(base36))]
	}
	return IDPrefix + string(b)
}

// SlugIDGenerator derives a stable ID from the displayed card fields, so
// repeated adds of the same card merge into one line.
type SlugIDGenerator struct{}

// Generate implements IDGenerator
func (SlugIDGenerator) Generate(c Item) string {
	h := sha256.Sum256([]byte(c.Category + "\x00" + c.Name + "\x00" + c.UnitPrice.String()))
	digest := hex.EncodeToString(h[:])[:slugHashLength]

	slug := Slugify(c.Category + " " + c.Name)
	if slug == "" {
		return IDPrefix + digest
	}
	return IDPrefix + slug + "-" + digest
}

var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lowercases s, strips accents and joins words with dashes
func Slugify(s string) string {
	folded, _, err := transform.String(foldMarks, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
		default:
			dash = true
		}
		if b.Len() >= maxSlugLength {
			break
		}
	}
	return strings.TrimRight(b.String(), "-")
}
