package account

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	DefaultUsernamePrefix  = "line_"
	maxUsernameAttempts    = 1000
	maxUsernameBaseLength  = 50
	randomUsernameHexBytes = 6
)

// UsernameChecker reports whether a username is already taken.
type UsernameChecker interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// RandomSource returns nBytes of randomness, hex encoded.
type RandomSource interface {
	Random(nBytes int) (string, error)
}

// SlugifyDisplayName folds a display name to [a-z0-9_.-]. Accents are
// removed; scripts with no ASCII decomposition vanish entirely.
func SlugifyDisplayName(name string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	lastSep := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
			lastSep = false
		case unicode.IsSpace(r):
			if !lastSep && b.Len() > 0 {
				b.WriteByte('_')
				lastSep = true
			}
		}
	}
	return strings.Trim(b.String(), "_.-")
}

// DeriveUsername picks a free username for a provisioned account. It tries
// prefix+slug, then numeric suffixes, and finally prefix+random hex drawn
// from random.
func DeriveUsername(ctx context.Context, checker UsernameChecker, random RandomSource, prefix, displayName, externalUID string) (string, error) {
	if prefix == "" {
		prefix = DefaultUsernamePrefix
	}

	slug := SlugifyDisplayName(displayName)
	if slug == "" {
		slug = SlugifyDisplayName(externalUID)
	}
	if len(slug) > maxUsernameBaseLength {
		slug = slug[:maxUsernameBaseLength]
	}
	base := prefix + slug

	for i := 0; i < maxUsernameAttempts; i++ {
		candidate := base
		if i > 0 {
			candidate = base + strconv.Itoa(i)
		}
		exists, err := checker.UsernameExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check username: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}

	suffix, err := random.Random(randomUsernameHexBytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate random username: %w", err)
	}
	return prefix + suffix, nil
}
