package vaults

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"unicode"

	"github.com/goliatone/go-crypta/pkg/interfaces/store"
	"golang.org/x/text/unicode/norm"
)

const fallbackSlug = "vault"

// Slugify transliterates name to lower-kebab ASCII capped at maxLen bytes.
// Whitespace and hyphen runs become one hyphen; other punctuation is dropped.
func Slugify(name string, maxLen int) string {
	var b strings.Builder
	dash := false
	for _, r := range norm.NFKD.String(name) {
		switch {
		case r > unicode.MaxASCII:
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(unicode.ToLower(r))
		case r == '-' || unicode.IsSpace(r):
			dash = true
		}
	}
	slug := strings.Trim(b.String(), "-_")
	if maxLen > 0 && len(slug) > maxLen {
		slug = strings.TrimRight(slug[:maxLen], "-_")
	}
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// UniqueSlug returns a free slug for name. A taken slug gets a -N suffix one
// above the highest numeric suffix already in use.
func (s *Service) UniqueSlug(ctx context.Context, name string) (string, error) {
	maxLen := s.cfg.Slugs.MaxLength
	base := Slugify(name, maxLen)

	existing, err := s.vaults.SlugsWithPrefix(ctx, base)
	if err != nil {
		return "", err
	}
	taken := make(map[string]struct{}, len(existing))
	highest := 0
	for _, slug := range existing {
		taken[slug] = struct{}{}
		if n, ok := numericSuffix(slug, base); ok && n > highest {
			highest = n
		}
	}
	if _, ok := taken[base]; !ok {
		return base, nil
	}

	for n := highest + 1; ; n++ {
		candidate := withSuffix(base, n, maxLen)
		if _, ok := taken[candidate]; ok {
			continue
		}
		_, err := s.vaults.GetBySlug(ctx, candidate)
		if errors.Is(err, store.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		taken[candidate] = struct{}{}
	}
}

func numericSuffix(slug, base string) (int, bool) {
	rest, ok := strings.CutPrefix(slug, base+"-")
	if !ok || rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func withSuffix(base string, n, maxLen int) string {
	suffix := "-" + strconv.Itoa(n)
	if maxLen > 0 && len(base)+len(suffix) > maxLen {
		base = strings.TrimRight(base[:maxLen-len(suffix)], "-")
	}
	return base + suffix
}
