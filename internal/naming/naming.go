// Package naming produces safe, collision-free display filenames for the
// catalog. Sanitize strips anything path-like from a client-supplied name;
// Resolve appends an incrementing version suffix until the name is free.
package naming

import (
	"context"
	"fmt"
	"strings"
)

// ExistsFunc reports whether a display filename is already taken.
type ExistsFunc func(ctx context.Context, name string) (bool, error)

// Resolve returns desired unchanged when no catalog entry uses it, otherwise
// the first free "{stem}_v{n}{ext}" counting up from n=2. The check and the
// eventual insert are not atomic; concurrent uploads of the same name can
// still both win (matches the storage layer, which has no filename
// constraint).
func Resolve(ctx context.Context, desired string, exists ExistsFunc) (string, error) {
	taken, err := exists(ctx, desired)
	if err != nil {
		return "", fmt.Errorf("check name %q: %w", desired, err)
	}
	if !taken {
		return desired, nil
	}

	stem, ext := splitExt(desired)
	for counter := 2; ; counter++ {
		candidate := fmt.Sprintf("%s_v%d%s", stem, counter, ext)
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check name %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
}

// splitExt splits a filename into stem and extension. A leading dot is part
// of the stem, so dotfiles like ".env" version as ".env_v2" rather than
// growing a fabricated extension.
func splitExt(name string) (stem, ext string) {
	idx := strings.LastIndexByte(name, '.')
	if idx <= 0 {
		return name, ""
	}
	return name[:idx], name[idx:]
}

// Sanitize reduces a client-supplied filename to a safe form: path
// separators and special characters are dropped, whitespace runs become a
// single underscore, and leading/trailing dots and underscores are trimmed.
// Returns "" when nothing safe remains.
func Sanitize(name string) string {
	// keep only the last path element regardless of separator style
	if idx := strings.LastIndexAny(name, `/\`); idx >= 0 {
		name = name[idx+1:]
	}

	var b strings.Builder
	space := false
	for _, r := range name {
		switch {
		case r == ' ' || r == '\t':
			space = true
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.' || r == '-' || r == '_':
			if space && b.Len() > 0 {
				b.WriteByte('_')
			}
			space = false
			b.WriteRune(r)
		}
	}

	out := strings.Trim(b.String(), "._")
	// dotfile names survive trimming via the original leading dot
	if out != "" && strings.HasPrefix(name, ".") && !strings.HasPrefix(out, ".") {
		out = "." + out
	}
	return out
}
