package transcripts

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/vocalshare/backend/internal/uploads"
	"github.com/vocalshare/backend/pkg/storage"
)

// maxTitleWords bounds a generated title.
const maxTitleWords = 4

// collisionAttempts bounds the numeric-suffix search before falling back to
// a timestamp suffix.
const collisionAttempts = 20

var quoteStripper = strings.NewReplacer(
	`"`, "", "'", "", "`", "",
	"“", "", "”", "", "‘", "", "’", "",
)

// CleanGeneratedTitle strips quote characters, collapses whitespace and keeps
// at most four words of a model-generated title.
func CleanGeneratedTitle(title string) string {
	words := strings.Fields(quoteStripper.Replace(title))
	if len(words) > maxTitleWords {
		words = words[:maxTitleWords]
	}
	return strings.Join(words, " ")
}

var diacriticStripper = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// NormalizeTitleForFilename turns a title into a filesystem-safe slug:
// Unicode-decompose and drop combining marks, keep [a-zA-Z0-9 -], turn
// whitespace runs into single hyphens, collapse hyphen runs, lowercase.
func NormalizeTitleForFilename(title string) string {
	if title == "" {
		return ""
	}
	decomposed, _, err := transform.String(diacriticStripper, title)
	if err != nil {
		decomposed = title
	}

	var b strings.Builder
	for _, r := range decomposed {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	s := strings.Join(strings.Fields(b.String()), "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(strings.ToLower(s), "-")
}

// BuildCandidateFilename joins a slug base with the original extension and
// sanitizes the result; an empty outcome degrades to a timestamped name.
func BuildCandidateFilename(base, extension string) string {
	candidate := "recording" + extension
	if base != "" {
		candidate = base + extension
	}
	sanitized := uploads.SanitizeFilename(candidate)
	if sanitized == "" {
		sanitized = fmt.Sprintf("recording%d%s", time.Now().UnixMilli(), extension)
	}
	return sanitized
}

// KeyChecker tests shared-key existence during collision avoidance.
type KeyChecker interface {
	Exists(ctx context.Context, key string) (bool, error)
}

// GenerateFilenameFromTitle derives a collision-free filename for
// shared/<slug><ext>. Occupied candidates (other than currentKey itself) get
// numeric suffixes -1, -2, …; after collisionAttempts failures a timestamp
// suffix guarantees termination.
func GenerateFilenameFromTitle(ctx context.Context, checker KeyChecker, title, extension, currentKey string) (string, error) {
	base := NormalizeTitleForFilename(title)
	if base == "" {
		base = "recording"
	}
	candidate := BuildCandidateFilename(base, extension)
	for attempt := 0; ; {
		key := storage.SharedKey(candidate)
		if key == currentKey {
			return candidate, nil
		}
		exists, err := checker.Exists(ctx, key)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		attempt++
		if attempt > collisionAttempts {
			return BuildCandidateFilename(fmt.Sprintf("%s-%d", base, time.Now().UnixMilli()), extension), nil
		}
		candidate = BuildCandidateFilename(fmt.Sprintf("%s-%d", base, attempt), extension)
	}
}
