package transcripts

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanGeneratedTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain title", "Meeting Notes", "Meeting Notes"},
		{"straight quotes stripped", `"Weekly Standup"`, "Weekly Standup"},
		{"curly quotes stripped", "“Grocery List”", "Grocery List"},
		{"apostrophes stripped", "Dad's Birthday Plan", "Dads Birthday Plan"},
		{"whitespace collapsed", "  quarterly   review  ", "quarterly review"},
		{"truncated to four words", "one two three four five six", "one two three four"},
		{"empty input", "", ""},
		{"only quotes", `"'"`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanGeneratedTitle(tt.input))
		})
	}
}

func TestCleanGeneratedTitleProperties(t *testing.T) {
	inputs := []string{
		"A very long rambling title that goes on forever and ever",
		`'quoted' "and" ` + "`more`",
		"\ttabs\nand newlines here too",
	}
	for _, in := range inputs {
		out := CleanGeneratedTitle(in)
		words := strings.Fields(out)
		assert.LessOrEqual(t, len(words), 4, "input %q", in)
		assert.NotContains(t, out, `"`)
		assert.NotContains(t, out, "'")
		assert.NotContains(t, out, "`")
	}
}

func TestNormalizeTitleForFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"spaces to hyphens", "Meeting Notes", "meeting-notes"},
		{"whitespace runs collapse", "meeting   notes", "meeting-notes"},
		{"diacritics stripped", "Café Rúnion", "cafe-runion"},
		{"punctuation dropped", "Q3: plans & goals!", "q3-plans-goals"},
		{"hyphen runs collapse", "a -- b", "a-b"},
		{"empty input", "", ""},
		{"only symbols", "!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTitleForFilename(tt.input))
		})
	}
}

func TestNormalizeTitleForFilenameProperties(t *testing.T) {
	slugPattern := regexp.MustCompile(`^[a-z0-9-]*$`)
	inputs := []string{
		"Meeting Notes", "ÀÉÎÕÜ wild", "lots\tof\nwhitespace", "--dashes--", "MiXeD CaSe 123",
	}
	for _, in := range inputs {
		out := NormalizeTitleForFilename(in)
		assert.True(t, slugPattern.MatchString(out), "output %q for input %q", out, in)
		assert.NotContains(t, out, "--", "input %q", in)
	}
}

// existsSet fakes head-object checks against a fixed key set.
type existsSet map[string]bool

func (s existsSet) Exists(ctx context.Context, key string) (bool, error) {
	return s[key], nil
}

func TestGenerateFilenameFromTitleNoCollision(t *testing.T) {
	got, err := GenerateFilenameFromTitle(context.Background(), existsSet{}, "Meeting Notes", ".webm", "shared/orig.webm")
	require.NoError(t, err)
	assert.Equal(t, "meeting-notes.webm", got)
}

func TestGenerateFilenameFromTitleOwnKeyIsNotACollision(t *testing.T) {
	set := existsSet{"shared/meeting-notes.webm": true}
	got, err := GenerateFilenameFromTitle(context.Background(), set, "Meeting Notes", ".webm", "shared/meeting-notes.webm")
	require.NoError(t, err)
	assert.Equal(t, "meeting-notes.webm", got)
}

func TestGenerateFilenameFromTitleNumericSuffixes(t *testing.T) {
	for n := 1; n < 20; n++ {
		set := existsSet{"shared/meeting-notes.webm": true}
		for i := 1; i < n; i++ {
			set[fmt.Sprintf("shared/meeting-notes-%d.webm", i)] = true
		}
		got, err := GenerateFilenameFromTitle(context.Background(), set, "Meeting Notes", ".webm", "shared/orig.webm")
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("meeting-notes-%d.webm", n), got, "with %d colliding keys", n)
		assert.False(t, set["shared/"+got], "result must not collide")
	}
}

func TestGenerateFilenameFromTitleTimestampFallback(t *testing.T) {
	set := existsSet{"shared/meeting-notes.webm": true}
	for i := 1; i <= 25; i++ {
		set[fmt.Sprintf("shared/meeting-notes-%d.webm", i)] = true
	}
	got, err := GenerateFilenameFromTitle(context.Background(), set, "Meeting Notes", ".webm", "shared/orig.webm")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "meeting-notes-"), "got %q", got)
	assert.True(t, strings.HasSuffix(got, ".webm"))
	assert.False(t, set["shared/"+got], "timestamp fallback must escape the colliding set")
}

// Two titles that normalize to the same base must not overwrite each other:
// the second rename picks the -1 suffix.
func TestSameBaseTitlesOnDifferentRecordings(t *testing.T) {
	ctx := context.Background()
	set := existsSet{}

	first, err := GenerateFilenameFromTitle(ctx, set, "Meeting Notes", ".webm", "shared/a.webm")
	require.NoError(t, err)
	assert.Equal(t, "meeting-notes.webm", first)
	set["shared/"+first] = true

	second, err := GenerateFilenameFromTitle(ctx, set, "meeting   notes", ".webm", "shared/b.webm")
	require.NoError(t, err)
	assert.Equal(t, "meeting-notes-1.webm", second)
}

func TestBuildCandidateFilename(t *testing.T) {
	assert.Equal(t, "meeting-notes.webm", BuildCandidateFilename("meeting-notes", ".webm"))
	assert.Equal(t, "recording.mp3", BuildCandidateFilename("", ".mp3"))
}

func TestGenerateFilenameFromTitleEmptyTitle(t *testing.T) {
	got, err := GenerateFilenameFromTitle(context.Background(), existsSet{}, "", ".ogg", "shared/x.ogg")
	require.NoError(t, err)
	assert.Equal(t, "recording.ogg", got)
}
