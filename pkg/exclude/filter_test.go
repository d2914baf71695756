package exclude_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bak-libra26/note-relay/pkg/exclude"
)

func TestIsExcluded(t *testing.T) {
	patterns := []string{"templates/**", "*.bak"}

	tests := []struct {
		path string
		want bool
	}{
		{"templates/a/b.md", true},
		{"templates/top.md", true},
		{"notes/x.bak", true},
		{"x.bak", true},
		{"notes/x.md", false},
		{"notes/templates/a.md", false},
		{"./templates/a.md", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, exclude.IsExcluded(tt.path, patterns))
		})
	}
}

func TestIsExcluded_Semantics(t *testing.T) {
	assert.False(t, exclude.IsExcluded("anything.md", nil), "empty set never excludes")

	// Exact literal
	assert.True(t, exclude.IsExcluded("daily/2024-01-01.md", []string{"daily/2024-01-01.md"}))
	assert.False(t, exclude.IsExcluded("daily/2024-01-02.md", []string{"daily/2024-01-01.md"}))

	// "*" stays inside one segment when the pattern has a slash
	assert.True(t, exclude.IsExcluded("assets/a.png", []string{"assets/*.png"}))
	assert.False(t, exclude.IsExcluded("assets/deep/a.png", []string{"assets/*.png"}))

	// "**" spans any number of segments
	assert.True(t, exclude.IsExcluded("a/b/c/d.tmp", []string{"**/*.tmp"}))
	assert.True(t, exclude.IsExcluded("d.tmp", []string{"**/*.tmp"}))

	// Windows separators are normalized
	assert.True(t, exclude.IsExcluded(`templates\a.md`, []string{"templates/**"}))
}

func TestParsePatterns(t *testing.T) {
	got := exclude.ParsePatterns(" templates/** , *.bak,, ,assets/*.png ")
	assert.Equal(t, []string{"templates/**", "*.bak", "assets/*.png"}, got)
	assert.Empty(t, exclude.ParsePatterns(""))
}

func TestFilter_DropsInvalidPatterns(t *testing.T) {
	f, err := exclude.New([]string{"templates/**", "[broken", " "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[broken")
	assert.Equal(t, []string{"templates/**"}, f.Patterns())

	assert.True(t, f.Match("templates/x.md"))
	assert.False(t, f.Match("notes/x.md"))

	var nilFilter *exclude.Filter
	assert.False(t, nilFilter.Match("x.md"))
}
