package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURL_StripsTrackingParams(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "utm params removed",
			in:   "https://x.ca/story?utm_source=y",
			want: "https://x.ca/story",
		},
		{
			name: "mixed tracking and real params",
			in:   "https://example.com/a?utm_campaign=z&id=42&fbclid=abc",
			want: "https://example.com/a?id=42",
		},
		{
			name: "gclid and ref removed",
			in:   "https://example.com/a?gclid=1&ref=home&page=2",
			want: "https://example.com/a?page=2",
		},
		{
			name: "mailchimp params removed",
			in:   "https://example.com/a?mc_cid=x&mc_eid=y",
			want: "https://example.com/a",
		},
		{
			name: "non-tracking params kept",
			in:   "https://example.com/search?q=election",
			want: "https://example.com/search?q=election",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, URL(tt.in))
		})
	}
}

func TestURL_TrailingSlash(t *testing.T) {
	assert.Equal(t, "https://example.com/story", URL("https://example.com/story/"))
	// Root path keeps its slash.
	assert.Equal(t, "https://example.com/", URL("https://example.com/"))
}

func TestURL_Lowercases(t *testing.T) {
	assert.Equal(t, "https://example.com/story", URL("HTTPS://Example.COM/Story"))
}

func TestURL_Idempotent(t *testing.T) {
	inputs := []string{
		"https://X.ca/Story/?utm_source=y&id=1",
		"https://example.com/a/b/c/",
		"not a url at all",
		"https://example.com/?q=%2Fpath",
	}
	for _, in := range inputs {
		once := URL(in)
		assert.Equal(t, once, URL(once), "canonicalizing %q twice diverged", in)
	}
}

func TestURL_UnparseableInput(t *testing.T) {
	assert.Equal(t, "not a url", URL("  Not a URL  "))
	assert.Equal(t, "", URL(""))
}

func TestHash(t *testing.T) {
	h := Hash("https://example.com/story")
	assert.Len(t, h, 64)
	assert.Equal(t, h, Hash("https://example.com/story"))
	assert.NotEqual(t, h, Hash("https://example.com/other"))
}

func TestDomain(t *testing.T) {
	assert.Equal(t, "example.com", Domain("https://example.com/story"))
	assert.Equal(t, "", Domain("not a url"))
}
