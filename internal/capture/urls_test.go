// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package capture

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURLList(t *testing.T) {
	in := `# landing pages
https://example.com

  example.org/pricing
#https://skipped.example

https://example.net/a?b=c
`
	urls, err := ParseURLList(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://example.com",
		"example.org/pricing",
		"https://example.net/a?b=c",
	}, urls)
}

func TestReadURLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(path, []byte("a.example\n\n# c\nb.example\n"), 0o644))

	urls, err := ReadURLFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.example", "b.example"}, urls)
}

func TestReadURLFile_Missing(t *testing.T) {
	_, err := ReadURLFile(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "example.com", want: "https://example.com"},
		{in: "  example.com/path  ", want: "https://example.com/path"},
		{in: "http://example.com", want: "http://example.com"},
		{in: "https://example.com/a?b=c", want: "https://example.com/a?b=c"},
		{in: "", wantErr: true},
		{in: "ftp://example.com", wantErr: true},
		{in: "https://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeURL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "https://example.com", want: "example-com"},
		{in: "https://www.Example.com/Pricing/", want: "example-com-pricing"},
		{in: "https://example.com/a?b=c", want: "example-com-a-b-c"},
		{in: "https://example.com:8080/x", want: "example-com-8080-x"},
		{in: "???", want: "page"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.in))
		})
	}
}

func TestSlug_Truncates(t *testing.T) {
	s := Slug("https://example.com/" + strings.Repeat("segment/", 30))
	assert.LessOrEqual(t, len(s), maxSlugLen)
	assert.False(t, strings.HasSuffix(s, "-"))
}

func TestSlugSet_Claim(t *testing.T) {
	s := slugSet{}
	assert.Equal(t, "example-com-a-b", s.claim("example-com-a-b"))
	assert.Equal(t, "example-com-a-b-2", s.claim("example-com-a-b"))
	assert.Equal(t, "example-com-a-b-3", s.claim("example-com-a-b"))
	assert.Equal(t, "example-com-a-b-2-2", s.claim("example-com-a-b-2"), "literal suffixed slugs never collide")
	assert.Equal(t, "other", s.claim("other"))
}
