// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package capture

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"regexp"
	"strings"
)

// ReadURLFile returns the URLs listed in path, one per line. Blank lines and
// lines starting with # are ignored; surrounding whitespace is trimmed.
func ReadURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading URL file: %w", err)
	}
	defer f.Close()
	return ParseURLList(f)
}

// ParseURLList reads a URL list from r.
func ParseURLList(r io.Reader) ([]string, error) {
	var urls []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading URL list: %w", err)
	}
	return urls, nil
}

// NormalizeURL adds https:// to bare hosts and rejects anything that is not
// an http(s) URL with a host.
func NormalizeURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("empty URL")
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid URL %q: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid URL %q: missing host", raw)
	}
	return u.String(), nil
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

const maxSlugLen = 80

// Slug turns a URL into a file-name stem: host and path, lower-cased, with
// runs of other characters collapsed to a single dash.
func Slug(rawURL string) string {
	s := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		s = strings.TrimPrefix(u.Host, "www.") + u.Path
		if u.RawQuery != "" {
			s += "-" + u.RawQuery
		}
	}
	s = slugUnsafe.ReplaceAllString(strings.ToLower(s), "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLen {
		s = strings.TrimRight(s[:maxSlugLen], "-")
	}
	if s == "" {
		return "page"
	}
	return s
}

// slugSet hands out file stems that are unique within one batch.
type slugSet map[string]bool

// claim returns slug, or slug-2, slug-3 and so on when it is taken.
func (s slugSet) claim(slug string) string {
	name := slug
	for i := 2; s[name]; i++ {
		name = fmt.Sprintf("%s-%d", slug, i)
	}
	s[name] = true
	return name
}
