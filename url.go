package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
)

var readmeBranches = []string{"main", "master"}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// readmeURL resolves GitHub and GitLab repo shorthands, with or without
// the protocol, to the raw URL of the repo's readme. A nil, nil return
// means the argument doesn't look like a repo at all.
func readmeURL(arg string) (*source, error) {
	s := arg
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return nil, nil //nolint:nilnil
	}

	switch strings.ToLower(u.Host) {
	case "github.com":
		return findRawREADME(u, "https://raw.githubusercontent.com/%s/%s/%s/README.md")
	case "gitlab.com":
		return findRawREADME(u, "https://gitlab.com/%s/%s/-/raw/%s/README.md")
	}
	return nil, nil //nolint:nilnil
}

func findRawREADME(u *url.URL, format string) (*source, error) {
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 {
		// Not the owner/repo form; leave it to the plain URL handling.
		return nil, nil //nolint:nilnil
	}
	owner, repo := parts[0], parts[1]

	for _, branch := range readmeBranches {
		rawURL := fmt.Sprintf(format, owner, repo, branch)
		resp, err := http.Get(rawURL) //nolint:noctx,bodyclose
		if err != nil {
			return nil, fmt.Errorf("unable to get url: %w", err)
		}
		if resp.StatusCode == http.StatusOK {
			// consumer of the source is responsible for closing the ReadCloser.
			return &source{resp.Body, rawURL}, nil
		}
		_ = resp.Body.Close()
	}
	return nil, errors.New("no readme found")
}

// fetchURL retrieves an HTTP(S) URL. A nil, nil return means the argument
// isn't a URL at all.
func fetchURL(arg string) (*source, error) {
	u, err := url.ParseRequestURI(arg)
	if err != nil || !strings.Contains(arg, "://") {
		return nil, nil //nolint:nilnil
	}
	if u.Scheme == "" {
		return nil, nil //nolint:nilnil
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%s is not a supported protocol", u.Scheme)
	}

	// consumer of the source is responsible for closing the ReadCloser.
	resp, err := http.Get(u.String()) //nolint:noctx,bodyclose
	if err != nil {
		return nil, fmt.Errorf("unable to get url: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP status %d", resp.StatusCode)
	}
	return &source{resp.Body, u.String()}, nil
}

// sourceBaseURL derives the base for resolving a document's relative
// links, or "" when the source has no usable URL.
func sourceBaseURL(sourceURL string) string {
	u, err := url.ParseRequestURI(sourceURL)
	if err != nil {
		return ""
	}
	u.Path = filepath.Dir(u.Path)
	return u.String() + "/"
}
