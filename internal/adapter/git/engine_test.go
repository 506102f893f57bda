package git

import "testing"

func TestParseRemoteSlug(t *testing.T) {
	cases := []struct {
		url   string
		owner string
		repo  string
	}{
		{"git@github.com:octo/widgets.git", "octo", "widgets"},
		{"https://github.com/octo/widgets.git", "octo", "widgets"},
		{"https://github.com/octo/widgets", "octo", "widgets"},
		{"ssh://git@github.com/octo/widgets.git", "octo", "widgets"},
	}

	for _, tc := range cases {
		owner, repo, err := parseRemoteSlug(tc.url)
		if err != nil {
			t.Errorf("parseRemoteSlug(%q) returned error: %v", tc.url, err)
			continue
		}
		if owner != tc.owner || repo != tc.repo {
			t.Errorf("parseRemoteSlug(%q) = %s/%s, want %s/%s", tc.url, owner, repo, tc.owner, tc.repo)
		}
	}
}

func TestParseRemoteSlugRejectsMalformedURLs(t *testing.T) {
	for _, url := range []string{"", "github.com", "https://github.com/", "git@github.com:justowner"} {
		if _, _, err := parseRemoteSlug(url); err == nil {
			t.Errorf("parseRemoteSlug(%q) should have failed", url)
		}
	}
}
