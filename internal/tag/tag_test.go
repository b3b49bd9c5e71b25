package tag

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/releasehq/relctl/internal/releaseerr"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		exp  Ref
	}{
		{
			name: "path with slash",
			tag:  "foo/bar-v1.2.3",
			exp:  Ref{ProjectPath: "foo/bar", Version: "v1.2.3"},
		},
		{
			name: "bare name",
			tag:  "name-v0.0.1",
			exp:  Ref{ProjectPath: "name", Version: "v0.0.1"},
		},
		{
			name: "integration path with underscore",
			tag:  "integrations/google_vertex-v1.0.99",
			exp:  Ref{ProjectPath: "integrations/google_vertex", Version: "v1.0.99"},
		},
		{
			name: "path containing earlier dashes",
			tag:  "integrations/amazon-bedrock-v2.10.0",
			exp:  Ref{ProjectPath: "integrations/amazon-bedrock", Version: "v2.10.0"},
		},
		{
			name: "path containing -v in a non-version position",
			tag:  "foo-vendor/bar-v1.2.3",
			exp:  Ref{ProjectPath: "foo-vendor/bar", Version: "v1.2.3"},
		},
		{
			name: "multiple version-like segments split at the rightmost",
			tag:  "tools-v2/cli-v3.0.0",
			exp:  Ref{ProjectPath: "tools-v2/cli", Version: "v3.0.0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.tag)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d := cmp.Diff(tt.exp, got); d != "" {
				t.Error("ref mismatch (-want +got):\n", d)
			}
		})
	}
}

// The resolved path must always be a strict prefix of the tag, with only the
// trailing -v<version> suffix removed.
func TestResolve_StrictPrefix(t *testing.T) {
	tags := []string{
		"foo/bar-v1.2.3",
		"name-v0.0.1",
		"integrations/google_vertex-v1.0.99",
		"a-b-c-d-v10.20.30",
	}

	for _, tg := range tags {
		ref, err := Resolve(tg)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tg, err)
		}
		if !strings.HasPrefix(tg, ref.ProjectPath) {
			t.Errorf("Resolve(%q): path %q is not a prefix of the tag", tg, ref.ProjectPath)
		}
		if ref.Tag() != tg {
			t.Errorf("Resolve(%q): path %q + version %q does not reassemble the tag", tg, ref.ProjectPath, ref.Version)
		}
	}
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		exp  error
	}{
		{
			name: "no version suffix",
			tag:  "integrations/google_vertex",
			exp:  ErrNoVersionSuffix,
		},
		{
			name: "empty tag",
			tag:  "",
			exp:  ErrNoVersionSuffix,
		},
		{
			name: "dash but no version",
			tag:  "foo-bar",
			exp:  ErrNoVersionSuffix,
		},
		{
			name: "nothing before the suffix",
			tag:  "-v1.2.3",
			exp:  ErrEmptyProjectPath,
		},
		{
			name: "trailing junk after the version",
			tag:  "foo-v1.2.3rc1",
			exp:  ErrBadVersion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.tag)
			if !errors.Is(err, tt.exp) {
				t.Errorf("Resolve(%q): expected %v, got %v", tt.tag, tt.exp, err)
			}
			// every malformed tag surfaces as ErrMalformedTag so the root
			// error handler can print its help text
			if !errors.Is(err, releaseerr.ErrMalformedTag) {
				t.Errorf("Resolve(%q): error does not unwrap to ErrMalformedTag", tt.tag)
			}
		})
	}
}

func TestMatchesTrigger(t *testing.T) {
	tests := []struct {
		tag string
		exp bool
	}{
		{tag: "foo/bar-v1.2.3", exp: true},
		{tag: "name-v0.0.1", exp: true},
		{tag: "integrations/google_vertex-v1.0.99", exp: true},
		{tag: "integrations/google_vertex-v10.0.99", exp: true},
		{tag: "integrations/google_vertex", exp: false},
		{tag: "v1.2.3", exp: false},
		{tag: "foo-v1.2", exp: false},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			if got := MatchesTrigger(tt.tag); got != tt.exp {
				t.Errorf("MatchesTrigger(%q): expected %t, got %t", tt.tag, tt.exp, got)
			}
		})
	}
}
