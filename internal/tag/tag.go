// Package tag resolves pushed release tags into the project path and version they encode.
package tag

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/releasehq/relctl/internal/releaseerr"
	"golang.org/x/mod/semver"
)

// TriggerPattern is the glob a pushed tag must match before a release run starts.
// Mirrors the pattern the CI trigger is configured with. The leading **/ lets the
// pattern span project paths with any number of directory segments.
const TriggerPattern = "**/*-v[0-9]*.[0-9]*.[0-9]*"

// Ref is a release tag resolved into its two halves.
type Ref struct {
	// ProjectPath is the sub-directory of the package being released, exactly as it
	// appeared in the tag. It may itself contain '-' and '/' characters.
	ProjectPath string
	// Version is the semver version suffix of the tag, 'v' prefix included.
	Version string
}

// Tag reassembles the tag this Ref was resolved from.
func (r Ref) Tag() string {
	return r.ProjectPath + "-" + r.Version
}

var (
	// ErrNoVersionSuffix is returned for tags with no -v<version> suffix.
	ErrNoVersionSuffix = fmt.Errorf("%w: no -v version suffix", releaseerr.ErrMalformedTag)
	// ErrEmptyProjectPath is returned for tags where nothing precedes the -v<version> suffix.
	ErrEmptyProjectPath = fmt.Errorf("%w: empty project path", releaseerr.ErrMalformedTag)
	// ErrBadVersion is returned when the suffix after -v is not a valid semver version.
	ErrBadVersion = fmt.Errorf("%w: invalid semver version", releaseerr.ErrMalformedTag)
)

// Resolve splits a tag of the form <project-path>-v<version> into its halves.
//
// The split happens at the rightmost occurrence of "-v" that is immediately
// followed by a digit, so project paths containing "-v" in a non-version
// position (e.g. "foo-vendor/bar-v1.2.3") resolve correctly. The project path
// is returned unchanged, with no trimming or normalization.
func Resolve(t string) (Ref, error) {
	i := lastVersionDelim(t)
	if i < 0 {
		return Ref{}, fmt.Errorf("%w: %q", ErrNoVersionSuffix, t)
	}
	if i == 0 {
		return Ref{}, fmt.Errorf("%w: %q", ErrEmptyProjectPath, t)
	}

	ref := Ref{
		ProjectPath: t[:i],
		Version:     t[i+1:],
	}

	if !semver.IsValid(ref.Version) {
		return Ref{}, fmt.Errorf("%w: %q", ErrBadVersion, ref.Version)
	}

	return ref, nil
}

// MatchesTrigger reports whether the tag would have fired the CI trigger pattern.
func MatchesTrigger(t string) bool {
	ok, err := doublestar.Match(TriggerPattern, t)
	if err != nil {
		// TriggerPattern is a constant and known-valid, Match only errors on bad patterns.
		return false
	}
	return ok
}

// lastVersionDelim returns the index of the '-' of the rightmost "-v<digit>"
// occurrence, or -1 if the tag has none.
func lastVersionDelim(t string) int {
	for i := len(t) - 3; i >= 0; i-- {
		if t[i] == '-' && t[i+1] == 'v' && isDigit(t[i+2]) {
			return i
		}
	}
	return -1
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
