// Package changelog regenerates a project's changelog from the repository history.
package changelog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/releasehq/relctl/internal/releaseerr"
	"github.com/releasehq/relctl/internal/run"
	"github.com/releasehq/relctl/internal/tag"
)

// title is the first line of every changelog file this tool writes.
const title = "# Changelog"

// Generator builds changelog sections from git history, filtered to the
// commits that touched a project's path since its previous release tag.
type Generator struct {
	runner   run.Runner
	repoRoot string

	// now is replaceable for testing purposes.
	now func() time.Time
}

func New(runner run.Runner, repoRoot string) *Generator {
	return &Generator{
		runner:   runner,
		repoRoot: repoRoot,
		now:      time.Now,
	}
}

// Section builds the changelog entry for ref: a dated header followed by one
// line per commit that touched the project path since the previous release
// of the same project. The first release of a project lists its entire
// history for that path.
func (g *Generator) Section(ctx context.Context, ref tag.Ref) (string, error) {
	prev, err := g.previousTag(ctx, ref)
	if err != nil {
		return "", err
	}

	rangeSpec := ref.Tag()
	if prev != "" {
		rangeSpec = prev + ".." + ref.Tag()
	}

	out, err := g.runner.Run(ctx, run.Command{
		Name: "git",
		Args: []string{"log", "--pretty=format:- %s (%h)", rangeSpec, "--", ref.ProjectPath},
		Dir:  g.repoRoot,
	})
	if err != nil {
		return "", gitErr(out, err)
	}

	header := fmt.Sprintf("## %s %s (%s)", ref.ProjectPath, ref.Version, g.now().UTC().Format("2006-01-02"))
	body := strings.TrimSpace(out)
	if body == "" {
		body = "- No changes recorded for this path."
	}

	return header + "\n\n" + body, nil
}

// Update prepends the section for ref to the project's changelog file,
// creating the file if it does not exist. Returns the path of the written
// file relative to the repository root.
func (g *Generator) Update(ctx context.Context, ref tag.Ref, file string) (string, error) {
	section, err := g.Section(ctx, ref)
	if err != nil {
		return "", err
	}

	rel := filepath.Join(ref.ProjectPath, file)
	full := filepath.Join(g.repoRoot, rel)

	existing, err := os.ReadFile(full)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("unable to read %s: %w", full, err)
	}

	if err := os.WriteFile(full, []byte(merge(string(existing), section)), 0o644); err != nil {
		return "", fmt.Errorf("unable to write %s: %w", full, err)
	}

	return rel, nil
}

// previousTag returns the most recent release tag of ref's project that is
// not ref itself, or "" if this is the project's first release. Tags of
// other projects that happen to share a prefix are filtered out by resolving
// each candidate and comparing project paths.
func (g *Generator) previousTag(ctx context.Context, ref tag.Ref) (string, error) {
	out, err := g.runner.Run(ctx, run.Command{
		Name: "git",
		Args: []string{"tag", "--list", ref.ProjectPath + "-v*", "--sort=-v:refname"},
		Dir:  g.repoRoot,
	})
	if err != nil {
		return "", gitErr(out, err)
	}

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == ref.Tag() {
			continue
		}
		candidate, err := tag.Resolve(line)
		if err != nil || candidate.ProjectPath != ref.ProjectPath {
			continue
		}
		return line, nil
	}

	return "", nil
}

// merge keeps the changelog title at the top and the newest section first.
func merge(existing, section string) string {
	body := strings.TrimSpace(existing)
	body = strings.TrimSpace(strings.TrimPrefix(body, title))

	out := title + "\n\n" + section + "\n"
	if body != "" {
		out += "\n" + body + "\n"
	}
	return out
}

// gitErr surfaces the raw git output alongside the typed error so failures
// read the same as they would in the CI run log.
func gitErr(out string, err error) error {
	if out != "" {
		return fmt.Errorf("%w: %v: %s", releaseerr.ErrGit, err, out)
	}
	return fmt.Errorf("%w: %v", releaseerr.ErrGit, err)
}
