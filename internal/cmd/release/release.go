package release

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/releasehq/relctl/internal/config"
	"github.com/releasehq/relctl/internal/index"
	pipeline "github.com/releasehq/relctl/internal/release"
	"github.com/releasehq/relctl/internal/releaseerr"
	"github.com/releasehq/relctl/internal/run"
	"github.com/releasehq/relctl/internal/tag"
	"github.com/releasehq/relctl/internal/telemetry"
	"github.com/releasehq/relctl/internal/trace"
)

// Cmd contains the arguments used when executing the release command.
type Cmd struct {
	Tag           string `arg:"" optional:"" help:"The pushed release tag, <project-path>-v<version>." env:"RELCTL_REF_NAME"`
	RepoRoot      string `default:"." help:"Repository checkout to operate on." type:"existingdir"`
	MainBranch    string `default:"main" help:"Branch the changelog commit is pushed to."`
	Index         string `help:"Package index repository passed to the publish tool."`
	DryRun        bool   `help:"Print the external commands instead of executing them."`
	SkipPublish   bool   `help:"Skip the package index publish step."`
	SkipChangelog bool   `help:"Skip the changelog and commit steps."`
}

// Run executes the release command: the full build, publish, changelog and
// commit sequence for the tag.
func (c *Cmd) Run(ctx context.Context, telClient telemetry.Client) error {
	ctx, span := trace.NewSpan(ctx, "release")
	defer span.End()

	if c.Tag == "" {
		return fmt.Errorf("%w: no tag argument given and RELCTL_REF_NAME is not set", releaseerr.ErrMalformedTag)
	}

	secrets, err := config.LoadSecrets()
	if err != nil {
		return trace.CaptureError(ctx, err)
	}

	telClient.Attr("tag", c.Tag)
	if ref, err := tag.Resolve(c.Tag); err == nil {
		telClient.Attr("project_path", ref.ProjectPath)
	}

	checker := index.New(&http.Client{Timeout: 30 * time.Second})
	p := pipeline.New(run.Local{}, checker, secrets, pipeline.Options{
		RepoRoot:      c.RepoRoot,
		MainBranch:    c.MainBranch,
		Index:         c.Index,
		DryRun:        c.DryRun,
		SkipPublish:   c.SkipPublish,
		SkipChangelog: c.SkipChangelog,
	})

	return telClient.Wrap(ctx, telemetry.Release, func() error {
		return p.Release(ctx, c.Tag)
	})
}
