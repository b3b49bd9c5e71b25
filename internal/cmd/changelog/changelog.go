package changelog

import (
	"context"

	"github.com/pterm/pterm"
	gen "github.com/releasehq/relctl/internal/changelog"
	"github.com/releasehq/relctl/internal/config"
	"github.com/releasehq/relctl/internal/run"
	"github.com/releasehq/relctl/internal/tag"
	"github.com/releasehq/relctl/internal/telemetry"
	"github.com/releasehq/relctl/internal/trace"
)

// Cmd contains the arguments used when executing the changelog command.
type Cmd struct {
	Tag      string `arg:"" help:"The release tag to generate the changelog for." env:"RELCTL_REF_NAME"`
	RepoRoot string `default:"." help:"Repository checkout to operate on." type:"existingdir"`
	Write    bool   `help:"Update the project's changelog file instead of printing the new section."`
}

// Run regenerates the changelog for the tag's project. Nothing is built,
// published, or committed.
func (c *Cmd) Run(ctx context.Context, telClient telemetry.Client) error {
	ctx, span := trace.NewSpan(ctx, "changelog")
	defer span.End()

	return telClient.Wrap(ctx, telemetry.Changelog, func() error {
		ref, err := tag.Resolve(c.Tag)
		if err != nil {
			return trace.CaptureError(ctx, err)
		}

		g := gen.New(run.Local{}, c.RepoRoot)

		if !c.Write {
			section, err := g.Section(ctx, ref)
			if err != nil {
				return trace.CaptureError(ctx, err)
			}
			pterm.Println(section)
			return nil
		}

		project, err := config.LoadProject(c.RepoRoot, ref.ProjectPath)
		if err != nil {
			return trace.CaptureError(ctx, err)
		}

		file, err := g.Update(ctx, ref, project.ChangelogFile)
		if err != nil {
			return trace.CaptureError(ctx, err)
		}

		pterm.Success.Printfln("Updated %s", file)
		return nil
	})
}
