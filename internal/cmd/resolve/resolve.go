package resolve

import (
	"context"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/releasehq/relctl/internal/tag"
	"github.com/releasehq/relctl/internal/telemetry"
	"github.com/releasehq/relctl/internal/trace"
)

// Cmd contains the arguments used when executing the resolve command.
type Cmd struct {
	Tag string `arg:"" help:"The tag to resolve, <project-path>-v<version>." env:"RELCTL_REF_NAME"`
	// Output mirrors the key=value output file convention CI platforms use
	// to pass values between workflow steps.
	Output string `help:"Append project_path and version to this file in key=value form." env:"RELCTL_OUTPUT"`
}

// Run resolves the tag and prints (and optionally exports) its halves.
func (c *Cmd) Run(ctx context.Context, telClient telemetry.Client) error {
	ctx, span := trace.NewSpan(ctx, "resolve")
	defer span.End()

	return telClient.Wrap(ctx, telemetry.Resolve, func() error {
		ref, err := tag.Resolve(c.Tag)
		if err != nil {
			return trace.CaptureError(ctx, err)
		}

		pterm.Printfln("project_path: %s\nversion: %s", ref.ProjectPath, ref.Version)

		if c.Output != "" {
			if err := appendOutputs(c.Output, ref); err != nil {
				return trace.CaptureError(ctx, err)
			}
		}
		return nil
	})
}

func appendOutputs(path string, ref tag.Ref) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("unable to open output file %s: %w", path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "project_path=%s\nversion=%s\n", ref.ProjectPath, ref.Version); err != nil {
		return fmt.Errorf("unable to write output file %s: %w", path, err)
	}
	return nil
}
