package cmd

import (
	"errors"
	"os"

	"github.com/alecthomas/kong"
	"github.com/pterm/pterm"
	"github.com/releasehq/relctl/internal/cmd/changelog"
	"github.com/releasehq/relctl/internal/cmd/release"
	"github.com/releasehq/relctl/internal/cmd/resolve"
	"github.com/releasehq/relctl/internal/cmd/version"
	"github.com/releasehq/relctl/internal/releaseerr"
	"github.com/releasehq/relctl/internal/telemetry"
)

func HandleErr(err error) {
	if err == nil {
		return
	}

	pterm.Error.Println(err)

	var errParse *kong.ParseError
	if errors.As(err, &errParse) {
		_ = kong.DefaultHelpPrinter(kong.HelpOptions{}, errParse.Context)
	}

	var relErr *releaseerr.ReleaseError
	if errors.As(err, &relErr) {
		pterm.Println()
		pterm.Info.Println(relErr.Help())
	}

	os.Exit(1)
}

type verbose bool

func (v verbose) BeforeApply() error {
	pterm.EnableDebugMessages()
	return nil
}

type Cmd struct {
	Release   release.Cmd   `cmd:"" help:"Release the package a pushed tag points at."`
	Resolve   resolve.Cmd   `cmd:"" help:"Resolve a release tag into its project path."`
	Changelog changelog.Cmd `cmd:"" help:"Regenerate a project changelog without releasing."`
	Version   version.Cmd   `cmd:"" help:"Display version information."`
	Verbose   verbose       `short:"v" help:"Enable verbose output."`
}

func (c *Cmd) BeforeApply(ctx *kong.Context) error {
	if _, envVarDNT := os.LookupEnv("DO_NOT_TRACK"); envVarDNT {
		pterm.Info.Println("Telemetry collection disabled (DO_NOT_TRACK)")
	}
	ctx.BindTo(telemetry.Get(), (*telemetry.Client)(nil))

	return nil
}
