package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/pterm/pterm"
	"github.com/releasehq/relctl/internal/build"
	"github.com/releasehq/relctl/internal/cmd"
	"github.com/releasehq/relctl/internal/trace"
	"github.com/releasehq/relctl/internal/update"
)

func main() {
	// ensure the pterm info width matches the other printers
	pterm.Info.Prefix.Text = " INFO  "
	printUpdateMsg := checkForNewerRelctlVersion()
	cmd.HandleErr(run())
	printUpdateMsg()
}

func run() error {
	ctx, cancel := cliContext()
	defer cancel()

	shutdowns, err := trace.Init(ctx)
	if err != nil {
		pterm.Debug.Printfln("unable to initialize tracing: %s", err)
	}
	defer func() {
		for _, shutdown := range shutdowns {
			shutdown()
		}
	}()

	var root cmd.Cmd
	parser, err := kong.New(
		&root,
		kong.Name("relctl"),
		kong.Description("Release tool for multi-package monorepos."),
		kong.UsageOnError(),
	)
	if err != nil {
		return err
	}
	parsed, err := parser.Parse(os.Args[1:])
	if err != nil {
		return err
	}
	parsed.BindToProvider(bindCtx(ctx))
	return parsed.Run()
}

// checks for a newer version of relctl.
// returns a function that, when called, will print the message about the new version.
func checkForNewerRelctlVersion() func() {
	c := make(chan string)
	go func() {
		defer close(c)
		ver, err := update.Check(context.Background(), &http.Client{Timeout: 5 * time.Second}, build.Version)
		if err != nil {
			if !errors.Is(err, update.ErrDevVersion) {
				pterm.Debug.Printfln("update check: %s", err)
			}
		} else {
			c <- ver
		}
	}()

	return func() {
		ver := <-c
		if ver != "" {
			pterm.Info.Printfln("A new release of relctl is available: %s -> %s\nUpdating to the latest version is highly recommended", build.Version, ver)
		}
	}
}

// get a context that listens for interrupt/shutdown signals.
func cliContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	// listen for shutdown signals
	go func() {
		signalCh := make(chan os.Signal, 1)
		signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
		<-signalCh

		cancel()
	}()
	return ctx, cancel
}

// bindCtx exists to allow kong to correctly inject a context.Context into the Run methods on the commands.
func bindCtx(ctx context.Context) func() (context.Context, error) {
	return func() (context.Context, error) {
		return ctx, nil
	}
}
