// Package release runs the tag-to-publish pipeline.
package release

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/releasehq/relctl/internal/changelog"
	"github.com/releasehq/relctl/internal/config"
	"github.com/releasehq/relctl/internal/releaseerr"
	"github.com/releasehq/relctl/internal/run"
	"github.com/releasehq/relctl/internal/tag"
	"github.com/releasehq/relctl/internal/trace"
	"go.opentelemetry.io/otel/attribute"
)

// committer identity used for the changelog commit.
const (
	botName  = "relctl-bot"
	botEmail = "bot@releasehq.dev"
)

// Options configure a pipeline run.
type Options struct {
	// RepoRoot is the repository checkout the pipeline operates on. Defaults to ".".
	RepoRoot string
	// MainBranch is the branch the changelog commit is pushed to. Defaults to "main".
	MainBranch string
	// Index optionally names the publish tool's target repository.
	Index string
	// DryRun prints the external commands instead of executing them.
	DryRun bool
	// SkipPublish skips the index guard and publish steps.
	SkipPublish bool
	// SkipChangelog skips the changelog and commit steps.
	SkipChangelog bool
}

// Checker guards the publish step against re-releasing an existing version.
type Checker interface {
	Exists(ctx context.Context, projectPath, version string) (bool, error)
}

// Pipeline executes the release steps for one tag, strictly in order: each
// step runs only if the previous one succeeded, the first failure aborts the
// run, and there are no retries and no rollback. Failed tool output is
// surfaced unchanged.
type Pipeline struct {
	runner  run.Runner
	checker Checker
	secrets config.Secrets
	gen     *changelog.Generator
	opts    Options
}

func New(runner run.Runner, checker Checker, secrets config.Secrets, opts Options) *Pipeline {
	if opts.RepoRoot == "" {
		opts.RepoRoot = "."
	}
	if opts.MainBranch == "" {
		opts.MainBranch = "main"
	}

	return &Pipeline{
		runner:  runner,
		checker: checker,
		secrets: secrets,
		gen:     changelog.New(runner, opts.RepoRoot),
		opts:    opts,
	}
}

// Release runs the full pipeline for the pushed tag.
func (p *Pipeline) Release(ctx context.Context, pushedTag string) error {
	ctx, span := trace.NewSpan(ctx, "release.run")
	defer span.End()
	span.SetAttributes(attribute.String("tag", pushedTag))

	ref, project, err := p.verify(ctx, pushedTag)
	if err != nil {
		return trace.CaptureError(ctx, err)
	}

	spinner := &pterm.DefaultSpinner
	if !p.opts.DryRun {
		spinner, _ = spinner.Start(fmt.Sprintf("Releasing %s", ref.Tag()))
	}
	progress := func(s string) {
		if p.opts.DryRun {
			pterm.Info.Println(s)
		} else {
			spinner.UpdateText(s)
		}
	}
	fail := func(msg string, err error) error {
		if !p.opts.DryRun {
			spinner.Fail(msg)
		}
		return trace.CaptureError(ctx, err)
	}

	// Credentials are checked before any step runs so a missing secret
	// cannot abort the run halfway through.
	if !p.opts.SkipPublish {
		if err := p.secrets.RequirePublish(); err != nil {
			return fail("Missing index credential", err)
		}
	}
	if !p.opts.SkipChangelog {
		if err := p.secrets.RequireCommit(); err != nil {
			return fail("Missing bot credential", err)
		}
	}

	progress(fmt.Sprintf("Building %s", ref.ProjectPath))
	if err := p.build(ctx, ref, project); err != nil {
		return fail("Build failed", err)
	}

	if p.opts.SkipPublish {
		pterm.Info.Println("Skipping the publish step")
	} else {
		progress(fmt.Sprintf("Publishing %s %s", ref.ProjectPath, ref.Version))
		if err := p.guard(ctx, ref); err != nil {
			return fail("Publish refused", err)
		}
		if err := p.publish(ctx, ref, project); err != nil {
			return fail("Publish failed", err)
		}
	}

	if p.opts.SkipChangelog {
		pterm.Info.Println("Skipping the changelog and commit steps")
	} else {
		progress("Regenerating the changelog")
		file, err := p.changelogStep(ctx, ref, project)
		if err != nil {
			return fail("Changelog generation failed", err)
		}
		progress(fmt.Sprintf("Committing %s to %s", file, p.opts.MainBranch))
		if err := p.commit(ctx, ref, file); err != nil {
			return fail("Commit failed", err)
		}
	}

	if !p.opts.DryRun {
		spinner.Success(fmt.Sprintf("Released %s %s", ref.ProjectPath, ref.Version))
	}
	return nil
}

// verify resolves the pushed tag and loads the project configuration. The
// resolved project path becomes the working directory of every later step,
// deliberately unvalidated: whether the directory exists is the build tool's
// problem to report.
func (p *Pipeline) verify(ctx context.Context, pushedTag string) (tag.Ref, config.Project, error) {
	_, span := trace.NewSpan(ctx, "release.verify")
	defer span.End()

	if !tag.MatchesTrigger(pushedTag) {
		pterm.Warning.Printfln("Tag '%s' does not match the trigger pattern '%s'", pushedTag, tag.TriggerPattern)
	}

	ref, err := tag.Resolve(pushedTag)
	if err != nil {
		return tag.Ref{}, config.Project{}, err
	}
	span.SetAttributes(
		attribute.String("project_path", ref.ProjectPath),
		attribute.String("version", ref.Version),
	)

	project, err := config.LoadProject(p.opts.RepoRoot, ref.ProjectPath)
	if err != nil {
		return tag.Ref{}, config.Project{}, err
	}

	pterm.Info.Printfln("Resolved project path '%s' (version %s)", ref.ProjectPath, ref.Version)
	return ref, project, nil
}

func (p *Pipeline) build(ctx context.Context, ref tag.Ref, project config.Project) error {
	ctx, span := trace.NewSpan(ctx, "release.build")
	defer span.End()

	return p.exec(ctx, run.Command{
		Name: project.BuildCommand[0],
		Args: project.BuildCommand[1:],
		Dir:  p.projectDir(ref),
	})
}

// guard refuses to publish a version the index already has. Indexes reject
// overwrites anyway, this just turns the failure into a clear error before
// any artifact is uploaded.
func (p *Pipeline) guard(ctx context.Context, ref tag.Ref) error {
	ctx, span := trace.NewSpan(ctx, "release.guard")
	defer span.End()

	if p.opts.DryRun {
		return nil
	}

	exists, err := p.checker.Exists(ctx, ref.ProjectPath, ref.Version)
	if err != nil {
		return fmt.Errorf("unable to check the package index: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s %s", releaseerr.ErrAlreadyPublished, ref.ProjectPath, ref.Version)
	}
	return nil
}

func (p *Pipeline) publish(ctx context.Context, ref tag.Ref, project config.Project) error {
	ctx, span := trace.NewSpan(ctx, "release.publish")
	defer span.End()

	args := project.PublishCommand[1:]
	if p.opts.Index != "" {
		args = append(args, "--repo", p.opts.Index)
	}

	return p.exec(ctx, run.Command{
		Name: project.PublishCommand[0],
		Args: args,
		Dir:  p.projectDir(ref),
		Env: []string{
			"HATCH_INDEX_USER=__token__",
			"HATCH_INDEX_AUTH=" + p.secrets.IndexToken,
		},
	})
}

func (p *Pipeline) changelogStep(ctx context.Context, ref tag.Ref, project config.Project) (string, error) {
	ctx, span := trace.NewSpan(ctx, "release.changelog")
	defer span.End()

	if p.opts.DryRun {
		rel := filepath.Join(ref.ProjectPath, project.ChangelogFile)
		pterm.Info.Printfln("[dry-run] would regenerate %s", rel)
		return rel, nil
	}

	return p.gen.Update(ctx, ref, project.ChangelogFile)
}

// commit stages the regenerated changelog and pushes it to the main branch,
// authenticating the push with the bot token.
func (p *Pipeline) commit(ctx context.Context, ref tag.Ref, file string) error {
	ctx, span := trace.NewSpan(ctx, "release.commit")
	defer span.End()

	// The auth header travels through the environment, not argv, so the
	// token never shows up in debug or dry-run output.
	header := "AUTHORIZATION: basic " +
		base64.StdEncoding.EncodeToString([]byte("x-access-token:"+p.secrets.BotToken))
	pushEnv := []string{
		"GIT_CONFIG_COUNT=1",
		"GIT_CONFIG_KEY_0=http.extraheader",
		"GIT_CONFIG_VALUE_0=" + header,
	}

	cmds := []run.Command{
		{Name: "git", Args: []string{"switch", p.opts.MainBranch}, Dir: p.opts.RepoRoot},
		{Name: "git", Args: []string{"add", file}, Dir: p.opts.RepoRoot},
		{Name: "git", Args: []string{
			"-c", "user.name=" + botName,
			"-c", "user.email=" + botEmail,
			"commit", "-m", fmt.Sprintf("Update changelog for %s", ref.Tag()),
		}, Dir: p.opts.RepoRoot},
		{Name: "git", Args: []string{"push", "origin", p.opts.MainBranch}, Dir: p.opts.RepoRoot, Env: pushEnv},
	}

	for _, cmd := range cmds {
		if err := p.exec(ctx, cmd); err != nil {
			return fmt.Errorf("%w: %v", releaseerr.ErrGit, err)
		}
	}
	return nil
}

// exec runs one external command, honoring dry-run. On failure the tool's
// combined output is attached to the error untranslated.
func (p *Pipeline) exec(ctx context.Context, cmd run.Command) error {
	if p.opts.DryRun {
		pterm.Info.Printfln("[dry-run] %s", cmd)
		return nil
	}

	out, err := p.runner.Run(ctx, cmd)
	if err != nil {
		if out != "" {
			return fmt.Errorf("%w: %s", err, out)
		}
		return err
	}
	return nil
}

func (p *Pipeline) projectDir(ref tag.Ref) string {
	return filepath.Join(p.opts.RepoRoot, ref.ProjectPath)
}
