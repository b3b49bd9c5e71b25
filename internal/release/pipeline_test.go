package release

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/releasehq/relctl/internal/config"
	"github.com/releasehq/relctl/internal/releaseerr"
	"github.com/releasehq/relctl/internal/run"
	runmock "github.com/releasehq/relctl/internal/run/mock"
	"go.uber.org/mock/gomock"
)

type fakeChecker struct {
	exists bool
	err    error

	gotPath    string
	gotVersion string
	calls      int
}

func (f *fakeChecker) Exists(_ context.Context, projectPath, version string) (bool, error) {
	f.calls++
	f.gotPath = projectPath
	f.gotVersion = version
	return f.exists, f.err
}

func testSecrets() config.Secrets {
	return config.Secrets{
		BotToken:   "bot-token",
		IndexToken: "index-token",
	}
}

func TestPipeline_Release(t *testing.T) {
	root := t.TempDir()
	projectDir := filepath.Join(root, "integrations", "google_vertex")
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		t.Fatal(err)
	}

	ctrl := gomock.NewController(t)
	runner := runmock.NewMockRunner(ctrl)
	checker := &fakeChecker{exists: false}

	header := "AUTHORIZATION: basic " + base64.StdEncoding.EncodeToString([]byte("x-access-token:bot-token"))

	gomock.InOrder(
		// build
		runner.EXPECT().Run(gomock.Any(), run.Command{
			Name: "hatch", Args: []string{"build"}, Dir: projectDir,
		}).Return("", nil),
		// publish
		runner.EXPECT().Run(gomock.Any(), run.Command{
			Name: "hatch", Args: []string{"publish", "--yes", "--no-prompt"}, Dir: projectDir,
			Env: []string{"HATCH_INDEX_USER=__token__", "HATCH_INDEX_AUTH=index-token"},
		}).Return("", nil),
		// changelog generation
		runner.EXPECT().Run(gomock.Any(), run.Command{
			Name: "git",
			Args: []string{"tag", "--list", "integrations/google_vertex-v*", "--sort=-v:refname"},
			Dir:  root,
		}).Return("integrations/google_vertex-v1.0.99", nil),
		runner.EXPECT().Run(gomock.Any(), run.Command{
			Name: "git",
			Args: []string{"log", "--pretty=format:- %s (%h)", "integrations/google_vertex-v1.0.99", "--", "integrations/google_vertex"},
			Dir:  root,
		}).Return("- Fix auth scope (abc1234)", nil),
		// commit and push
		runner.EXPECT().Run(gomock.Any(), run.Command{
			Name: "git", Args: []string{"switch", "main"}, Dir: root,
		}).Return("", nil),
		runner.EXPECT().Run(gomock.Any(), run.Command{
			Name: "git", Args: []string{"add", filepath.Join("integrations/google_vertex", "CHANGELOG.md")}, Dir: root,
		}).Return("", nil),
		runner.EXPECT().Run(gomock.Any(), run.Command{
			Name: "git",
			Args: []string{
				"-c", "user.name=relctl-bot",
				"-c", "user.email=bot@releasehq.dev",
				"commit", "-m", "Update changelog for integrations/google_vertex-v1.0.99",
			},
			Dir: root,
		}).Return("", nil),
		runner.EXPECT().Run(gomock.Any(), run.Command{
			Name: "git", Args: []string{"push", "origin", "main"}, Dir: root,
			Env: []string{
				"GIT_CONFIG_COUNT=1",
				"GIT_CONFIG_KEY_0=http.extraheader",
				"GIT_CONFIG_VALUE_0=" + header,
			},
		}).Return("", nil),
	)

	p := New(runner, checker, testSecrets(), Options{RepoRoot: root})

	if err := p.Release(context.Background(), "integrations/google_vertex-v1.0.99"); err != nil {
		t.Fatal(err)
	}

	if checker.gotPath != "integrations/google_vertex" || checker.gotVersion != "v1.0.99" {
		t.Errorf("index guard queried with %q %q", checker.gotPath, checker.gotVersion)
	}

	// the changelog file landed next to the project
	got, err := os.ReadFile(filepath.Join(projectDir, "CHANGELOG.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(got), "## integrations/google_vertex v1.0.99") {
		t.Errorf("changelog content unexpected:\n%s", got)
	}
}

func TestPipeline_Release_MalformedTag(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := runmock.NewMockRunner(ctrl) // no calls expected

	p := New(runner, &fakeChecker{}, testSecrets(), Options{RepoRoot: t.TempDir()})

	err := p.Release(context.Background(), "no-version-here")
	if !errors.Is(err, releaseerr.ErrMalformedTag) {
		t.Errorf("expected ErrMalformedTag, got %v", err)
	}
}

// A missing credential aborts the run before any external tool is invoked.
func TestPipeline_Release_MissingSecret(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := runmock.NewMockRunner(ctrl) // no calls expected

	p := New(runner, &fakeChecker{}, config.Secrets{}, Options{RepoRoot: t.TempDir()})

	err := p.Release(context.Background(), "name-v0.0.1")
	if !errors.Is(err, releaseerr.ErrMissingSecret) {
		t.Errorf("expected ErrMissingSecret, got %v", err)
	}
}

func TestPipeline_Release_AlreadyPublished(t *testing.T) {
	root := t.TempDir()
	ctrl := gomock.NewController(t)
	runner := runmock.NewMockRunner(ctrl)
	checker := &fakeChecker{exists: true}

	// fail-fast: the build runs, the guard refuses, publish and everything
	// after never happen
	runner.EXPECT().Run(gomock.Any(), run.Command{
		Name: "hatch", Args: []string{"build"}, Dir: filepath.Join(root, "name"),
	}).Return("", nil)

	p := New(runner, checker, testSecrets(), Options{RepoRoot: root})

	err := p.Release(context.Background(), "name-v0.0.1")
	if !errors.Is(err, releaseerr.ErrAlreadyPublished) {
		t.Errorf("expected ErrAlreadyPublished, got %v", err)
	}
}

// The first failing step aborts the sequence and surfaces the tool output.
func TestPipeline_Release_BuildFailureAborts(t *testing.T) {
	root := t.TempDir()
	ctrl := gomock.NewController(t)
	runner := runmock.NewMockRunner(ctrl)
	checker := &fakeChecker{}

	runner.EXPECT().Run(gomock.Any(), run.Command{
		Name: "hatch", Args: []string{"build"}, Dir: filepath.Join(root, "name"),
	}).Return("error: missing pyproject.toml", errors.New("hatch: exit status 1"))

	p := New(runner, checker, testSecrets(), Options{RepoRoot: root})

	err := p.Release(context.Background(), "name-v0.0.1")
	if err == nil {
		t.Fatal("expected the build failure to abort the run")
	}
	if !strings.Contains(err.Error(), "missing pyproject.toml") {
		t.Errorf("expected the raw tool output in the error, got %v", err)
	}
	if checker.calls != 0 {
		t.Error("index guard ran after a failed build")
	}
}

func TestPipeline_Release_DryRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := runmock.NewMockRunner(ctrl) // no calls expected
	checker := &fakeChecker{}

	p := New(runner, checker, testSecrets(), Options{RepoRoot: t.TempDir(), DryRun: true})

	if err := p.Release(context.Background(), "integrations/google_vertex-v1.0.99"); err != nil {
		t.Fatal(err)
	}
	if checker.calls != 0 {
		t.Error("index guard queried during a dry run")
	}
}

func TestPipeline_Release_SkipFlags(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "name"), 0o755); err != nil {
		t.Fatal(err)
	}

	ctrl := gomock.NewController(t)
	runner := runmock.NewMockRunner(ctrl)
	checker := &fakeChecker{}

	// only the build step remains
	runner.EXPECT().Run(gomock.Any(), run.Command{
		Name: "hatch", Args: []string{"build"}, Dir: filepath.Join(root, "name"),
	}).Return("", nil)

	p := New(runner, checker, config.Secrets{}, Options{
		RepoRoot:      root,
		SkipPublish:   true,
		SkipChangelog: true,
	})

	if err := p.Release(context.Background(), "name-v0.0.1"); err != nil {
		t.Fatal(err)
	}
	if checker.calls != 0 {
		t.Error("index guard queried with --skip-publish")
	}
}
