// Package config loads the pipeline's credentials and per-project overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"github.com/releasehq/relctl/internal/releaseerr"
	"gopkg.in/yaml.v3"
)

// ProjectFile is the name of the optional per-project override file.
const ProjectFile = ".relctl.yaml"

// Secrets holds the credentials the pipeline reads from the environment.
// Neither is unconditionally required: a step that is skipped does not need
// its credential, so validation happens per step via the Require methods.
type Secrets struct {
	// BotToken grants write access to the repository, used to push the
	// changelog commit back to the main branch.
	BotToken string `envconfig:"RELCTL_BOT_TOKEN"`
	// IndexToken authenticates the publish tool against the package index.
	IndexToken string `envconfig:"RELCTL_INDEX_TOKEN"`
}

// LoadSecrets reads the credentials from the environment.
func LoadSecrets() (Secrets, error) {
	var s Secrets
	if err := envconfig.Process("", &s); err != nil {
		return Secrets{}, fmt.Errorf("unable to process environment: %w", err)
	}
	return s, nil
}

// RequirePublish verifies the index token is present before the publish step runs.
func (s Secrets) RequirePublish() error {
	if s.IndexToken == "" {
		return fmt.Errorf("%w: RELCTL_INDEX_TOKEN", releaseerr.ErrMissingSecret)
	}
	return nil
}

// RequireCommit verifies the bot token is present before the commit step runs.
func (s Secrets) RequireCommit() error {
	if s.BotToken == "" {
		return fmt.Errorf("%w: RELCTL_BOT_TOKEN", releaseerr.ErrMissingSecret)
	}
	return nil
}

// Project holds per-project overrides read from <project-path>/.relctl.yaml.
// A missing file yields the defaults; a file that exists but cannot be
// parsed is an error.
type Project struct {
	// BuildCommand overrides the package build invocation.
	BuildCommand []string `yaml:"build_command"`
	// PublishCommand overrides the package publish invocation.
	PublishCommand []string `yaml:"publish_command"`
	// ChangelogFile overrides the changelog file name within the project directory.
	ChangelogFile string `yaml:"changelog_file"`
}

// DefaultProject is the configuration used when a project carries no override file.
func DefaultProject() Project {
	return Project{
		BuildCommand:   []string{"hatch", "build"},
		PublishCommand: []string{"hatch", "publish", "--yes", "--no-prompt"},
		ChangelogFile:  "CHANGELOG.md",
	}
}

// LoadProject reads the project override file, filling any unset field with
// its default.
func LoadProject(repoRoot, projectPath string) (Project, error) {
	p := DefaultProject()

	path := filepath.Join(repoRoot, projectPath, ProjectFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return Project{}, fmt.Errorf("unable to read %s: %w", path, err)
	}

	var override Project
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Project{}, fmt.Errorf("%w: %s: %v", releaseerr.ErrProjectConfig, path, err)
	}

	if len(override.BuildCommand) > 0 {
		p.BuildCommand = override.BuildCommand
	}
	if len(override.PublishCommand) > 0 {
		p.PublishCommand = override.PublishCommand
	}
	if override.ChangelogFile != "" {
		p.ChangelogFile = override.ChangelogFile
	}

	return p, nil
}
