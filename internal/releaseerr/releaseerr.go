package releaseerr

var _ error = (*ReleaseError)(nil)

// ReleaseError adds a user-friendly help message to specific errors.
type ReleaseError struct {
	help string
	msg  string
}

// Help will be displayed to the user if this specific error is ever returned.
func (e *ReleaseError) Help() string {
	return e.help
}

// Error returns the error message.
func (e *ReleaseError) Error() string {
	return e.msg
}

var (
	// ErrMalformedTag is returned when a tag cannot be resolved into a project path and version.
	ErrMalformedTag = &ReleaseError{
		msg: "malformed release tag",
		help: `Release tags must follow the form <project-path>-v<major>.<minor>.<patch>,
e.g. "integrations/google_vertex-v1.0.99". The project path is everything before
the final -v version suffix.`,
	}

	// ErrMissingSecret is returned when a required credential is absent from the environment.
	ErrMissingSecret = &ReleaseError{
		msg: "missing required credential",
		help: `The release pipeline reads its credentials from the environment:
  RELCTL_BOT_TOKEN    repository write access, used to push the changelog commit
  RELCTL_INDEX_TOKEN  package index publish token
Set the missing variable (or pass --skip-publish / --skip-changelog to skip the
step that needs it) and run the command again.`,
	}

	// ErrAlreadyPublished is returned when the resolved version already exists on the package index.
	ErrAlreadyPublished = &ReleaseError{
		msg: "version already published",
		help: `The package index already has a release with this exact version.
Package indexes refuse overwrites, so the publish step was not attempted.
Tag a new version if you need to ship additional changes.`,
	}

	// ErrGit is returned anytime a git invocation fails.
	ErrGit = &ReleaseError{
		msg: "git command failed",
		help: `A git invocation failed. Ensure the repository checkout has full history
(a shallow clone breaks changelog generation) and that the bot token grants
write access to the main branch.`,
	}

	// ErrProjectConfig is returned when a project's .relctl.yaml cannot be parsed.
	ErrProjectConfig = &ReleaseError{
		msg: "invalid project configuration",
		help: `The project's .relctl.yaml file exists but could not be parsed.
Fix or remove the file; a missing file means the default build and publish
commands are used.`,
	}
)
