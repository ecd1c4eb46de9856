package ciutil

import (
	"log/slog"
	"os"

	"github.com/phrazzld/classroom/internal/redact"
)

// CI provider variables.
const (
	EnvCI            = "CI"
	EnvGitHubActions = "GITHUB_ACTIONS"
	EnvGitLabCI      = "GITLAB_CI"
	EnvJenkinsURL    = "JENKINS_URL"
	EnvCircleCI      = "CIRCLECI"
)

var ciVars = []string{EnvCI, EnvGitHubActions, EnvGitLabCI, EnvJenkinsURL, EnvCircleCI}

// IsCI reports whether any known CI provider variable is set.
func IsCI() bool {
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// GetEnvWithFallbacks returns the value of the first non-empty variable in
// names, or def when none is set. Falling back past the first name is logged
// as a warning with the value redacted.
func GetEnvWithFallbacks(names []string, def string, logger *slog.Logger) string {
	for i, name := range names {
		val := os.Getenv(name)
		if val == "" {
			continue
		}
		if i > 0 && logger != nil {
			logger.Warn("using fallback environment variable",
				slog.String("used_var", name),
				slog.String("preferred_var", names[0]),
				slog.String("value", redact.String(val)),
			)
		}
		return val
	}
	return def
}

// Metadata describes the CI run for log enrichment. It is empty outside CI.
func Metadata() map[string]string {
	if !IsCI() {
		return map[string]string{}
	}
	md := map[string]string{"ci_provider": provider()}
	for key, names := range map[string][]string{
		"ci_commit": {"GITHUB_SHA", "CI_COMMIT_SHA", "GIT_COMMIT", "CIRCLE_SHA1"},
		"ci_run":    {"GITHUB_RUN_ID", "CI_PIPELINE_ID", "BUILD_ID", "CIRCLE_BUILD_NUM"},
		"ci_branch": {"GITHUB_REF_NAME", "CI_COMMIT_REF_NAME", "GIT_BRANCH", "CIRCLE_BRANCH"},
	} {
		if v := GetEnvWithFallbacks(names, "", nil); v != "" {
			md[key] = v
		}
	}
	return md
}

func provider() string {
	switch {
	case os.Getenv(EnvGitHubActions) != "":
		return "github_actions"
	case os.Getenv(EnvGitLabCI) != "":
		return "gitlab"
	case os.Getenv(EnvJenkinsURL) != "":
		return "jenkins"
	case os.Getenv(EnvCircleCI) != "":
		return "circleci"
	default:
		return "unknown"
	}
}
