package enrich

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/jarvis-ai/jarvis/pkg/repo"
)

// ProjectRepoRecord is a cached "project name -> local repo path" mapping
// Resume/Handoff consults so it doesn't have to rediscover a project's
// checkout location on every run.
type ProjectRepoRecord struct {
	Name     string
	RepoPath string
}

func projectRepoToMap(r ProjectRepoRecord) map[string]any {
	return map[string]any{"id": r.Name, "repo_path": r.RepoPath}
}

func projectRepoFromRecord(rec *neo4j.Record) (ProjectRepoRecord, error) {
	node, _, err := neo4j.GetRecordValue[dbtype.Node](rec, "n")
	if err != nil {
		return ProjectRepoRecord{}, err
	}
	return ProjectRepoRecord{
		Name:     strProp(node.Props, "id"),
		RepoPath: strProp(node.Props, "repo_path"),
	}, nil
}

func strProp(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

// NewProjectRepoLocator creates the Neo4j-backed cache of project-to-repo-path
// records that GitRepoProbe consults.
func NewProjectRepoLocator(driver neo4j.DriverWithContext) *repo.Neo4jRepo[ProjectRepoRecord, string] {
	return repo.NewNeo4jRepo[ProjectRepoRecord, string](
		driver,
		"ProjectRepo",
		projectRepoToMap,
		projectRepoFromRecord,
	)
}

const gitProbeTimeout = 5 * time.Second

// GitRepoProbe returns a RepoProbe that looks project up in locator and, if
// found, shells out to git to report dirtiness and the last five commit
// messages. A project with no cached repo path, or whose path isn't a git
// checkout, is reported as not locatable rather than an error.
func GitRepoProbe(locator *repo.Neo4jRepo[ProjectRepoRecord, string]) RepoProbe {
	return func(ctx context.Context, project string) (RepoStatus, bool) {
		record, err := locator.Get(ctx, project)
		if err != nil || record.RepoPath == "" {
			return RepoStatus{}, false
		}

		dirty, dirtyOK := gitIsDirty(ctx, record.RepoPath)
		commits, commitsOK := gitRecentCommits(ctx, record.RepoPath, 5)
		if !dirtyOK && !commitsOK {
			return RepoStatus{}, false
		}
		return RepoStatus{Dirty: dirty, RecentCommits: commits}, true
	}
}

func gitIsDirty(ctx context.Context, repoPath string) (bool, bool) {
	ctx, cancel := context.WithTimeout(ctx, gitProbeTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, "git", "-C", repoPath, "status", "--porcelain").Output()
	if err != nil {
		return false, false
	}
	return strings.TrimSpace(string(out)) != "", true
}

func gitRecentCommits(ctx context.Context, repoPath string, n int) ([]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, gitProbeTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, "git", "-C", repoPath, "log", "-n", strconv.Itoa(n), "--oneline").Output()
	if err != nil {
		return nil, false
	}
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	var commits []string
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			commits = append(commits, l)
		}
	}
	return commits, true
}
