package inbox

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

// Index file modes.
const (
	ModeFull = "full"
	ModeDiff = "diff"
)

// indexFormatVersion is recorded for every full index read from the inbox.
const indexFormatVersion = "2"

// <repo>-full-<version>.json
// <repo>-diff-<base timestamp>-<version>.json
var namePattern = regexp.MustCompile(`^(\d+)-(full|diff)(?:-(\d+))?-(\d+)\.json$`)

// Job is one index file waiting in the inbox.
type Job struct {
	Path    string
	RepoID  int64
	Mode    string
	Base    int64
	Version int64
}

// ParseName reads the job encoded in an inbox file name.
// Hidden and partial files are never jobs.
func ParseName(path string) (Job, error) {
	name := filepath.Base(path)
	if ignored(name) {
		return Job{}, fmt.Errorf("%w: %s is not an index file", domain.ErrInvalidInput, name)
	}
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return Job{}, fmt.Errorf("%w: %s does not match <repo>-full-<version>.json or <repo>-diff-<base>-<version>.json",
			domain.ErrInvalidInput, name)
	}

	job := Job{Path: path, Mode: m[2]}
	var err error
	if job.RepoID, err = strconv.ParseInt(m[1], 10, 64); err != nil {
		return Job{}, fmt.Errorf("%w: repository id in %s: %v", domain.ErrInvalidInput, name, err)
	}
	if job.Version, err = strconv.ParseInt(m[4], 10, 64); err != nil {
		return Job{}, fmt.Errorf("%w: version in %s: %v", domain.ErrInvalidInput, name, err)
	}

	switch {
	case job.Mode == ModeFull && m[3] != "":
		return Job{}, fmt.Errorf("%w: full index %s carries a base timestamp", domain.ErrInvalidInput, name)
	case job.Mode == ModeDiff && m[3] == "":
		return Job{}, fmt.Errorf("%w: diff %s has no base timestamp", domain.ErrInvalidInput, name)
	case job.Mode == ModeDiff:
		if job.Base, err = strconv.ParseInt(m[3], 10, 64); err != nil {
			return Job{}, fmt.Errorf("%w: base timestamp in %s: %v", domain.ErrInvalidInput, name, err)
		}
	}
	return job, nil
}

// ignored reports hidden files and downloads still in progress.
func ignored(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".part")
}
