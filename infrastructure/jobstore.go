package infrastructure

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"wordbearer/domain"
)

// DirJobStore keeps queued message jobs as <id>.json files in one directory
// and moves them to another once sent.
type DirJobStore struct {
	dir         string
	finishedDir string
	log         logrus.FieldLogger
}

func NewDirJobStore(dir, finishedDir string, log logrus.FieldLogger) (*DirJobStore, error) {
	for _, d := range []string{dir, finishedDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create job dir: %w", err)
		}
	}
	return &DirJobStore{dir: dir, finishedDir: finishedDir, log: log}, nil
}

func (s *DirJobStore) Dir() string { return s.dir }

// LoadJobs reads every *.json file in the job directory. Files that cannot
// be parsed are logged and skipped so one bad file does not block the rest.
func (s *DirJobStore) LoadJobs() ([]domain.MessageJob, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	jobs := make([]domain.MessageJob, 0, len(paths))
	for _, path := range paths {
		job, err := readJob(path)
		if err != nil {
			s.log.WithError(err).WithField("path", path).Error("skipping unreadable message job")
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func readJob(path string) (domain.MessageJob, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.MessageJob{}, err
	}
	var job domain.MessageJob
	if err := json.Unmarshal(b, &job); err != nil {
		return domain.MessageJob{}, err
	}
	if err := job.Validate(); err != nil {
		return domain.MessageJob{}, err
	}
	job.Source = path
	return job, nil
}

func (s *DirJobStore) SaveJob(job domain.MessageJob) (domain.MessageJob, error) {
	b, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return job, err
	}
	path := filepath.Join(s.dir, job.ID+".json")
	// The watcher and LoadJobs only look at *.json, so the temp file stays
	// invisible until the rename. Same directory keeps the rename atomic.
	tmp := filepath.Join(s.dir, "."+job.ID+".json.tmp")
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return job, fmt.Errorf("write job: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return job, fmt.Errorf("write job: %w", err)
	}
	job.Source = path
	return job, nil
}

// ArchiveJob moves the job's file into the finished directory. A job whose
// file is already gone is not an error.
func (s *DirJobStore) ArchiveJob(job domain.MessageJob) error {
	src := job.Source
	if src == "" {
		src = filepath.Join(s.dir, job.ID+".json")
	}
	dst := filepath.Join(s.finishedDir, filepath.Base(src))
	err := os.Rename(src, dst)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("archive job %s: %w", job.ID, err)
	}
	return nil
}
