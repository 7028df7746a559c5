package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"wordbearer/domain"
)

// MessageJobs sends scheduled messages and archives them so they are never
// sent twice, including across restarts.
type MessageJobs struct {
	store     JobStore
	sender    Sender
	now       func() time.Time
	newID     func() string
	attachDir string
	log       logrus.FieldLogger

	runMu sync.Mutex
	// unarchived holds jobs that were sent but whose file could not be
	// moved. Guarded by runMu.
	unarchived map[string]domain.MessageJob

	mu   sync.Mutex
	jobs map[string]domain.MessageJob
}

type JobsOption func(*MessageJobs)

// WithJobsClock is useful for tests.
func WithJobsClock(now func() time.Time) JobsOption {
	return func(m *MessageJobs) { m.now = now }
}

func WithJobIDs(newID func() string) JobsOption {
	return func(m *MessageJobs) { m.newID = newID }
}

// WithAttachmentDir confines the files of enqueued jobs to dir. Without it
// enqueued jobs cannot carry files.
func WithAttachmentDir(dir string) JobsOption {
	return func(m *MessageJobs) { m.attachDir = dir }
}

func NewMessageJobs(store JobStore, sender Sender, log logrus.FieldLogger, opts ...JobsOption) (*MessageJobs, error) {
	m := &MessageJobs{
		store:  store,
		sender: sender,
		now:    time.Now,
		newID:  uuid.NewString,
		log:    log,
		jobs:   map[string]domain.MessageJob{},

		unarchived: map[string]domain.MessageJob{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.Reload(); err != nil {
		return nil, err
	}
	return m, nil
}

// Reload replaces the in-memory jobs with what is on disk. It waits for a
// running RunDue so a job being archived is not picked up again.
func (m *MessageJobs) Reload() error {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	jobs, err := m.store.LoadJobs()
	if err != nil {
		return err
	}
	byID := make(map[string]domain.MessageJob, len(jobs))
	for _, job := range jobs {
		if _, sent := m.unarchived[job.ID]; sent {
			continue
		}
		byID[job.ID] = job
	}

	m.mu.Lock()
	m.jobs = byID
	m.mu.Unlock()

	m.log.WithField("jobs", len(byID)).Info("message jobs loaded")
	return nil
}

// Enqueue persists a new job. Jobs without an id get a random one.
func (m *MessageJobs) Enqueue(_ context.Context, job domain.MessageJob) (domain.MessageJob, error) {
	if job.ID == "" {
		job.ID = m.newID()
	}
	if err := job.Validate(); err != nil {
		return job, err
	}
	job, err := job.ConfineFiles(m.attachDir)
	if err != nil {
		return job, err
	}
	if job.Timestamp.IsZero() {
		job.Timestamp = m.now().UTC()
	}

	saved, err := m.store.SaveJob(job)
	if err != nil {
		return job, err
	}

	m.mu.Lock()
	m.jobs[saved.ID] = saved
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{"job": saved.ID, "at": saved.Timestamp}).Info("message job queued")
	return saved, nil
}

// Pending lists unsent jobs by timestamp, then id.
func (m *MessageJobs) Pending() []domain.MessageJob {
	m.mu.Lock()
	out := make([]domain.MessageJob, 0, len(m.jobs))
	for _, job := range m.jobs {
		out = append(out, job)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// RunDue sends every job whose time has come and returns how many were
// delivered. Jobs for unknown or unsuitable channels are archived without
// being sent; any other failure leaves the job for the next run.
func (m *MessageJobs) RunDue(ctx context.Context) int {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	m.retryArchives()

	now := m.now()
	var due []domain.MessageJob
	for _, job := range m.Pending() {
		if job.Due(now) {
			due = append(due, job)
		}
	}

	sent := 0
	for _, job := range due {
		if ctx.Err() != nil {
			break
		}
		log := m.log.WithFields(logrus.Fields{"job": job.ID, "channel": job.ChannelID})
		log.Info("running message job")

		err := m.sender.Send(ctx, job.ChannelID, job.Message())
		switch {
		case err == nil:
			sent++
		case errors.Is(err, domain.ErrNotReady):
			log.Debug("discord not ready, message job left for the next run")
			continue
		case errors.Is(err, domain.ErrChannelNotFound):
			log.Warn("channel for message job not found, archiving without sending")
		case errors.Is(err, domain.ErrInvalidChannel):
			log.WithError(err).Error("message job requested an invalid channel, archiving without sending")
		default:
			log.WithError(err).Error("message job failed, will retry")
			continue
		}
		m.markDone(job, log)
	}
	return sent
}

// markDone drops a handled job. If its file cannot be archived the job is
// remembered so Reload skips it and the archive is retried on the next run.
func (m *MessageJobs) markDone(job domain.MessageJob, log logrus.FieldLogger) {
	if err := m.store.ArchiveJob(job); err != nil {
		log.WithError(err).Error("archiving message job failed, will retry")
		m.unarchived[job.ID] = job
	}
	m.mu.Lock()
	delete(m.jobs, job.ID)
	m.mu.Unlock()
}

func (m *MessageJobs) retryArchives() {
	for id, job := range m.unarchived {
		if err := m.store.ArchiveJob(job); err != nil {
			m.log.WithError(err).WithField("job", id).Warn("archiving message job still failing")
			continue
		}
		delete(m.unarchived, id)
		m.log.WithField("job", id).Info("message job archived")
	}
}
