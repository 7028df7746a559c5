package usecase

import (
	"context"
	"sync"

	"wordbearer/domain"
)

type memResults struct {
	mu      sync.Mutex
	byName  map[string][]domain.MatchResult
	readErr error
}

func newMemResults() *memResults {
	return &memResults{byName: map[string][]domain.MatchResult{}}
}

func (s *memResults) AppendResult(_ context.Context, league string, r domain.MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byName[league] = append(s.byName[league], r)
	return nil
}

func (s *memResults) Results(_ context.Context, league string) ([]domain.MatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	return append([]domain.MatchResult(nil), s.byName[league]...), nil
}

type memRecord struct {
	mu    sync.Mutex
	weeks map[string][]int
}

func newMemRecord() *memRecord {
	return &memRecord{weeks: map[string][]int{}}
}

func (r *memRecord) Posted(league string, week int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.weeks[league] {
		if w == week {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRecord) MarkPosted(league string, week int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.weeks[league] = append(r.weeks[league], week)
	return nil
}

type sentMessage struct {
	channel domain.ID
	msg     domain.OutgoingMessage
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	errs map[domain.ID]error
}

func newFakeSender() *fakeSender {
	return &fakeSender{errs: map[domain.ID]error{}}
}

func (s *fakeSender) Send(_ context.Context, channel domain.ID, msg domain.OutgoingMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errs[channel]; err != nil {
		return err
	}
	s.sent = append(s.sent, sentMessage{channel: channel, msg: msg})
	return nil
}

func (s *fakeSender) messages() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMessage(nil), s.sent...)
}

type memJobStore struct {
	mu         sync.Mutex
	jobs       map[string]domain.MessageJob
	archived   []string
	archiveErr error
}

func newMemJobStore(jobs ...domain.MessageJob) *memJobStore {
	s := &memJobStore{jobs: map[string]domain.MessageJob{}}
	for _, j := range jobs {
		s.jobs[j.ID] = j
	}
	return s
}

func (s *memJobStore) LoadJobs() ([]domain.MessageJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.MessageJob, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	return out, nil
}

func (s *memJobStore) SaveJob(job domain.MessageJob) (domain.MessageJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job.Source = "mem://" + job.ID
	s.jobs[job.ID] = job
	return job, nil
}

func (s *memJobStore) failArchives(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.archiveErr = err
}

func (s *memJobStore) ArchiveJob(job domain.MessageJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.archiveErr != nil {
		return s.archiveErr
	}
	delete(s.jobs, job.ID)
	s.archived = append(s.archived, job.ID)
	return nil
}
