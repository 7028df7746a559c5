package usecase

import (
	"context"

	"wordbearer/domain"
)

// ResultStore keeps the reported results of every league.
type ResultStore interface {
	AppendResult(ctx context.Context, league string, r domain.MatchResult) error
	Results(ctx context.Context, league string) ([]domain.MatchResult, error)
}

// PostRecord remembers which ISO weeks already had standings posted.
type PostRecord interface {
	Posted(league string, week int) (bool, error)
	MarkPosted(league string, week int) error
}

// Sender delivers a message to a channel. It returns domain.ErrChannelNotFound
// or domain.ErrInvalidChannel when the channel cannot take the message.
type Sender interface {
	Send(ctx context.Context, channelID domain.ID, msg domain.OutgoingMessage) error
}

// JobStore persists message jobs that have not been sent yet.
type JobStore interface {
	LoadJobs() ([]domain.MessageJob, error)
	SaveJob(job domain.MessageJob) (domain.MessageJob, error)
	ArchiveJob(job domain.MessageJob) error
}
