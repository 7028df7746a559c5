package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageJob is a message scheduled for delivery to a channel.
type MessageJob struct {
	ID        string    `json:"id" validate:"required"`
	Timestamp time.Time `json:"-"`
	ChannelID ID        `json:"channel_id" validate:"required"`
	Content   string    `json:"content" validate:"required_without=Files"`
	Files     []string  `json:"files,omitempty"`

	// Source is the file the job was loaded from, if any.
	Source string `json:"-"`
}

type messageJobJSON struct {
	ID        string          `json:"id"`
	Timestamp json.RawMessage `json:"timestamp"`
	ChannelID ID              `json:"channel_id"`
	Content   string          `json:"content"`
	Files     []string        `json:"files,omitempty"`
}

// UnmarshalJSON accepts the timestamp as unix seconds, either a number or a
// numeric string.
func (j *MessageJob) UnmarshalJSON(b []byte) error {
	var raw messageJobJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw.Timestamp) == 0 {
		return fmt.Errorf("%w: %s has no timestamp", ErrInvalidJob, raw.ID)
	}
	ts, err := flexInt(raw.Timestamp)
	if err != nil {
		return fmt.Errorf("%w: timestamp: %v", ErrInvalidJob, err)
	}
	*j = MessageJob{
		ID:        raw.ID,
		Timestamp: time.Unix(ts, 0).UTC(),
		ChannelID: raw.ChannelID,
		Content:   raw.Content,
		Files:     raw.Files,
	}
	return nil
}

func (j MessageJob) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        string   `json:"id"`
		Timestamp int64    `json:"timestamp"`
		ChannelID ID       `json:"channel_id"`
		Content   string   `json:"content"`
		Files     []string `json:"files,omitempty"`
	}{j.ID, j.Timestamp.Unix(), j.ChannelID, j.Content, j.Files})
}

func (j MessageJob) Due(now time.Time) bool {
	return !j.Timestamp.After(now)
}

// Message builds the outgoing message. Jobs may mention users and roles but
// never @everyone.
func (j MessageJob) Message() OutgoingMessage {
	return OutgoingMessage{
		Content:      j.Content,
		Files:        j.Files,
		MentionUsers: true,
		MentionRoles: true,
	}
}

type OutgoingMessage struct {
	Content      string
	Files        []string
	MentionUsers bool
	MentionRoles bool
}
