package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekday is an ISO-8601 weekday, Monday=1 through Sunday=7.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

func IsoWeekday(t time.Time) Weekday {
	if wd := t.Weekday(); wd != time.Sunday {
		return Weekday(wd)
	}
	return Sunday
}

func (w Weekday) String() string {
	if w < Monday || w > Sunday {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return time.Weekday(int(w) % 7).String()
}

type LeagueConfig struct {
	StartDate  Timestamp `json:"start_date"`
	EndDate    Timestamp `json:"end_date"`
	LeagueName string    `json:"league_name" validate:"required"`
	ChannelID  ID        `json:"channel_id" validate:"required"`
	PostingDay Weekday   `json:"posting_day" validate:"min=1,max=7"`
}

func (c LeagueConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLeague, err)
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return fmt.Errorf("%w: %s needs start_date and end_date", ErrInvalidLeague, c.LeagueName)
	}
	if c.EndDate.Before(c.StartDate.Time) {
		return fmt.Errorf("%w: %s ends before it starts", ErrInvalidLeague, c.LeagueName)
	}
	return nil
}

// LadderConfig is fixed to one game per week.
func (c LeagueConfig) LadderConfig() LadderConfig {
	return LadderConfig{
		StartDate:      c.StartDate.UTC(),
		EndDate:        c.EndDate.UTC(),
		Period:         PeriodWeekly,
		GamesPerPeriod: 1,
	}
}

func (c LeagueConfig) Active(now time.Time) bool {
	return !now.Before(c.StartDate.Time) && !now.After(c.EndDate.Time)
}

// SanitizeName turns a league name into a file name stem.
func SanitizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}

// Timestamp parses ISO-8601 date-times with or without an offset, and bare
// dates. Values without an offset are taken as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{t.UTC()}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognised date %q", s)
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339))
}

// ID is a Discord snowflake that may be written as a JSON number or string.
type ID uint64

func (id *ID) UnmarshalJSON(b []byte) error {
	v, err := flexUint(b)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(v)
	return nil
}

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

func flexUint(b []byte) (uint64, error) {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	return strconv.ParseUint(s, 10, 64)
}

func flexInt(b []byte) (int64, error) {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	return strconv.ParseInt(s, 10, 64)
}
