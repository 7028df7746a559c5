package domain

import "errors"

var (
	ErrUnknownLeague     = errors.New("unknown league")
	ErrChannelNotFound   = errors.New("channel not found")
	ErrInvalidChannel    = errors.New("channel is not a text channel or thread")
	ErrNotReady          = errors.New("discord session is not ready")
	ErrInvalidResult     = errors.New("invalid match result")
	ErrInvalidJob        = errors.New("invalid message job")
	ErrInvalidLeague     = errors.New("invalid league config")
	ErrUnsupportedPeriod = errors.New("unsupported ladder period")
)
