package domain

import "errors"

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrMissingJoinFields = errors.New("tripId, userId and role are required")
	ErrInvalidRole       = errors.New("unknown participant role")
	ErrEmptyMessage      = errors.New("empty message")
	ErrMessageTooLong    = errors.New("message too long")
	ErrNotJoined         = errors.New("connection has not joined a room")
)
