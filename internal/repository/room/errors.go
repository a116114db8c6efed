package room

import "errors"

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrNameTaken    = errors.New("room name already taken")
	ErrRoomFull     = errors.New("room is full")
	// ErrNotMatched is the collapsed "precondition failed" signal of a
	// conditional update (host mismatch, redundant privacy toggle, room not
	// private). The caller knows which precondition it issued.
	ErrNotMatched = errors.New("conditional update did not match")
)
