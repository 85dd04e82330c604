package session

import "errors"

var (
	// ErrPermissionDenied indicates microphone access was refused
	ErrPermissionDenied = errors.New("microphone permission denied")

	// ErrCredentialFetchFailed indicates no session credential could be obtained
	ErrCredentialFetchFailed = errors.New("session credential fetch failed")

	// ErrTransport indicates the realtime connection failed or dropped
	ErrTransport = errors.New("realtime transport error")

	// ErrAlreadyStarted indicates a session is connecting or connected
	ErrAlreadyStarted = errors.New("session already started")

	// ErrNotStarted indicates End was called before the session connected
	ErrNotStarted = errors.New("session not started")

	// ErrSessionClosed indicates the session instance has ended
	ErrSessionClosed = errors.New("session closed")

	// ErrAssetsLoading indicates the avatar preload has not finished
	ErrAssetsLoading = errors.New("avatar assets still loading")
)
