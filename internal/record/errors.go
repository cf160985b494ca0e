package record

import "errors"

var (
	// ErrAborted is returned once a write to the demo sink has failed.
	ErrAborted = errors.New("record: recording aborted")

	// ErrNotRecording is returned after Stop.
	ErrNotRecording = errors.New("record: not recording")
)
