package campaign

import "errors"

// Common errors returned by the campaign service.
var (
	ErrNoDataset       = errors.New("no dataset uploaded")
	ErrEmptyPrompt     = errors.New("campaign goal is empty")
	ErrInvalidTone     = errors.New("invalid campaign tone")
	ErrRunInProgress   = errors.New("a generation run is already in progress")
	ErrRunNotFound     = errors.New("generation run not found")
	ErrRunNotFinished  = errors.New("generation run has not finished")
	ErrMessageNotFound = errors.New("message not found for row")
	ErrEmptyContent    = errors.New("message content cannot be empty")
)
