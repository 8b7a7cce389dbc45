package app

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrEmptyQuestion     = errors.New("question is empty")
	ErrGenerationFailed  = errors.New("answer generation failed")
	ErrInvalidCredential = errors.New("invalid username or password")
)
