package service

import "errors"

// Domain errors returned by the session and catalog services.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrWorkoutNotFound  = errors.New("workout not found")
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionNotActive = errors.New("session is not active")
)
