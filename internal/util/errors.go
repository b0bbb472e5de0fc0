package util

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserExists          = errors.New("username or email already exists")
	ErrInvalidLevel        = errors.New("invalid level")
	ErrInvalidRole         = errors.New("invalid role")
	ErrQuizMismatch        = errors.New("number of questions does not match number of answers")
	ErrMissionNotFound     = errors.New("mission not found")
	ErrMissionNotCompleted = errors.New("mission not completed")
	ErrEmptyMessage        = errors.New("message is required")
)

var (
	ErrInvalidQuiz   = errors.New("invalid quiz data")
	ErrMissingFields = errors.New("username, email and password are required")
)
