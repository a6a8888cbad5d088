package services

import "errors"

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrPersistence      = errors.New("persistence failure")
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrRoutinesExist    = errors.New("routines already exist")
)
