package services

import "github.com/pkg/errors"

var (
	ErrNotConnected        = errors.New("strava not connected")
	ErrDuplicateAccount    = errors.New("account already exists")
	ErrMissingEmail        = errors.New("identity provider did not disclose an email")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStravaAlreadyLinked = errors.New("strava athlete is linked to another account")
	ErrForbidden           = errors.New("forbidden")
	ErrGroupNotFound       = errors.New("group not found")
	ErrActivityNotFound    = errors.New("activity not found")
	ErrAlreadyMember       = errors.New("already a member of this group")
	ErrNotMember           = errors.New("not a member of this group")
	ErrInvalidInput        = errors.New("invalid input")
)
