package constants

import "errors"

// Configuration errors.
var (
	ErrNoBaseURLConfigured = errors.New("no API endpoint configured, use 'crmctl config set api <url>', --api or CRM_API")
	ErrUnknownConfigKey    = errors.New("unknown configuration key")
)

// Command errors.
var (
	ErrEmailRequired       = errors.New("email is required")
	ErrPasswordRequired    = errors.New("password is required")
	ErrPasswordMismatch    = errors.New("passwords do not match")
	ErrNothingToUpdate     = errors.New("no fields to update, pass at least one flag")
	ErrInvalidOutputFormat = errors.New("invalid output format")
	ErrInvalidFlagValue    = errors.New("invalid flag value")
	ErrNotLoggedIn         = errors.New("not logged in, run 'crmctl login'")
)
