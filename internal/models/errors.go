package models

import "errors"

var ErrValidation = errors.New("validation failed")
var ErrUnauthorized = errors.New("not authorized")
var ErrNotFound = errors.New("not found")
var ErrSourceUnavailable = errors.New("source unavailable")
