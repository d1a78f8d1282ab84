package model

import "errors"

// ErrSourceUnavailable wraps every failure to reach or read an external data source.
var ErrSourceUnavailable = errors.New("source unavailable")
