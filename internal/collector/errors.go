package collector

import "errors"

// ErrNoData is returned when a source has nothing for the requested ticker.
var ErrNoData = errors.New("no data")
