// Package sleep reconstructs sleep sessions from raw asleep/in-bed category samples.
package sleep

import "errors"

var (
	// ErrNotEnoughRawData a required category is missing or no episode survived validation
	ErrNotEnoughRawData = errors.New("not enough raw data")
	// ErrMicroSleepNotFound both category clusters are empty after contiguous-run filtering
	ErrMicroSleepNotFound = errors.New("micro sleep not found")
)
