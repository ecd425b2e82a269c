package pbn

import (
	"image"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

var (
	// ErrInvalidParameter rejects non-positive or out of range k, min area or sizes.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrEmptyInput is returned for zero-pixel grids.
	ErrEmptyInput = errors.New("empty input")
	// ErrInconsistentRegion marks a region whose processing could not complete cleanly.
	// It is never returned directly by a stage; it is attached to that region's output.
	ErrInconsistentRegion = errors.New("inconsistent region")
)

// Anomaly is a recoverable fault isolated to one region.
type Anomaly struct {
	// Region is the index of the affected region in its stage output, -1 when not applicable.
	Region int
	Seed   image.Point
	Err    error
}

func (a Anomaly) Error() string {
	err := a.Err
	if err == nil {
		err = ErrInconsistentRegion
	}
	return errors.Wrapf(err, "region %d at (%d,%d)", a.Region, a.Seed.X, a.Seed.Y).Error()
}

func (a Anomaly) Unwrap() error {
	if a.Err == nil {
		return ErrInconsistentRegion
	}
	return a.Err
}

func combineAnomalies(as []Anomaly) error {
	errs := make([]error, 0, len(as))
	for _, a := range as {
		errs = append(errs, a)
	}
	return multierr.Combine(errs...)
}
