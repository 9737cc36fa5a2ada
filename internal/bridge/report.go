package bridge

import (
	"errors"

	"github.com/vk/graphbridge/internal/bridgeerr"
)

// Report aggregates every error of one rebuild. Members that failed are left
// out of the build; everything else is usable.
type Report struct {
	Files       []string
	Discovery   []*bridgeerr.DiscoveryError
	Validation  []*bridgeerr.ValidationError
	Emission    error
	Descriptors int
	Adapters    int
}

// Err joins every error of the report, or returns nil for a clean build.
func (r *Report) Err() error {
	errs := make([]error, 0, len(r.Discovery)+len(r.Validation)+1)
	for _, e := range r.Discovery {
		errs = append(errs, e)
	}
	for _, e := range r.Validation {
		errs = append(errs, e)
	}
	if r.Emission != nil {
		errs = append(errs, r.Emission)
	}
	return errors.Join(errs...)
}

// OK reports whether the build finished without any error.
func (r *Report) OK() bool {
	return len(r.Discovery) == 0 && len(r.Validation) == 0 && r.Emission == nil
}
