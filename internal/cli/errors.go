package cli

import (
	"github.com/matzehuels/productlens/pkg/errors"
)

// manifestError marks a failure to read or analyze the manifest itself, as
// opposed to a degraded analysis.
type manifestError struct {
	err error
}

func (e *manifestError) Error() string {
	return "could not load manifest: " + errors.UserMessage(e.err)
}

func (e *manifestError) Unwrap() error { return e.err }

// loadError wraps structural and file errors as manifest errors. Other
// errors pass through.
func loadError(err error) error {
	switch errors.GetCode(err) {
	case errors.ErrCodeFileNotFound, errors.ErrCodeMalformedManifest,
		errors.ErrCodeReferentialIntegrity, errors.ErrCodeInvalidInput:
		return &manifestError{err: err}
	}
	return err
}
