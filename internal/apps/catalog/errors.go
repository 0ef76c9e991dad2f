package catalog

import "errors"

var ErrSmartphoneNotFound = errors.New("smartphone not found")

// ValidationError reports a rejected request parameter or payload field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}
