package camera

import "errors"

// ErrInvalidFieldValue is returned when a recognised field is supplied
// with a value that cannot be coerced to its declared type. The update
// carrying the value is aborted in full.
var ErrInvalidFieldValue = errors.New("invalid camera field value")
