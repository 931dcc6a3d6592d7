package sm2

import "errors"

// Sentinel errors for the sm2 package.
// Use errors.Is to check: errors.Is(err, sm2.ErrInvalidInput)
var (
	ErrInvalidInput  = errors.New("sm2: invalid input")
	ErrInvalidConfig = errors.New("sm2: invalid config")
)
