package modem

import "errors"

// ErrConfig marks construction-time configuration failures: invalid
// constellation tables, symmetry orders that differential encoding cannot
// work with, non-positive interpolation factors, roll-off outside (0,1].
// It is fatal; nothing in the chain retries or recovers from it.
//
// End of stream is io.EOF throughout and is a normal terminal condition,
// not a failure.
var ErrConfig = errors.New("invalid modulator configuration")
