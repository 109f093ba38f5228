package crypto

import "errors"

// ErrAuthenticationFailed is returned when an AEAD open fails: wrong key,
// wrong code, or tampered payload. The causes are deliberately not
// distinguishable from each other, so a caller cannot build an oracle that
// separates "wrong code" from "corrupted data".
var ErrAuthenticationFailed = errors.New("authentication failed")
