package hermetic

import "go.trai.ch/zerr"

var (
	// ErrUnhandledSource is returned when a custom target input is not a plain file reference.
	ErrUnhandledSource = zerr.New("custom target input type not handled")
)
