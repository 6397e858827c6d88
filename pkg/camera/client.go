package camera

import "errors"

var ErrUnavailable = errors.New("camera unavailable or denied")

type Frame struct {
	Name string
	MIME string
	Data []byte
}

// Client models the hardware media stream as a scoped resource: Acquire
// returns the captured frame together with a release func that MUST be called
// on every exit path, success or failure.
type Client interface {
	Acquire() (*Frame, func(), error)
}
