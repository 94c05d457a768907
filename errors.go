package player

import "errors"

// Sentinel errors for the open-time checks that have no further context
// worth attaching, in the spirit of avebi's ErrNoVideo/ErrTooManyChannels.
var (
	ErrNoVideoStream = errors.New("player: no video stream selected")
	ErrNoAudioStream = errors.New("player: no audio stream selected")
)

// OpenError wraps a failure encountered while opening a media URL:
// allocating the demuxer, probing the container, or opening a decoder.
type OpenError struct {
	Op  string
	URL string
	Err error
}

func (e *OpenError) Error() string {
	return "player: open " + e.Op + " " + e.URL + ": " + e.Err.Error()
}

func (e *OpenError) Unwrap() error { return e.Err }

// ReadFailure wraps a non-EAGAIN, non-EOF demuxer read failure.
type ReadFailure struct {
	Op  string
	Err error
}

func (e *ReadFailure) Error() string { return "player: read " + e.Op + ": " + e.Err.Error() }

func (e *ReadFailure) Unwrap() error { return e.Err }

// DecodeError wraps a decoder failure for a given kind.
type DecodeError struct {
	Kind MediaKind
	Err  error
}

func (e *DecodeError) Error() string { return "player: decode " + e.Kind.String() + ": " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

// SinkError wraps a failure raised by a VideoSink or AudioSink.
type SinkError struct {
	Kind MediaKind
	Op   string
	Err  error
}

func (e *SinkError) Error() string {
	return "player: sink " + e.Kind.String() + " " + e.Op + ": " + e.Err.Error()
}

func (e *SinkError) Unwrap() error { return e.Err }

// AbortedError marks an operation that stopped because the player was
// told to abort (Stop, Close, or a superseding Open) rather than because
// it failed.
type AbortedError struct {
	Op string
}

func (e *AbortedError) Error() string { return "player: " + e.Op + " aborted" }

// IsOpen reports whether err is (or wraps) an *OpenError.
func IsOpen(err error) bool {
	var e *OpenError
	return errors.As(err, &e)
}

// IsDecode reports whether err is (or wraps) a *DecodeError.
func IsDecode(err error) bool {
	var e *DecodeError
	return errors.As(err, &e)
}

// IsAborted reports whether err is (or wraps) an *AbortedError.
func IsAborted(err error) bool {
	var e *AbortedError
	return errors.As(err, &e)
}
