package resp

import "errors"

// Fields carries structured context for a log line: the input offset, the
// requested kind or Go type and the error.
type Fields map[string]any

// Logger receives the Decoder's diagnostics. Rejections are logged at Debug
// since a malformed frame is the caller's input, not a codec fault. Adapters
// for zap, logrus and slog live under log/.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

// NopLogger discards everything. DecodeOptions falls back to it.
type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}

// rejectFields reports the offset of the failing frame when err carries one.
func rejectFields(pos int, target string, err error) Fields {
	var de *DecodeError
	if errors.As(err, &de) {
		pos = de.Offset
	}
	return Fields{"offset": pos, "target": target, "err": err}
}
