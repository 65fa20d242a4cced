package cerr

import "log/slog"

type Code int

const (
	OK                 = Code(0)
	Canceled           = Code(1)
	Unknown            = Code(2)
	InvalidArgument    = Code(3)
	NotFound           = Code(5)
	FailedPrecondition = Code(9)
	Internal           = Code(13)
	Unavailable        = Code(14)
	DataLoss           = Code(15)
)

var codeNames = map[Code]string{
	OK:                 "ok",
	Canceled:           "canceled",
	Unknown:            "unknown",
	InvalidArgument:    "invalid_argument",
	NotFound:           "not_found",
	FailedPrecondition: "failed_precondition",
	Internal:           "internal",
	Unavailable:        "unavailable",
	DataLoss:           "data_loss",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "unknown"
}

// LogLevel is the level an error with this code is logged at.
func (c Code) LogLevel() slog.Level {
	switch c {
	case OK, Canceled, NotFound:
		return slog.LevelInfo
	case InvalidArgument, FailedPrecondition:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// ExitCode maps a code to a process exit status. NotFound is a reported but
// recoverable condition and exits cleanly.
func (c Code) ExitCode() int {
	switch c {
	case OK, NotFound:
		return 0
	case InvalidArgument:
		return 2
	case Canceled:
		return 130
	default:
		return 1
	}
}
