package sl

import (
	"log/slog"
)

// Err creates a slog.Attr with the given error. A nil error is logged as an empty value.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{Key: "error", Value: slog.StringValue("")}
	}

	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Op creates a slog.Attr naming the operation that produced a log record.
func Op(name string) slog.Attr {
	return slog.String("op", name)
}
