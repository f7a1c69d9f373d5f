package logger

import (
	"log/slog"
	"time"
)

// Attribute helpers return an empty Attr for nil or zero input, which slog
// drops, so callers never need to guard them.

func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

func Topic(topic string) slog.Attr {
	if topic == "" {
		return slog.Attr{}
	}
	return slog.String("topic", topic)
}

func Namespace(nsp string) slog.Attr {
	if nsp == "" {
		return slog.Attr{}
	}
	return slog.String("nsp", nsp)
}

func Rooms(rooms []string) slog.Attr {
	if len(rooms) == 0 {
		return slog.Attr{}
	}
	return slog.Any("rooms", rooms)
}

// Size is the encoded packet size in bytes.
func Size(n int) slog.Attr {
	return slog.Int("size", n)
}

func Elapsed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}
