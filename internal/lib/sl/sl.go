package sl

import (
	"log/slog"
)

// Err returns a slog attribute for an error value.
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Module tags log records with the component that produced them.
func Module(name string) slog.Attr {
	return slog.Attr{
		Key:   "module",
		Value: slog.StringValue(name),
	}
}

// Secret logs a sensitive value in redacted form, keeping only a short
// prefix so records can still be correlated.
func Secret(key, value string) slog.Attr {
	const keep = 6
	redacted := value
	if len(redacted) > keep {
		redacted = redacted[:keep] + "..."
	}
	return slog.Attr{
		Key:   key,
		Value: slog.StringValue(redacted),
	}
}
