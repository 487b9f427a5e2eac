package logging

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/journal"
)

// Identifier tags journal entries (journalctl -t ffwrap).
const Identifier = "ffwrap"

// maxFieldSize bounds a single journal field. ffmpeg output attached to a
// failure can run to megabytes; the tail is what explains the failure.
const maxFieldSize = 8 << 10

// journalFields renames attribute keys that have a journal meaning, so
// `journalctl FFMPEG_PID=123` finds the lines of one encode.
var journalFields = map[string]string{
	"module": "FFWRAP_MODULE",
	"pid":    "FFMPEG_PID",
}

// JournalHandler is a slog.Handler that sends records to the systemd journal.
// Attributes become uppercase journal fields; groups are joined with "_".
type JournalHandler struct {
	level  slog.Leveler
	fields map[string]string
	prefix string
}

// NewJournalHandler creates a journal handler. The level is read on every
// record, so a *slog.LevelVar can change it at runtime.
func NewJournalHandler(level slog.Leveler) *JournalHandler {
	return &JournalHandler{
		level:  level,
		fields: map[string]string{"SYSLOG_IDENTIFIER": Identifier},
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *JournalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle sends the record to the journal.
func (h *JournalHandler) Handle(_ context.Context, r slog.Record) error {
	priority := priorityOf(r.Level)

	fields := maps.Clone(h.fields)
	fields["PRIORITY"] = strconv.Itoa(int(priority))
	r.Attrs(func(attr slog.Attr) bool {
		addField(fields, h.prefix, attr)
		return true
	})

	if err := journal.Send(r.Message, priority, fields); err != nil {
		return fmt.Errorf("send to journal: %w", err)
	}
	return nil
}

// WithAttrs resolves attrs into fields once instead of on every record.
func (h *JournalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	fields := maps.Clone(h.fields)
	for _, attr := range attrs {
		addField(fields, h.prefix, attr)
	}
	return &JournalHandler{level: h.level, fields: fields, prefix: h.prefix}
}

// WithGroup returns a handler that prefixes later attribute keys with name.
func (h *JournalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &JournalHandler{level: h.level, fields: h.fields, prefix: h.prefix + name + "_"}
}

func priorityOf(level slog.Level) journal.Priority {
	switch {
	case level >= slog.LevelError:
		return journal.PriErr
	case level >= slog.LevelWarn:
		return journal.PriWarning
	case level >= slog.LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

// addField stores attr under its journal key. Group values are flattened.
func addField(fields map[string]string, prefix string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}

	if attr.Value.Kind() == slog.KindGroup {
		next := prefix
		if attr.Key != "" {
			next += attr.Key + "_"
		}
		for _, a := range attr.Value.Group() {
			addField(fields, next, a)
		}
		return
	}

	key := fieldKey(prefix, attr.Key)
	fields[key] = truncateField(fieldValue(attr.Value))
}

// fieldKey builds a valid journal field name: uppercase letters, digits and
// underscores, not starting with an underscore.
func fieldKey(prefix, key string) string {
	if prefix == "" {
		if name, ok := journalFields[key]; ok {
			return name
		}
	}
	key = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, prefix+key)
	return strings.TrimLeft(key, "_")
}

func fieldValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	default:
		return v.String()
	}
}

// truncateField keeps the last maxFieldSize bytes of s.
func truncateField(s string) string {
	if len(s) <= maxFieldSize {
		return s
	}
	return "..." + s[len(s)-maxFieldSize:]
}

// IsJournalAvailable checks if systemd journal is available.
func IsJournalAvailable() bool {
	return journal.Enabled()
}
