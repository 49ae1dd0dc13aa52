package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Filter decides whether a log entry should be dropped.
type Filter func(entry zapcore.Entry, fields []zapcore.Field) bool

// WithFilter returns a child logger whose entries are discarded when drop
// reports true. The parent logger is left untouched.
func WithFilter(l *zap.Logger, drop Filter) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	if drop == nil {
		return l
	}
	return l.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &filterCore{Core: core, drop: drop}
	}))
}

// MatchAny drops entries whose message, or any string/error field, contains
// one of the given fragments.
func MatchAny(fragments ...string) Filter {
	return func(entry zapcore.Entry, fields []zapcore.Field) bool {
		if containsAny(entry.Message, fragments) {
			return true
		}
		for _, f := range fields {
			switch f.Type {
			case zapcore.StringType:
				if containsAny(f.String, fragments) {
					return true
				}
			case zapcore.ErrorType:
				if err, ok := f.Interface.(error); ok && err != nil && containsAny(err.Error(), fragments) {
					return true
				}
			}
		}
		return false
	}
}

// AllOf drops an entry only when every filter would drop it.
func AllOf(filters ...Filter) Filter {
	return func(entry zapcore.Entry, fields []zapcore.Field) bool {
		if len(filters) == 0 {
			return false
		}
		for _, f := range filters {
			if !f(entry, fields) {
				return false
			}
		}
		return true
	}
}

type filterCore struct {
	zapcore.Core
	drop Filter
}

func (c *filterCore) With(fields []zapcore.Field) zapcore.Core {
	return &filterCore{Core: c.Core.With(fields), drop: c.drop}
}

func (c *filterCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *filterCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if c.drop(entry, fields) {
		return nil
	}
	return c.Core.Write(entry, fields)
}

func containsAny(s string, fragments []string) bool {
	for _, frag := range fragments {
		if frag != "" && strings.Contains(s, frag) {
			return true
		}
	}
	return false
}
