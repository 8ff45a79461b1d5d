// Package logfields provides shared structured-log field conventions.
package logfields

import (
	"strings"

	"pkt.systems/pslog"
)

// SubsystemKey tags every log entry with the emitting subsystem.
const SubsystemKey = pslog.TrustedString("sys")

// WithSubsystem returns logger tagged with a dot-delimited subsystem path.
// A nil logger yields a noop logger so call sites never nil-check.
func WithSubsystem(logger pslog.Logger, subsystem string) pslog.Logger {
	if logger == nil {
		logger = pslog.NoopLogger()
	}
	subsystem = strings.Trim(subsystem, ". ")
	if subsystem == "" {
		return logger
	}
	return logger.With(SubsystemKey, subsystem)
}
