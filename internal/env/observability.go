//nolint:gochecknoglobals // Registered env vars are package globals on purpose.
package env

import (
	"github.com/trebent/envparser"
)

var (
	LogToConsole = envparser.Register(&envparser.Opts[bool]{
		Name: "LOG_TO_CONSOLE",
		Desc: "Set to log to console.",
	})
	LogVerbosity = envparser.Register(&envparser.Opts[int]{
		Name:     "LOG_VERBOSITY",
		Desc:     "Set the log verbosity.",
		Validate: validateGreaterThanOrEqualToZero,
	})
	ObsEnabled = envparser.Register(&envparser.Opts[bool]{
		Name: "OBS_ENABLED",
		Desc: "Set to bootstrap the OpenTelemetry pipeline for harness runs.",
	})
)
