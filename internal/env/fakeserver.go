//nolint:gochecknoglobals // Registered env vars are package globals on purpose.
package env

import (
	"github.com/trebent/envparser"
)

var (
	FakeServerPort = envparser.Register(&envparser.Opts[int]{
		Name:     "FAKE_SERVER_PORT",
		Desc:     "Port for the local fake platform server.",
		Value:    8065, // nolint: mnd
		Validate: validatePort,
	})
	FakeServerReadTimeoutSeconds = envparser.Register(&envparser.Opts[int]{
		Name:     "FAKE_SERVER_READ_TIMEOUT_SECONDS",
		Desc:     "Read timeout in seconds for the fake platform server.",
		Value:    5, // nolint: mnd
		Validate: validateGreaterThanZero,
	})
	FakeServerWriteTimeoutSeconds = envparser.Register(&envparser.Opts[int]{
		Name:     "FAKE_SERVER_WRITE_TIMEOUT_SECONDS",
		Desc:     "Write timeout in seconds for the fake platform server.",
		Value:    5, // nolint: mnd
		Validate: validateGreaterThanZero,
	})
)
