//nolint:gochecknoglobals // Registered env vars are package globals on purpose.
package env

import (
	"net/url"

	"github.com/trebent/envparser"
)

var (
	ServerURL = envparser.Register(&envparser.Opts[string]{
		Name:  "SERVER_URL",
		Desc:  "Root URL of the messaging platform under test.",
		Value: "http://localhost:8065",
		Validate: func(v string) error {
			_, err := url.Parse(v)
			return err
		},
	})
	AdminUsername = envparser.Register(&envparser.Opts[string]{
		Name:  "ADMIN_USERNAME",
		Desc:  "Username of the system admin account the harness logs in with.",
		Value: "sysadmin",
	})
	AdminPassword = envparser.Register(&envparser.Opts[string]{
		Name:  "ADMIN_PASSWORD",
		Desc:  "Password of the system admin account the harness logs in with.",
		Value: "Sys@dmin-sample1",
	})
	RequestTimeoutSeconds = envparser.Register(&envparser.Opts[int]{
		Name:     "REQUEST_TIMEOUT_SECONDS",
		Desc:     "Per-request timeout for API calls.",
		Value:    4, // nolint: mnd
		Validate: validateGreaterThanZero,
	})
	SessionTTLMinutes = envparser.Register(&envparser.Opts[int]{
		Name:     "SESSION_TTL_MINUTES",
		Desc:     "How long cached session tokens stay valid before a fresh login.",
		Value:    15, // nolint: mnd
		Validate: validateGreaterThanZero,
	})
	LedgerDirectory = envparser.Register(&envparser.Opts[string]{
		Name:  "LEDGER_DIRECTORY",
		Desc:  "Directory holding the fixture ledger database.",
		Value: ".",
		Validate: func(path string) error {
			if len(path) == 0 {
				return nil
			}
			return validateFilePath(path)
		},
	})
)
