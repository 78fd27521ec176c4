// e2ectl provisions and cleans up fixture accounts on a messaging
// platform ahead of e2e suite runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/trebent/envparser"
	"github.com/trebent/zerologr"
	semconv "go.opentelemetry.io/otel/semconv/v1.30.0"

	"github.com/l0r3zz/mattermost-webapp/client"
	"github.com/l0r3zz/mattermost-webapp/e2e"
	"github.com/l0r3zz/mattermost-webapp/internal/db/sqlite"
	internalenv "github.com/l0r3zz/mattermost-webapp/internal/env"
	"github.com/l0r3zz/mattermost-webapp/internal/ledger"
	internalotel "github.com/l0r3zz/mattermost-webapp/internal/otel"
	"github.com/l0r3zz/mattermost-webapp/internal/specfile"
	"github.com/l0r3zz/mattermost-webapp/internal/version"
	"github.com/l0r3zz/mattermost-webapp/model"
)

const serviceName = "e2ectl"

// nolint: gochecknoglobals
var specFilePath string

func main() {
	flag.CommandLine.SetOutput(os.Stdout)
	flag.StringVar(&specFilePath, "f", "./fixtures.json", "Fixture spec file for the provision command.")
	flag.Usage = func() { //nolint:reassign
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(flag.CommandLine.Output(), "  %s [flags] provision|reset|revoke <user-id>\n\n", os.Args[0])
		flag.CommandLine.PrintDefaults()
		fmt.Fprint(flag.CommandLine.Output(), "\n")
		fmt.Fprint(flag.CommandLine.Output(), envparser.Help())
	}

	flag.Parse()
	_ = internalenv.Parse()

	zerologr.Set(zerologr.New(&zerologr.Opts{
		Console: internalenv.LogToConsole.Value(),
		Caller:  true,
		V:       internalenv.LogVerbosity.Value(),
	}).
		WithValues(string(semconv.ServiceNameKey), serviceName, string(semconv.ServiceVersionKey), version.Version()).
		WithName(serviceName),
	)

	startLogger := zerologr.WithName("start")

	signalCtx, signalCancel := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCancel()

	if internalenv.ObsEnabled.Value() {
		cleanup, err := internalotel.Instrument(signalCtx)
		if err != nil {
			startLogger.Error(err, "Failed to instrument OpenTelemetry")
			os.Exit(1)
		}
		defer cleanup(context.Background()) // nolint: errcheck
	}

	if err := run(signalCtx, flag.Args()); err != nil {
		startLogger.Error(err, "Command failed")
		os.Exit(1) // nolint: gocritic
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		flag.Usage()
		return fmt.Errorf("missing command")
	}

	apiClient := client.New(&client.Opts{
		ServerURL: internalenv.ServerURL.Value(),
		Timeout:   time.Duration(internalenv.RequestTimeoutSeconds.Value()) * time.Second,
	})

	fixtureLedger, err := ledger.New(ctx, &ledger.Opts{
		DB: sqlite.New(&sqlite.Opts{
			DSN: filepath.Join(internalenv.LedgerDirectory.Value(), sqlite.DBName),
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to open the fixture ledger: %w", err)
	}
	defer fixtureLedger.Close() // nolint: errcheck

	commands := e2e.New(&e2e.Opts{
		Client:        apiClient,
		AdminUsername: internalenv.AdminUsername.Value(),
		AdminPassword: internalenv.AdminPassword.Value(),
		SessionTTL:    time.Duration(internalenv.SessionTTLMinutes.Value()) * time.Minute,
		Ledger:        fixtureLedger,
	})
	defer commands.Close()

	if _, err := commands.AdminLogin(ctx); err != nil {
		return fmt.Errorf("admin login failed: %w", err)
	}

	switch args[0] {
	case "provision":
		return provision(ctx, commands)
	case "reset":
		return commands.Cleanup(ctx)
	case "revoke":
		if len(args) < 2 {
			return fmt.Errorf("revoke needs a user ID")
		}
		_, err := commands.RevokeUserSessions(ctx, args[1])
		return err
	default:
		flag.Usage()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func provision(ctx context.Context, commands *e2e.Commands) error {
	spec, err := specfile.Load(specFilePath)
	if err != nil {
		return err
	}

	zerologr.Info(
		"Provisioning fixtures",
		"teams", len(spec.Teams), "user_specs", len(spec.Users),
	)

	teams := map[string]string{}
	for _, teamSpec := range spec.Teams {
		team, err := commands.CreateTeam(ctx, teamSpec.Prefix)
		if err != nil {
			return fmt.Errorf("failed to create team %s: %w", teamSpec.Prefix, err)
		}
		teams[teamSpec.Prefix] = team.ID
		zerologr.Info("Created team", "name", team.Name)
	}

	for _, userSpec := range spec.Users {
		for range userSpec.Count {
			user, err := createFromSpec(ctx, commands, &userSpec)
			if err != nil {
				return err
			}

			for _, teamPrefix := range userSpec.Teams {
				teamID, ok := teams[teamPrefix]
				if !ok {
					return fmt.Errorf("user spec %s references unknown team %s", userSpec.Prefix, teamPrefix)
				}
				if _, err := commands.AddTeamMember(ctx, teamID, user.ID); err != nil {
					return fmt.Errorf("failed to join %s to team %s: %w", user.Username, teamPrefix, err)
				}
			}

			zerologr.Info("Created user", "username", user.Username, "admin", userSpec.Admin)
		}
	}

	return nil
}

func createFromSpec(
	ctx context.Context,
	commands *e2e.Commands,
	userSpec *specfile.UserSpec,
) (*model.UserProfile, error) {
	if userSpec.Admin {
		return commands.CreateAdmin(ctx, &e2e.CreateAdminOpts{
			Prefix:   userSpec.Prefix,
			Password: userSpec.Password,
		})
	}
	return commands.CreateUser(ctx, &e2e.CreateUserOpts{
		Prefix:   userSpec.Prefix,
		Password: userSpec.Password,
	})
}
