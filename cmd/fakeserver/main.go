// fakeserver runs the in-process platform stand-in as a real HTTP
// server, for suite runs against localhost without a full deployment.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trebent/envparser"
	"github.com/trebent/zerologr"
	semconv "go.opentelemetry.io/otel/semconv/v1.30.0"

	internalenv "github.com/l0r3zz/mattermost-webapp/internal/env"
	"github.com/l0r3zz/mattermost-webapp/internal/fakeserver"
	internalotel "github.com/l0r3zz/mattermost-webapp/internal/otel"
	"github.com/l0r3zz/mattermost-webapp/internal/version"
)

const serviceName = "fakeserver"

func main() {
	flag.CommandLine.SetOutput(os.Stdout)
	flag.Usage = func() { //nolint:reassign
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n", os.Args[0])
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
	startLogger.Info("Starting the fake platform server", "port", internalenv.FakeServerPort.Value())

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

	// nolint: govet
	if err := startServer(signalCtx); !errors.Is(err, http.ErrServerClosed) {
		startLogger.Error(err, "Fake platform server failed")
		os.Exit(1)
	}
	startLogger.Info("Fake platform server stopped")
}

// startServer starts the HTTP server and listens for incoming requests.
// If the server is stopped, it returns http.ErrServerClosed.
func startServer(ctx context.Context) error {
	srv := fakeserver.New(&fakeserver.Opts{
		SessionTTL: time.Duration(internalenv.SessionTTLMinutes.Value()) * time.Minute,
	})

	server := http.Server{
		Addr:         fmt.Sprintf(":%d", internalenv.FakeServerPort.Value()),
		ReadTimeout:  time.Duration(internalenv.FakeServerReadTimeoutSeconds.Value()) * time.Second,
		WriteTimeout: time.Duration(internalenv.FakeServerWriteTimeoutSeconds.Value()) * time.Second,
		Handler:      srv.Handler(),
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second) // nolint: mnd
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return <-errChan
	}
}
