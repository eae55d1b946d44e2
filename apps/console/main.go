package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	consoleweb "github.com/trezcool/mahudhurio/apps/console/echo"
	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/services/backend"
	logsvc "github.com/trezcool/mahudhurio/services/logger"
	"github.com/trezcool/mahudhurio/services/metrics"
	"github.com/trezcool/mahudhurio/storage"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "CONSOLE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	record, closeStorage, err := storage.OpenRecord(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening session storage: %v", err), err)
	}
	defer func() {
		if err = closeStorage(); err != nil {
			logger.Error("closing session storage", err)
		}
	}()

	store := session.NewStore(record, logger)
	mtrcs := metrics.New("mahudhurio_console")
	client := backend.NewClient(conf, store, nil, logger, backend.OnSessionInvalidated(mtrcs.SessionInvalidated))

	translator := core.NewTranslator()
	validate := core.NewValidator(translator)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Console initializing : version %q", conf.Build))
	defer logger.Info("Console stopped")
	if !conf.Console.Loopback() {
		logger.Warn("console address is reachable from other hosts", map[string]interface{}{"address": conf.Console.Address})
	}

	// the previous session is restored before the first page is served
	bootstrapper := session.NewBootstrapper(store, record, logger)
	bootstrapper.Run(ctx)

	server, err := consoleweb.NewServer(
		&consoleweb.Options{
			Address:        conf.Console.Address,
			AppName:        conf.AppName,
			Debug:          conf.Debug,
			DisableReqLogs: conf.Console.DisableReqLogs,
			CookieSecret:   conf.SecretKey,
			SignalShutdown: stop,
		},
		&consoleweb.Deps{
			Store:        store,
			Record:       record,
			Bootstrapper: bootstrapper,
			Client:       client,
			Metrics:      mtrcs,
			Logger:       logger,
			Validate:     validate,
			Translator:   translator,
		},
	)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up server: %v", err), err)
	}

	errs := make(chan error, 1)
	go func() {
		errs <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(fmt.Sprintf("server error: %v", err), err)
		}
	case <-ctx.Done():
		logger.Info("Start shutdown...")

		// give outstanding requests a deadline for completion
		sctx, cancel := context.WithTimeout(context.Background(), conf.Console.ShutdownTimeout)
		defer cancel()
		if err = server.Stop(sctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}
