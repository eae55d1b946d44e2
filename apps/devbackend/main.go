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

	devapi "github.com/trezcool/mahudhurio/apps/devbackend/echo"
	"github.com/trezcool/mahudhurio/core"
	logsvc "github.com/trezcool/mahudhurio/services/logger"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DEV-BACKEND : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	accounts := devapi.NewAccounts()
	resources := devapi.NewResources()
	if !conf.DevBackend.DisableSeed {
		if err := devapi.Seed(accounts, resources, conf.DevBackend.DefaultPassword); err != nil {
			logger.Fatal(fmt.Sprintf("seeding: %v", err), err)
		}
		for _, sa := range devapi.SeedAccounts {
			logger.Info(fmt.Sprintf("seeded %s (%s)", sa.Email, sa.Role))
		}
	}

	server := devapi.NewServer(
		&devapi.Options{
			Address:         conf.DevBackend.Address,
			Debug:           conf.Debug,
			DisableReqLogs:  conf.Console.DisableReqLogs,
			DefaultPageSize: conf.DevBackend.DefaultPageSize,
		},
		&devapi.Deps{
			Accounts:  accounts,
			Resources: resources,
			Tokens:    devapi.NewTokens(conf.SecretKey, conf.AppName, conf.DevBackend.JWTExpirationDelta),
			Logger:    logger,
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() {
		errs <- server.Start()
	}()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(fmt.Sprintf("server error: %v", err), err)
		}
	case <-ctx.Done():
		logger.Info("Start shutdown...")

		// give outstanding requests a deadline for completion
		sctx, cancel := context.WithTimeout(context.Background(), conf.Console.ShutdownTimeout)
		defer cancel()
		if err := server.Stop(sctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}
