package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/services/backend"
	logsvc "github.com/trezcool/mahudhurio/services/logger"
	"github.com/trezcool/mahudhurio/storage"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	ctx := context.Background()
	record, closeStorage, err := storage.OpenRecord(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening session storage: %v", err), err)
	}

	store := session.NewStore(record, logger)
	session.NewBootstrapper(store, record, logger).Run(ctx)

	nav := &navigator{out: os.Stdout}
	translator := core.NewTranslator()
	cli := commandLine{
		out:        os.Stdout,
		store:      store,
		record:     record,
		client:     backend.NewClient(conf, store, nav, logger),
		nav:        nav,
		validate:   core.NewValidator(translator),
		translator: translator,
		logger:     logger,
	}

	code := 0
	if err = cli.run(ctx, os.Args); err != nil {
		if !errors.Is(err, errHelp) {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", errorMessage(err))
		}
		code = 1
	}
	if err = closeStorage(); err != nil {
		logger.Error("closing session storage", err)
	}
	os.Exit(code)
}
