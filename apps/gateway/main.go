package main

import (
	"context"
	"fmt"
	"log"
	"os"

	echogw "github.com/trezcool/olympia/apps/gateway/echo"
	"github.com/trezcool/olympia/core"
	"github.com/trezcool/olympia/services/api"
	logsvc "github.com/trezcool/olympia/services/logger"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "GATEWAY : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	clientLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "CLIENT : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// cookies belong to the gateway's callers: they are relayed, never kept
	client := api.NewClient(conf, clientLogger, api.WithCredentials(core.CredentialsOmit))

	// =========================================================================
	// Start Gateway

	logger.Info(fmt.Sprintf("Gateway initializing : version %q, backend %q", conf.Build, conf.Client.BaseURL))
	defer logger.Info("Gateway stopped")

	server := echogw.NewServer(
		echogw.ServerDeps{
			Conf:   conf,
			Logger: logger,
			Client: client,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Gateway.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
