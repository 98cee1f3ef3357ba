package main

import (
	"log"
	"os"

	"github.com/trezcool/olympia/core"
	"github.com/trezcool/olympia/services/api"
	logsvc "github.com/trezcool/olympia/services/logger"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stderr, "CLI : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()
	client := api.NewClient(conf, logsvc.NewRollbarLogger(logger, conf))

	// start CLI
	cli := newCommandLine(client, os.Stdin, os.Stdout)
	if err := cli.run(os.Args[1:]); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
