package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/iota-uz/presence/pkg/commands"
	"github.com/iota-uz/presence/pkg/configuration"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conf := configuration.Use()
	defer conf.Unload()

	if err := commands.NewRootCmd().ExecuteContext(ctx); err != nil {
		conf.Logger().WithError(err).Error("command failed")
		os.Exit(1)
	}
}
