package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/fekuna/omnipos-checkout-service/config"
	"github.com/fekuna/omnipos-checkout-service/internal/cli"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := cli.NewRootCommand(cfg.Client).Execute(); err != nil {
		os.Exit(1)
	}
}
