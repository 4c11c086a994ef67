package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/pkalnins/earshot/internal/cli"
)

func main() {
	// A missing .env file is fine; the environment may already carry
	// the tokens the config references.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
