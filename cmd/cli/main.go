package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/runslash/runslash/cmd/cli/commands"
)

func main() {
	// .env is optional outside local development
	_ = godotenv.Load()

	if err := commands.RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
