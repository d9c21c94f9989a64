package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/vast-data/go-invoke/cmd/invokectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
