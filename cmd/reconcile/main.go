package main

import (
	"github.com/joho/godotenv"

	"github.com/cobmax/reconcile/cmd/reconcile/cmd"
)

func main() {
	// Credentials come from the environment; a local .env is optional.
	_ = godotenv.Load()

	cmd.Execute()
}
