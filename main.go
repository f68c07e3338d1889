package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"split-pay/cmd"
)

func main() {
	// A .env file is optional; env vars and the config file also work
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
