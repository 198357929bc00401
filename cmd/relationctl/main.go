package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"relation-chatter/internal/cli"
)

func main() {
	// a missing .env is normal for an offline tool
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: .env: %v", err)
	}
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
