package main

import (
	"log"

	"citeseek/cmd"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env if present; environment variables take precedence.
	if err := godotenv.Load(); err == nil {
		log.Println("loaded configuration from .env")
	}

	cmd.Execute()
}
