package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

var loaded bool

// Config returns the value for key from .env, falling back to the process
// environment when no .env file is present.
func Config(key string) string {
	if !loaded {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("Warning: .env file not found, reading from system environment variables")
		}
		loaded = true
	}

	return os.Getenv(key)
}
