package main

import (
	"log"

	"github.com/nhle/winterbreak/internal/commands"
)

func main() {
	if err := commands.New().Execute(); err != nil {
		log.Fatalf("winterbreak: %v", err)
	}
}
