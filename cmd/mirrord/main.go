package main

import (
	"log"

	"github.com/oneinstack/mirror/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ mirrord failed to start: %v", err)
	}
}
