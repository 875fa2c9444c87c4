package main

import (
	"log"

	"gradermate-backend/internal/bootstrap"
	"gradermate-backend/internal/shared/config"
	"gradermate-backend/internal/shared/server"
)

func main() {
	cfg := config.Load()
	app := bootstrap.Build(cfg)
	defer app.Close()

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s", addr)

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
