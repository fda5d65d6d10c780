package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/Junhyukkkk/anondocs-server/internal/server"
	"github.com/Junhyukkkk/anondocs-server/internal/server/config"
)

func main() {

	// optional local overrides; absence is not an error
	_ = godotenv.Load()

	cfg := config.LoadConfig()

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	if err := app.Run(context.Background()); err != nil {
		log.Printf("%v", err)
	}
}
