package main

import (
	"github.com/rs/zerolog/log"

	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/config"
	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/db"
	clog "github.com/Rodrigod7/Vs-wiki-battle-etec/internal/log"
	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/mail"
	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/server"
	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/ws"
)

func main() {
	cfg := config.Load()
	clog.Init(cfg.Env)

	gdb, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	hub := ws.NewHub()
	mailer := mail.LogMailer{BaseURL: cfg.PublicBaseURL}
	r := server.SetupRouter(cfg, gdb, hub, mailer)

	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server run")
	}
}
