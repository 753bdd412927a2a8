package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cordey7/minesweeper/internal/game"
	"github.com/cordey7/minesweeper/internal/httpserver"
	"github.com/cordey7/minesweeper/internal/session"
	"github.com/cordey7/minesweeper/internal/textview"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	switch getEnv("VIEW", "web") {
	case "text":
		runText()
	default:
		runWeb()
	}
}

// runText plays one console game on stdin/stdout.
func runText() {
	cfg, err := game.Preset(getEnv("DIFFICULTY", "easy"))
	if err != nil {
		log.Fatal().Err(err).Msg("unknown difficulty")
	}
	sess, err := session.New("console", cfg, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start game")
	}
	view := textview.New(cfg, os.Stdout)
	if err := view.Run(os.Stdin, sess); err != nil {
		log.Fatal().Err(err).Msg("console game exited")
	}
}

// runWeb serves the HTTP adapter backing the clickable-grid client.
func runWeb() {
	db, err := openDB(getEnv("MINESWEEPER_DB", "./data/app.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	srv := httpserver.New(session.NewManager(), db)
	port := getEnv("PORT", "5175")
	log.Info().Str("port", port).Msg("starting minesweeper server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
