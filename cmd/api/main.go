package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/urbanloom/loyalty-backend/internal/config"
	"github.com/urbanloom/loyalty-backend/internal/db"
	"github.com/urbanloom/loyalty-backend/internal/model"
	"github.com/urbanloom/loyalty-backend/internal/server"
)

// Set via -ldflags at build time.
var (
	gitSHA    = "dev"
	buildTime = "unknown"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Printf("config load error: %v (starting without database)", err)
		cfg = config.Default()
	}

	srv := server.New(nil, cfg, gitSHA, buildTime)
	addr := ":" + cfg.Port

	errCh := make(chan error, 1)

	go func() {
		log.Printf("starting server on %s", addr)
		errCh <- srv.Start(addr)
	}()

	go func() {
		if cfg.DBHost == "" {
			return
		}
		conn, err := db.Connect(cfg)
		if err != nil {
			log.Printf("db connect error: %v", err)
			return
		}
		if err := conn.AutoMigrate(&model.LoyaltyTransaction{}, &model.LoyaltyProfile{}, &model.Redemption{}); err != nil {
			log.Printf("auto migrate error: %v", err)
		}
		srv.SetDB(conn)
	}()

	if err := <-errCh; err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
