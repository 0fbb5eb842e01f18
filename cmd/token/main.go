// Command token issues a bearer token for local testing, signed with
// JWT_SECRET and valid for JWT_TOKEN_TTL.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/shelfnotes/bookreview/internal/auth"
	"github.com/shelfnotes/bookreview/internal/config"
)

func main() {
	userID := flag.String("user", "", "user id to place in the token")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "usage: token -user <id>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	token, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTokenTTL).GenerateToken(*userID)
	if err != nil {
		slog.Error("failed to sign token", slog.String("error", err.Error()))
		os.Exit(1)
	}
	fmt.Println(token)
}
