// Command token issues a signed bearer token for a principal, for local use
// against the API and the TUI.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/icpledger/internal/access"
	"github.com/MrJamesThe3rd/icpledger/internal/auth"
	"github.com/MrJamesThe3rd/icpledger/internal/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	principal := flag.String("principal", "", "principal to put in the token subject")
	ttl := flag.Duration("ttl", cfg.Auth.TokenTTL, "token lifetime")
	flag.Parse()

	token, err := auth.Issue([]byte(cfg.Auth.JWTSecret), access.Principal(*principal), *ttl)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
