package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"

	"github.com/rl1809/laventory/internal/adapter/auth"
	"github.com/rl1809/laventory/internal/config"
	"github.com/rl1809/laventory/internal/core/domain"
)

type tokenCmd struct {
	user  string
	email string
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "mint a bearer token for development" }
func (*tokenCmd) Usage() string {
	return `token -user <id> [-email <email>]

  Prints a token signed with AUTH_JWT_SECRET, valid for AUTH_TOKEN_TTL.
  Export it as LAVENTORY_TOKEN to use the other commands.
`
}

func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "user id (required)")
	f.StringVar(&c.email, "email", "", "user email")
}

func (c *tokenCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" {
		fail("-user is required")
		return subcommands.ExitUsageError
	}

	_ = godotenv.Load()
	var cfg config.Auth
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "AUTH_"}); err != nil {
		fail("parse auth config: %v", err)
		return subcommands.ExitFailure
	}
	if cfg.JWTSecret == "" {
		fail("AUTH_JWT_SECRET is not set")
		return subcommands.ExitFailure
	}

	token, err := mintToken(cfg, domain.Identity{UserID: c.user, Email: c.email})
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	fmt.Println(token)
	return subcommands.ExitSuccess
}

func mintToken(cfg config.Auth, id domain.Identity) (string, error) {
	return auth.NewJWTVerifier(cfg.JWTSecret, cfg.Issuer).Issue(id, cfg.TokenTTL)
}
