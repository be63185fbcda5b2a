// Command devtoken mints a development identity token for calling the API
// locally, e.g.
//
//	devtoken -sub owner-1 -roles hostelOwner
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/campus-marketplace/internal/config"
	"github.com/iliyamo/campus-marketplace/internal/identity"
)

func main() {
	config.LoadDotEnv()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "HS256 signing secret (default $JWT_SECRET)")
	sub := flag.String("sub", "", "subject (user id)")
	roles := flag.String("roles", "student", "comma separated roles")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	tok, err := identity.NewToken(*secret, *sub, splitRoles(*roles), *ttl)
	if err != nil {
		logger.Fatal().Err(err).Msg("mint token")
	}
	logger.Info().Str("sub", *sub).Time("exp", tok.Exp).Msg("token issued")
	fmt.Println(tok.Token)
}

func splitRoles(raw string) []string {
	out := []string{}
	for _, r := range strings.Split(raw, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
