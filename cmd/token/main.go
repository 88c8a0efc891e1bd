// Command token mints a bearer token for the JSON API.
//
//	token -user 3 -role user
//	token -role admin -ttl 24h
package main

import (
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movieweb/internal/config"
	"github.com/iliyamo/movieweb/internal/middleware"
	"github.com/iliyamo/movieweb/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}

	userID := flag.Uint64("user", 0, "user id placed in the sub claim")
	role := flag.String("role", middleware.RoleUser, "role claim: admin or user")
	ttl := flag.Duration("ttl", time.Duration(cfg.AccessTTLMin)*time.Minute, "token lifetime")
	flag.Parse()

	if *role != middleware.RoleAdmin && *role != middleware.RoleUser {
		logrus.WithField("role", *role).Fatal("unknown role")
	}
	if *role == middleware.RoleUser && *userID == 0 {
		logrus.Fatal("-user is required for role user")
	}

	tok, err := utils.NewAccessToken(cfg.JWTSecret, *userID, *role, *ttl)
	if err != nil {
		logrus.WithError(err).Fatal("mint token")
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tok); err != nil {
		logrus.WithError(err).Fatal("write token")
	}
}
