package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"go-gin-mock-users/internal/core/auth"
	"go-gin-mock-users/internal/core/config"
	"go-gin-mock-users/internal/core/logger"
	"go-gin-mock-users/pkg/utils"
)

// admin is the operator CLI: it prepares the admin credential and mints
// tokens for the admin listener that cmd/api serves.
func main() {
	hashPW := flag.String("hash-password", "", "print a bcrypt hash for admin.password_hash")
	issue := flag.Bool("issue-token", false, "print an admin JWT signed with jwt.secret")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer cleanup()

	switch {
	case *hashPW != "":
		h, err := utils.HashPassword(*hashPW)
		if err != nil {
			log.Fatal("hash password", zap.Error(err))
		}
		fmt.Println(h)
	case *issue:
		jwter := &auth.JWTer{
			Secret: []byte(cfg.JWT.Secret),
			Issuer: cfg.JWT.Issuer,
			TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
		}
		tok, err := jwter.Issue(cfg.Admin.Username, "admin")
		if err != nil {
			log.Fatal("issue token", zap.Error(err))
		}
		fmt.Println(tok)
	default:
		flag.Usage()
		os.Exit(2)
	}
}
