// Command admin grants or revokes administrator rights out of band.
//
//	admin [--config path] promote <email>
//	admin [--config path] demote <email>
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	_ "go.uber.org/automaxprocs"

	mongoRepo "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/repository/mongodb"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/config"
	authUsecase "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/identity/usecase"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [--config path] promote|demote <email>\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "config file or directory")
	timeout := flag.Duration("timeout", 15*time.Second, "overall timeout")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 2 {
		usage()
		os.Exit(2)
	}
	var isAdmin bool
	switch flag.Arg(0) {
	case "promote":
		isAdmin = true
	case "demote":
		isAdmin = false
	default:
		usage()
		os.Exit(2)
	}
	email := flag.Arg(1)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogger(logger.LoggerConfig{Level: cfg.Log.Level, Format: "console"})
	defer func() { _ = log.Sync() }()

	mongoClient, err := mongoRepo.NewMongoDBConnection(cfg.Mongo)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()
	db := mongoClient.Database(cfg.Mongo.Database)

	auth := authUsecase.NewAuthUsecase(
		mongoRepo.NewProfileRepository(db, log),
		mongoRepo.NewCredentialRepository(db, log),
		nil, nil, nil, 1, time.Second, log,
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	identity, err := auth.SetAdmin(ctx, email, isAdmin)
	if err != nil {
		log.Error("Failed to change admin flag", zap.String("email", email), zap.Error(err))
		cancel()
		os.Exit(1)
	}
	fmt.Printf("%s (%s) is_admin=%t\n", identity.Email, identity.ID, identity.IsAdmin)
}
