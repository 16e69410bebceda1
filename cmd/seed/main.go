package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gorm.io/gorm"

	"bptracker/internal/auth"
	"bptracker/internal/config"
	"bptracker/internal/db"
	apperrors "bptracker/internal/errors"
	"bptracker/internal/logging"
	"bptracker/internal/repository"
	"bptracker/internal/service"
)

// SeedUser is one account in the seed file together with its readings.
type SeedUser struct {
	Email    string                 `json:"email"`
	Password string                 `json:"password"`
	Readings []service.ReadingInput `json:"readings"`
}

// seedResult counts what a seed run changed.
type seedResult struct {
	UsersCreated    int
	UsersExisting   int
	ReadingsCreated int
	ReadingsSkipped int
}

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)

	if err := run(cfg, log, os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.WithError(err).Fatal("seed failed")
	}
}

func run(cfg *config.Config, log *logrus.Logger, args []string) error {
	var filePath string
	flagSet := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	flagSet.StringVar(&filePath, "file", "seed/readings.json", "path to the JSON seed file")
	flagSet.StringVar(&cfg.DBDriver, "driver", cfg.DBDriver, "database driver (sqlite or mysql)")
	flagSet.StringVar(&cfg.DatabaseDSN, "dsn", cfg.DatabaseDSN, "database DSN")
	flagSet.IntVar(&cfg.PasswordIterations, "iterations", cfg.PasswordIterations, "PBKDF2 iterations for new passwords")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	users, err := loadSeedFile(filePath)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"file": filePath, "users": len(users)}).Info("seed file loaded")

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	result, err := seed(context.Background(), gormDB, cfg, log, users)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"users_created":    result.UsersCreated,
		"users_existing":   result.UsersExisting,
		"readings_created": result.ReadingsCreated,
		"readings_skipped": result.ReadingsSkipped,
	}).Info("seed completed")
	return nil
}

func loadSeedFile(path string) ([]SeedUser, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var users []SeedUser
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return users, nil
}

// seed creates missing users and adds their readings through the same
// services the API uses. Readings of users that already existed are skipped
// so running the seed twice does not duplicate data.
func seed(ctx context.Context, gormDB *gorm.DB, cfg *config.Config, log logrus.FieldLogger, users []SeedUser) (*seedResult, error) {
	userRepo := repository.NewUserRepository(gormDB)
	authService := service.NewAuthService(
		userRepo,
		auth.NewPBKDF2Hasher(cfg.PasswordIterations),
		auth.NewJWTService(cfg.SecretKey, cfg.TokenTTL),
		log,
	)
	readingService := service.NewReadingService(repository.NewReadingRepository(gormDB), nil)

	result := &seedResult{}
	for _, su := range users {
		user, err := authService.Register(ctx, su.Email, su.Password)
		if errors.Is(err, apperrors.ErrUserAlreadyExists) {
			result.UsersExisting++
			result.ReadingsSkipped += len(su.Readings)
			continue
		}
		if err != nil {
			return result, fmt.Errorf("register %s: %w", su.Email, err)
		}
		result.UsersCreated++

		for i, in := range su.Readings {
			if _, err := readingService.Create(ctx, user.ID, in); err != nil {
				if errors.Is(err, apperrors.ErrValidation) || errors.Is(err, apperrors.ErrInvalidInput) {
					log.WithError(err).WithFields(logrus.Fields{"user_id": user.ID, "index": i}).Warn("skipping invalid reading")
					result.ReadingsSkipped++
					continue
				}
				return result, fmt.Errorf("add reading %d for %s: %w", i, su.Email, err)
			}
			result.ReadingsCreated++
		}
	}
	return result, nil
}
