package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"verkstad/internal/bidding"
	"verkstad/internal/database"
	"verkstad/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type workshopEntry struct {
	ID          string            `yaml:"id"`
	OwnerUserID string            `yaml:"owner_user_id"`
	CompanyName string            `yaml:"company_name"`
	Location    models.Coordinate `yaml:"location"`
	Address     string            `yaml:"address"`
	City        string            `yaml:"city"`
	Rating      float64           `yaml:"rating"`
	ReviewCount int               `yaml:"review_count"`
	IsVerified  bool              `yaml:"is_verified"`
	IsActive    bool              `yaml:"is_active"`
}

type workshopsConfig struct {
	Workshops []workshopEntry `yaml:"workshops"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		workshopsPath = flag.String("workshops", "configs/workshops.yaml", "path to workshops.yaml")
		dbPath        = flag.String("db", "./data/verkstad.db", "path to sqlite db")
	)
	flag.Parse()

	data, err := os.ReadFile(*workshopsPath)
	if err != nil {
		return fmt.Errorf("read workshops: %w", err)
	}
	var cfg workshopsConfig
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse workshops: %w", err)
	}
	if len(cfg.Workshops) == 0 {
		return fmt.Errorf("no workshops in yaml")
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created := 0
	updated := 0
	for _, entry := range cfg.Workshops {
		if entry.ID == "" || entry.CompanyName == "" {
			continue
		}
		if err := entry.Location.Validate(); err != nil {
			return fmt.Errorf("workshop %s: %w", entry.ID, err)
		}

		_, err := db.GetWorkshop(ctx, entry.ID)
		if err == nil {
			if err = db.SetWorkshopFlags(ctx, entry.ID, entry.IsVerified, entry.IsActive); err != nil {
				return fmt.Errorf("update %s: %w", entry.ID, err)
			}
			updated++
			continue
		}
		if !errors.Is(err, bidding.ErrWorkshopNotFound) {
			return fmt.Errorf("get %s: %w", entry.ID, err)
		}

		now := time.Now().UTC()
		workshop := &models.Workshop{
			ID:          entry.ID,
			OwnerUserID: entry.OwnerUserID,
			CompanyName: entry.CompanyName,
			Location:    entry.Location,
			Address:     entry.Address,
			City:        entry.City,
			Rating:      entry.Rating,
			ReviewCount: entry.ReviewCount,
			IsVerified:  entry.IsVerified,
			IsActive:    entry.IsActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err = db.CreateWorkshop(ctx, workshop); err != nil {
			return fmt.Errorf("create %s: %w", entry.ID, err)
		}
		created++
	}

	logger.Info().Int("created", created).Int("updated", updated).Msg("workshops seeded")
	return nil
}
