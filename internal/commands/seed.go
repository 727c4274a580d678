package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"aquaalert.org/aquaalert/internal/auth"
	"aquaalert.org/aquaalert/internal/storage"
	"aquaalert.org/aquaalert/models"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the store with initial data",
	Long: `Create the initial admin account and, optionally, a small sample
fleet for evaluation.

Examples:
  # Create the admin account only
  aquaalert seed --admin-password s3cret

  # Also create sample bowsers and locations
  aquaalert seed --admin-password s3cret --sample-data`,
	RunE: runSeed,
}

var (
	seedAdminPassword string
	seedSampleData    bool
)

func init() {
	seedCmd.Flags().StringVar(&seedAdminPassword, "admin-password", "", "Password for the admin account (required)")
	seedCmd.Flags().BoolVar(&seedSampleData, "sample-data", false, "Create sample bowsers and locations")
	_ = seedCmd.MarkFlagRequired("admin-password") //nolint:errcheck
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := storage.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close() //nolint:errcheck

	if err := seedAdmin(ctx, store); err != nil {
		return err
	}

	if seedSampleData {
		if err := seedFleet(ctx, store); err != nil {
			return err
		}
	}

	fmt.Println("Seed complete")
	return nil
}

func seedAdmin(ctx context.Context, store storage.Store) error {
	if _, err := store.GetUserByUsername(ctx, "admin"); err == nil {
		fmt.Println("Admin account already exists, skipping")
		return nil
	} else if !storage.IsNotFound(err) {
		return fmt.Errorf("failed to check admin account: %w", err)
	}

	hash, err := auth.HashPassword(seedAdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		ID:           models.GenerateID("user"),
		Username:     "admin",
		Email:        "admin@example.com",
		PasswordHash: hash,
		Roles:        []models.Role{models.RoleAdmin},
		Enabled:      true,
		CreatedAt:    time.Now(),
	}
	if err := store.SaveUser(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	fmt.Println("Created admin account")
	return nil
}

func seedFleet(ctx context.Context, store storage.Store) error {
	now := time.Now()

	bowsers := []*models.Bowser{
		{ID: models.GenerateID("bowser"), Number: "WB-001", Capacity: 10000, CurrentLevel: 10000, Status: models.BowserStatusActive, Owner: "Northern Water", CreatedAt: now},
		{ID: models.GenerateID("bowser"), Number: "WB-002", Capacity: 5000, CurrentLevel: 4200, Status: models.BowserStatusStandby, Owner: "Northern Water", CreatedAt: now},
		{ID: models.GenerateID("bowser"), Number: "WB-003", Capacity: 18000, CurrentLevel: 18000, Status: models.BowserStatusActive, Owner: "Civil Contingencies", CreatedAt: now},
	}
	for _, b := range bowsers {
		if err := store.SaveBowser(ctx, b); err != nil {
			return fmt.Errorf("failed to create bowser %s: %w", b.Number, err)
		}
	}
	fmt.Printf("Created %d sample bowsers\n", len(bowsers))

	lat := 53.8008
	lon := -1.5491
	locations := []*models.Location{
		{ID: models.GenerateID("location"), Name: "Moorside Care Home", Address: "4 Moorside Rd", Category: "healthcare", Latitude: &lat, Longitude: &lon, CreatedAt: now},
		{ID: models.GenerateID("location"), Name: "Hilltop Estate", Address: "Hilltop Way", Category: "residential", CreatedAt: now},
		{ID: models.GenerateID("location"), Name: "Valley Primary School", Address: "1 School Lane", Category: "education", CreatedAt: now},
	}
	for _, l := range locations {
		if err := store.SaveLocation(ctx, l); err != nil {
			return fmt.Errorf("failed to create location %s: %w", l.Name, err)
		}
	}
	fmt.Printf("Created %d sample locations\n", len(locations))

	return nil
}
