package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"aquaalert.org/aquaalert/internal/auth"
	"aquaalert.org/aquaalert/internal/storage"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage authentication tokens",
	Long:  `Generate authentication tokens for existing user accounts`,
}

var generateTokenCmd = &cobra.Command{
	Use:   "generate [username]",
	Short: "Generate an access token for a user",
	Long: `Generate a JWT access token for an existing user account.

The token is signed with the jwt_secret from the configuration and
carries the user's roles. It expires after the configured jwt_expiration.

Examples:
  # Generate a token for the admin account
  aquaalert token generate admin

  # Generate a token with a custom lifetime (in hours)
  aquaalert token generate dispatcher --expiration 8`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerateToken,
}

var tokenExpiration int64

func init() {
	generateTokenCmd.Flags().Int64Var(&tokenExpiration, "expiration", 0, "Token expiration in hours (default: from config)")

	tokenCmd.AddCommand(generateTokenCmd)
}

func runGenerateToken(cmd *cobra.Command, args []string) error {
	username := args[0]

	store, err := storage.New(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close() //nolint:errcheck

	user, err := store.GetUserByUsername(cmd.Context(), username)
	if err != nil {
		return fmt.Errorf("user %q not found: %w", username, err)
	}

	if tokenExpiration > 0 {
		cfg.Security.JWTExpiration = time.Duration(tokenExpiration) * time.Hour
	}

	token, err := auth.NewJWTService(cfg).GenerateToken(user)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	fmt.Printf("Access Token Generated Successfully\n")
	fmt.Printf("===================================\n\n")
	fmt.Printf("Username:   %s\n", user.Username)
	fmt.Printf("Roles:      %v\n", user.Roles)
	fmt.Printf("Expiration: %s\n", cfg.Security.JWTExpiration)
	fmt.Printf("\nToken:\n%s\n\n", token)
	fmt.Printf("Use it as a bearer token:\n")
	fmt.Printf("  curl -H \"Authorization: Bearer %s\" http://localhost:%d/api/v1/bowsers\n", token, cfg.Server.Port)

	return nil
}
