package main

import (
	"fmt"
	"os"

	"fibra-backend/internal/auth"
	"fibra-backend/internal/config"
	"fibra-backend/internal/database"
	"fibra-backend/internal/statement"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:           "fibra-admin",
	Short:         "Maintenance tasks for the fibra backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// migrateCmd creates or updates the schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations to the configured database",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := open()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
		return nil
	},
}

var (
	seedUsername string
	seedPassword string
)

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create the bootstrap admin user if it does not exist",
	Long: `Create an admin user with the given credentials.

Falls back to ADMIN_USERNAME and ADMIN_PASSWORD when flags are omitted.
Existing users are never modified.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		db, err := open()
		if err != nil {
			return err
		}
		username, password := seedUsername, seedPassword
		if username == "" {
			username = cfg.AdminUsername
		}
		if password == "" {
			password = cfg.AdminPassword
		}
		if password == "" {
			return fmt.Errorf("a password is required (--password or ADMIN_PASSWORD)")
		}
		created, err := auth.EnsureAdmin(db, username, password)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "admin %q created\n", username)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "user %q already exists\n", username)
		}
		return nil
	},
}

var nextPrefix string

// nextIDCmd prints the correlative the next committed statement would get
var nextIDCmd = &cobra.Command{
	Use:   "next-id",
	Short: "Show the next payment statement correlative",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		db, err := open()
		if err != nil {
			return err
		}
		prefix := nextPrefix
		if prefix == "" {
			prefix = cfg.StatementPrefix
		}
		id, err := statement.NewEngine(db, cfg.StatementPrefix).NextCorrelativeID(cmd.Context(), prefix)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

func open() (*gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	config.SetLogLevel(cfg.LogLevel)
	if err := database.Init(cfg); err != nil {
		return nil, err
	}
	return database.DB, nil
}

func init() {
	seedAdminCmd.Flags().StringVarP(&seedUsername, "username", "u", "", "admin username")
	seedAdminCmd.Flags().StringVarP(&seedPassword, "password", "p", "", "admin password")
	nextIDCmd.Flags().StringVar(&nextPrefix, "prefix", "", "correlative prefix (default STATEMENT_PREFIX)")

	rootCmd.AddCommand(migrateCmd, seedAdminCmd, nextIDCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		config.GetLogger().WithError(err).Error("fibra-admin failed")
		os.Exit(1)
	}
}
