package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"crm/internal/auth"
	"crm/internal/config"
	"crm/internal/db"
	"crm/internal/logging"
	"crm/internal/repository"
	"crm/internal/service"
)

// services is what the subcommands operate on.
type services struct {
	Auth    service.AuthService
	Users   service.UserService
	Migrate func() error
}

// opener connects to the backing stores. The returned func releases them.
type opener func(configFile string) (*services, func(), error)

// NewRootCmd creates the root command for the crmctl CLI.
func NewRootCmd(open opener) *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:          "crmctl",
		Short:        "crmctl - CRM administration",
		Long:         `crmctl manages the CRM database schema and user accounts directly, without going through the API.`,
		SilenceUsage: true,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (overrides CONFIG_FILE)")

	withServices := func(run func(cmd *cobra.Command, args []string, s *services) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := open(configFile)
			if err != nil {
				return err
			}
			defer closeFn()
			return run(cmd, args, s)
		}
	}

	cmd.AddCommand(newMigrateCmd(withServices))
	cmd.AddCommand(newCreateUserCmd(withServices))
	cmd.AddCommand(newSetActiveCmd(withServices))
	cmd.AddCommand(newUnlockCmd(withServices))
	cmd.AddCommand(newSeedCmd(withServices))

	return cmd
}

type runWrapper func(run func(cmd *cobra.Command, args []string, s *services) error) func(*cobra.Command, []string) error

// openServices wires the same stack the API server uses, minus HTTP and Redis.
func openServices(configFile string) (*services, func(), error) {
	if configFile != "" {
		if err := os.Setenv("CONFIG_FILE", configFile); err != nil {
			return nil, nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := logging.Setup("crmctl", "text", cfg.LogLevel, os.Stderr)

	gormDB, err := db.Open(cfg.DatabaseDSN, logger)
	if err != nil {
		return nil, nil, err
	}

	hasher, err := auth.NewBcryptHasher(cfg.PasswordHashCost, cfg.TokenHashCost)
	if err != nil {
		_ = db.Close(gormDB)
		return nil, nil, err
	}
	tokens := auth.NewJWTService(auth.JWTConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	}, auth.SystemClock{})

	users := repository.NewUserRepository(gormDB)
	s := &services{
		Auth:    service.NewAuthService(users, tokens, hasher, auth.SystemClock{}, logger),
		Users:   service.NewUserService(users, nil, logger),
		Migrate: func() error { return db.Migrate(gormDB) },
	}
	closeFn := func() {
		if err := db.Close(gormDB); err != nil {
			fmt.Fprintln(os.Stderr, "close database:", err)
		}
	}
	return s, closeFn, nil
}
