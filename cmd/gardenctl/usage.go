package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/charlesng35/tarotgarden/internal/app"
	"github.com/charlesng35/tarotgarden/internal/cache"
	"github.com/charlesng35/tarotgarden/internal/database"
	"github.com/charlesng35/tarotgarden/internal/services"
	"github.com/charlesng35/tarotgarden/internal/usage"
)

var errMemoryStore = errors.New("usage.store is memory; counters live inside the server process")

func newUsageCmd(root *rootOptions) *cobra.Command {
	var device, user string

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Inspect or reset a device's daily premium spread quota",
	}
	cmd.PersistentFlags().StringVar(&device, "device", "", "Device identifier (X-Device-ID)")
	_ = cmd.MarkPersistentFlagRequired("device")

	status := &cobra.Command{
		Use:   "status",
		Short: "Print the quota status for a device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withUsageGate(cmd.Context(), root, func(db *gorm.DB, gate *usage.Gate) error {
				premium := false
				if strings.TrimSpace(user) != "" {
					subs, err := services.NewSubscriptionService(db, clockwork.NewRealClock())
					if err != nil {
						return err
					}
					if premium, err = subs.IsPremium(cmd.Context(), user); err != nil {
						return err
					}
				}
				return printJSON(cmd.OutOrStdout(), gate.ForDevice(device).Status(cmd.Context(), premium))
			})
		},
	}
	status.Flags().StringVar(&user, "user", "", "Resolve premium status for this user id")

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Clear today's record for a device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withUsageGate(cmd.Context(), root, func(_ *gorm.DB, gate *usage.Gate) error {
				scoped := gate.ForDevice(device)
				scoped.ResetAll(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "usage reset for device %s\n", device)
				return nil
			})
		},
	}

	cmd.AddCommand(status, reset)
	return cmd
}

// withUsageGate opens the configured usage store and hands fn a gate over it.
func withUsageGate(ctx context.Context, root *rootOptions, fn func(*gorm.DB, *usage.Gate) error) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}

	kind, err := cfg.Usage.StoreKind()
	if err != nil {
		return err
	}
	if kind == app.StoreMemory {
		return errMemoryStore
	}
	loc, err := cfg.Usage.Location()
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.Database.Connection())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	clock := clockwork.NewRealClock()
	var store cache.Store = cache.NewDatabaseStore(db, clock)
	if kind == app.StoreRedis {
		client, err := cache.NewRedisClient(ctx, cfg.Cache.RedisClientConfig())
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()
		store = cache.NewRedisStore(client)
	}

	gate, err := usage.NewGate(store, usage.WithClock(clock), usage.WithLocation(loc))
	if err != nil {
		return err
	}
	return fn(db, gate)
}
