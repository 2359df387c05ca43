package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/charlesng35/tarotgarden/internal/app"
	"github.com/charlesng35/tarotgarden/internal/cache"
	"github.com/charlesng35/tarotgarden/internal/cachegate"
)

var errLocalStorage = errors.New("cache_gate.storage is memory; generations live inside the server process")

func newCacheCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cache gate generations in shared storage",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored generations and mark the configured one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCacheGate(cmd.Context(), root, func(gate *cachegate.Gate, storage cachegate.Storage) error {
				names, err := storage.Keys(cmd.Context())
				if err != nil {
					return err
				}
				for _, name := range names {
					marker := " "
					if name == gate.Name() {
						marker = "*"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name)
				}
				return nil
			})
		},
	}

	purge := &cobra.Command{
		Use:   "purge",
		Short: "Delete every generation except the configured one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCacheGate(cmd.Context(), root, func(gate *cachegate.Gate, _ cachegate.Storage) error {
				deleted, err := gate.PurgeStale(cmd.Context())
				for _, name := range deleted {
					fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", name)
				}
				return err
			})
		},
	}

	cmd.AddCommand(list, purge)
	return cmd
}

// offlineFetcher refuses every request; the CLI never serves traffic.
var offlineFetcher = cachegate.FetcherFunc(func(context.Context, *http.Request) (*cachegate.Response, error) {
	return nil, errors.New("gardenctl: network disabled")
})

func withCacheGate(ctx context.Context, root *rootOptions, fn func(*cachegate.Gate, cachegate.Storage) error) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}

	kind, err := cfg.CacheGate.StorageKind()
	if err != nil {
		return err
	}
	if kind != app.StoreRedis {
		return errLocalStorage
	}

	gateCfg, err := cfg.CacheGate.GateConfig()
	if err != nil {
		return err
	}

	client, err := cache.NewRedisClient(ctx, cfg.Cache.RedisClientConfig())
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer client.Close()

	storage := cachegate.NewRedisStorage(client)
	gate, err := cachegate.New(gateCfg, offlineFetcher, storage)
	if err != nil {
		return err
	}
	return fn(gate, storage)
}
