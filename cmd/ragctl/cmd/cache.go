package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/answer/cache"
	pkgredis "github.com/Adithya-Monish-Kumar-K/ragqa/pkg/redis"
)

func newCacheCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the Redis answer cache",
	}
	cmd.AddCommand(newCacheFlushCmd(opts))
	return cmd
}

func newCacheFlushCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Delete every cached answer, e.g. after rebuilding the index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			rdb, err := pkgredis.NewClient(cfg.Redis)
			if err != nil {
				return err
			}
			defer rdb.Close()

			deleted, err := cache.New(rdb, cfg.Redis.CacheTTL, nil).Invalidate(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d cached answers\n", deleted)
			return err
		},
	}
}
