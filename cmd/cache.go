package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/landscore/score-cli/internal/cache"
)

var cachePurgeAll bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local fetch cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired cache entries (or everything with --all)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("cache"); err != nil {
			return err
		}

		store, err := cache.Open(cfg.Cache.Path, time.Duration(cfg.Cache.TTLHours)*time.Hour)
		if err != nil {
			return err
		}
		defer store.Close()

		var n int
		if cachePurgeAll {
			n, err = store.PurgeAll(cmd.Context())
		} else {
			n, err = store.PurgeExpired(cmd.Context())
		}
		if err != nil {
			return err
		}

		zap.L().Info("cache purged",
			zap.Int("entries", n),
			zap.Bool("all", cachePurgeAll),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "purged %d entries\n", n)
		return nil
	},
}

func init() {
	cachePurgeCmd.Flags().BoolVar(&cachePurgeAll, "all", false, "purge every entry, not just expired ones")
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
