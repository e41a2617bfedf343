package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/cache"
	"github.com/sells-group/leadgen-cli/internal/model"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached contacts",
}

var (
	purgeName    string
	purgeWebsite string
)

// -- cache purge --

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Drop cached contacts for one company so the next run hits Apollo",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		company := model.CompanyRef{Name: purgeName, Website: purgeWebsite}
		if err := company.Validate(); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.PurgeContacts(ctx, company.Key())
		if err != nil {
			return eris.Wrap(err, "cache purge")
		}

		redisPurged := false
		rdb, err := newRedis(ctx, cfg.Cache)
		if err != nil {
			zap.L().Warn("cache purge: redis unavailable", zap.Error(err))
		} else if rdb != nil {
			defer rdb.Close() //nolint:errcheck
			redisPurged, err = cache.NewRedisCache(rdb, cfg.Cache.TTL()).Purge(ctx, company)
			if err != nil {
				return eris.Wrap(err, "cache purge redis")
			}
		}

		_, _ = fmt.Fprintf(os.Stdout, "Purged %d stored contacts for %s", n, company.Name)
		if redisPurged {
			_, _ = fmt.Fprint(os.Stdout, " (redis entry removed)")
		}
		_, _ = fmt.Fprintln(os.Stdout)
		return nil
	},
}

// -- cache prune --

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete stored contacts past their cache TTL",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.DeleteExpiredContacts(ctx)
		if err != nil {
			return eris.Wrap(err, "cache prune")
		}
		zap.L().Info("pruned expired contacts", zap.Int("deleted", n))
		_, _ = fmt.Fprintf(os.Stdout, "Deleted %d expired contacts\n", n)
		return nil
	},
}

func init() {
	cachePurgeCmd.Flags().StringVar(&purgeName, "name", "", "company name (required)")
	cachePurgeCmd.Flags().StringVar(&purgeWebsite, "website", "", "company website or domain")
	_ = cachePurgeCmd.MarkFlagRequired("name")

	cacheCmd.AddCommand(cachePurgeCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}
