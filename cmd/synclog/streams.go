package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/synclog/internal/catalog"
	"github.com/alfredjeanlab/synclog/internal/config"
	"github.com/alfredjeanlab/synclog/internal/model"
	"github.com/alfredjeanlab/synclog/internal/streamlist"
)

var streamsCmd = &cobra.Command{
	Use:               "streams",
	Short:             "Show the registered streams and their resolved types",
	GroupID:           "streams",
	Args:              cobra.NoArgs,
	PersistentPreRunE: noClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		names, err := streamlist.Load(cfg.StreamList)
		if err != nil {
			return err
		}

		cat, closeCat := localCatalog(cfg)
		defer closeCat()

		ctx, cancel := commandContext()
		defer cancel()
		types, err := cat.Snapshot(ctx)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: type catalog unavailable: %v\n", err)
		}

		streams := make([]model.Stream, len(names))
		for i, name := range names {
			typ, ok := types[name]
			if !ok {
				typ = model.UnknownType
			}
			streams[i] = model.Stream{Name: name, Type: typ}
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), streams)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "STREAM\tTYPE\tSUBJECT")
		for _, s := range streams {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, s.Type, cfg.SubjectPrefix+s.Name)
		}
		tw.Flush()
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d streams in %s\n", len(streams), cfg.StreamList)
		return nil
	},
}

// localCatalog builds the same catalog chain the daemon uses.
func localCatalog(cfg *config.Config) (catalog.Catalog, func()) {
	chain := catalog.Chain{catalog.Static(cfg.Types)}
	if cfg.RedisAddr == "" {
		return chain, func() {}
	}
	r := catalog.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), cfg.RedisCatalogKey)
	return append(chain, r), func() { r.Close() }
}

var typesCmd = &cobra.Command{
	Use:               "types",
	Short:             "Manage the shared stream type catalog",
	GroupID:           "streams",
	PersistentPreRunE: noClient,
}

var typesSetCmd = &cobra.Command{
	Use:   "set <stream> <type>",
	Short: "Register the type of a stream in the Redis catalog",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.RedisAddr == "" {
			return fmt.Errorf("SYNCLOG_REDIS_ADDR is not set")
		}
		r := catalog.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), cfg.RedisCatalogKey)
		defer r.Close()

		ctx, cancel := commandContext()
		defer cancel()
		if err := r.Register(ctx, args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered %s as %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	typesCmd.AddCommand(typesSetCmd)
}
