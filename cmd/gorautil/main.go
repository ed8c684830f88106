package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/renato2099/GoraJython/examples/generated"
	"github.com/renato2099/GoraJython/store"
)

// flags shared by all commands
var (
	backendName    string
	dbPath         string
	cassandraHosts string
	keyspace       string
	cacheSize      int
	verbose        bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := execRootCmd(ctx, os.Args[1:], os.Stdout); err != nil {
		os.Exit(1)
	}
}

func execRootCmd(ctx context.Context, args []string, out io.Writer) error {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gorautil",
		Short:         "Inspects and edits a WebPage store",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", "bolt", "Store backend (mem, bolt, cassandra)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "path", "webpage.db", "Bolt database file")
	rootCmd.PersistentFlags().StringVar(&cassandraHosts, "cassandra-hosts", "127.0.0.1", "Comma separated Cassandra hosts")
	rootCmd.PersistentFlags().StringVar(&keyspace, "keyspace", "gora", "Cassandra keyspace")
	rootCmd.PersistentFlags().IntVar(&cacheSize, "cache-size", 0, "Rows to keep in an LRU read cache, 0 to disable")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every store operation")

	rootCmd.AddCommand(
		newGetCmd(),
		newPutURLCmd(),
		newDeleteCmd(),
		newQueryCmd(),
	)
	return rootCmd
}

func openStore(cmd *cobra.Command) (store.DataStore[string], error) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	ds, err := store.Create[string](backendName, generated.WebPageSchema, store.Options{
		Logger:    logger,
		Verbose:   verbose,
		Path:      dbPath,
		CacheSize: cacheSize,
		Cassandra: store.CassandraParams{
			Hosts:                   cassandraHosts,
			Keyspace:                keyspace,
			KeyspaceWithReplication: "{ 'class' : 'SimpleStrategy', 'replication_factor' : 1 }",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", backendName, err)
	}
	return ds, nil
}
