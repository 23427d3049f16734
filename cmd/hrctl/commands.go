package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ashureev/hrdesk/internal/config"
	"github.com/ashureev/hrdesk/internal/policy"
	"github.com/ashureev/hrdesk/internal/prompt"
	"github.com/ashureev/hrdesk/internal/store"
	"github.com/spf13/cobra"
)

// newRootCmd creates the root command
func newRootCmd() *cobra.Command {
	var dbPath string

	rootCmd := &cobra.Command{
		Use:           "hrctl",
		Short:         "HR Desk administration",
		Long:          "Maintain the HR Desk database: refresh schema metadata and load the HR handbook index.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (defaults to DB_PATH)")

	open := func() (*store.SQLiteStore, error) {
		path := dbPath
		if path == "" {
			cfg, err := config.Load()
			if err != nil {
				return nil, err
			}
			path = cfg.DBPath
		}
		return store.NewSQLite(path)
	}

	rootCmd.AddCommand(newSchemaCmd(open))
	rootCmd.AddCommand(newHandbookCmd(open))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

type opener func() (*store.SQLiteStore, error)

// newSchemaCmd creates the schema command
func newSchemaCmd(open opener) *cobra.Command {
	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Schema metadata management",
	}

	schemaCmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Rebuild table, column and relationship metadata from the database catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), open, func(ctx context.Context, repo *store.SQLiteStore) error {
				if err := repo.RefreshSchema(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Schema refreshed")
				return printSchema(ctx, cmd.OutOrStdout(), repo)
			})
		},
	})

	schemaCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the stored schema metadata",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), open, func(ctx context.Context, repo *store.SQLiteStore) error {
				return printSchema(ctx, cmd.OutOrStdout(), repo)
			})
		},
	})

	return schemaCmd
}

// newHandbookCmd creates the handbook command
func newHandbookCmd(open opener) *cobra.Command {
	handbookCmd := &cobra.Command{
		Use:   "handbook",
		Short: "HR handbook index management",
	}

	var chunkSize int
	loadCmd := &cobra.Command{
		Use:   "load [FILE]",
		Short: "Replace the handbook index with the contents of a text file",
		Long: `Replace the handbook index with the contents of a plain-text file.
Pages are separated by form feeds and lines starting with '#' begin a new section.
Example: hrctl handbook load handbook.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read handbook: %w", err)
			}
			sections := policy.Chunk(string(data), chunkSize)
			if len(sections) == 0 {
				return fmt.Errorf("handbook %s contains no text", args[0])
			}

			return withStore(cmd.Context(), open, func(ctx context.Context, repo *store.SQLiteStore) error {
				n, err := repo.ReplacePolicySections(ctx, sections)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d sections from %s\n", n, args[0])
				return printPolicyStatus(ctx, cmd.OutOrStdout(), repo)
			})
		},
	}
	loadCmd.Flags().IntVar(&chunkSize, "chunk-size", policy.ChunkSize, "Maximum characters per indexed section")
	handbookCmd.AddCommand(loadCmd)

	var top int
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show handbook index status and the most frequent searches",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), open, func(ctx context.Context, repo *store.SQLiteStore) error {
				out := cmd.OutOrStdout()
				if err := printPolicyStatus(ctx, out, repo); err != nil {
					return err
				}
				stats, err := repo.PolicyStats(ctx, top)
				if err != nil {
					return err
				}
				if len(stats) == 0 {
					fmt.Fprintln(out, "\nNo handbook searches recorded yet")
					return nil
				}
				fmt.Fprintln(out, "\nTop searches:")
				for _, s := range stats {
					fmt.Fprintf(out, "  %-40s %4d searches  avg %.1f results  last %s\n",
						s.Query, s.SearchCount, s.AvgResults, s.LastSearched.Format(time.DateTime))
				}
				return nil
			})
		},
	}
	statsCmd.Flags().IntVar(&top, "top", 10, "Number of searches to list")
	handbookCmd.AddCommand(statsCmd)

	return handbookCmd
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hrctl v%s\n", config.Version)
		},
	}
}

func withStore(ctx context.Context, open opener, fn func(context.Context, *store.SQLiteStore) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	repo, err := open()
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close() }()
	return fn(ctx, repo)
}

func printSchema(ctx context.Context, out io.Writer, repo *store.SQLiteStore) error {
	tables, err := repo.SchemaTables(ctx)
	if err != nil {
		return err
	}
	rels, err := repo.Relationships(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, prompt.CompactSchema(tables, rels))
	return nil
}

func printPolicyStatus(ctx context.Context, out io.Writer, repo *store.SQLiteStore) error {
	status, err := repo.PolicyStatus(ctx)
	if err != nil {
		return err
	}
	if !status.Loaded {
		fmt.Fprintln(out, "Handbook: not loaded")
		return nil
	}
	fmt.Fprintf(out, "Handbook: %d sections, %d characters, %d pages\n", status.Chunks, status.Characters, status.Pages)
	return nil
}
