package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/WessleyAI/wessley-sales/engine/catalog"
	"github.com/WessleyAI/wessley-sales/engine/domain"
	"github.com/WessleyAI/wessley-sales/engine/finance"
	"github.com/WessleyAI/wessley-sales/engine/semantic"
	"github.com/WessleyAI/wessley-sales/internal/app"
	"github.com/spf13/cobra"
)

func newSeedGraphCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-graph",
		Short: "Write the CSV catalog into Neo4j as make/model/stock nodes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if cfg.Catalog.Path == "" {
				return errors.New("seed-graph: catalog path required")
			}
			all, err := catalog.NewCSVSource(cfg.Catalog.Path).Vehicles(cmd.Context())
			if err != nil {
				return err
			}
			valid := all[:0]
			for _, v := range all {
				if err := domain.ValidateVehicle(v); err != nil {
					c.logger.Warn("seed-graph: record skipped", "id", v.ID, "err", err)
					continue
				}
				valid = append(valid, v)
			}

			driver, err := app.OpenNeo4j(cmd.Context(), cfg.Catalog)
			if err != nil {
				return err
			}
			defer driver.Close(cmd.Context())

			n, err := catalog.NewGraphSeeder(catalog.NewVehicleRepo(driver)).Seed(cmd.Context(), valid)
			fmt.Fprintf(c.out, "seeded %d/%d vehicles into %s\n", n, len(all), cfg.Catalog.Neo4jURL)
			return err
		},
	}
}

func newGraphStatsCmd(c *cli) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "graph-stats",
		Short: "Show seeded inventory per make",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			driver, err := app.OpenNeo4j(cmd.Context(), cfg.Catalog)
			if err != nil {
				return err
			}
			defer driver.Close(cmd.Context())

			stats, err := catalog.NewGraphSeeder(catalog.NewVehicleRepo(driver)).StockByMake(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MARCA\tMODELOS\tUNIDADES\tDESDE")
			for _, s := range stats {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", s.Make, s.Models, s.Vehicles, finance.Money(s.MinPrice, 0))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Number of makes")
	return cmd
}

func newIndexCmd(c *cli) *cobra.Command {
	var (
		collection string
		recreate   bool
	)
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Embed the catalog and upsert it into Qdrant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if collection == "" {
				collection = cfg.Search.QdrantCollection
			}

			guard, err := app.NewLLM(cfg.LLM, c.logger)
			if err != nil {
				return err
			}
			src, closeSrc, err := app.OpenSource(ctx, cfg.Catalog)
			if err != nil {
				return err
			}
			defer closeSrc()
			store, err := catalog.Load(ctx, src, guard, catalog.LoadOptions{Workers: cfg.Catalog.Workers}, c.logger)
			if err != nil {
				return err
			}

			q, err := semantic.NewQdrantIndex(cfg.Search.QdrantURL, collection, store)
			if err != nil {
				return err
			}
			defer q.Close()
			if recreate {
				if err := q.DeleteCollection(ctx); err != nil {
					c.logger.Warn("index: delete collection", "collection", collection, "err", err)
				}
			}
			n, err := q.Sync(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "indexed %d vehicles (%d dims) into %s\n", n, store.Dims(), collection)
			return nil
		},
	}
	cmd.Flags().StringVar(&collection, "collection", "", "Qdrant collection (overrides QDRANT_COLLECTION)")
	cmd.Flags().BoolVar(&recreate, "recreate", false, "Drop the collection before indexing")
	return cmd
}
