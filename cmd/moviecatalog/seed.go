package main

import (
	"fmt"

	"github.com/mantonx/moviecatalog/internal/database"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/seed"
	"github.com/spf13/cobra"
)

func newSeedCommand(a *app) *cobra.Command {
	opts := seed.DefaultOptions()
	var batch int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate and store plausible movies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Count < 0 {
				return fmt.Errorf("--count must not be negative")
			}
			_, _, catalog, err := a.openCatalog()
			if err != nil {
				return err
			}
			defer database.Close()

			if batch <= 0 {
				batch = a.config().Database.BatchSize
			}
			written, err := seed.Seed(cmd.Context(), catalog.Store(), opts, batch, a.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d movies\n", written)
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.Count, "count", "n", opts.Count, "number of movies to generate")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed; 0 picks one from the clock")
	cmd.Flags().IntVar(&opts.FirstYear, "from", opts.FirstYear, "earliest release year")
	cmd.Flags().IntVar(&opts.LastYear, "to", opts.LastYear, "latest release year")
	cmd.Flags().Float64Var(&opts.SparseRatio, "sparse", opts.SparseRatio, "probability that each optional field is left empty")
	cmd.Flags().IntVar(&batch, "batch", 0, "insert batch size; defaults to database.batch_size")
	return cmd
}
