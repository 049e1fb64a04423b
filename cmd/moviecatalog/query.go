package main

import (
	"encoding/json"
	"strings"

	"github.com/mantonx/moviecatalog/internal/database"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/core/dynamic"
	"github.com/mantonx/moviecatalog/internal/services"
	"github.com/spf13/cobra"
)

func newQueryCommand(a *app) *cobra.Command {
	var filterPairs, optionPairs []string
	var compact bool

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a dynamic query and print the result as JSON",
		Example: `  moviecatalog query --filter min_rating=8 --filter genre=Drama \
      --option order_by=rating --option direction=desc --option limit=10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := parsePairs(filterPairs)
			if err != nil {
				return err
			}
			options, err := parsePairs(optionPairs)
			if err != nil {
				return err
			}
			// option keys passed as filters are still honoured
			filters, misplaced := dynamic.Split(pairs)
			for k, v := range misplaced {
				if _, set := options[k]; !set {
					options[k] = v
				}
			}

			if _, _, _, err := a.openCatalog(); err != nil {
				return err
			}
			defer database.Close()

			catalog, err := services.GetService[services.CatalogService](services.CatalogServiceName)
			if err != nil {
				return err
			}
			result, err := catalog.Dynamic(cmd.Context(), filters, options)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if !compact {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringArrayVarP(&filterPairs, "filter", "f", nil, "filter key=value, repeatable (keys: "+strings.Join(dynamic.FilterKeys(), ", ")+")")
	cmd.Flags().StringArrayVarP(&optionPairs, "option", "o", nil, "option key=value, repeatable (order_by, direction, limit, offset, page, per_page)")
	cmd.Flags().BoolVar(&compact, "compact", false, "print JSON on one line")
	return cmd
}
