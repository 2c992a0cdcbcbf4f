package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/recycler-discovery/internal/core/model"
	"github.com/mohammed-shakir/recycler-discovery/internal/detail"
)

var queryTimeout = 30 * time.Second

func newTypesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the material taxonomy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), queryTimeout)
			defer cancel()
			types, err := a.backend.Types(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), types)
		},
	}
}

func newRecyclersCmd(a *app) *cobra.Command {
	var raw string
	cmd := &cobra.Command{
		Use:   "recyclers",
		Short: "List collection points accepting the given material types",
		Example: `  discovery recyclers
  discovery recyclers --types 1,3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sel, err := model.ParseSelection(raw)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), queryTimeout)
			defer cancel()
			pts, err := a.backend.Recyclers(ctx, sel)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), pts)
		},
	}
	cmd.Flags().StringVar(&raw, "types", "", "comma separated material type ids (empty means unfiltered)")
	return cmd
}

func newDetailCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "detail <recycler-id>",
		Short: "Show a recycler with its contact links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid recycler id %q", args[0])
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), queryTimeout)
			defer cancel()
			page, err := detail.Load(ctx, a.backend, id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
