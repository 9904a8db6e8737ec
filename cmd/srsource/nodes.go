package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"smartrecruiters-source/internal/store"
)

func newNodesCmd(f *rootFlags) *cobra.Command {
	var (
		opts store.ListNodesOpts
		path string
	)
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "List nodes kept in a sqlite node store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				cfg, err := readConfig(f)
				if err != nil {
					return err
				}
				path = cfg.Output.Path
			}
			if path == "" || path == "-" {
				return errors.New("nodes: --path (or a sqlite output.path) is required")
			}
			db, err := store.Open(path)
			if err != nil {
				return err
			}
			defer db.Close()

			nodes, err := store.NewNodeStore(db.Pool).ListNodes(cmd.Context(), opts)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, n := range nodes {
				if err := enc.Encode(n); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "sqlite node store (defaults to output.path)")
	cmd.Flags().StringVar(&opts.Type, "type", "", "filter by node type, e.g. SmartRecruitersJobPost")
	cmd.Flags().StringVar(&opts.Parent, "parent", "", "filter by parent node id")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "max nodes (0 = all)")
	return cmd
}
