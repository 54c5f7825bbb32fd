package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cogmap/application/graphsync"
	"cogmap/domain/core/aggregates"
	"cogmap/domain/core/valueobjects"
	"cogmap/domain/services"
	"cogmap/infrastructure/config"
	"cogmap/infrastructure/persistence/sqlite"
)

func runLayout(cmd *cobra.Command, args []string) error {
	store, err := sqlite.Open(args[0], zap.NewNop())
	if err != nil {
		return err
	}
	defer store.Close()

	snap, ok, err := store.Load(context.Background())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no snapshot stored in %s", args[0])
	}

	tree, err := aggregates.RebuildTree(snap.Records)
	if err != nil {
		return fmt.Errorf("snapshot is not a valid tree: %w", err)
	}

	layout := services.DefaultLayoutConfig()
	if layoutFilePath != "" {
		if layout, err = config.LoadLayoutFile(layoutFilePath); err != nil {
			return err
		}
	}

	st := graphsync.NewState(tree, valueobjects.NodeID(snap.CurrentID))
	st.Placed = services.NewLayoutEngine(layout).Layout(tree.Nodes())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(graphsync.BuildView(st, 0))
}
