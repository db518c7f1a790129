package cli

import (
	"fmt"

	"github.com/rcliao/temporal-events/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage backend indexes",
	}

	ensure := &cobra.Command{
		Use:   "ensure",
		Short: "Create the composite indexes used by owner listings",
		Run:   runIndexEnsure,
	}

	cmd.AddCommand(ensure)
	RootCmd.AddCommand(cmd)
}

func runIndexEnsure(cmd *cobra.Command, args []string) {
	s, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.EnsureIndexes(cmd.Context()); err != nil {
		exitErr("index ensure", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"indexes":%d}`+"\n", len(store.ListingIndexes))
}
