package cli

import (
	"fmt"

	"github.com/rcliao/temporal-events/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an owner's events, newest first",
		Run:   runList,
	}

	cmd.Flags().StringP("owner", "o", "", "Owner id (required)")
	cmd.Flags().IntP("limit", "l", store.DefaultLimit, "Max results")
	cmd.Flags().Int("offset", 0, "Results to skip")
	cmd.Flags().Bool("ids-only", false, "Only output event ids")

	cmd.MarkFlagRequired("owner")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	idsOnly, _ := cmd.Flags().GetBool("ids-only")

	s, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	events, err := s.ListByOwner(cmd.Context(), store.ListParams{
		OwnerID: owner,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		exitErr("list", err)
	}

	if idsOnly {
		for _, ev := range events {
			fmt.Fprintln(cmd.OutOrStdout(), ev.EventID)
		}
		return
	}

	printJSON(cmd, events)
}
