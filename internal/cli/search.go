package cli

import (
	"strings"

	"github.com/rcliao/temporal-events/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search an owner's recent events",
		Long:  "Case-insensitive substring search over text, type, subtype, location and participants of the owner's most recent events.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().StringP("owner", "o", "", "Owner id (required)")
	cmd.Flags().IntP("limit", "l", store.DefaultLimit, "Max results")

	cmd.MarkFlagRequired("owner")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	events, err := s.Search(cmd.Context(), store.SearchParams{
		OwnerID: owner,
		Query:   strings.Join(args, " "),
		Limit:   limit,
	})
	if err != nil {
		exitErr("search", err)
	}

	printJSON(cmd, events)
}
