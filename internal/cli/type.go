package cli

import (
	"github.com/rcliao/temporal-events/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "type <event-type>",
		Short: "List an owner's events of one type",
		Args:  cobra.ExactArgs(1),
		Run:   runType,
	}

	cmd.Flags().StringP("owner", "o", "", "Owner id (required)")
	cmd.Flags().IntP("limit", "l", store.DefaultLimit, "Max results")

	cmd.MarkFlagRequired("owner")

	RootCmd.AddCommand(cmd)
}

func runType(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	events, err := s.ByType(cmd.Context(), store.TypeParams{
		OwnerID:   owner,
		EventType: args[0],
		Limit:     limit,
	})
	if err != nil {
		exitErr("type", err)
	}

	printJSON(cmd, events)
}
