package cli

import (
	"github.com/rcliao/temporal-events/internal/store"
	"github.com/rcliao/temporal-events/internal/validate"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "range",
		Short: "List an owner's events dated within [start, end]",
		Long:  "List events whose parsed date lies within the inclusive range. Date-only bounds mean midnight UTC.",
		Run:   runRange,
	}

	cmd.Flags().StringP("owner", "o", "", "Owner id (required)")
	cmd.Flags().String("start", "", "Range start, ISO 8601 (required)")
	cmd.Flags().String("end", "", "Range end, ISO 8601 (required)")
	cmd.Flags().IntP("limit", "l", store.DefaultLimit, "Max results")

	cmd.MarkFlagRequired("owner")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")

	RootCmd.AddCommand(cmd)
}

func runRange(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	startStr, _ := cmd.Flags().GetString("start")
	endStr, _ := cmd.Flags().GetString("end")
	limit, _ := cmd.Flags().GetInt("limit")

	start, err := validate.ParseDate(startStr)
	if err != nil {
		exitErr("range", err)
	}
	end, err := validate.ParseDate(endStr)
	if err != nil {
		exitErr("range", err)
	}

	s, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	events, err := s.ByDateRange(cmd.Context(), store.DateRangeParams{
		OwnerID: owner,
		Start:   start,
		End:     end,
		Limit:   limit,
	})
	if err != nil {
		exitErr("range", err)
	}

	printJSON(cmd, events)
}
