package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show an owner's event statistics",
		Run:   runStats,
	}

	cmd.Flags().StringP("owner", "o", "", "Owner id (required)")

	cmd.MarkFlagRequired("owner")

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")

	s, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	stats, err := s.Stats(cmd.Context(), owner)
	if err != nil {
		exitErr("stats", err)
	}

	printJSON(cmd, stats)
}
