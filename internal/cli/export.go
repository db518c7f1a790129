package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export an owner's events as JSON",
		Long:  "Export every event of an owner as a JSON array, newest first. The output can be fed back to import.",
		Run:   runExport,
	}

	cmd.Flags().StringP("owner", "o", "", "Owner id (required)")

	cmd.MarkFlagRequired("owner")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")

	s, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	events, err := s.ExportOwner(cmd.Context(), owner)
	if err != nil {
		exitErr("export", err)
	}

	printJSON(cmd, events)
}
