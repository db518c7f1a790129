package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get <event-id>",
		Short: "Retrieve an event",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	s, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	ev, err := s.Get(cmd.Context(), args[0])
	if err != nil {
		exitErr("get", err)
	}

	printJSON(cmd, ev)
}
