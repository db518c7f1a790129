package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "update <event-id>",
		Short: "Update an event",
		Long:  "Merge the given fields into an existing event. Only flags that are set are changed.",
		Args:  cobra.ExactArgs(1),
		Run:   runUpdate,
	}

	addPayloadFlags(cmd)

	RootCmd.AddCommand(cmd)
}

func runUpdate(cmd *cobra.Command, args []string) {
	payload, err := payloadFromFlags(cmd)
	if err != nil {
		exitErr("update", err)
	}
	if len(payload) == 0 {
		exitErr("update", fmt.Errorf("nothing to update"))
	}

	s, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	ev, err := s.Update(cmd.Context(), args[0], payload)
	if err != nil {
		exitErr("update", err)
	}

	printJSON(cmd, ev)
}
