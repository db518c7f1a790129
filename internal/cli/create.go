package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "create [event text]",
		Short: "Create an event",
		Long:  "Create an event from flags, or from a JSON object with --json (use - for stdin). Event text can be a positional arg or piped via stdin.",
		Run:   runCreate,
	}

	addPayloadFlags(cmd)
	cmd.Flags().StringP("owner", "o", "", "Owner id")

	RootCmd.AddCommand(cmd)
}

func runCreate(cmd *cobra.Command, args []string) {
	payload, err := payloadFromFlags(cmd)
	if err != nil {
		exitErr("create", err)
	}
	if owner, _ := cmd.Flags().GetString("owner"); owner != "" {
		payload["owner_id"] = owner
	}
	if _, ok := payload["event_text"]; !ok {
		text := strings.TrimSpace(strings.Join(args, " "))
		if text == "" {
			text = strings.TrimSpace(readPipedStdin())
		}
		if text == "" {
			exitErr("create", fmt.Errorf("event text is required (--text, positional arg or stdin)"))
		}
		payload["event_text"] = text
	}

	s, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	ev, err := s.Create(cmd.Context(), payload)
	if err != nil {
		exitErr("create", err)
	}

	printJSON(cmd, ev)
}
