package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rcliao/temporal-events/internal/model"
	"github.com/spf13/cobra"
)

// managedFields are assigned by the store and dropped from imported records.
var managedFields = []string{model.FieldEventID, model.FieldCreatedAt, model.FieldUpdatedAt}

func init() {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import events from JSON",
		Long:  "Import events from a JSON array (stdin or --file). Expects the format produced by export; imported events get new ids and timestamps.",
		Run:   runImport,
	}

	cmd.Flags().String("file", "", "Read from file instead of stdin")

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	var (
		data []byte
		err  error
	)
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		data, err = os.ReadFile(file)
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		exitErr("read input", err)
	}

	payloads, err := parseImport(data)
	if err != nil {
		exitErr("parse json", err)
	}

	s, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	imported, err := s.Import(cmd.Context(), payloads)
	if err != nil {
		exitErr(fmt.Sprintf("import (%d imported)", imported), err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"imported":%d}`+"\n", imported)
}

func parseImport(data []byte) ([]map[string]any, error) {
	var payloads []map[string]any
	if err := json.Unmarshal(data, &payloads); err != nil {
		return nil, err
	}
	for _, p := range payloads {
		for _, f := range managedFields {
			delete(p, f)
		}
	}
	return payloads, nil
}
