package cli

import (
	"os"

	"github.com/dalemusser/mentorhub/internal/app/system/indexes"
	"github.com/dalemusser/mentorhub/internal/app/system/validators"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ensure-schema",
		Short: "Create collections, validators and indexes",
		Args:  cobra.NoArgs,
		Run:   runEnsureSchema,
	}

	RootCmd.AddCommand(cmd)
}

func runEnsureSchema(cmd *cobra.Command, args []string) {
	s, err := openSession(cmd.Context())
	if err != nil {
		exitErr("open database", err)
	}
	defer s.Close()

	if err := validators.EnsureAll(cmd.Context(), s.db); err != nil {
		exitErr("ensure collections", err)
	}
	if err := indexes.EnsureAll(cmd.Context(), s.db); err != nil {
		exitErr("ensure indexes", err)
	}
	printResult(os.Stdout, map[string]string{"status": "ok"}, func() string { return "schema ensured" })
}
