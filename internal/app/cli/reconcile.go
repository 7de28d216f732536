package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "reconcile-slots",
		Short: "Rebuild mentor slot documents from active mentorships",
		Long: "Recomputes every mentor's active slot list from the mentorship records. " +
			"Each slot document is rewritten only if no claim or release touched it meanwhile, " +
			"so it can run against a live deployment.",
		Args: cobra.NoArgs,
		Run:  runReconcile,
	}

	RootCmd.AddCommand(cmd)
}

func runReconcile(cmd *cobra.Command, args []string) {
	s, err := openSession(cmd.Context())
	if err != nil {
		exitErr("open database", err)
	}
	defer s.Close()

	res, err := s.service().ReconcileSlots(cmd.Context())
	if err != nil {
		exitErr("reconcile slots", err)
	}
	s.auditLogger().SlotsReconciled(cmd.Context(), "cli", res.Mentors, res.Changed)

	printResult(os.Stdout, map[string]int{
		"mentors": res.Mentors,
		"changed": res.Changed,
	}, func() string {
		return fmt.Sprintf("%d mentors with active mentorships, %d slot documents rewritten", res.Mentors, res.Changed)
	})
}
