package cli

import (
	"fmt"
	"os"
	"strings"

	mentorshipsvc "github.com/dalemusser/mentorhub/internal/app/services/mentorship"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats <user-id>",
		Short: "Show a user's mentorship counts",
		Args:  cobra.ExactArgs(1),
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	userID, err := primitive.ObjectIDFromHex(args[0])
	if err != nil {
		exitErr("parse user id", err)
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		exitErr("open database", err)
	}
	defer s.Close()

	stats, err := s.service().Stats(cmd.Context(), userID)
	if err != nil {
		exitErr("stats", err)
	}

	printResult(os.Stdout, stats, func() string { return statsText(stats) })
}

func statsText(st mentorshipsvc.Stats) string {
	var b strings.Builder
	if m := st.Mentor; m != nil {
		fmt.Fprintf(&b, "as mentor: %d total, %d pending, %d active, %d completed, %d slots free\n",
			m.Total, m.Pending, m.Active, m.Completed, m.AvailableSlots)
	}
	fmt.Fprintf(&b, "as mentee: %d total, %d active, %d completed",
		st.Mentee.Total, st.Mentee.Active, st.Mentee.Completed)
	return b.String()
}
