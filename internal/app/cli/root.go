// Package cli implements the mentorctl operator commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	mentorshipsvc "github.com/dalemusser/mentorhub/internal/app/services/mentorship"
	"github.com/dalemusser/mentorhub/internal/app/store/audit"
	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"github.com/dalemusser/mentorhub/internal/app/system/auditlog"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

var (
	mongoURI     string
	databaseName string
	formatFlag   string
	verbose      bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "mentorctl",
	Short: "Operator commands for mentorhub",
	Long:  "Maintenance commands that work directly against the mentorhub MongoDB database.",
}

func init() {
	RootCmd.PersistentFlags().StringVar(&mongoURI, "mongo-uri", "", "MongoDB URI (default: $MENTORHUB_MONGO_URI or mongodb://localhost:27017)")
	RootCmd.PersistentFlags().StringVar(&databaseName, "db", "", "Database name (default: $MENTORHUB_MONGO_DATABASE or mentorhub)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr")
}

func getMongoURI() string {
	return firstSet(mongoURI, os.Getenv("MENTORHUB_MONGO_URI"), "mongodb://localhost:27017")
}

func getDatabaseName() string {
	return firstSet(databaseName, os.Getenv("MENTORHUB_MONGO_DATABASE"), "mentorhub")
}

func getDefaultMaxMentees() int {
	if n, err := strconv.Atoi(os.Getenv("MENTORHUB_DEFAULT_MAX_MENTEES")); err == nil && n > 0 {
		return n
	}
	return 0
}

func firstSet(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// session bundles what one command needs against the database.
type session struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zap.Logger
}

func openSession(ctx context.Context) (*session, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(getMongoURI()))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &session{client: client, db: client.Database(getDatabaseName()), log: newLogger()}, nil
}

func (s *session) Close() {
	_ = s.log.Sync()
	_ = s.client.Disconnect(context.Background())
}

func (s *session) service() *mentorshipsvc.Service {
	return mentorshipsvc.New(s.db, userstore.NewDirectory(s.db, getDefaultMaxMentees()), s.log)
}

func (s *session) auditLogger() *auditlog.Logger {
	return auditlog.New(audit.New(s.db), s.log, auditlog.Config{})
}

// printResult writes v as indented JSON, or as the text rendering when
// --format=text.
func printResult(w io.Writer, v any, text func() string) {
	if formatFlag == "text" && text != nil {
		fmt.Fprintln(w, text())
		return
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
