package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/madinamutiyeva/SingletonPattern/internal/db"
	"github.com/madinamutiyeva/SingletonPattern/internal/logging"
)

const defaultConfigPath = "database_config.properties"

type flags struct {
	configPath  string
	debug       bool
	logFile     string
	metricsAddr string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	rootCmd := &cobra.Command{
		Use:   "dbconn",
		Short: "Run statements against the database configured in a properties file",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setup(cmd.Context(), f)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsers(cmd.Context(), cmd.OutOrStdout(), &db.SingletonConnector{ConfigPath: f.configPath})
		},
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", defaultConfigPath, "Path to the database properties or YAML file")
	pf.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	pf.StringVar(&f.logFile, "log-file", "", "Write logs to a rotated file instead of stderr")
	pf.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "users",
			Short: "List id, username and password of every row in the users table",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runUsers(cmd.Context(), cmd.OutOrStdout(), &db.SingletonConnector{ConfigPath: f.configPath})
			},
		},
		&cobra.Command{
			Use:   "query SQL",
			Short: "Run a query and print every row",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runQuery(cmd.Context(), cmd.OutOrStdout(), f, args[0])
			},
		},
		&cobra.Command{
			Use:   "exec SQL",
			Short: "Run a mutating statement and print the number of affected rows",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runExec(cmd.Context(), cmd.OutOrStdout(), f, args[0])
			},
		},
	)

	return rootCmd
}

func setup(ctx context.Context, f *flags) {
	var opts []logging.Option
	if f.debug {
		opts = append(opts, logging.WithLevel(slog.LevelDebug))
	}
	if f.logFile != "" {
		opts = append(opts, logging.WithFile(f.logFile))
	}
	if len(opts) > 0 {
		logging.Configure(opts...)
	}

	if f.metricsAddr != "" {
		runMetricsServer(ctx, f.metricsAddr)
	}
}

func runUsers(ctx context.Context, out io.Writer, connector db.Connector) error {
	log := logging.New("users")

	m, err := connector.Connect(ctx)
	if err != nil {
		fmt.Fprintln(out, "Failed to establish connection to the database.")
		log.ErrorContext(ctx, "failed to connect", "error", err)
		return err
	}
	defer m.CloseConnection()
	fmt.Fprintln(out, "Connection to the database established successfully.")

	users, err := db.ListUsers(ctx, m)
	if err != nil {
		log.ErrorContext(ctx, "failed to list users", "error", err)
		return err
	}
	for _, u := range users {
		fmt.Fprintf(out, "User: %d, %s, %s\n", u.ID, orNull(u.Username), orNull(u.Password))
	}
	return nil
}

func orNull(s sql.NullString) string {
	if !s.Valid {
		return "null"
	}
	return s.String
}

func runQuery(ctx context.Context, out io.Writer, f *flags, query string) error {
	log := logging.New("query")
	m, err := (&db.FileConnector{ConfigPath: f.configPath}).Connect(ctx)
	if err != nil {
		log.ErrorContext(ctx, "failed to connect", "error", err)
		return err
	}
	defer m.CloseConnection()

	rows, err := m.ExecuteQueryAndReturnRows(ctx, query)
	if err != nil {
		log.ErrorContext(ctx, "failed to run query", "error", err)
		return err
	}
	for _, row := range rows {
		fields := make([]string, len(row))
		for i, v := range row {
			fields[i] = v.String()
		}
		fmt.Fprintln(out, strings.Join(fields, "\t"))
	}
	return nil
}

func runExec(ctx context.Context, out io.Writer, f *flags, statement string) error {
	log := logging.New("exec")
	m, err := (&db.FileConnector{ConfigPath: f.configPath}).Connect(ctx)
	if err != nil {
		log.ErrorContext(ctx, "failed to connect", "error", err)
		return err
	}
	defer m.CloseConnection()

	affected, err := m.ExecuteUpdate(ctx, statement)
	if err != nil {
		log.ErrorContext(ctx, "failed to run statement", "error", err)
		return err
	}
	fmt.Fprintf(out, "%d rows affected\n", affected)
	return nil
}
