package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "taskboard",
	Short: "Track projects and tasks from the terminal",
	Long: `Taskboard keeps a live list of your projects and, for the selected
project, its tasks. Lists update as soon as anything changes, whether the
change came from this terminal, another client or an MCP agent.

Run against a server:
  taskboard --server http://localhost:8080

Or against a database file on this machine:
  taskboard --db ~/taskboard.db

Every flag can also be set as TASKBOARD_<FLAG> (for example
TASKBOARD_SERVER) or in the file named by --config.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd.Context())
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (yaml)")
	flags.String("server", "", "server URL; when empty the local database is used")
	flags.String("db", "taskboard.db", "local database path")
	flags.String("token-file", defaultPath(os.UserConfigDir, "session"), "where the session token is kept")
	flags.String("log-file", defaultPath(os.UserCacheDir, "taskboard.log"), "log file")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Bool("watch", true, "refresh lists when another process writes the local database")

	for _, name := range []string{"server", "db", "token-file", "log-file", "log-level", "watch"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
	_ = viper.BindPFlag("config", flags.Lookup("config"))

	viper.SetEnvPrefix("TASKBOARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func loadConfig() error {
	path := viper.GetString("config")
	if path == "" {
		return nil
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	return nil
}

func defaultPath(base func() (string, error), name string) string {
	dir, err := base()
	if err != nil {
		return name
	}
	return filepath.Join(dir, "taskboard", name)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
