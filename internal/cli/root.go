// Package cli implements the tnfpkg command-line interface: creating
// OpenTNF GeoPackage files and inspecting existing ones.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opentnf/tnfpkg/internal/paths"
	"github.com/opentnf/tnfpkg/internal/sqlite"
	"github.com/opentnf/tnfpkg/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// app holds global flag values and the state loaded before a subcommand
// runs.
type app struct {
	configDir string
	logLevel  string
	template  string
	jsonMode  bool

	cfg    *viper.Viper
	cfgDir string
	logger *slog.Logger
	errOut io.Writer
}

// userError marks a failure caused by the invocation rather than the
// system.
type userError struct{ err error }

func (e userError) Error() string { return e.err.Error() }
func (e userError) Unwrap() error { return e.err }

func userErrorf(format string, args ...any) error {
	return userError{fmt.Errorf(format, args...)}
}

// NewRootCmd creates the top-level "tnfpkg" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "tnfpkg",
		Short: "Create and inspect OpenTNF GeoPackage files",
		Long: "tnfpkg creates OpenTNF transport network datasets stored in GeoPackage\n" +
			"files and reports on the contents of existing ones.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.template, "template", "", "template GeoPackage copied by create")
	root.PersistentFlags().BoolVar(&a.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newCreateCmd(a))
	root.AddCommand(newInfoCmd(a))
	root.AddCommand(newTablesCmd(a))
	root.AddCommand(newValidateCmd(a))
	root.AddCommand(newIndexCmd(a))
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(os.Stderr, "tnfpkg:", err)
	return exitCode(err)
}

// exitCode classifies err: invocation and configuration problems are user
// errors, everything else is a system error.
func exitCode(err error) int {
	var ue userError
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &ue), errors.Is(err, types.ErrConfiguration):
		return exitUserError
	default:
		return exitSysError
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	if cmd.Name() == "version" {
		return nil
	}
	dir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(dir)
	if err != nil {
		return err
	}
	a.cfg, a.cfgDir = cfg, dir

	level := a.logLevel
	if level == "" {
		level = cfg.GetString(cfgKeyLogLevel)
	}
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}
	a.errOut = cmd.ErrOrStderr()
	a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: lvl}))
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if s == "" {
		return slog.LevelWarn, nil
	}
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, userErrorf("invalid log level %q", s)
	}
	return lvl, nil
}

// open returns a session on an existing file.
func (a *app) open(path string) (*sqlite.Database, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, userErrorf("open %s: %w", path, err)
	}
	db := sqlite.New(path, sqlite.WithLogger(a.logger))
	if err := db.Open(nil); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return db, nil
}
