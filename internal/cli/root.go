package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Backend    string // overrides storage.kind
	Database   string // overrides storage.path
	Verbose    bool
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the symreg CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "symreg",
		Short: "symreg - symbol registry",
		Long: `A concurrent bidirectional name/id symbol registry.

Names are interned to compact, stable integer ids. With a backing store
(SQLite, Badger or Redis) the mapping survives restarts.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (.yaml, .toml or .cue)")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "storage backend (memory|sqlite|badger|redis)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "database path for sqlite or badger")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewInternCommand(opts))
	cmd.AddCommand(NewLookupCommand(opts))
	cmd.AddCommand(NewDumpCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// Execute runs cmd and renders any error in the requested format.
// It returns the process exit code.
func Execute(cmd *cobra.Command) int {
	executed, err := cmd.ExecuteC()
	if err == nil {
		return ExitSuccess
	}

	format := "text"
	if executed != nil {
		if f := executed.Flags().Lookup("format"); f != nil && isValidFormat(f.Value.String()) {
			format = f.Value.String()
		}
	}
	formatter := &OutputFormatter{Format: format, Writer: cmd.ErrOrStderr()}
	if format == "json" {
		formatter.Writer = cmd.OutOrStdout()
	}

	return formatter.Fail(err)
}
