package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/symreg/internal/symbol"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
	From uint32
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "List all symbols in id order",
		Long: `List every bound symbol as "id<TAB>name" in ascending id order.

Example:
  symreg dump --db ./symbols.db
  symreg dump --db ./symbols.db --from 1000 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd, opts)
		},
	}

	cmd.Flags().Uint32Var(&opts.From, "from", 0, "first id to list")

	return cmd
}

func runDump(cmd *cobra.Command, opts *DumpOptions) error {
	s, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}

	results := []symbolJSON{}
	err = s.registry.Ascend(symbol.ID(opts.From), func(sym symbol.Symbol) bool {
		results = append(results, toJSON(sym))
		return true
	})
	if err != nil {
		return s.closeWith(WrapExitError(ExitFailure, "failed to list symbols", err))
	}

	if err := s.close(); err != nil {
		return err
	}
	return s.out.Symbols(results)
}
