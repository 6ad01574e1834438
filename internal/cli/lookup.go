package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/symreg/internal/symbol"
)

// UnknownName is printed for ids that are not bound to any name.
const UnknownName = "<unknown>"

// NewLookupCommand creates the lookup command.
func NewLookupCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <id>...",
		Short: "Resolve ids to names",
		Long: `Print "id<TAB>name" for each id. Unbound ids print ` + UnknownName + `.

Example:
  symreg lookup --db ./symbols.db 1 2 3`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd, rootOpts, args)
		},
	}
}

func runLookup(cmd *cobra.Command, opts *RootOptions, args []string) error {
	ids := make([]symbol.ID, 0, len(args))
	for _, arg := range args {
		id, err := parseID(arg)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid id", err)
		}
		ids = append(ids, id)
	}

	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}

	results := make([]symbolJSON, 0, len(ids))
	for _, id := range ids {
		name, ok, err := s.registry.SymbolName(id)
		if err != nil {
			return s.closeWith(WrapExitError(ExitFailure, fmt.Sprintf("failed to look up %d", id), err))
		}
		found := ok
		if !ok {
			name = UnknownName
		}
		results = append(results, symbolJSON{ID: uint32(id), Name: name, Found: &found})
	}

	if err := s.close(); err != nil {
		return err
	}
	return s.out.Symbols(results)
}

func parseID(s string) (symbol.ID, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return symbol.NullID, fmt.Errorf("%q is not a symbol id", s)
	}
	return symbol.ID(n), nil
}
