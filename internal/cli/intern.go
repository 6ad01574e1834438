package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/symreg/internal/symbol"
)

// symbolJSON is the JSON shape of a symbol in command output.
type symbolJSON struct {
	ID    uint32 `json:"id"`
	Name  string `json:"name"`
	Found *bool  `json:"found,omitempty"`
}

// NewInternCommand creates the intern command.
func NewInternCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "intern <name>...",
		Short: "Intern names and print their ids",
		Long: `Intern each name, allocating an id on first use, and print "id<TAB>name".

Pass "-" to read names from stdin, one per line. With a backing store the
new symbols are flushed before the command exits.

Example:
  symreg intern --db ./symbols.db main init
  cut -f1 calls.tsv | symreg intern --db ./symbols.db -`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntern(cmd, rootOpts, args)
		},
	}
}

func runIntern(cmd *cobra.Command, opts *RootOptions, args []string) error {
	names, err := collectNames(args, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read names", err)
	}

	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}

	results := make([]symbolJSON, 0, len(names))
	for _, name := range names {
		id, err := s.registry.SymbolID(name)
		if err != nil {
			return s.closeWith(WrapExitError(ExitFailure, fmt.Sprintf("failed to intern %q", name), err))
		}
		results = append(results, symbolJSON{ID: uint32(id), Name: name})
	}

	pending := s.registry.Pending()
	if err := s.close(); err != nil {
		return err
	}
	if s.registry.Durable() {
		s.out.VerboseLog("flushed %d new symbols to %s", pending, s.cfg.Storage.Kind)
	}
	return s.out.Symbols(results)
}

// collectNames expands "-" into the lines of stdin. Blank lines are skipped.
func collectNames(args []string, stdin io.Reader) ([]string, error) {
	var names []string
	for _, arg := range args {
		if arg != "-" {
			names = append(names, arg)
			continue
		}
		scanner := bufio.NewScanner(stdin)
		for scanner.Scan() {
			line := strings.TrimRight(scanner.Text(), "\r")
			if line == "" {
				continue
			}
			names = append(names, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}
	return names, nil
}

func toJSON(sym symbol.Symbol) symbolJSON {
	return symbolJSON{ID: uint32(sym.ID), Name: sym.Name}
}
