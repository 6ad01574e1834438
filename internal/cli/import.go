package cli

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/symreg/internal/symbol"
)

// ImportResult is the output of the import command.
type ImportResult struct {
	Imported  int    `json:"imported"`
	HighWater uint32 `json:"high_water"`
}

func (r ImportResult) String() string {
	return fmt.Sprintf("Imported %d symbols (high-water %d)", r.Imported, r.HighWater)
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Bind externally assigned ids to names",
		Long: `Import a YAML mapping of id to name, overwriting earlier bindings of
either side. Run imports while nothing else is interning into the same store.

File format:
  1: main
  2: init
  100: shutdown

Example:
  symreg import --db ./symbols.db symbols.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, rootOpts, args[0])
		},
	}
}

func runImport(cmd *cobra.Command, opts *RootOptions, path string) error {
	entries, err := readImportFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read import file", err)
	}
	if len(entries) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("no symbols in %s", path))
	}

	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if err := s.registry.Put(e.ID, e.Name); err != nil {
			return s.closeWith(WrapExitError(ExitFailure, fmt.Sprintf("failed to import id %d", e.ID), err))
		}
	}
	result := ImportResult{Imported: len(entries), HighWater: uint32(s.registry.HighWater())}
	s.out.VerboseLog("flushing %d journaled changes", s.registry.Pending())

	if err := s.close(); err != nil {
		return err
	}
	return s.out.Success(result)
}

// readImportFile parses an id: name mapping, sorted by id.
func readImportFile(path string) ([]symbol.Symbol, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[uint32]string
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	entries := make([]symbol.Symbol, 0, len(raw))
	for id, name := range raw {
		if id == 0 {
			return nil, fmt.Errorf("id 0 is reserved (name %q)", name)
		}
		if name == "" {
			return nil, fmt.Errorf("id %d has an empty name", id)
		}
		entries = append(entries, symbol.Symbol{ID: symbol.ID(id), Name: name})
	}
	slices.SortFunc(entries, func(a, b symbol.Symbol) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return entries, nil
}
