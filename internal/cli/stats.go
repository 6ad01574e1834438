package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// StatsResult is the output of the stats command.
type StatsResult struct {
	Instance  string `json:"instance"`
	Backend   string `json:"backend"`
	Durable   bool   `json:"durable"`
	Symbols   int    `json:"symbols"`
	HighWater uint32 `json:"high_water"`
	Pending   int    `json:"pending"`
}

func (r StatsResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Instance:   %s\n", r.Instance)
	fmt.Fprintf(&b, "Backend:    %s\n", r.Backend)
	fmt.Fprintf(&b, "Durable:    %t\n", r.Durable)
	fmt.Fprintf(&b, "Symbols:    %d\n", r.Symbols)
	fmt.Fprintf(&b, "High-water: %d\n", r.HighWater)
	fmt.Fprintf(&b, "Pending:    %d", r.Pending)
	return b.String()
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "stats",
		Short:         "Show registry statistics",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, rootOpts)
		},
	}
}

func runStats(cmd *cobra.Command, opts *RootOptions) error {
	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}

	size, err := s.registry.Size()
	if err != nil {
		return s.closeWith(WrapExitError(ExitFailure, "failed to read size", err))
	}
	result := StatsResult{
		Instance:  s.registry.InstanceID().String(),
		Backend:   s.cfg.Storage.Kind,
		Durable:   s.registry.Durable(),
		Symbols:   size,
		HighWater: uint32(s.registry.HighWater()),
		Pending:   s.registry.Pending(),
	}

	if err := s.close(); err != nil {
		return err
	}
	return s.out.Success(result)
}
