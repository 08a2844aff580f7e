package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sarchlab/simplebus/strobe"
	"github.com/sarchlab/simplebus/system"
)

// periodStat is the measured strobe period at one divisor.
type periodStat struct {
	Divisor  uint8
	Expected uint64
	Min, Max uint64
}

var clockCmd = &cobra.Command{
	Use:   "clock",
	Short: "Measure the bus strobe period at every clock divisor.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		strobes, _ := cmd.Flags().GetInt("strobes")
		if strobes < 2 {
			return fmt.Errorf("need at least 2 strobes, got %d", strobes)
		}

		stats := make([]periodStat, 0, strobe.MaxDivisor+1)
		for d := uint8(0); d <= strobe.MaxDivisor; d++ {
			stats = append(stats, measurePeriod(d, strobes))
		}

		printPeriods(cmd.OutOrStdout(), stats)

		for _, s := range stats {
			if s.Min != s.Expected || s.Max != s.Expected {
				return fmt.Errorf("divisor %d: period %d..%d, want %d",
					s.Divisor, s.Min, s.Max, s.Expected)
			}
		}

		return nil
	},
}

func init() {
	clockCmd.Flags().Int("strobes", 8,
		"Number of strobes to observe at every divisor.")

	rootCmd.AddCommand(clockCmd)
}

// measurePeriod steps an idle bridge until the host has strobed n times and
// returns the shortest and longest distance between two strobes.
func measurePeriod(divisor uint8, n int) periodStat {
	spec := system.Defaults()
	spec.Divisor = divisor

	sys := system.MakeBuilder().WithSpec(spec).WithoutCtrl().Build("Bridge")
	stat := periodStat{Divisor: divisor, Expected: spec.StrobePeriod()}

	var last uint64

	seen := 0
	limit := uint64(n+1) * stat.Expected * 2

	for sys.Domain.Cycle() < limit && seen < n {
		sys.Domain.Step()

		if !sys.Host.Strobe() {
			continue
		}

		now := sys.Domain.Cycle()
		if seen > 0 {
			p := now - last
			if stat.Min == 0 || p < stat.Min {
				stat.Min = p
			}

			stat.Max = max(stat.Max, p)
		}

		last = now
		seen++
	}

	return stat
}

func printPeriods(w io.Writer, stats []periodStat) {
	fmt.Fprintf(w, "%-8s %-8s %-8s %-8s\n", "divisor", "expected", "min", "max")

	for _, s := range stats {
		fmt.Fprintf(w, "%-8d %-8d %-8d %-8d\n",
			s.Divisor, s.Expected, s.Min, s.Max)
	}
}
