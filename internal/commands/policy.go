package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/gaborage/reqengine/engine"
)

// policyFlags override the configured retry policy for one invocation.
type policyFlags struct {
	attempts int
	delay    time.Duration
	timeout  time.Duration
}

func (p *policyFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.attempts, "attempts", engine.DefaultMaxAttempts, "Maximum number of attempts")
	cmd.Flags().DurationVar(&p.delay, "delay", engine.DefaultDelay, "Wait between attempts")
	cmd.Flags().DurationVar(&p.timeout, "timeout", engine.DefaultTimeout, "Per-attempt timeout (0 disables)")
}

// callOptions returns options only for the flags set on the command line.
func (p *policyFlags) callOptions(cmd *cobra.Command) []engine.CallOption {
	var opts []engine.CallOption
	if cmd.Flags().Changed("attempts") {
		opts = append(opts, engine.WithMaxAttempts(p.attempts))
	}
	if cmd.Flags().Changed("delay") {
		opts = append(opts, engine.WithDelay(p.delay))
	}
	if cmd.Flags().Changed("timeout") {
		opts = append(opts, engine.WithTimeout(p.timeout))
	}
	return opts
}
