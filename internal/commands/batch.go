package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/gaborage/reqengine/engine"
)

const defaultBatchConcurrency = 4

// BatchFile is the YAML document read by the batch command.
type BatchFile struct {
	// Concurrency caps in-flight requests; the --concurrency flag wins when set
	Concurrency int              `yaml:"concurrency"`
	Requests    []map[string]any `yaml:"requests"`
}

// BatchResult is the outcome of one batch entry.
type BatchResult struct {
	Index    int    `yaml:"index"`
	Type     string `yaml:"type"`
	Status   string `yaml:"status"`
	Attempts int    `yaml:"attempts"`
	Payload  any    `yaml:"payload,omitempty"`
	Error    string `yaml:"error,omitempty"`
}

// NewBatchCommand creates the batch command
func NewBatchCommand(global *GlobalOptions) *cobra.Command {
	var (
		policy      policyFlags
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "batch <file.yaml>",
		Short: "Dispatch every description of a YAML file concurrently",
		Long: `Reads a YAML file with a "requests" list of descriptions and dispatches them
through one engine. Results are printed as YAML in input order. The command
fails when any request does not succeed.`,
		Example: `  # requests.yaml
  concurrency: 2
  requests:
    - type: HTTP_GET
      url: https://httpbin.org/get
    - type: HTTP_POST
      url: https://httpbin.org/post
      data: {key: value}

  reqengine batch requests.yaml --attempts 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, err := readBatchFile(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("concurrency") {
				batch.Concurrency = concurrency
			}

			a, err := newApp(global, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			results := runBatch(cmd.Context(), a.engine, batch, policy.callOptions(cmd))

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(results); err != nil {
				return fmt.Errorf("failed to write results: %w", err)
			}
			if err := enc.Close(); err != nil {
				return err
			}

			if failed := countFailed(results); failed > 0 {
				return fmt.Errorf("%d of %d requests did not succeed", failed, len(results))
			}
			return nil
		},
	}

	policy.register(cmd)
	cmd.Flags().IntVar(&concurrency, "concurrency", defaultBatchConcurrency, "Maximum requests in flight")
	return cmd
}

func readBatchFile(path string) (*BatchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var batch BatchFile
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("failed to parse batch file %s: %w", path, err)
	}
	if len(batch.Requests) == 0 {
		return nil, fmt.Errorf("batch file %s has no requests", path)
	}
	return &batch, nil
}

// runBatch dispatches every request with at most batch.Concurrency in flight.
// Failures are reported per entry and never stop the other requests.
func runBatch(ctx context.Context, eng *engine.Engine, batch *BatchFile, opts []engine.CallOption) []BatchResult {
	if ctx == nil {
		ctx = context.Background()
	}
	limit := batch.Concurrency
	if limit <= 0 {
		limit = defaultBatchConcurrency
	}

	results := make([]BatchResult, len(batch.Requests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, raw := range batch.Requests {
		g.Go(func() error {
			results[i] = dispatchEntry(gctx, eng, i, engine.Description(raw), opts)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func dispatchEntry(ctx context.Context, eng *engine.Engine, index int, d engine.Description, opts []engine.CallOption) BatchResult {
	entry := BatchResult{Index: index}
	if t, ok := d.Type(); ok {
		entry.Type = string(t)
	}

	result, err := eng.Handle(ctx, d, opts...)
	if err != nil {
		entry.Status = "invalid"
		entry.Error = err.Error()
		return entry
	}

	entry.Status = string(result.Status)
	entry.Attempts = result.Attempts
	if result.OK() {
		entry.Payload = result.Payload
	} else if result.Err != nil {
		entry.Error = result.Err.Error()
	}
	return entry
}

func countFailed(results []BatchResult) int {
	n := 0
	for _, r := range results {
		if r.Status != string(engine.StatusSucceeded) {
			n++
		}
	}
	return n
}
