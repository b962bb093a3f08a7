package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gaborage/reqengine/engine"
)

// NewGetCommand creates the get command
func NewGetCommand(global *GlobalOptions) *cobra.Command {
	var (
		policy  policyFlags
		headers []string
	)

	cmd := &cobra.Command{
		Use:   "get <url>",
		Short: "Retrieve a URL through the HTTP_GET handler",
		Example: `  reqengine get https://httpbin.org/get
  reqengine get https://httpbin.org/get --attempts 5 --delay 2s`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := engine.Description{
				engine.FieldType: string(engine.TypeHTTPGet),
				engine.FieldURL:  args[0],
			}
			if err := addHeaders(d, headers); err != nil {
				return err
			}
			return runDispatch(cmd, global, d, policy.callOptions(cmd))
		},
	}

	policy.register(cmd)
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "Request header as key=value (repeatable)")
	return cmd
}

// NewPostCommand creates the post command
func NewPostCommand(global *GlobalOptions) *cobra.Command {
	var (
		policy  policyFlags
		data    []string
		body    string
		headers []string
	)

	cmd := &cobra.Command{
		Use:   "post <url>",
		Short: "Submit form data or a raw body through the HTTP_POST handler",
		Example: `  reqengine post https://httpbin.org/post --data key=value
  reqengine post https://httpbin.org/post --body '{"a":1}' -H Content-Type=application/json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := engine.Description{
				engine.FieldType: string(engine.TypeHTTPPost),
				engine.FieldURL:  args[0],
			}
			switch {
			case body != "" && len(data) > 0:
				return fmt.Errorf("--data and --body are mutually exclusive")
			case body != "":
				d[engine.FieldData] = body
			case len(data) > 0:
				form, err := parsePairs(data)
				if err != nil {
					return err
				}
				d[engine.FieldData] = form
			}
			if err := addHeaders(d, headers); err != nil {
				return err
			}
			return runDispatch(cmd, global, d, policy.callOptions(cmd))
		},
	}

	policy.register(cmd)
	cmd.Flags().StringArrayVarP(&data, "data", "d", nil, "Form field as key=value (repeatable)")
	cmd.Flags().StringVar(&body, "body", "", "Raw request body")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "Request header as key=value (repeatable)")
	return cmd
}

// NewDoCommand creates the do command, which dispatches an arbitrary description
func NewDoCommand(global *GlobalOptions) *cobra.Command {
	var (
		policy      policyFlags
		requestType string
		fields      []string
	)

	cmd := &cobra.Command{
		Use:   "do",
		Short: "Dispatch a description of any registered type",
		Example: `  reqengine do --type HTTP_GET --field url=https://httpbin.org/get`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pairs, err := parsePairs(fields)
			if err != nil {
				return err
			}
			d := make(engine.Description, len(pairs)+1)
			for k, v := range pairs {
				d[k] = v
			}
			d[engine.FieldType] = requestType
			return runDispatch(cmd, global, d, policy.callOptions(cmd))
		},
	}

	policy.register(cmd)
	cmd.Flags().StringVarP(&requestType, "type", "t", "", "Request type (required)")
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "Description field as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func runDispatch(cmd *cobra.Command, global *GlobalOptions, d engine.Description, opts []engine.CallOption) error {
	a, err := newApp(global, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := a.engine.Handle(ctx, d, opts...)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), result)
}

// printResult writes the payload of a successful result. Other statuses
// become an error naming the status and the last failure.
func printResult(out io.Writer, result engine.Result) error {
	if !result.OK() {
		if result.Err != nil {
			return fmt.Errorf("%s request %s after %d attempt(s): %w", result.Type, result.Status, result.Attempts, result.Err)
		}
		return fmt.Errorf("%s request %s", result.Type, result.Status)
	}

	if text, ok := result.Text(); ok {
		_, err := fmt.Fprintln(out, text)
		return err
	}
	_, err := fmt.Fprintf(out, "%v\n", result.Payload)
	return err
}

func addHeaders(d engine.Description, headers []string) error {
	if len(headers) == 0 {
		return nil
	}
	pairs, err := parsePairs(headers)
	if err != nil {
		return err
	}
	d[engine.FieldHeaders] = pairs
	return nil
}

// parsePairs splits key=value arguments; later keys win.
func parsePairs(items []string) (map[string]string, error) {
	out := make(map[string]string, len(items))
	for _, item := range items {
		key, value, ok := strings.Cut(item, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid pair %q: expected key=value", item)
		}
		out[key] = value
	}
	return out, nil
}
