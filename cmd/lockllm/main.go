// Command lockllm is a command-line client for the LockLLM API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	lockllm "github.com/lockllm/lockllm-go"
	"github.com/lockllm/lockllm-go/internal/config"
)

var version = "dev"

const apiKeyEnv = "LOCKLLM_API_KEY"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// cli carries the global flags and output streams shared by every command.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	apiKey     string
	baseURL    string
	timeout    time.Duration
	maxRetries int
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		c.printError(err)
		return 1
	}
	return 0
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lockllm",
		Short:         "LockLLM command-line client",
		Long:          `lockllm scans prompts and manages LockLLM policies, routing rules, credits, logs, webhooks and provider keys.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "path to a YAML config file (client section is used)")
	pf.StringVar(&c.apiKey, "api-key", "", "LockLLM API key (default $"+apiKeyEnv+")")
	pf.StringVar(&c.baseURL, "base-url", "", "LockLLM API base URL (default "+lockllm.DefaultBaseURL+")")
	pf.DurationVar(&c.timeout, "timeout", lockllm.DefaultTimeout, "per-attempt request timeout")
	pf.IntVar(&c.maxRetries, "max-retries", lockllm.DefaultMaxRetries, "retries for rate-limited and failed requests")

	root.AddCommand(
		c.scanCmd(),
		c.policiesCmd(),
		c.routingCmd(),
		c.creditsCmd(),
		c.logsCmd(),
		c.webhooksCmd(),
		c.keysCmd(),
		c.proxyURLCmd(),
		c.keygenCmd(),
	)
	return root
}

// clientConfig merges, lowest to highest precedence: defaults, the config
// file, $LOCKLLM_API_KEY and explicitly set flags.
func (c *cli) clientConfig(cmd *cobra.Command) (config.ClientConfig, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.ClientConfig{}, err
	}
	cc := cfg.Client

	if v := os.Getenv(apiKeyEnv); v != "" {
		cc.APIKey = v
	}
	flags := cmd.Flags()
	if flags.Changed("api-key") {
		cc.APIKey = c.apiKey
	}
	if flags.Changed("base-url") {
		cc.BaseURL = c.baseURL
	}
	if flags.Changed("timeout") {
		cc.Timeout = c.timeout
	}
	if flags.Changed("max-retries") {
		cc.MaxRetries = c.maxRetries
	}
	return cc, nil
}

func (c *cli) client(cmd *cobra.Command) (*lockllm.Client, error) {
	cc, err := c.clientConfig(cmd)
	if err != nil {
		return nil, err
	}
	return lockllm.New(cc.APIKey, cc.ClientOptions()...)
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) printError(err error) {
	var e *lockllm.Error
	if errors.As(err, &e) {
		line := "error: " + e.Kind.String()
		if e.Code != "" {
			line += " (" + e.Code + ")"
		}
		if e.RequestID != "" {
			line += " request_id=" + e.RequestID
		}
		fmt.Fprintln(c.stderr, line)
		if msg := strings.TrimSpace(e.Message); msg != "" {
			fmt.Fprintln(c.stderr, "  "+msg)
		}
		if e.RetryAfter > 0 {
			fmt.Fprintf(c.stderr, "  retry after %s\n", e.RetryAfter)
		}
		return
	}
	fmt.Fprintln(c.stderr, "error: "+err.Error())
}

// withClient adapts a command body that needs an API client into a cobra RunE.
func (c *cli) withClient(fn func(ctx context.Context, client *lockllm.Client, args []string) (any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		client, err := c.client(cmd)
		if err != nil {
			return err
		}
		out, err := fn(cmd.Context(), client, args)
		if err != nil {
			return err
		}
		return c.printJSON(out)
	}
}
