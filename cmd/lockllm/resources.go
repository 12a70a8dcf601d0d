package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	lockllm "github.com/lockllm/lockllm-go"
)

func (c *cli) policiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policies",
		Short: "Manage custom content policies",
	}

	var create lockllm.CreatePolicyRequest
	var enabled bool
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a policy",
		Args:  cobra.NoArgs,
	}
	createCmd.RunE = c.withClient(func(ctx context.Context, client *lockllm.Client, _ []string) (any, error) {
		if createCmd.Flags().Changed("enabled") {
			create.Enabled = lockllm.Bool(enabled)
		}
		return client.Policies.Create(ctx, create, nil)
	})
	createCmd.Flags().StringVar(&create.Name, "name", "", "policy name")
	createCmd.Flags().StringVar(&create.Description, "description", "", "what the policy forbids")
	createCmd.Flags().BoolVar(&enabled, "enabled", true, "whether the policy is active")
	createCmd.MarkFlagRequired("name")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List policies",
			Args:  cobra.NoArgs,
			RunE: c.withClient(func(ctx context.Context, client *lockllm.Client, _ []string) (any, error) {
				return client.Policies.List(ctx, nil)
			}),
		},
		&cobra.Command{
			Use:   "get [id]",
			Short: "Show a policy",
			Args:  cobra.ExactArgs(1),
			RunE: c.withClient(func(ctx context.Context, client *lockllm.Client, args []string) (any, error) {
				return client.Policies.Get(ctx, args[0], nil)
			}),
		},
		createCmd,
		&cobra.Command{
			Use:   "delete [id]",
			Short: "Delete a policy",
			Args:  cobra.ExactArgs(1),
			RunE: c.withClient(func(ctx context.Context, client *lockllm.Client, args []string) (any, error) {
				return client.Policies.Delete(ctx, args[0], nil)
			}),
		},
	)
	return cmd
}

func (c *cli) routingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routing",
		Short: "Manage smart routing rules",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List routing rules",
			Args:  cobra.NoArgs,
			RunE: c.withClient(func(ctx context.Context, client *lockllm.Client, _ []string) (any, error) {
				return client.Routing.List(ctx, nil)
			}),
		},
		&cobra.Command{
			Use:   "delete [id]",
			Short: "Delete a routing rule",
			Args:  cobra.ExactArgs(1),
			RunE: c.withClient(func(ctx context.Context, client *lockllm.Client, args []string) (any, error) {
				return client.Routing.Delete(ctx, args[0], nil)
			}),
		},
	)
	return cmd
}

func (c *cli) creditsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credits",
		Short: "Inspect credit balance, transactions and tiers",
	}

	var filter lockllm.TransactionFilter
	txCmd := &cobra.Command{
		Use:   "transactions",
		Short: "List credit transactions",
		Args:  cobra.NoArgs,
		RunE: c.withClient(func(ctx context.Context, client *lockllm.Client, _ []string) (any, error) {
			return client.Credits.Transactions(ctx, &filter, nil)
		}),
	}
	txCmd.Flags().StringVar(&filter.Type, "type", "", "transaction type")
	txCmd.Flags().IntVar(&filter.Limit, "limit", 0, "maximum number of results")
	txCmd.Flags().IntVar(&filter.Offset, "offset", 0, "results to skip")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "balance",
			Short: "Show the current credit balance",
			Args:  cobra.NoArgs,
			RunE: c.withClient(func(ctx context.Context, client *lockllm.Client, _ []string) (any, error) {
				return client.Credits.Balance(ctx, nil)
			}),
		},
		txCmd,
		&cobra.Command{
			Use:   "tiers",
			Short: "List pricing tiers",
			Args:  cobra.NoArgs,
			RunE: c.withClient(func(ctx context.Context, client *lockllm.Client, _ []string) (any, error) {
				return client.Credits.Tiers(ctx, nil)
			}),
		},
	)
	return cmd
}

func (c *cli) logsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Browse scan and proxy activity logs",
	}

	var (
		filter     lockllm.LogFilter
		since      time.Duration
		start, end string
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List activity logs",
		Args:  cobra.NoArgs,
		RunE: c.withClient(func(ctx context.Context, client *lockllm.Client, _ []string) (any, error) {
			f := filter
			var err error
			if f.StartDate, err = parseDate(start); err != nil {
				return nil, err
			}
			if f.EndDate, err = parseDate(end); err != nil {
				return nil, err
			}
			if since > 0 && f.StartDate.IsZero() {
				f.StartDate = time.Now().Add(-since)
			}
			return client.Logs.List(ctx, &f, nil)
		}),
	}
	lf := listCmd.Flags()
	lf.StringVar(&filter.Type, "type", "", "log type")
	lf.StringVar(&filter.Status, "status", "", "log status")
	lf.StringVar(&start, "start", "", "earliest entry, RFC 3339")
	lf.StringVar(&end, "end", "", "latest entry, RFC 3339")
	lf.DurationVar(&since, "since", 0, "only entries newer than this, e.g. 24h")
	lf.IntVar(&filter.Limit, "limit", 0, "maximum number of results")
	lf.IntVar(&filter.Offset, "offset", 0, "results to skip")

	cmd.AddCommand(
		listCmd,
		&cobra.Command{
			Use:   "get [id]",
			Short: "Show a log entry",
			Args:  cobra.ExactArgs(1),
			RunE: c.withClient(func(ctx context.Context, client *lockllm.Client, args []string) (any, error) {
				return client.Logs.Get(ctx, args[0], nil)
			}),
		},
	)
	return cmd
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

func (c *cli) webhooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhooks",
		Short: "Manage detection webhooks",
	}

	var create lockllm.CreateWebhookRequest
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Register a webhook",
		Args:  cobra.NoArgs,
		RunE: c.withClient(func(ctx context.Context, client *lockllm.Client, _ []string) (any, error) {
			return client.Webhooks.Create(ctx, create, nil)
		}),
	}
	wf := createCmd.Flags()
	wf.StringVar(&create.URL, "url", "", "endpoint that receives events")
	wf.StringVar(&create.Format, "format", "", "payload format, e.g. raw or slack")
	wf.StringVar(&create.Secret, "secret", "", "signing secret")
	wf.StringSliceVar(&create.Events, "event", nil, "event to subscribe to (repeatable)")
	createCmd.MarkFlagRequired("url")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List webhooks",
			Args:  cobra.NoArgs,
			RunE: c.withClient(func(ctx context.Context, client *lockllm.Client, _ []string) (any, error) {
				return client.Webhooks.List(ctx, nil)
			}),
		},
		createCmd,
		&cobra.Command{
			Use:   "delete [id]",
			Short: "Delete a webhook",
			Args:  cobra.ExactArgs(1),
			RunE: c.withClient(func(ctx context.Context, client *lockllm.Client, args []string) (any, error) {
				return client.Webhooks.Delete(ctx, args[0], nil)
			}),
		},
		&cobra.Command{
			Use:   "test [id]",
			Short: "Send a test event to a webhook",
			Args:  cobra.ExactArgs(1),
			RunE: c.withClient(func(ctx context.Context, client *lockllm.Client, args []string) (any, error) {
				return client.Webhooks.Test(ctx, args[0], nil)
			}),
		},
	)
	return cmd
}

func (c *cli) keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage provider keys stored for the BYOK proxy",
	}

	var (
		create   lockllm.CreateUpstreamKeyRequest
		provider string
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Store a provider API key",
		Args:  cobra.NoArgs,
		RunE: c.withClient(func(ctx context.Context, client *lockllm.Client, _ []string) (any, error) {
			p, ok := lockllm.ParseProvider(provider)
			if !ok {
				return nil, fmt.Errorf("unknown provider %q", provider)
			}
			create.Provider = p
			return client.UpstreamKeys.Create(ctx, create, nil)
		}),
	}
	kf := createCmd.Flags()
	kf.StringVar(&provider, "provider", "", "provider name, e.g. openai")
	kf.StringVar(&create.APIKey, "provider-key", "", "the provider's API key")
	kf.StringVar(&create.Nickname, "nickname", "", "display name")
	kf.StringVar(&create.Endpoint, "endpoint", "", "custom endpoint, e.g. for azure")
	createCmd.MarkFlagRequired("provider")
	createCmd.MarkFlagRequired("provider-key")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List stored provider keys",
			Args:  cobra.NoArgs,
			RunE: c.withClient(func(ctx context.Context, client *lockllm.Client, _ []string) (any, error) {
				return client.UpstreamKeys.List(ctx, nil)
			}),
		},
		createCmd,
		&cobra.Command{
			Use:   "delete [id]",
			Short: "Delete a stored provider key",
			Args:  cobra.ExactArgs(1),
			RunE: c.withClient(func(ctx context.Context, client *lockllm.Client, args []string) (any, error) {
				return client.UpstreamKeys.Delete(ctx, args[0], nil)
			}),
		},
	)
	return cmd
}
