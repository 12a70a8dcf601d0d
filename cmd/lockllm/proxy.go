package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	lockllm "github.com/lockllm/lockllm-go"
	"github.com/lockllm/lockllm-go/internal/auth"
)

func (c *cli) proxyURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "proxy-url [provider]",
		Short: "Print LockLLM proxy endpoints",
		Long: `Print the proxy base URL to configure in a provider SDK. With no provider,
every endpoint is printed, including the universal one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := c.clientConfig(cmd)
			if err != nil {
				return err
			}
			base := strings.TrimRight(cc.BaseURL, "/")
			if len(args) == 1 {
				p, ok := lockllm.ParseProvider(args[0])
				if !ok {
					return fmt.Errorf("unknown provider %q", args[0])
				}
				return c.printJSON(map[string]string{
					"provider": string(p),
					"url":      lockllm.ProxyURL(base, p),
				})
			}
			urls := make(map[string]string)
			for p, u := range lockllm.ProxyURLs(base) {
				urls[string(p)] = u
			}
			urls["universal"] = lockllm.UniversalProxyURL(base)
			return c.printJSON(urls)
		},
	}
}

func (c *cli) keygenCmd() *cobra.Command {
	var env string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a local gateway access token",
		Long: `Generate a token for the local LockLLM gateway. Put the hash under
auth.key_hashes in the gateway config and hand the token to the caller.
The token itself is not stored anywhere.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := auth.GenerateToken(env)
			if err != nil {
				return err
			}
			return c.printJSON(map[string]string{
				"token":  token,
				"hash":   auth.HashToken(token),
				"prefix": auth.TokenPrefix(token),
			})
		},
	}
	cmd.Flags().StringVar(&env, "env", "prod", "environment label embedded in the token")
	return cmd
}
