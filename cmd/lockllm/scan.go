package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	lockllm "github.com/lockllm/lockllm-go"
)

type scanFlags struct {
	sensitivity     string
	mode            string
	chunk           bool
	scanAction      string
	policyAction    string
	abuseAction     string
	piiAction       string
	compression     string
	compressionRate float64
}

func (c *cli) scanCmd() *cobra.Command {
	var f scanFlags
	cmd := &cobra.Command{
		Use:   "scan [text...]",
		Short: "Scan a prompt for injection, policy violations and abuse",
		Long: `Scan sends the prompt to LockLLM and prints the scan result as JSON.
With no arguments, or a single "-", the prompt is read from stdin.`,
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		input, err := c.scanInput(args)
		if err != nil {
			return err
		}
		client, err := c.client(cmd)
		if err != nil {
			return err
		}
		req, opts := f.build(cmd, input)
		resp, err := client.Scan(cmd.Context(), req, opts, nil)
		if err != nil {
			return err
		}
		return c.printJSON(resp)
	}

	fl := cmd.Flags()
	fl.StringVar(&f.sensitivity, "sensitivity", "", "detection sensitivity: low, medium or high")
	fl.StringVar(&f.mode, "mode", "", "scan mode: normal, policy_only or combined")
	fl.BoolVar(&f.chunk, "chunk", false, "scan long input in chunks")
	fl.StringVar(&f.scanAction, "scan-action", "", "action on injection: block or allow_with_warning")
	fl.StringVar(&f.policyAction, "policy-action", "", "action on policy violation: block or allow_with_warning")
	fl.StringVar(&f.abuseAction, "abuse-action", "", "enable abuse detection with this action (off disables)")
	fl.StringVar(&f.piiAction, "pii-action", "", "enable PII detection with this action: block, allow_with_warning or strip")
	fl.StringVar(&f.compression, "compression", "", "prompt compression: toon, compact or combined")
	fl.Float64Var(&f.compressionRate, "compression-rate", 0, "target compression rate")
	return cmd
}

func (f scanFlags) build(cmd *cobra.Command, input string) (lockllm.ScanRequest, *lockllm.ScanOptions) {
	req := lockllm.ScanRequest{
		Input:       input,
		Sensitivity: lockllm.Sensitivity(f.sensitivity),
		Mode:        lockllm.ScanMode(f.mode),
	}
	if cmd.Flags().Changed("chunk") {
		req.Chunk = lockllm.Bool(f.chunk)
	}

	opts := &lockllm.ScanOptions{
		ScanAction:        lockllm.Action(f.scanAction),
		PolicyAction:      lockllm.Action(f.policyAction),
		AbuseAction:       lockllm.ParseDetectorAction(f.abuseAction),
		PIIAction:         lockllm.ParseDetectorAction(f.piiAction),
		CompressionAction: lockllm.Compression(f.compression),
	}
	if cmd.Flags().Changed("compression-rate") {
		opts.CompressionRate = lockllm.Float(f.compressionRate)
	}
	return req, opts
}

func (c *cli) scanInput(args []string) (string, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		b, err := io.ReadAll(c.stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	return strings.Join(args, " "), nil
}
