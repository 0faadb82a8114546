// Package cli provides the configuration, output and manifest plumbing of
// the stoi command-line tool.
//
// This package includes:
//   - Configuration management (contexts holding scoring defaults)
//   - Output formatting (YAML, JSON, table) with optional jq filtering
//   - Strict YAML/JSON decoding of hand-written manifests
//
// Configuration is stored in ~/.giztoy/<app>/ (or $<APP>_HOME), supporting
// multiple contexts similar to kubectl.
//
// Example usage:
//
//	cfg, err := cli.LoadConfig("stoi")
//	ctx, err := cfg.ResolveContext("")
//
//	cli.Output(result, cli.OutputOptions{
//	    Format: cli.FormatJSON,
//	    File:   outputPath,
//	})
package cli
