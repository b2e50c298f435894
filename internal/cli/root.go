package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/af-corp/amrs/internal/config"
	"github.com/af-corp/amrs/internal/resolver"
)

// Version is overridden at build time with -ldflags "-X".
var Version = "dev"

// Options holds global CLI options.
type Options struct {
	ConfigPath string
	EnvFiles   []string
}

// NewRootCmd constructs the base CLI command tree.
func NewRootCmd() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:           "amrs",
		Short:         "amrs resolves model configs and routes completions across them",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "configs/amrs.yaml", "Path to config file")
	cmd.PersistentFlags().StringSliceVar(&opts.EnvFiles, "env-file", nil, "dotenv file with provider credentials (repeatable)")

	cmd.AddCommand(NewServeCmd(opts))
	cmd.AddCommand(NewValidateCmd(opts))
	cmd.AddCommand(NewSampleCmd(opts))
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig wraps config loading with shared options.
func loadConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// credentials looks secrets up in the process environment first, then in
// the --env-file documents.
func credentials(opts *Options) (resolver.CredentialProvider, error) {
	chain := resolver.ChainCredentials{resolver.EnvCredentials{}}
	if len(opts.EnvFiles) > 0 {
		files, err := resolver.DotEnvCredentials(opts.EnvFiles...)
		if err != nil {
			return nil, err
		}
		chain = append(chain, files)
	}
	return chain, nil
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	hopts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "json":
		return slog.New(slog.NewJSONHandler(w, hopts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, hopts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}
