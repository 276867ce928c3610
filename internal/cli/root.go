// Package cli implements the lavactl operator commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/genricoloni/lavaqueue/internal/config"
	"github.com/genricoloni/lavaqueue/internal/rest"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Set via ldflags at build time
	Version = "dev"
	Commit  = "unknown"
)

type options struct {
	cfgFile string
	envFile string
	jsonOut bool
	verbose bool
}

// NewRootCommand builds the lavactl command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "lavactl",
		Short:        "Inspect tracks and talk to an audio node",
		Long:         `lavactl encodes and decodes track identifiers and queries the node's REST API.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "", "config file (TOML)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file with LAVAQUEUE_* overrides")
	root.PersistentFlags().BoolVarP(&opts.jsonOut, "json", "j", false, "output as JSON")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(
		newEncodeCmd(opts),
		newDecodeCmd(opts),
		newLoadCmd(opts),
		newInfoCmd(opts),
		newVersionCmd(opts),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// nodeClient builds a REST client from the node section of the config.
func (o *options) nodeClient() (*rest.Client, error) {
	cfg, err := config.Read(o.cfgFile, o.envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Node.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := zap.NewNop()
	if o.verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			logger = l
		}
	}

	return rest.New(rest.Options{
		BaseURL:    cfg.Node.RESTURL(),
		Passphrase: cfg.Node.Passphrase,
		UserAgent:  "lavactl/" + Version,
		Timeout:    cfg.Node.RequestTimeout,
	}, logger)
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// table is a tab-aligned writer.
type table struct {
	w *tabwriter.Writer
}

func newTable(out io.Writer, headers ...string) *table {
	t := &table{w: tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)}
	if len(headers) > 0 {
		t.row(headers...)
	}
	return t
}

func (t *table) row(cols ...string) {
	_, _ = fmt.Fprintln(t.w, strings.Join(cols, "\t"))
}

func (t *table) flush() error {
	return t.w.Flush()
}
