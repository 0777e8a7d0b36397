// Command shapebind validates, binds and inspects documents against
// descriptor files.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	j "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	sb "github.com/reoring/shapebind"
)

type cli struct {
	out     io.Writer
	verbose bool
	logger  *zap.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out, logger: zap.NewNop()}
	root := &cobra.Command{
		Use:           "shapebind",
		Short:         "Validate and bind documents with descriptor files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.logger.Sync()
		},
	}
	root.SetOut(out)
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		c.validateCmd(),
		c.bindCmd(),
		c.pathsCmd(),
		c.jsonschemaCmd(),
		c.watchCmd(),
	)
	return root
}

func (c *cli) initLogger() error {
	config := zap.NewProductionConfig()
	if c.verbose {
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.logger = logger
	return nil
}

func (c *cli) printJSON(v any) error {
	b, err := j.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, string(b))
	return err
}

func (c *cli) printIssues(doc string, err error) {
	iss, ok := sb.AsIssues(err)
	if !ok {
		fmt.Fprintf(c.out, "%s: %v\n", doc, err)
		return
	}
	for _, it := range iss {
		path := it.Path
		if path == "" {
			path = "<root>"
		}
		fmt.Fprintf(c.out, "%s: %s: %s (%s)\n", doc, path, it.Message, it.Code)
	}
}

// schemaName derives a schema name from a descriptor file name.
func schemaName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func main() {
	if err := newRootCmd(os.Stdout).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
