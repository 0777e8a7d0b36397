package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	sb "github.com/reoring/shapebind"
	"github.com/reoring/shapebind/jsonschema"
	"github.com/reoring/shapebind/model"
	"github.com/reoring/shapebind/reload"
	"github.com/reoring/shapebind/source"
)

func (c *cli) validateCmd() *cobra.Command {
	var schemaFile string
	var all bool
	cmd := &cobra.Command{
		Use:   "validate --schema FILE DOC...",
		Short: "Validate documents against a descriptor",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := source.LoadFile(cmd.Context(), schemaFile)
			if err != nil {
				return err
			}
			s, err := sb.NewSchema(schemaName(schemaFile), d)
			if err != nil {
				return err
			}
			ctx := sb.WithCollectAll(cmd.Context(), all)
			var errs error
			for _, doc := range args {
				errs = multierr.Append(errs, c.validateDoc(ctx, s, doc))
			}
			return errs
		},
	}
	cmd.Flags().StringVarP(&schemaFile, "schema", "s", "", "descriptor file (YAML or JSON)")
	cmd.Flags().BoolVar(&all, "all", false, "report every issue instead of the first")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func (c *cli) validateDoc(ctx context.Context, s *sb.Schema, doc string) error {
	v, err := source.ReadDocument(doc)
	if err != nil {
		return err
	}
	if err := s.Validate(ctx, v); err != nil {
		c.printIssues(doc, err)
		return fmt.Errorf("%s: %w", doc, err)
	}
	c.logger.Debug("document valid", zap.String("doc", doc), zap.String("schema", s.Name()))
	fmt.Fprintf(c.out, "%s: ok\n", doc)
	return nil
}

func (c *cli) bindCmd() *cobra.Command {
	var modelFile string
	cmd := &cobra.Command{
		Use:   "bind --model FILE STORE",
		Short: "Project a store through a model descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := source.LoadFile(cmd.Context(), modelFile)
			if err != nil {
				return err
			}
			store, err := source.ReadDocument(args[0])
			if err != nil {
				return err
			}
			return c.printJSON(model.Bind(store, d))
		},
	}
	cmd.Flags().StringVarP(&modelFile, "model", "m", "", "model descriptor file (YAML or JSON)")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}

func (c *cli) pathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths DOC",
		Short: "List the leaf paths of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := source.ReadDocument(args[0])
			if err != nil {
				return err
			}
			for _, p := range sb.LeafPaths(doc) {
				fmt.Fprintln(c.out, p)
			}
			return nil
		},
	}
}

func (c *cli) jsonschemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "jsonschema FILE",
		Short: "Print the JSON Schema projection of a descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := source.LoadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.printJSON(jsonschema.Document(schemaName(args[0]), d))
		},
	}
}

func (c *cli) watchCmd() *cobra.Command {
	var schemaFile string
	opts := reload.DefaultOptions()
	cmd := &cobra.Command{
		Use:   "watch --schema FILE DOC",
		Short: "Revalidate a document whenever it or its descriptor changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			doc := args[0]
			opts.Watch = true
			opts.Logger = c.logger
			opts.ExtraFiles = []string{doc}
			opts.OnLoad = func(v any, err error) {
				if err != nil {
					fmt.Fprintf(c.out, "%s: %v\n", schemaFile, err)
					return
				}
				s, err := sb.NewSchema(schemaName(schemaFile), v.(*sb.Descriptor))
				if err != nil {
					fmt.Fprintf(c.out, "%s: %v\n", schemaFile, err)
					return
				}
				_ = c.validateDoc(ctx, s, doc)
			}
			w, err := reload.Watch(ctx, reload.NewCache(source.DescriptorLoader), schemaFile, opts)
			if err != nil {
				return err
			}
			defer w.Close()
			<-ctx.Done()
			c.logger.Info("watch stopped", zap.Any("stats", w.Stats()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&schemaFile, "schema", "s", "", "descriptor file (YAML or JSON)")
	cmd.Flags().DurationVar(&opts.Throttle, "throttle", reload.DefaultThrottle, "minimum interval between reloads")
	cmd.Flags().BoolVar(&opts.WatchAllModules, "all-modules", false, "also watch vendored includes")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}
