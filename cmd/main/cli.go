package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/CTAG07/Anthology/pkg/library"
	"github.com/CTAG07/Anthology/pkg/store"
	"github.com/CTAG07/Anthology/pkg/templating"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "anthology",
		Short: "Store snippet lists and compose text from templates",
		Long: `Anthology keeps named lists of text snippets and composes new text from
them with a small template language:

  {a|b|c}   choose one of the alternatives
  $name     insert a random snippet stored under name
  \{ \} \| \$   literal braces, pipe and dollar
  /* */ //  comments, removed before expansion`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.logLevel == "" {
				return nil
			}
			_, err := parseLogLevel(opts.logLevel)
			return err
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "path to the config file (.json, .yaml or .toml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(opts),
		newExpandCmd(opts),
		newSpreadCmd(opts),
		newCountCmd(),
		newKeysCmd(opts),
		newGetCmd(opts),
		newAddCmd(opts),
		newRmCmd(opts),
		newSetCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
		newVersionCmd(),
	)
	return root
}

// session is what a one-shot command works with.
type session struct {
	lib    *library.Library
	engine *templating.Engine
}

// withSession loads the configured library, runs fn and closes the backend.
// Command logs go to stderr at warn level unless --log-level says otherwise.
func withSession(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, s *session) error) error {
	config, err := LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	level := opts.logLevel
	if level == "" {
		level = "warn"
	}
	logger := newLogger(cmd.ErrOrStderr(), level)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	lib, _, closeLibrary, err := openLibrary(ctx, config.Library, logger)
	if err != nil {
		return err
	}
	defer closeLibrary()

	engine := templating.NewEngine(lib, *config.Templates)
	engine.SetLogger(logger)
	return fn(ctx, &session{lib: lib, engine: engine})
}

func printLines(w io.Writer, lines []string) {
	for _, l := range lines {
		_, _ = fmt.Fprintln(w, l)
	}
}

func newExpandCmd(opts *rootOptions) *cobra.Command {
	var n int
	var seed uint64
	cmd := &cobra.Command{
		Use:   "expand TEMPLATE",
		Short: "Resolve a template randomly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(_ context.Context, s *session) error {
				if cmd.Flags().Changed("seed") {
					s.engine.SetRand(rand.New(rand.NewPCG(seed, seed)))
				}
				results, err := s.engine.ExpandN(args[0], n)
				if err != nil {
					return err
				}
				printLines(cmd.OutOrStdout(), results)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&n, "count", "n", 1, "number of expansions")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for reproducible output")
	return cmd
}

func newSpreadCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "spread TEMPLATE",
		Short: "Print every combination of a template's alternatives",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(_ context.Context, s *session) error {
				results, err := s.engine.Spread(args[0])
				if err != nil {
					return err
				}
				printLines(cmd.OutOrStdout(), results)
				return nil
			})
		},
	}
}

// newCountCmd needs no library: counting only looks at the template.
func newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count TEMPLATE",
		Short: "Print how many combinations spread would produce",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), templating.Combinations(templating.Split(args[0])))
			return err
		},
	}
}

func newKeysCmd(opts *rootOptions) *cobra.Command {
	var asTemplate bool
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "List keys with their snippet counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, opts, func(_ context.Context, s *session) error {
				if asTemplate {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), s.lib.Template())
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, e := range s.lib.Entries() {
					_, _ = fmt.Fprintf(tw, "%s\t%d\n", e.Key, e.Count)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				summary := summarize(s.lib)
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s keys, %s snippets, %s\n",
					humanize.Comma(int64(summary.Keys)), humanize.Comma(int64(summary.Snippets)), summary.Size)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&asTemplate, "template", false, "print all keys as one {a|b|...} group")
	return cmd
}

func newGetCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Print the snippets of a key with their indexes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(_ context.Context, s *session) error {
				values := s.lib.Snippets(args[0])
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(values)
				}
				for i, v := range values {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", i, v)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print a JSON array")
	return cmd
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add KEY TEXT",
		Short: "Append a snippet to a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				return s.lib.Add(ctx, args[0], args[1])
			})
		},
	}
}

func newRmCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm KEY [INDEX]",
		Short: "Remove one snippet by index, or the whole key",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				if len(args) == 1 {
					return s.lib.Delete(ctx, args[0])
				}
				index, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid index %q: %w", args[1], err)
				}
				return s.lib.Remove(ctx, args[0], index)
			})
		},
	}
}

func newSetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY [VALUE...]",
		Short: "Replace all snippets of a key; no values deletes it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				return s.lib.Set(ctx, args[0], args[1:])
			})
		},
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole library as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, opts, func(_ context.Context, s *session) error {
				data, err := encodeSnapshot(format, s.lib.Snapshot())
				if err != nil {
					return err
				}
				if output == "" || output == "-" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				return atomic.WriteFile(output, bytes.NewReader(data))
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format (json or yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Merge a JSON or YAML snapshot into the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			snap, err := decodeSnapshot(snapshotFormat(args[0]), data)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				if err := s.lib.Import(ctx, snap); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "imported %d keys\n", len(snap))
				return err
			})
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := currentVersion()
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "anthology %s (commit %s, built %s)\n", v.Version, v.Commit, v.BuildDate)
			return err
		},
	}
}

func snapshotFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

func encodeSnapshot(format string, snap map[string][]string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case "yaml", "yml":
		return yaml.Marshal(snap)
	default:
		return nil, fmt.Errorf("unknown export format %q (supported: json, yaml)", format)
	}
}

// decodeSnapshot accepts any scalar values and renders them as text.
func decodeSnapshot(format string, data []byte) (map[string][]string, error) {
	var raw map[string][]any
	var err error
	if format == "yaml" {
		err = yaml.Unmarshal(data, &raw)
	} else {
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(raw))
	for k, v := range raw {
		out[k] = store.Strings(v)
	}
	return out, nil
}
