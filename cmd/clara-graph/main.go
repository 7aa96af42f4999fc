// Package main provides the clara-graph binary: it builds the dependency
// graph of a rule set and answers reachability queries over it.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"clara-graph/config"
	"clara-graph/extract"
	"clara-graph/graph"
	"clara-graph/match"
	"clara-graph/proto"
	"clara-graph/rulefile"
)

// Version is the binary version.
const Version = "0.1.0"

type options struct {
	rules      []string
	configPath string
	pattern    string
	groupsFile string
	dedup      bool
	verbose    bool
	strict     bool
	showGroups bool
	factMode   string
	fact       string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "clara-graph",
		Short:        "Extract and query the dependency graph of a rule set",
		Long:         `clara-graph reads YAML rule files and emits a JSON graph of how productions, their conditions and the fact types they read and insert relate to one another.`,
		Version:      Version,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringArrayVarP(&opts.rules, "rules", "r", nil, "Rule file or directory (repeatable)")
	pf.StringVarP(&opts.configPath, "config", "c", "", "Config file (default ./"+config.ProjectConfigFile+" if present)")
	pf.StringVar(&opts.pattern, "pattern", "", "Glob selecting rule files inside directories")
	pf.StringVar(&opts.groupsFile, "groups", "", "YAML file of fact groups for --mode group")
	pf.BoolVar(&opts.dedup, "dedup", false, "Keep one body per key instead of accumulating copies")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging on stderr")

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Build the full graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, _, err := loadGraph(cmd, opts)
			if err != nil {
				return err
			}
			return writeGraph(cmd.OutOrStdout(), g)
		},
	}

	ancestorsCmd := &cobra.Command{
		Use:   "ancestors <node-id>",
		Short: "Everything that leads to a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraverse(cmd, opts, args[0], graph.Backward)
		},
	}

	descendantsCmd := &cobra.Command{
		Use:   "descendants <node-id>",
		Short: "Everything a node leads to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraverse(cmd, opts, args[0], graph.Forward)
		},
	}
	for _, c := range []*cobra.Command{ancestorsCmd, descendantsCmd} {
		c.Flags().BoolVar(&opts.strict, "strict", false, "Fail when the node is not in the graph")
	}

	filterCmd := &cobra.Command{
		Use:   "filter",
		Short: "Subgraph connected to fact types matching a pattern",
		Long: `Select every fact node whose type matches --fact and print the merge of
their ancestors and descendants.

Modes:
  substring  org.example.Order matches "Order"
  regexp     Go regular expression
  glob       dot-separated glob, e.g. "org.example.*" or "org.**.Order"
  group      name of a fact group from the config file`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFilter(cmd, opts)
		},
	}

	factsCmd := &cobra.Command{
		Use:   "facts",
		Short: "List fact node ids matching a pattern",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFacts(cmd, opts)
		},
	}
	for _, c := range []*cobra.Command{filterCmd, factsCmd} {
		c.Flags().StringVar(&opts.fact, "fact", "", "Fact type pattern")
		c.Flags().StringVar(&opts.factMode, "mode", string(match.ModeSubstring), "Pattern mode: substring, regexp, glob or group")
	}
	_ = filterCmd.MarkFlagRequired("fact")
	factsCmd.Flags().BoolVar(&opts.showGroups, "show-groups", false, "Print the fact groups of each fact type")

	root.AddCommand(buildCmd, ancestorsCmd, descendantsCmd, filterCmd, factsCmd)
	return root
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadGraph resolves config and flags, then builds the graph.
func loadGraph(cmd *cobra.Command, opts *options) (*graph.Graph, *config.Config, error) {
	logger := newLogger(cmd.ErrOrStderr(), opts.verbose)

	cfg, err := config.Load(opts.configPath, logger)
	if err != nil {
		return nil, nil, err
	}
	if len(opts.rules) > 0 {
		cfg.Rules = opts.rules
	}
	if opts.pattern != "" {
		cfg.Pattern = opts.pattern
	}
	if opts.groupsFile != "" {
		cfg.GroupsFile = opts.groupsFile
	}
	if opts.dedup {
		cfg.MergePolicy = graph.Dedup.String()
	}
	if len(cfg.Rules) == 0 {
		return nil, nil, fmt.Errorf("no rule sources: pass --rules or set rules in the config")
	}

	sources, err := rulefile.Sources(cfg.Rules, cfg.Pattern, logger)
	if err != nil {
		return nil, nil, err
	}

	builderOpts := []extract.Option{
		extract.WithMergePolicy(cfg.Policy()),
		extract.WithLogger(logger),
	}
	if len(cfg.InsertOps) > 0 {
		builderOpts = append(builderOpts, extract.WithInsertOps(cfg.InsertOps...))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	g, err := extract.NewBuilder(builderOpts...).BuildGraph(ctx, sources...)
	if err != nil {
		return nil, nil, err
	}
	return g, cfg, nil
}

func runTraverse(cmd *cobra.Command, opts *options, id string, dir graph.Direction) error {
	g, _, err := loadGraph(cmd, opts)
	if err != nil {
		return err
	}
	if opts.strict {
		if _, err := graph.LookupNode(g, id); err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
	}
	return writeGraph(cmd.OutOrStdout(), graph.Traverse(g, id, dir))
}

func factPredicate(opts *options, groups *match.Groups) (graph.FactPredicate, error) {
	return match.Predicate(match.Mode(opts.factMode), opts.fact, groups)
}

func runFilter(cmd *cobra.Command, opts *options) error {
	g, cfg, err := loadGraph(cmd, opts)
	if err != nil {
		return err
	}
	groups, err := cfg.FactGroups()
	if err != nil {
		return err
	}
	pred, err := factPredicate(opts, groups)
	if err != nil {
		return err
	}
	return writeGraph(cmd.OutOrStdout(), graph.FilterByFact(g, pred, cfg.Policy()))
}

func runFacts(cmd *cobra.Command, opts *options) error {
	g, cfg, err := loadGraph(cmd, opts)
	if err != nil {
		return err
	}
	groups, err := cfg.FactGroups()
	if err != nil {
		return err
	}
	pred, err := factPredicate(opts, groups)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for _, id := range graph.MatchingFacts(g, pred) {
		if !opts.showGroups {
			fmt.Fprintln(w, id)
			continue
		}
		var names []string
		if n, ok := g.Node(id); ok {
			if factType, ok := n.Value.(string); ok {
				names = groups.GroupsOf(factType)
			}
		}
		fmt.Fprintf(w, "%s\t%s\n", id, strings.Join(names, ","))
	}
	return nil
}

func writeGraph(w io.Writer, g *graph.Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(proto.FromGraph(g))
}
