package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/chazu/loom/internal/config"
	"github.com/chazu/loom/pkg/cellfile"
	"github.com/chazu/loom/pkg/rulegraph"
	"github.com/chazu/loom/pkg/tech"
)

var version = "dev"

// newRootCmd builds the loom command tree. Flags write straight into cfg,
// so a flag given on the command line wins over the environment.
func newRootCmd(cfg *config.Config) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "loom",
		Short:        "loom checks layout against a technology's rules",
		Long:         `loom loads a technology file, evaluates its layer rules over cell geometry, extracts nets and finds how closely cells can abut.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("log level: %w", err)
			}
			if verbose {
				level = log.DebugLevel
			}
			logger := newLogger(cmd.ErrOrStderr(), level)
			ctx := withLogger(cmd.Context(), logger)
			ctx = withApp(ctx, NewApp(cfg, logger))
			cmd.SetContext(ctx)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&cfg.Tech, "tech", "t", cfg.Tech, "technology file (LOOM_TECH)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newCheckCmd(cfg))
	root.AddCommand(newRulesCmd(cfg))
	root.AddCommand(newTraceCmd(cfg))
	root.AddCommand(newEvalCmd(cfg))
	root.AddCommand(newOffsetCmd(cfg))
	root.AddCommand(newMeshCmd(cfg))
	return root
}

func loadTech(cmd *cobra.Command, cfg *config.Config) (*App, *tech.Tech, error) {
	a := appFromContext(cmd.Context())
	t, err := a.LoadTech(cmd.Context(), cfg.Tech)
	if err != nil {
		return nil, nil, err
	}
	return a, t, nil
}

func newCheckCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "check [tech-file]",
		Short: "Evaluate and validate a technology file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfg.Tech
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("%w: no technology file given (--tech or LOOM_TECH)", ErrTechUnusable)
			}

			res, err := appFromContext(cmd.Context()).Check(cmd.Context(), path)
			if err != nil {
				return err
			}
			printCheck(cmd.OutOrStdout(), path, res)
			if !res.OK() {
				return fmt.Errorf("%s: %w", path, ErrTechUnusable)
			}
			return nil
		},
	}
}

func newRulesCmd(cfg *config.Config) *cobra.Command {
	var (
		dot  bool
		svg  string
		opts rulegraph.Options
	)
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the rule table or draw it as a graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, t, err := loadTech(cmd, cfg)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			if !dot && svg == "" {
				for i := range t.Rules {
					fmt.Fprintln(w, t.Describe(tech.RuleRef(i)))
				}
				return nil
			}

			graph := rulegraph.DOT(t, opts)
			if dot {
				fmt.Fprint(w, graph)
			}
			if svg == "" {
				return nil
			}
			p := newProgress(loggerFromContext(cmd.Context()))
			data, err := rulegraph.RenderSVG(cmd.Context(), graph)
			if err != nil {
				return err
			}
			if err := os.WriteFile(svg, data, 0o644); err != nil {
				return fmt.Errorf("write svg: %w", err)
			}
			p.done("rendered rule graph")
			printFile(w, svg)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dot, "dot", false, "print the rule graph as Graphviz DOT")
	cmd.Flags().StringVar(&svg, "svg", "", "render the rule graph to an SVG file")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "add each rule's expression to its node")
	cmd.Flags().BoolVar(&opts.Unused, "unused", false, "include paint layers no rule reads")
	return cmd
}

func newTraceCmd(cfg *config.Config) *cobra.Command {
	var (
		out  string
		dump bool
	)
	cmd := &cobra.Command{
		Use:   "trace <cell>",
		Short: "Extract the nets of a cell",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, t, err := loadTech(cmd, cfg)
			if err != nil {
				return err
			}
			l, err := a.Trace(t, args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			printNets(w, l)
			if dump {
				l.Dump(w)
			}
			if out != "" {
				if err := cellfile.Save(out, l); err != nil {
					return err
				}
				printFile(w, out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the traced cell to a file")
	cmd.Flags().BoolVar(&dump, "dump", false, "print every layer after tracing")
	return cmd
}

func newEvalCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "eval <cell> <expr>",
		Short: "Evaluate a layer expression over a cell",
		Example: `  loom eval inv.toml 'poly & diff'
  loom eval inv.toml 'li & ~mcon'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, t, err := loadTech(cmd, cfg)
			if err != nil {
				return err
			}
			l, layer, err := a.Eval(t, args[0], args[1])
			if err != nil {
				return err
			}
			printRects(cmd.OutOrStdout(), l, layer)
			return nil
		},
	}
}

func newOffsetCmd(cfg *config.Config) *cobra.Command {
	var axis string
	cmd := &cobra.Command{
		Use:   "offset <left-cell> <right-cell>",
		Short: "Find the closest legal placement of one cell beside another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ax, err := parseAxis(axis)
			if err != nil {
				return err
			}
			a, t, err := loadTech(cmd, cfg)
			if err != nil {
				return err
			}
			res, err := a.Offset(t, args[0], args[1], ax)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if res.Conflict {
				printWarning(w, "offset %d along %s", res.Offset, axis)
				printDetail(w, "spacing rules push %s away from %s", args[1], args[0])
			} else {
				printSuccess(w, "offset %d along %s", res.Offset, axis)
				printDetail(w, "no spacing rule applies")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&axis, "axis", "x", "abutment axis: x or y")
	cmd.Flags().StringVar(&cfg.RoutingMode, "routing", cfg.RoutingMode, "routing layers: default, merge-net or ignore")
	cmd.Flags().StringVar(&cfg.SubstrateMode, "substrate", cfg.SubstrateMode, "substrate layers: default, merge-net or ignore")
	cmd.Flags().BoolVar(&cfg.HorizSpacing, "horiz-spacing", cfg.HorizSpacing, "apply spacing across the abutment axis too")
	return cmd
}

func parseAxis(s string) (int, error) {
	switch strings.ToLower(s) {
	case "x", "0":
		return 0, nil
	case "y", "1":
		return 1, nil
	}
	return 0, fmt.Errorf("unknown axis %q, want x or y", s)
}

func newMeshCmd(cfg *config.Config) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "mesh <cell>",
		Short: "Extrude a cell into triangle meshes, one per level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, t, err := loadTech(cmd, cfg)
			if err != nil {
				return err
			}
			p := newProgress(loggerFromContext(cmd.Context()))
			meshes, err := a.Mesh(t, args[0])
			if err != nil {
				return err
			}
			p.done(fmt.Sprintf("meshed %d levels", len(meshes)))

			if out == "" || out == "-" {
				return writeMeshes(cmd.OutOrStdout(), meshes)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create mesh file: %w", err)
			}
			if err := writeMeshes(f, meshes); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			printFile(cmd.ErrOrStderr(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "write meshes to a file instead of stdout")
	cmd.Flags().IntVar(&cfg.MeshCells, "cells", cfg.MeshCells, "marching cubes cells along the longest side (LOOM_MESH_CELLS)")
	cmd.Flags().Float64Var(&cfg.MeshZScale, "zscale", cfg.MeshZScale, "vertical exaggeration (LOOM_MESH_ZSCALE)")
	return cmd
}

func writeMeshes(w io.Writer, meshes []MeshData) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(meshes); err != nil {
		return fmt.Errorf("encode meshes: %w", err)
	}
	return nil
}
