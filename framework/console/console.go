package console

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"

	"github.com/km-arc/go-beans/framework/aop"
	"github.com/km-arc/go-beans/framework/app"
)

// Setup declares application components before the container is loaded.
type Setup func(a *app.Application) error

// CLI is the "beans" command line.
type CLI struct {
	rootCmd *cobra.Command
	setup   Setup
	out     io.Writer

	envFiles    []string
	definitions string
}

// New builds the CLI. setup may be nil.
func New(setup Setup) *CLI {
	c := &CLI{setup: setup, out: os.Stdout}
	c.rootCmd = &cobra.Command{
		Use:           "beans",
		Short:         "beans runs and inspects a bean container",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := c.rootCmd.PersistentFlags()
	flags.StringSliceVar(&c.envFiles, "env", nil, "env files to load (default .env)")
	flags.StringVar(&c.definitions, "definitions", "", "JSON definitions file, overrides BEAN_DEFINITIONS")

	c.addCmd(&serveCmd{})
	c.addCmd(&listCmd{})
	c.addCmd(&getCmd{})
	c.addCmd(&checkCmd{})
	return c
}

// SetOutput redirects command output.
func (c *CLI) SetOutput(w io.Writer) {
	c.out = w
	c.rootCmd.SetOut(w)
	c.rootCmd.SetErr(w)
}

// SetArgs overrides os.Args, for tests.
func (c *CLI) SetArgs(args ...string) { c.rootCmd.SetArgs(args) }

// Exec runs the command line.
func (c *CLI) Exec() error {
	return c.rootCmd.Execute()
}

func (c *CLI) addCmd(cmd command) {
	cobraCmd := cmd.registerFlags()
	cobraCmd.RunE = func(innerCmd *cobra.Command, args []string) error {
		return cmd.run(c, innerCmd, args)
	}
	c.rootCmd.AddCommand(cobraCmd)
}

type command interface {
	registerFlags() *cobra.Command
	run(cl *CLI, cmd *cobra.Command, args []string) error
}

// application builds the application with the CLI's flags applied. It does
// not bootstrap.
func (c *CLI) application() (*app.Application, error) {
	a := app.New(c.envFiles...)
	if c.definitions != "" {
		a.Config.Beans.Definitions = c.definitions
	}
	if c.setup != nil {
		if err := c.setup(a); err != nil {
			return nil, errors.Wrap(err, "setup")
		}
	}
	return a, nil
}

func (c *CLI) bootstrap() (*app.Application, error) {
	a, err := c.application()
	if err != nil {
		return nil, err
	}
	return a, a.Bootstrap()
}

// ── serve ────────────────────────────────────────────────────────────────────

type serveCmd struct{}

func (s *serveCmd) registerFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Bootstrap the container and serve the admin API on APP_PORT",
		Args:  cobra.NoArgs,
	}
}

func (s *serveCmd) run(cl *CLI, _ *cobra.Command, _ []string) error {
	a, err := cl.application()
	if err != nil {
		return err
	}
	return a.Run()
}

// ── list ─────────────────────────────────────────────────────────────────────

type listCmd struct{}

func (l *listCmd) registerFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List bean definitions in merge order",
		Args:  cobra.NoArgs,
	}
}

func (l *listCmd) run(cl *CLI, _ *cobra.Command, _ []string) error {
	a, err := cl.bootstrap()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cl.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tSCOPE\tRESOLVED")
	for _, name := range a.Names() {
		d, ok := a.Definition(name)
		if !ok {
			continue
		}
		typ := d.Type
		if d.IsAlias() {
			typ = "-> " + d.Alias
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", d.Name, typ, d.Scope, a.Resolved(name))
	}
	return w.Flush()
}

// ── get ──────────────────────────────────────────────────────────────────────

type getCmd struct{}

func (g *getCmd) registerFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Resolve a bean and dump it",
		Args:  cobra.ExactArgs(1),
	}
}

func (g *getCmd) run(cl *CLI, _ *cobra.Command, args []string) error {
	a, err := cl.bootstrap()
	if err != nil {
		return err
	}
	inst, err := a.Get(args[0])
	if err != nil {
		return err
	}
	if _, ok := inst.(aop.Aware); ok {
		fmt.Fprintf(cl.out, "%s: proxied %T\n", args[0], aop.Unwrap(inst))
	}
	dumper := spew.ConfigState{Indent: "  ", MaxDepth: 4, DisablePointerAddresses: true, SortKeys: true}
	dumper.Fdump(cl.out, aop.Unwrap(inst))
	return nil
}

// ── check ────────────────────────────────────────────────────────────────────

type checkCmd struct {
	metrics bool
}

func (k *checkCmd) registerFlags() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Bootstrap and resolve every bean, failing on the first broken one",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().BoolVar(&k.metrics, "metrics", false, "print container metrics as JSON")
	return cmd
}

func (k *checkCmd) run(cl *CLI, _ *cobra.Command, _ []string) error {
	a, err := cl.bootstrap()
	if err != nil {
		return err
	}
	failed := 0
	for _, name := range a.Names() {
		if _, err := a.Get(name); err != nil {
			failed++
			fmt.Fprintf(cl.out, "FAIL %s: %v\n", name, err)
			continue
		}
		fmt.Fprintf(cl.out, "ok   %s\n", name)
	}
	if k.metrics {
		metrics.WriteJSONOnce(a.Metrics(), cl.out)
	}
	if failed > 0 {
		return errors.Errorf("%d of %d beans failed to resolve", failed, len(a.Names()))
	}
	return nil
}
