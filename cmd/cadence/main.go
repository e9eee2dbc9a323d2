package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"

	"github.com/dudk/cadence/config"
	"github.com/dudk/cadence/log"
	"github.com/dudk/cadence/metric"
)

type app struct {
	args []string
	out  io.Writer
}

type command interface {
	Name() string
	Help() string
	Run() error
	Register(*flag.FlagSet)
}

func (a *app) run() int {
	cmdName, args := parseArgs(a.args)
	if cmdName == "" {
		a.printUsage()
		return errorExitCode
	}

	for _, cmd := range commands(a.out) {
		if cmd.Name() != cmdName {
			continue
		}
		flags := flag.NewFlagSet(cmdName, flag.ContinueOnError)
		flags.SetOutput(a.out)
		cmd.Register(flags)
		if err := flags.Parse(args); err != nil {
			return errorExitCode
		}
		if err := cmd.Run(); err != nil {
			fmt.Fprintf(a.out, "Command failed: %v\n", err)
			return errorExitCode
		}
		return successExitCode
	}
	fmt.Fprintf(a.out, "Unknown command: %s\n\n", cmdName)
	a.printUsage()
	return errorExitCode
}

var (
	successExitCode = 0
	errorExitCode   = 1
)

func commands(out io.Writer) []command {
	return []command{
		&playCommand{common: common{out: out}},
		&renderCommand{common: common{out: out}},
		&portsCommand{out: out},
	}
}

func main() {
	a := app{
		args: os.Args,
		out:  os.Stdout,
	}
	os.Exit(a.run())
}

func parseArgs(args []string) (string, []string) {
	if len(args) < 2 {
		return "", nil
	}
	return args[1], args[2:]
}

func (a *app) printUsage() {
	fmt.Fprintln(a.out, "Cadence is a musical transport")
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Usage: cadence <command> [flags]")
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Commands:")
	for _, cmd := range commands(a.out) {
		fmt.Fprintf(a.out, "\t%s\t%s\n", cmd.Name(), cmd.Help())
	}
}

// common holds flags shared by commands which run a transport.
type common struct {
	out        io.Writer
	configPath string
	bpm        float64
	verbose    bool
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "path to config file (default ~/.config/cadence/config.json)")
	fs.Float64Var(&c.bpm, "bpm", 0, "tempo, overrides config")
	fs.BoolVar(&c.verbose, "v", false, "verbose output")
}

func (c *common) logger() *logrus.Logger {
	l := log.GetLogger()
	l.SetOutput(c.out)
	if c.verbose {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

func (c *common) config() (*config.Config, error) {
	path := c.configPath
	if path == "" {
		var err error
		if path, err = config.Path(); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if c.bpm != 0 {
		cfg.BPM = c.bpm
	}
	return cfg, cfg.Validate()
}

// dumpMetrics prints counters of all components in verbose mode.
func (c *common) dumpMetrics() {
	if !c.verbose {
		return
	}
	fmt.Fprintln(c.out, "Metrics:")
	spew.Fdump(c.out, metric.GetAll())
}
