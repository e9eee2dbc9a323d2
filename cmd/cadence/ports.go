package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/dudk/cadence/midiclock"
)

type portsCommand struct {
	out io.Writer
}

func (cmd *portsCommand) Name() string {
	return "ports"
}

func (cmd *portsCommand) Help() string {
	return "Show the list of MIDI output ports"
}

func (cmd *portsCommand) Register(fs *flag.FlagSet) {}

func (cmd *portsCommand) Run() error {
	ports := midiclock.OutPorts()
	if len(ports) == 0 {
		fmt.Fprintln(cmd.out, "No MIDI output ports")
		return nil
	}
	fmt.Fprintln(cmd.out, "MIDI output ports:")
	for i, p := range ports {
		fmt.Fprintf(cmd.out, "\t%d\t%s\n", i, p)
	}
	return nil
}
