package midiclock

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
)

// OutPorts returns names of available MIDI output ports. A driver must be
// registered, e.g. by importing gitlab.com/gomidi/midi/v2/drivers/rtmididrv.
func OutPorts() []string {
	outs := midi.GetOutPorts()
	names := make([]string, len(outs))
	for i, out := range outs {
		names[i] = out.String()
	}
	return names
}

// Open opens the output port by name and returns its sender.
func Open(name string) (Sender, func() error, error) {
	out, err := midi.FindOutPort(name)
	if err != nil {
		return nil, nil, fmt.Errorf("midi port %q: %w", name, err)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open port %q: %w", name, err)
	}
	return send, out.Close, nil
}
