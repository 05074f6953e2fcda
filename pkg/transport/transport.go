// Package transport connects live inputs to the engine: it opens MIDI
// input ports and OSC sockets and merges everything they deliver into a
// single stream of raw events.
package transport

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/chabad360/go-osc/osc"
	"github.com/james-see/midilearn/pkg/source"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
)

// Ports returns the names of the available MIDI input ports.
func Ports() []string {
	var names []string
	for _, in := range midi.GetInPorts() {
		names = append(names, in.String())
	}
	return names
}

// Stream is a merged feed of MIDI and OSC events. Events that arrive
// faster than the consumer drains them are dropped rather than blocking
// the transport callbacks.
type Stream struct {
	Events <-chan source.RawEvent

	events   chan source.RawEvent
	stopMIDI func()
}

// Open starts listening for events. midiPort selects a MIDI input by
// name; empty means the first available port. oscAddr is a UDP listen
// address ("0.0.0.0:8000"); empty disables OSC. At least one transport
// must come up.
func Open(midiPort, oscAddr string) (*Stream, error) {
	s := &Stream{events: make(chan source.RawEvent, 64)}
	s.Events = s.events

	in, err := findInPort(midiPort)
	if err != nil {
		if oscAddr == "" {
			return nil, err
		}
		// OSC-only operation is fine.
	} else {
		stop, err := midi.ListenTo(in, func(msg midi.Message, _ int32) {
			if ev, ok := source.FromMessage(time.Now(), msg); ok {
				s.offer(ev)
			}
		}, midi.UseSysEx(), midi.SysExBufferSize(2048))
		if err != nil {
			return nil, fmt.Errorf("midi listen: %w", err)
		}
		s.stopMIDI = stop
	}

	if oscAddr != "" {
		// The OSC listener has no shutdown hook; it lives for the rest
		// of the process, which matches how the CLI uses it.
		go func() {
			_ = osc.ListenAndServe(oscAddr, s.handleOSC)
		}()
	}

	return s, nil
}

func (s *Stream) handleOSC(packet osc.Packet, _ net.Addr) {
	switch p := packet.(type) {
	case *osc.Message:
		s.offer(source.FromOSC(time.Now(), p))
	case *osc.Bundle:
		for _, elem := range p.Elements {
			s.handleOSC(elem, nil)
		}
	}
}

func (s *Stream) offer(ev source.RawEvent) {
	select {
	case s.events <- ev:
	default:
	}
}

// Close stops the MIDI listener and releases the driver.
func (s *Stream) Close() {
	if s.stopMIDI != nil {
		s.stopMIDI()
	}
	midi.CloseDriver()
}

func findInPort(name string) (drivers.In, error) {
	if name == "" {
		ins := midi.GetInPorts()
		if len(ins) == 0 {
			return nil, errors.New("no MIDI input ports available")
		}
		return ins[0], nil
	}
	in, err := midi.FindInPort(name)
	if err != nil {
		return nil, fmt.Errorf("midi input %q: %w", name, err)
	}
	return in, nil
}
