// Package main is the entry point for the midilearn CLI
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/james-see/midilearn/pkg/api"
	"github.com/james-see/midilearn/pkg/learn"
	"github.com/james-see/midilearn/pkg/pattern"
	"github.com/james-see/midilearn/pkg/transport"
	"github.com/james-see/midilearn/pkg/tui"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	midiPort     string
	oscListen    string
	learnTimeout time.Duration
	serverPort   int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "midilearn",
	Short: "Match and learn MIDI/OSC control surface sources",
	Long: `midilearn recognizes control surface events - MIDI channel voice
messages, NRPN/RPN sequences, 14-bit CC pairs, sysex and OSC - and learns
which control a user touched.

Examples:
  midilearn validate "F0 43 XX 00-7F ..."
  midilearn match "F0 43 XX F7" "F0 43 10 F7"
  midilearn ports
  midilearn learn --midi-port "Launch Control" --timeout 30s
  midilearn monitor --osc-listen 0.0.0.0:8000
  midilearn serve --port 8080`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

var validateCmd = &cobra.Command{
	Use:   "validate <pattern>",
	Short: "Validate a sysex pattern spec",
	Long:  `Compiles the textual pattern and prints its canonical form.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

var matchCmd = &cobra.Command{
	Use:   "match <pattern> <hex-bytes>...",
	Short: "Match hex bytes against a sysex pattern",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runMatch,
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List available MIDI input ports",
	RunE:  runPorts,
}

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Learn the next control touched on the surface",
	Long: `Listens on the configured inputs and prints the first stable source
it identifies. Multi-message sequences such as NRPN are recognized as one
source, not as their constituent controller messages.`,
	RunE: runLearn,
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Launch the interactive event monitor",
	RunE:  runMonitor,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	for _, c := range []*cobra.Command{learnCmd, monitorCmd} {
		c.Flags().StringVarP(&midiPort, "midi-port", "m", "", "MIDI input port name (default: first available)")
		c.Flags().StringVarP(&oscListen, "osc-listen", "o", "", "OSC UDP listen address, e.g. 0.0.0.0:8000")
		c.Flags().DurationVarP(&learnTimeout, "timeout", "t", 30*time.Second, "Learn deadline (0 = wait forever)")
	}

	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(serveCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	p, err := pattern.Parse(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("valid: %s (%d segments", p.String(), p.Len())
	if p.HasOpenTail() {
		fmt.Print(", open tail")
	}
	fmt.Println(")")
	return nil
}

func runMatch(cmd *cobra.Command, args []string) error {
	p, err := pattern.Parse(args[0])
	if err != nil {
		return err
	}
	raw := strings.ReplaceAll(strings.Join(args[1:], ""), " ", "")
	data, err := hex.DecodeString(raw)
	if err != nil {
		return fmt.Errorf("invalid hex bytes: %w", err)
	}
	if p.Matches(data) {
		fmt.Println("match")
		return nil
	}
	fmt.Println("no match")
	return nil
}

func runPorts(cmd *cobra.Command, args []string) error {
	ports := transport.Ports()
	if len(ports) == 0 {
		fmt.Println("No MIDI input ports available")
		return nil
	}
	for _, name := range ports {
		fmt.Println(name)
	}
	return nil
}

func runLearn(cmd *cobra.Command, args []string) error {
	stream, err := transport.Open(midiPort, oscListen)
	if err != nil {
		return err
	}
	defer stream.Close()

	session := learn.Start(learn.FilterAll, learnTimeout, time.Now())
	fmt.Println("Touch a control on your surface...")

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		var state learn.State
		select {
		case ev, ok := <-stream.Events:
			if !ok {
				return errors.New("event stream closed")
			}
			state = session.Feed(ev)
		case now := <-ticker.C:
			state = session.PollTimeout(now)
		}
		if !state.Terminal() {
			continue
		}
		switch state {
		case learn.StateLearned:
			src, _ := session.Result()
			fmt.Printf("Learned: %s\n", src.String())
			return nil
		case learn.StateTimedOut:
			return errors.New("no source identified before the deadline")
		default:
			return errors.New("learn session cancelled")
		}
	}
}

func runMonitor(cmd *cobra.Command, args []string) error {
	stream, err := transport.Open(midiPort, oscListen)
	if err != nil {
		return err
	}
	defer stream.Close()

	return tui.Run(stream.Events, learnTimeout)
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Printf("Starting API server on port %d...\n", serverPort)
	return api.StartServer(serverPort)
}
