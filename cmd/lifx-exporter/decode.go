package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/lifx-exporter/internal/protocol"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [hex...]",
	Short: "Decode LIFX packets from hex dumps",
	Long: `Decode one or more LIFX LAN packets given as hex strings, as printed
in the "hex" field of debug-level packet logs.

With no arguments, packets are read from standard input, one per line.
Spaces and colons inside a packet are ignored.`,
	Example: `  # Decode a single packet
  lifx-exporter decode 24000034...

  # Decode packets pulled out of a debug log
  jq -r 'select(.msg == "LIFX packet") | .hex' exporter.log | lifx-exporter decode`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) > 0 {
			failed := 0
			for _, arg := range args {
				if !decodeLine(out, arg) {
					failed++
				}
			}
			return decodeResult(failed, len(args))
		}
		return decodeStream(out, cmd.InOrStdin())
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

func decodeStream(out io.Writer, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	total, failed := 0, 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		total++
		if !decodeLine(out, line) {
			failed++
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return decodeResult(failed, total)
}

// decodeLine prints one decoded packet and reports whether it parsed
func decodeLine(out io.Writer, s string) bool {
	s = strings.NewReplacer(" ", "", ":", "", "\t", "").Replace(s)
	data, err := hex.DecodeString(s)
	if err != nil {
		fmt.Fprintf(out, "invalid hex: %v\n", err)
		return false
	}

	pkt, err := protocol.ParsePacket(data)
	if err != nil {
		fmt.Fprintf(out, "invalid packet: %v\n", err)
		return false
	}
	fmt.Fprintln(out, pkt)

	msg, err := protocol.Decode(pkt)
	if err != nil {
		fmt.Fprintf(out, "  payload: %v\n", err)
		return false
	}
	fmt.Fprintf(out, "  %s\n", msg)
	return true
}

func decodeResult(failed, total int) error {
	if failed > 0 {
		return fmt.Errorf("%d of %d packets failed to decode", failed, total)
	}
	return nil
}
