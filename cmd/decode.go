package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jjenkins/billtracker/internal/bill"
	"github.com/jjenkins/billtracker/internal/decode"
)

var decodeBillno string
var decodeFormat string

var decodeCmd = &cobra.Command{
	Use:   "decode [actioncode...]",
	Short: "Decode nmlegis action codes without fetching anything",
	Long: `Decode turns raw nmlegis.gov action codes into a readable history.

Each argument is one action code. With no arguments, action codes are
read from stdin, one per line.

Examples:
  ./billtracker decode 'HPREF [2] HCPAC/HJC-HCPAC [3] DNP-CS/DP-HJC'

  # Include past and future locations
  ./billtracker decode --billno HB17 'HPREF [2] HCPAC/HJC-HCPAC'

  ./billtracker decode --format yaml < codes.txt`,
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)

	decodeCmd.Flags().StringVar(&decodeBillno, "billno", "", "Bill number, e.g. HB17; adds the projected path")
	decodeCmd.Flags().StringVarP(&decodeFormat, "format", "f", "text", "Output format: text, json or yaml")
}

// decodeOutput is one decoded action code as written by json and yaml
type decodeOutput struct {
	decode.Result `yaml:",inline"`
	Projection    *decode.Projection `json:"projection,omitempty" yaml:"projection,omitempty"`
}

func runDecode(cmd *cobra.Command, args []string) error {
	codes := args
	if len(codes) == 0 {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				codes = append(codes, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read action codes: %w", err)
		}
	}

	return writeDecoded(cmd.OutOrStdout(), cmd.ErrOrStderr(), codes, decodeBillno, decodeFormat)
}

func writeDecoded(out, errOut io.Writer, codes []string, billno, format string) error {
	results := make([]decodeOutput, 0, len(codes))
	for _, code := range codes {
		o := decodeOutput{Result: decode.DecodeFullHistory(code)}
		if billno != "" {
			proj, err := decode.ProjectLocations(billno, o.History)
			if err != nil {
				return err
			}
			o.Projection = &proj
		}
		results = append(results, o)
	}

	switch format {
	case "text":
		for i, o := range results {
			if i > 0 {
				fmt.Fprintln(out)
			}
			writeText(out, errOut, o)
		}
		return nil

	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		for _, o := range results {
			if err := enc.Encode(o); err != nil {
				return fmt.Errorf("failed to encode json: %w", err)
			}
		}
		return nil

	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		for _, o := range results {
			if err := enc.Encode(o); err != nil {
				return fmt.Errorf("failed to encode yaml: %w", err)
			}
		}
		return enc.Close()
	}

	return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
}

func writeText(out, errOut io.Writer, o decodeOutput) {
	if text := decode.FullHistoryText(o.History); text != "" {
		fmt.Fprintln(out, text)
	}
	fmt.Fprintf(out, "Current location: %s\n", bill.LocationName(o.CurrentLocation))
	if o.LastAction != "" {
		fmt.Fprintf(out, "Last action: %s\n", o.LastAction)
	}

	warnings := append([]string{}, o.Warnings...)
	if o.Projection != nil {
		fmt.Fprintf(out, "Past: %s\n", locationList(o.Projection.Past))
		fmt.Fprintf(out, "Future: %s\n", locationList(o.Projection.Future))
		warnings = append(warnings, o.Projection.Warnings...)
	}
	for _, w := range warnings {
		fmt.Fprintf(errOut, "WARNING: %s\n", w)
	}
}

func locationList(locs []string) string {
	if len(locs) == 0 {
		return "-"
	}
	return strings.Join(locs, ", ")
}
