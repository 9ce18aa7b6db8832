package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jjenkins/billtracker/internal/model"
)

var listYear string
var listFormat string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every bill filed in a regular session",
	Long: `List fetches the session's bill listing from nmlegis.gov. Special
sessions have no listing.

Examples:
  ./billtracker list --year 2025

  ./billtracker list -f json | jq -r '.[].billno'`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listYear, "year", "y", "", "Legislative year, e.g. 2025 (default from config)")
	listCmd.Flags().StringVarP(&listFormat, "format", "f", "text", "Output format: text, json or yaml")
}

// listedBill is one listing row as written by json and yaml
type listedBill struct {
	Billno string `json:"billno" yaml:"billno"`
	Title  string `json:"title" yaml:"title"`
	URL    string `json:"url" yaml:"url"`
}

func runList(cmd *cobra.Command, args []string) error {
	year, err := yearCode(listYear)
	if err != nil {
		return err
	}

	refresher, closeCache, err := newRefresher(nil, nil)
	if err != nil {
		return err
	}
	defer closeCache()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	bills, err := refresher.ListSession(ctx, year)
	if err != nil {
		return err
	}
	return writeBillList(cmd.OutOrStdout(), bills, listFormat)
}

func writeBillList(out io.Writer, bills []model.ListedBill, format string) error {
	rows := make([]listedBill, 0, len(bills))
	for _, b := range bills {
		rows = append(rows, listedBill(b))
	}

	switch format {
	case "text":
		for _, b := range rows {
			fmt.Fprintf(out, "%-8s %s\n", b.Billno, b.Title)
		}
		return nil

	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil

	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	}

	return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
}
