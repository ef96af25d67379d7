package main

import (
	"codeberg.org/mutker/atmena/internal/ingest"
	"codeberg.org/mutker/atmena/internal/sensor"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert key=value...",
	Short: "Convert raw channel values locally",
	Long: `Run the conversion formulas on raw values without a server and print the
converted reading.

Example:
  atmena convert airFlow=1023 temperature_alt=470 voc=242`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	form, err := parseAssignments(args)
	if err != nil {
		return err
	}
	if form.Get("deviceID") == "" {
		form.Set("deviceID", "0")
	}
	raw, err := ingest.ParseForm(form.Get("deviceID"), form)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), sensor.Convert(raw))
}
