package main

import (
	"codeberg.org/mutker/atmena/internal/client"
	"codeberg.org/mutker/atmena/internal/ingest"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <deviceID> key=value...",
	Short: "Post a raw reading to a running server",
	Long: `Post a raw reading the way a sensor board does. Keys are channel names
or created.

Examples:
  atmena ingest 42 co2=415 temperature=512
  atmena ingest 42 created=2024-01-01T12:00:00Z humidity=300`,
	Args: cobra.MinimumNArgs(2),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("server", defaultServer, "Base URL of the atmena server")
}

func runIngest(cmd *cobra.Command, args []string) error {
	server, _ := cmd.Flags().GetString("server")

	form, err := parseAssignments(args[1:])
	if err != nil {
		return err
	}
	reading, err := ingest.ParseForm(args[0], form)
	if err != nil {
		return err
	}

	return client.New(server).Ingest(cmd.Context(), reading)
}
