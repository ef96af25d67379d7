package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"codeberg.org/mutker/atmena/internal/client"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const defaultServer = "http://localhost:3000"

var queryCmd = &cobra.Command{
	Use:   "query <deviceID> [dataType]",
	Short: "Fetch readings from a running server",
	Long: `Fetch converted (or, with --raw, raw) readings for a device in ascending
order of creation.

Examples:
  atmena query 42
  atmena query 42 co2 --limit 10
  atmena query 42 --raw --after 2024-01-01T00:00:00Z`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runQuery,
}

// queryParams maps flags onto HTTP query parameters.
var queryParams = map[string]string{
	"limit":      "limit",
	"page":       "page",
	"offset":     "offset",
	"after":      "after",
	"after-inc":  "after_inc",
	"before":     "before",
	"before-inc": "before_inc",
}

func init() {
	registerQueryFlags(queryCmd.Flags())
}

func registerQueryFlags(fs *pflag.FlagSet) {
	fs.String("server", defaultServer, "Base URL of the atmena server")
	fs.Bool("raw", false, "Query raw readings instead of converted ones")
	fs.String("limit", "", "Maximum number of rows, 0 for all")
	fs.String("page", "", "Page number, counted in limits")
	fs.String("offset", "", "Rows to skip from the newest")
	fs.String("after", "", "Only rows created after this time")
	fs.String("after-inc", "", "Only rows created at or after this time")
	fs.String("before", "", "Only rows created before this time")
	fs.String("before-inc", "", "Only rows created at or before this time")
}

func runQuery(cmd *cobra.Command, args []string) error {
	fs := cmd.Flags()
	server, _ := fs.GetString("server")
	raw, _ := fs.GetBool("raw")

	req := client.SelectRequest{
		DeviceID: args[0],
		Raw:      raw,
		Params:   selectParams(fs),
	}
	if len(args) > 1 {
		req.DataType = args[1]
	}

	rows, err := client.New(server).Select(cmd.Context(), req)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), rows)
}

// selectParams forwards only the flags the user set, so the server applies
// its own defaults for the rest.
func selectParams(fs *pflag.FlagSet) url.Values {
	params := url.Values{}
	for flag, param := range queryParams {
		if !fs.Changed(flag) {
			continue
		}
		v, _ := fs.GetString(flag)
		params.Set(param, v)
	}
	return params
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format response: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// parseAssignments reads key=value arguments into form fields.
func parseAssignments(args []string) (url.Values, error) {
	form := url.Values{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %s", strconv.Quote(arg))
		}
		form.Set(key, value)
	}
	return form, nil
}
