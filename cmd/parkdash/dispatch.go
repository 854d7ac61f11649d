package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/parkdash/internal/cli"
	"github.com/aretw0/parkdash/internal/presentation/tui"
	"github.com/aretw0/parkdash/pkg/domain"
	"github.com/aretw0/parkdash/pkg/redact"
	"github.com/spf13/cobra"
)

var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "List the operations that can be dispatched",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(app)

		ops := app.Client.Store.Operations()
		rows := make([]map[string]any, 0, len(ops))
		for _, op := range ops {
			path := op.Endpoint.Path
			if op.Endpoint.WithID {
				path += "/{id}"
			}
			rows = append(rows, map[string]any{
				"tag":    op.Tag,
				"method": op.Endpoint.Method,
				"path":   path,
			})
		}
		page := map[string]any{"data": rows, "total": len(rows)}
		return tui.Render(cmd.OutOrStdout(), format, "", page, []string{"tag", "method", "path"})
	},
}

var dispatchCmd = &cobra.Command{
	Use:   "dispatch <slice/operation>",
	Short: "Run one operation and print its payload",
	Long: `Runs an operation, e.g. "arrival/getArrivals" or "vehicle-type/exportVehicleType".
List operations take --page, --limit, --search and --sort; operations on one
record take --id; create and update operations take a JSON --body.
Exports are written to --out.`,
	Aliases: []string{"get"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		callArgs, err := dispatchArgs(cmd)
		if err != nil {
			return err
		}
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(app)

		tag := args[0]
		payload, err := app.Client.Store.Dispatch(cmd.Context(), tag, callArgs)
		if err != nil {
			return err
		}
		return printPayload(cmd, format, tag, payload)
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Upload a vehicle type spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := cli.ReadImport(args[0])
		if err != nil {
			return err
		}
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(app)

		if _, err := app.Client.Store.VehicleTypes.ImportVehicleType.Run(cmd.Context(), domain.Args{Body: body}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %s (%d bytes).\n", body.ExcelFile.DocumentName, body.ExcelFile.DocumentSize)
		return nil
	},
}

// dispatchArgs builds the operation arguments from the dispatch flags.
func dispatchArgs(cmd *cobra.Command) (domain.Args, error) {
	flags := cmd.Flags()
	var args domain.Args
	args.ID, _ = flags.GetString("id")

	if flags.Changed("page") || flags.Changed("limit") || flags.Changed("search") || flags.Changed("sort") {
		q := &domain.Query{}
		q.Page, _ = flags.GetInt("page")
		q.Limit, _ = flags.GetInt("limit")
		q.Search, _ = flags.GetString("search")
		q.SearchFields, _ = flags.GetStringSlice("search-field")
		if raw, _ := flags.GetString("sort"); raw != "" {
			field, rawOrder, _ := strings.Cut(raw, ",")
			order := domain.SortAsc
			if rawOrder != "" {
				var ok bool
				if order, ok = domain.ParseOrder(rawOrder); !ok {
					return args, fmt.Errorf("invalid sort order %q (ASC or DESC)", rawOrder)
				}
			}
			q.Sort = &domain.Sort{Field: field, Order: order}
		}
		args.Query = q
	}

	body, _ := flags.GetString("body")
	if bodyFile, _ := flags.GetString("body-file"); bodyFile != "" {
		data, err := os.ReadFile(bodyFile)
		if err != nil {
			return args, fmt.Errorf("failed to read body: %w", err)
		}
		body = string(data)
	}
	if body != "" {
		if !json.Valid([]byte(body)) {
			return args, fmt.Errorf("body is not valid JSON")
		}
		args.Body = json.RawMessage(body)
	}
	return args, nil
}

func printPayload(cmd *cobra.Command, format tui.Format, tag string, payload any) error {
	if file, ok := payload.(domain.File); ok {
		dir, _ := cmd.Flags().GetString("out")
		path, err := cli.SaveFile(dir, file)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes).\n", path, len(file.Data))
		return nil
	}

	masked, err := redact.Value(payload)
	if err != nil {
		return err
	}
	slice, _, _ := strings.Cut(tag, "/")
	return tui.Render(cmd.OutOrStdout(), format, tag, masked, tui.Columns[slice])
}

func init() {
	rootCmd.AddCommand(opsCmd, dispatchCmd, importCmd)

	f := dispatchCmd.Flags()
	f.String("id", "", "record id")
	f.Int("page", 1, "page number")
	f.Int("limit", domain.DefaultLimit, "page size")
	f.String("search", "", "search text")
	f.StringSlice("search-field", nil, "fields the search applies to")
	f.String("sort", "", "sort as field[,ASC|DESC]")
	f.String("body", "", "JSON request body")
	f.String("body-file", "", "file holding the JSON request body")
	f.String("out", ".", "directory exports are written to")
}
