package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/omnihq/omnicrm/internal/tools"
)

var flagInvokePermission string

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Inspect and invoke registered tools",
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tools with their permission, cost and cache metadata",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tPERMISSION\tCOST\tCACHE\tIDEMPOTENT")
		for _, def := range a.registry.Definitions() {
			cache := "-"
			if def.CacheTTLSec > 0 {
				cache = fmt.Sprintf("%ds", def.CacheTTLSec)
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%v\n", def.Name, def.Permission, def.CreditCost, cache, def.Idempotent)
		}
		return w.Flush()
	},
}

var toolsInvokeCmd = &cobra.Command{
	Use:   "invoke <name> [json-input]",
	Short: "Invoke a tool directly with a JSON argument object",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		input := json.RawMessage("{}")
		if len(args) == 2 {
			input = json.RawMessage(args[1])
		}
		caller := tools.Caller{
			ID:         "cli",
			Permission: tools.ParsePermission(flagInvokePermission),
		}

		payload, err := a.registry.Invoke(ctx, caller, args[0], input)
		if err != nil {
			return err
		}
		var pretty any
		if err := json.Unmarshal(payload, &pretty); err != nil {
			fmt.Println(string(payload))
			return nil
		}
		out, err := json.MarshalIndent(pretty, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	toolsInvokeCmd.Flags().StringVar(&flagInvokePermission, "permission", "write", "capability level (read, write, admin)")
	toolsCmd.AddCommand(toolsListCmd, toolsInvokeCmd)
	rootCmd.AddCommand(toolsCmd)
}
