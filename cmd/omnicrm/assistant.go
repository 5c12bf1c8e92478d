package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/omnihq/omnicrm/internal/assistant"
	"github.com/omnihq/omnicrm/internal/llm"
	"github.com/omnihq/omnicrm/internal/tools"
)

var flagAssistantPermission string

var assistantCmd = &cobra.Command{
	Use:   "assistant [message]",
	Short: "Chat with the CRM assistant",
	Long: `With a message argument, answers once and exits. Without arguments,
starts an interactive session (exit with "quit" or Ctrl-D).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		provider, err := llm.NewOpenAIProvider(llm.OpenAIOptions{
			APIKey:  a.cfg.ResolveAPIKey(),
			BaseURL: a.cfg.LLM.BaseURL,
			Model:   a.cfg.LLM.Model,
		})
		if err != nil {
			return err
		}

		agent := assistant.New(assistant.Options{
			Provider: provider,
			Registry: a.registry,
			Caller: tools.Caller{
				ID:         "cli",
				Permission: tools.ParsePermission(flagAssistantPermission),
			},
		})

		if len(args) > 0 {
			reply, err := agent.Send(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Println(reply)
			return nil
		}

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				fmt.Println()
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "quit" || line == "exit" {
				return nil
			}
			reply, err := agent.Send(ctx, line)
			if err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				continue
			}
			fmt.Println(reply)
		}
	},
}

func init() {
	assistantCmd.Flags().StringVar(&flagAssistantPermission, "permission", "write", "capability level for tool calls (read, write, admin)")
	rootCmd.AddCommand(assistantCmd)
}
