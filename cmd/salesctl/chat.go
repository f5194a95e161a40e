package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/WessleyAI/wessley-sales/engine/assistant"
	"github.com/spf13/cobra"
)

func newChatCmd(c *cli) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk to the assistant (interactive without a message)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			turn := func(msg string) error {
				resp, err := a.Orchestrator.HandleTurn(cmd.Context(), assistant.Request{UserID: user, Message: msg})
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "[%s] %s\n", resp.Intent, resp.Response)
				return nil
			}

			if len(args) > 0 {
				return turn(strings.Join(args, " "))
			}

			fmt.Fprintln(c.out, "Escribe tu mensaje (\"salir\" para terminar).")
			sc := bufio.NewScanner(c.in)
			for {
				fmt.Fprint(c.out, "> ")
				if !sc.Scan() {
					break
				}
				line := strings.TrimSpace(sc.Text())
				if line == "" {
					continue
				}
				if line == "salir" || line == "exit" {
					break
				}
				if err := turn(line); err != nil {
					fmt.Fprintln(c.out, "error:", err)
				}
			}
			fmt.Fprintln(c.out)
			return sc.Err()
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "cli", "Conversation user id")
	return cmd
}
