package main

import (
	"errors"
	"io"
	"strings"

	"usage-mail-llm/internal/console"

	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Send one prompt to the local model and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newLLMClient(model)
			if err != nil {
				return err
			}
			answer, err := client.Generate(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			console.Std().Section("Response from "+client.Model()+":", answer)
			return nil
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", "", "model name (default llm.model)")
	return cmd
}

func newChatCmd() *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive prompt loop against the local model, exit with exit, quit or Ctrl+D",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newLLMClient(model)
			if err != nil {
				return err
			}

			out := console.Std()
			out.Banner("Chat with " + client.Model() + " (type exit to quit)")
			for {
				line, err := out.ReadLine()
				if errors.Is(err, io.EOF) {
					out.Println("")
					return nil
				}
				if err != nil {
					return err
				}

				switch strings.ToLower(line) {
				case "":
					continue
				case "exit", "quit":
					out.Note("Bye")
					return nil
				}

				if _, err := client.Stream(cmd.Context(), line, out.Print); err != nil {
					if cmd.Context().Err() != nil {
						return nil
					}
					out.Warn("Error: " + err.Error())
					continue
				}
				out.Println("")
			}
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", "", "model name (default llm.model)")
	return cmd
}
