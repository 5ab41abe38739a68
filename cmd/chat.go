package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/finsight/finchat/internal/model"
)

var chatSessionID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive financial Q&A session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		printer := &chatPrinter{out: os.Stdout}
		env, err := initWorkflow(ctx, printer.onText)
		if err != nil {
			return err
		}
		defer env.Close()

		sessionID := chatSessionID
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		if _, err := env.Store.CreateSession(ctx, sessionID); err != nil {
			return eris.Wrap(err, "create session")
		}

		fmt.Printf("finchat session %s (type 'quit' to exit)\n", sessionID)

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("\nYou: ")
			if !scanner.Scan() {
				break
			}
			input := strings.TrimSpace(scanner.Text())
			if input == "" {
				continue
			}
			if input == "quit" || input == "exit" {
				break
			}

			if err := runChatTurn(ctx, env, printer, sessionID, input); err != nil {
				return err
			}
		}

		return scanner.Err()
	},
}

// chatPrinter forwards streamed model text to out and remembers whether
// any arrived during the current turn.
type chatPrinter struct {
	out      io.Writer
	streamed bool
}

func (p *chatPrinter) onText(text string) {
	p.streamed = true
	fmt.Fprint(p.out, text)
}

// runChatTurn runs one user turn through the workflow and persists the
// new messages. Stage failures never stream, so when nothing came
// through the printer the final turn content is printed directly.
func runChatTurn(ctx context.Context, env *chatEnv, p *chatPrinter, sessionID, input string) error {
	history, err := env.Store.GetMessages(ctx, sessionID)
	if err != nil {
		return eris.Wrap(err, "load history")
	}

	p.streamed = false
	fmt.Fprint(p.out, "\nAssistant: ")
	state := env.Workflow.Run(ctx, model.ResumeConversation(sessionID, history, input))
	if !p.streamed {
		fmt.Fprint(p.out, state.Last().Content)
	}
	fmt.Fprintln(p.out)

	if err := env.Store.AppendMessages(ctx, sessionID, state.Messages[len(history):]); err != nil {
		zap.L().Warn("persist turn failed", zap.Error(err))
	}
	return nil
}

func init() {
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "resume an existing session ID")
	rootCmd.AddCommand(chatCmd)
}
