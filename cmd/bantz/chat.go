package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"bantz/internal/config"
	"bantz/pkg/types"
)

var (
	promptColor = color.New(color.FgCyan, color.Bold)
	replyColor  = color.New(color.FgGreen)
	askColor    = color.New(color.FgYellow)
	failColor   = color.New(color.FgRed)
	faintColor  = color.New(color.Faint)
)

func newChatCmd() *cobra.Command {
	var (
		sessionID   string
		metricsAddr string
		showTrace   bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			application, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer application.shutdown()
			application.serveMetrics(metricsAddr)

			return runChat(cmd.Context(), application, sessionID, showTrace)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "default", "session identifier")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	cmd.Flags().BoolVar(&showTrace, "trace", false, "print the per-turn trace record")
	return cmd
}

func runChat(ctx context.Context, application *app, sessionID string, showTrace bool) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          promptColor.Sprint("you> "),
		HistoryLimit:    200,
		InterruptPrompt: "^C",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer func() { _ = rl.Close() }()

	fmt.Println("bantz ready. Type your request, or /quit to exit.")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		input := strings.TrimSpace(line)
		switch {
		case input == "":
			continue
		case input == "/quit" || input == "/exit":
			return nil
		}

		result := application.pipeline.ProcessTurn(ctx, types.TurnRequest{
			UserInput: input,
			SessionID: sessionID,
		})
		printResult(result, showTrace)
	}
}

func printResult(result types.TurnResult, showTrace bool) {
	switch result.Kind {
	case types.TurnAskUser:
		askColor.Printf("bantz? %s\n", result.Text)
	case types.TurnFail:
		failColor.Printf("bantz! %s\n", result.Text)
	default:
		replyColor.Printf("bantz> %s\n", result.Text)
	}

	if showTrace {
		faintColor.Printf("  route=%s intent=%s confidence=%.2f iterations=%d observations=%d tier=%s elapsed=%v\n",
			result.Route, result.Intent, result.Confidence,
			result.Trace.ReactIterations, result.Trace.ObservationCount,
			result.Trace.FinalizerTier, result.Trace.Elapsed)
		for _, outcome := range result.ToolsExecuted {
			status := "ok"
			if !outcome.Success {
				status = "err"
			}
			faintColor.Printf("  tool %s [%s] %s\n", outcome.Tool, status, outcome.ResultSummary)
		}
	}
}
