package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	tea "github.com/charmbracelet/bubbletea"

	appconfig "webhook-chat/internal/config"
	"webhook-chat/internal/integrations/paramstore"
	"webhook-chat/internal/integrations/webhook"
	"webhook-chat/internal/logging"
	"webhook-chat/internal/tui"
	"webhook-chat/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := appconfig.Load()
	if err != nil {
		fatal("failed to load config", err)
	}

	logger, logFile, err := logging.Open(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		fatal("failed to open log file", err)
	}
	defer func() { _ = logFile.Close() }()
	slog.SetDefault(logger)

	// ---- Webhook URL ----
	var getter appconfig.URLGetter
	if cfg.NeedsParamStore() {
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			fatal("failed to load AWS config", err)
		}
		ps, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			fatal("failed to create SSM client", err)
		}
		getter = ps
	}
	baseURL, err := cfg.ResolveBaseURL(ctx, getter)
	if err != nil {
		fatal("failed to resolve webhook URL", err)
	}

	// ---- Clients ----
	client, err := webhook.NewClient(baseURL,
		webhook.WithTimeout(cfg.RequestTimeout),
		webhook.WithBody(cfg.RequestBody),
	)
	if err != nil {
		fatal("failed to create webhook client", err)
	}

	conv, err := usecase.NewConversation(client, usecase.WithLogger(logger))
	if err != nil {
		fatal("failed to create conversation", err)
	}
	logger.Info("session started", "session_id", conv.SessionID(), "base_url", baseURL)

	// ---- UI ----
	p := tea.NewProgram(tui.NewModel(ctx, conv), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("ui exited with error", "err", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("session ended", "session_id", conv.SessionID(), "messages", len(conv.Messages()))
}

// fatal records a startup failure in the log and on stderr, since once the
// log file is open the default logger no longer writes to the terminal.
func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}
