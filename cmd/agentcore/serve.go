package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/relaykit/agentcore/internal/config"
	"github.com/relaykit/agentcore/internal/models"
	"github.com/spf13/cobra"
)

func buildServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the engine, dispatching inbound messages to the agent loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, configPath)
		},
	}
}

func runServe(ctx context.Context, path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	app, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	app.sched.Start(ctx)

	msgs, unsubscribe := app.inbound.Subscribe(nil)
	defer unsubscribe()

	app.logger.Info(ctx, "engine started", "sandbox_backend", cfg.Sandbox.Backend, "provider", cfg.Provider.Type)

	for {
		select {
		case <-ctx.Done():
			app.logger.Info(ctx, "engine shutting down")
			return nil
		case msg := <-msgs:
			go app.handleInbound(ctx, msg)
		}
	}
}

// handleInbound runs one turn and, once it completes, opportunistically
// consolidates the owner's history. Consolidate takes its own lock
// around history access and is safe to call once the turn that produced
// the new records has released the owner lock.
func (a *App) handleInbound(ctx context.Context, msg models.InboundMessage) {
	if err := a.loop.RunTurn(ctx, msg); err != nil {
		a.logger.Error(ctx, "turn failed", "channel", msg.Channel, "chat_id", msg.ChatID, "error", err)
		return
	}
	if err := a.memory.Consolidate(ctx, msg.OwnerKey()); err != nil {
		a.logger.Warn(ctx, "memory consolidation failed", "owner_key", msg.OwnerKey(), "error", err)
	}
}
