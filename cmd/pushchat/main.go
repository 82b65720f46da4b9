package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/LukeHalby/pushchat/internal/backend"
	"github.com/LukeHalby/pushchat/internal/config"
	"github.com/LukeHalby/pushchat/internal/core"
	"github.com/LukeHalby/pushchat/internal/log"
	"github.com/LukeHalby/pushchat/internal/push"
	"github.com/LukeHalby/pushchat/internal/session"
	"github.com/LukeHalby/pushchat/internal/telemetry"
)

type options struct {
	configPath string
	room       string
	logLevel   string
	platform   string
	noDevice   bool
	denyPerms  bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "pushchat",
		Short:         "Terminal chat screen over the managed backend",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to config file")
	cmd.Flags().StringVar(&opts.room, "room", "", "room id (overrides config)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides config)")
	cmd.Flags().StringVar(&opts.platform, "platform", "android", "platform family to report to the push gateway")
	cmd.Flags().BoolVar(&opts.noDevice, "no-device", false, "pretend this is not physical hardware")
	cmd.Flags().BoolVar(&opts.denyPerms, "deny-notifications", false, "refuse the notification permission prompt")

	return cmd
}

func run(baseCtx context.Context, opts options) error {
	ctx, stop := signal.NotifyContext(baseCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.New(opts.logLevel, true)

	cfg, _, err := config.Load(logger, opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.UpdateFrom(config.Config{RoomID: opts.room, LogLevel: opts.logLevel})
	logger = log.New(cfg.LogLevel, true)

	client := backend.NewClient(cfg, nil, logger)

	permStatus := push.PermissionGranted
	if opts.denyPerms {
		permStatus = push.PermissionDenied
	}
	gateway := push.NewGateway(cfg.PushGatewayURL, opts.platform, nil)
	registrar := push.NewRegistrar(
		push.StaticDevice{Physical: !opts.noDevice, Family: opts.platform},
		push.StaticPermissions{Initial: permStatus, OnRequest: permStatus},
		gateway,
		gateway,
		logger,
	)

	sink := telemetry.NewSink(telemetry.NewHTTPAnalytics(cfg.AnalyticsURL, nil), logger)

	sess := session.New(cfg, session.Wrap(client), registrar, sink, logger)

	sessionDone := make(chan error, 1)
	go func() {
		sessionDone <- sess.Run(ctx)
	}()

	go renderLoop(ctx, sess)

	fmt.Printf("room %s. Type a message and press Enter, Ctrl+C to quit.\n", cfg.RoomID)
	go inputLoop(ctx, sess)

	err = <-sessionDone
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// renderLoop redraws the screen on every session update, the way the original
// re-rendered the whole list on every state change.
func renderLoop(ctx context.Context, sess *session.Session) {
	tokenShown := false
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-sess.Updates():
			if !ok {
				return
			}
			if update.Status != nil {
				renderStatus(update.Status)
				continue
			}
			if !tokenShown && sess.Token() != "" {
				fmt.Printf("your push token: %s\n", sess.Token())
				tokenShown = true
			}
			if push.DefaultForegroundPolicy.PlaySound {
				fmt.Print("\a")
			}
			fmt.Printf("--- %d message(s) ---\n", len(update.Messages))
			for _, m := range update.Messages {
				fmt.Printf("%s: %s\n", m.From, m.Body)
			}
		}
	}
}

// renderStatus shows permission and device failures as alerts; everything
// else stays off the screen, matching the original's silent-failure policy.
func renderStatus(status *session.Status) {
	switch status.Code {
	case core.ErrCodePermissionDenied:
		fmt.Println("! failed to get push token for push notification")
	case core.ErrCodeUnsupportedEnvironment:
		fmt.Println("! must use physical device for push notifications")
	}
}

func inputLoop(ctx context.Context, sess *session.Session) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		text := strings.TrimSpace(scanner.Text())
		// Submit is a no-op for empty text; failures surface via Updates.
		_ = sess.Submit(ctx, text)
	}
}
