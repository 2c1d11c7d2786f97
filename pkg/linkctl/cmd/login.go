package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/telekom/linkctl/pkg/cli"
	"github.com/telekom/linkctl/pkg/linkctl/auth"
	"github.com/telekom/linkctl/pkg/linkctl/callback"
	"github.com/telekom/linkctl/pkg/linkctl/deliver"
	"github.com/telekom/linkctl/pkg/linkctl/listener"
	"github.com/telekom/linkctl/pkg/linkctl/output"
)

func NewLoginCommand() *cobra.Command {
	var (
		timeout   time.Duration
		noBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Open the login page and store the token from its callback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			log, err := rt.Logger()
			if err != nil {
				return err
			}
			defer func() {
				_ = log.Sync()
			}()
			if timeout <= 0 {
				timeout = cli.Duration("LOGIN_TIMEOUT", rt.cfg.Login.Timeout)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			stopTracing, err := rt.initTracing(ctx)
			if err != nil {
				return err
			}
			defer stopTracing()

			flow, err := auth.Begin(ctx, rt.oidcConfig(), rt.cfg.CallbackURL())
			if err != nil {
				return err
			}
			store, err := rt.Store()
			if err != nil {
				return err
			}
			rec, err := rt.newRecorder()
			if err != nil {
				return err
			}
			defer func() {
				_ = rec.Close()
			}()

			received := deliver.NewChannel(1)
			b, err := rt.newBridge(received, rec,
				callback.WithParam(flow.Param),
				callback.WithValidator(flow.Validate),
			)
			if err != nil {
				return err
			}
			l := listener.New(rt.listenerConfig(nil), log)
			if err := l.Subscribe(ctx, func(ctx context.Context, raw string) {
				b.Handle(ctx, raw)
			}); err != nil {
				if errors.Is(err, listener.ErrAlreadyRunning) {
					return fmt.Errorf("a linkctl listener is already running on %s; the token will be delivered there: %w", l.SocketPath(), err)
				}
				return err
			}
			defer func() {
				_ = l.Close()
			}()

			w := rt.Writer()
			if noBrowser {
				_, _ = fmt.Fprintf(w, "Open this URL to log in:\n%s\n", flow.URL)
			} else if err := rt.openBrowser(flow.URL); err != nil {
				log.Warnw("Failed to open browser", "error", err)
				_, _ = fmt.Fprintf(w, "Open this URL to log in:\n%s\n", flow.URL)
			} else {
				_, _ = fmt.Fprintln(w, "Opened browser to complete login")
			}

			select {
			case secret := <-received.Tokens():
				token, err := flow.Complete(ctx, secret)
				if err != nil {
					return err
				}
				if err := store.Deliver(ctx, token); err != nil {
					return fmt.Errorf("failed to store token in %s sink: %w", store.Name(), err)
				}
				summary := auth.Describe(token, time.Now())
				return writeLoginSummary(rt, store.Name(), summary)
			case <-ctx.Done():
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return fmt.Errorf("timed out after %s waiting for the login callback", timeout)
				}
				return ctx.Err()
			}
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "How long to wait for the callback (default from config)")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Print the login URL instead of opening a browser")
	return cmd
}

func writeLoginSummary(rt *runtimeState, sink string, summary auth.Summary) error {
	format, err := output.ParseFormat(rt.OutputFormat())
	if err != nil {
		return err
	}
	if format != output.FormatTable {
		return output.WriteObject(rt.Writer(), format, summary)
	}
	_, _ = fmt.Fprintf(rt.Writer(), "Logged in: %s token stored in %s sink", summary.Format, sink)
	if summary.Subject != "" {
		_, _ = fmt.Fprintf(rt.Writer(), " (subject %s)", summary.Subject)
	}
	_, _ = fmt.Fprintln(rt.Writer())
	return nil
}
