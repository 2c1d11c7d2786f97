package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/telekom/linkctl/pkg/audit"
	"github.com/telekom/linkctl/pkg/linkctl/listener"
)

func NewListenCommand() *cobra.Command {
	var registerFirst bool

	cmd := &cobra.Command{
		Use:   "listen [uri...]",
		Short: "Receive deep-link activations and deliver their tokens",
		Long:  "Bind the per-user activation socket and deliver the token of every matching callback. URIs given as arguments are handled first, in order.",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			stopTracing, err := rt.initTracing(ctx)
			if err != nil {
				return err
			}
			defer stopTracing()

			rec, err := rt.newRecorder()
			if err != nil {
				return err
			}
			defer func() {
				_ = rec.Close()
			}()

			scheme := rt.cfg.Shape().Scheme
			if registerFirst {
				rt.registerOrWarn(ctx, rec)
			}

			store, err := rt.Store()
			if err != nil {
				return err
			}
			b, err := rt.newBridge(store, rec)
			if err != nil {
				return err
			}

			l := listener.New(rt.listenerConfig(args), log)
			if err := l.Subscribe(ctx, func(ctx context.Context, raw string) {
				b.Handle(ctx, raw)
			}); err != nil {
				if errors.Is(err, listener.ErrAlreadyRunning) {
					log.Errorw("Another linkctl listener already owns the socket", "socket", l.SocketPath())
				}
				return err
			}
			rec.Emit(&audit.Event{Type: audit.EventListenerStarted, Scheme: scheme, Sink: store.Name()})

			err = l.Wait()
			rec.Emit(&audit.Event{Type: audit.EventListenerStopped, Scheme: scheme, Sink: store.Name()})
			log.Infow("Listener stopped", "scheme", scheme)
			return err
		},
	}

	cmd.Flags().BoolVar(&registerFirst, "register", false, "Register the scheme before listening; failures are logged and ignored")
	return cmd
}

// registerOrWarn registers the scheme without failing the caller. A listener
// that cannot register still serves activations forwarded by `linkctl open`.
func (rt *runtimeState) registerOrWarn(ctx context.Context, rec *audit.Recorder) {
	log, err := rt.Logger()
	if err != nil {
		return
	}
	reg, err := rt.register(ctx)
	if err != nil {
		log.Warnw("Scheme registration failed, continuing without it", "scheme", rt.cfg.Scheme, "error", err)
		rec.Emit(&audit.Event{Type: audit.EventSchemeRegistrationFailed, Scheme: rt.cfg.Scheme, Reason: err.Error()})
		return
	}
	log.Infow("Scheme registered", "scheme", reg.Scheme, "location", reg.Location, "changed", reg.Changed)
	rec.Emit(&audit.Event{Type: audit.EventSchemeRegistered, Scheme: reg.Scheme})
}
