package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telekom/linkctl/pkg/linkctl/bridge"
	"github.com/telekom/linkctl/pkg/linkctl/listener"
)

// NewOpenCommand is what the OS runs for an activation. It hands the URI to
// the running listener, or handles it in this process when none is running.
func NewOpenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "open <uri>",
		Short: "Deliver a deep-link activation",
		Args:  cobra.ExactArgs(1),
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

			ctx := cmd.Context()
			err = listener.Forward(ctx, rt.SocketPath(), args[0])
			if err == nil {
				_, _ = fmt.Fprintln(rt.Writer(), "Activation forwarded to running listener")
				return nil
			}
			if !errors.Is(err, listener.ErrNoInstance) {
				return err
			}
			log.Debugw("No running listener, handling activation in process", "socket", rt.SocketPath())

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
			store, err := rt.Store()
			if err != nil {
				return err
			}
			b, err := rt.newBridge(store, rec)
			if err != nil {
				return err
			}

			switch outcome := b.Handle(ctx, args[0]); outcome {
			case bridge.OutcomeDelivered:
				_, _ = fmt.Fprintf(rt.Writer(), "Token delivered to %s sink\n", store.Name())
				return nil
			case bridge.OutcomeDuplicate:
				return nil
			default:
				return fmt.Errorf("activation not delivered: %s", outcome)
			}
		},
	}
}
