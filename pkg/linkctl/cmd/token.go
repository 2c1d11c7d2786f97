package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/telekom/linkctl/pkg/linkctl/auth"
	"github.com/telekom/linkctl/pkg/linkctl/output"
)

func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a token is stored, without revealing it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			store, err := rt.Store()
			if err != nil {
				return err
			}
			token, ok, err := store.Load()
			if err != nil {
				return fmt.Errorf("failed to read %s sink: %w", store.Name(), err)
			}
			status := output.TokenStatus{Sink: store.Name(), Present: ok}
			if ok {
				summary := auth.Describe(token, time.Now())
				status.Format = summary.Format
				status.Subject = summary.Subject
				status.ExpiresAt = summary.ExpiresAt
				status.Expired = summary.Expired
			}

			format, err := output.ParseFormat(rt.OutputFormat())
			if err != nil {
				return err
			}
			if format == output.FormatTable {
				output.WriteTokenStatusTable(rt.Writer(), []output.TokenStatus{status})
				return nil
			}
			return output.WriteObject(rt.Writer(), format, status)
		},
	}
}

func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			store, err := rt.Store()
			if err != nil {
				return err
			}
			if err := store.Delete(); err != nil {
				return fmt.Errorf("failed to remove token from %s sink: %w", store.Name(), err)
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Removed token from %s sink\n", store.Name())
			return nil
		},
	}
}
