package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/telekom/linkctl/pkg/linkctl/output"
	"github.com/telekom/linkctl/pkg/linkctl/scheme"
)

func NewRegisterCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Register linkctl as the handler for the configured URI scheme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			reg, err := rt.register(cmd.Context())
			if err != nil {
				return err
			}
			format, err := output.ParseFormat(rt.OutputFormat())
			if err != nil {
				return err
			}
			if format == output.FormatTable {
				output.WriteRegistrationTable(rt.Writer(), []scheme.Registration{reg})
				return nil
			}
			return output.WriteObject(rt.Writer(), format, reg)
		},
	}
}

func (rt *runtimeState) register(ctx context.Context) (scheme.Registration, error) {
	registrar, err := rt.newRegistrar()
	if err != nil {
		return scheme.Registration{}, err
	}
	return registrar.Register(ctx, rt.cfg.Scheme)
}
