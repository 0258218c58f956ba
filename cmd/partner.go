package cmd

import (
	"context"
	"fmt"

	"partnerdispatch/internal/core/application/usecases/commands"
	"partnerdispatch/internal/core/domain/model/kernel"

	"github.com/spf13/cobra"
)

func newPartnerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "partner",
		Short: "Manage delivery partners",
	}
	cmd.AddCommand(newPartnerRegisterCmd())
	cmd.AddCommand(newPartnerVerifyCmd())
	return cmd
}

func newPartnerRegisterCmd() *cobra.Command {
	var name, login, password string

	c := &cobra.Command{
		Use:   "register",
		Short: "Register a partner with a login and password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRoot(cmd.Context(), func(ctx context.Context, root *CompositionRoot) error {
				id := kernel.NewUUID()
				register, err := commands.NewRegisterPartnerCommand(id, name, login, password)
				if err != nil {
					return err
				}
				if err = root.CreateRegisterPartnerCommandHandler().Handle(ctx, register); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "registered partner %s (%s)\n", id, login)
				return nil
			})
		},
	}

	c.Flags().StringVar(&name, "name", "", "display name")
	c.Flags().StringVar(&login, "login", "", "login")
	c.Flags().StringVar(&password, "password", "", "password")
	_ = c.MarkFlagRequired("name")
	_ = c.MarkFlagRequired("login")
	_ = c.MarkFlagRequired("password")
	return c
}

func newPartnerVerifyCmd() *cobra.Command {
	var id string
	var revoke bool

	c := &cobra.Command{
		Use:   "verify",
		Short: "Record the outcome of a partner's document review",
		RunE: func(cmd *cobra.Command, _ []string) error {
			partnerID, err := kernel.UUIDFromString(id)
			if err != nil {
				return err
			}
			return withRoot(cmd.Context(), func(ctx context.Context, root *CompositionRoot) error {
				verify, err := commands.NewVerifyPartnerCommand(partnerID, !revoke)
				if err != nil {
					return err
				}
				if err = root.CreateVerifyPartnerCommandHandler().Handle(ctx, verify); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "partner %s verified: %t\n", partnerID, !revoke)
				return nil
			})
		},
	}

	c.Flags().StringVar(&id, "id", "", "partner id")
	c.Flags().BoolVar(&revoke, "revoke", false, "withdraw the verification instead")
	_ = c.MarkFlagRequired("id")
	return c
}
