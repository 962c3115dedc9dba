package main

import (
	"context"
	"errors"
	"fmt"

	"flowtasks/internal/client"

	"github.com/spf13/cobra"
)

func (a *app) requireAdmin(ctx context.Context) error {
	s, err := a.requireSession(ctx)
	if err != nil {
		return err
	}
	if !s.IsAdmin() {
		return errors.New("not authorized as an admin")
	}
	return nil
}

func adminCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage user accounts (admins only)",
	}
	cmd.AddCommand(adminUsersCmd(a), adminRemoveUserCmd(a), adminResetPasswordCmd(a))
	return cmd
}

func adminUsersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List all users, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAdmin(cmd.Context()); err != nil {
				return err
			}
			users, err := a.api.ListUsers(cmd.Context())
			if err != nil {
				return a.failed(client.KindOf(err), client.MessageOr(err, "Failed to fetch users"))
			}
			return printUsers(a.out, a.opts.output, users)
		},
	}
}

func adminRemoveUserCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm-user ID",
		Short: "Delete a user and all of their tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAdmin(cmd.Context()); err != nil {
				return err
			}
			if err := a.api.DeleteUser(cmd.Context(), args[0]); err != nil {
				return a.failed(client.KindOf(err), client.MessageOr(err, "Failed to delete user"))
			}
			printOK(a.out, a.opts.output, "User removed.")
			return nil
		},
	}
}

func adminResetPasswordCmd(a *app) *cobra.Command {
	var passwordFile string
	cmd := &cobra.Command{
		Use:   "reset-password ID",
		Short: "Set a new password for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAdmin(cmd.Context()); err != nil {
				return err
			}
			pw, err := a.readPassword("New password: ", passwordFile)
			if err != nil {
				return err
			}
			if err := a.api.ResetPassword(cmd.Context(), args[0], pw); err != nil {
				return a.failed(client.KindOf(err), client.MessageOr(err, "Failed to reset password"))
			}
			printOK(a.out, a.opts.output, fmt.Sprintf("Password updated for %s.", args[0]))
			return nil
		},
	}
	cmd.Flags().StringVar(&passwordFile, "password-file", "", "read the password from a file")
	return cmd
}
