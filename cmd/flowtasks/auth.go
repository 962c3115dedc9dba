package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"flowtasks/internal/session"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword reads from passwordFile when given, from the terminal with
// echo disabled when attached, and otherwise from one line of input.
func (a *app) readPassword(prompt, passwordFile string) (string, error) {
	if passwordFile != "" && passwordFile != "-" {
		data, err := os.ReadFile(passwordFile)
		if err != nil {
			return "", fmt.Errorf("read password file: %w", err)
		}
		pw := strings.TrimRight(string(data), "\r\n")
		if pw == "" {
			return "", fmt.Errorf("password file %s is empty", passwordFile)
		}
		return pw, nil
	}

	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(a.in).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return "", errors.New("empty password")
	}
	return line, nil
}

func printSession(a *app, s *session.Session) error {
	if ok, err := encode(a.out, a.opts.output, s); ok {
		return err
	}
	_, err := fmt.Fprintf(a.out, "%s <%s> (%s)\n", s.Name, s.Email, s.Role)
	return err
}

func registerCmd(a *app) *cobra.Command {
	var name, email, passwordFile string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := a.readPassword("Password: ", passwordFile)
			if err != nil {
				return err
			}
			res := a.session.Register(cmd.Context(), name, email, pw)
			if !res.Success {
				return errors.New(res.Message)
			}
			printOK(a.out, a.opts.output, "Registered and logged in.")
			return printSession(a, a.session.Current())
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&passwordFile, "password-file", "", "read the password from a file")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func loginCmd(a *app) *cobra.Command {
	var email, passwordFile string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := a.readPassword("Password: ", passwordFile)
			if err != nil {
				return err
			}
			res := a.session.Login(cmd.Context(), email, pw)
			if !res.Success {
				return errors.New(res.Message)
			}
			printOK(a.out, a.opts.output, "Logged in.")
			return printSession(a, a.session.Current())
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&passwordFile, "password-file", "", "read the password from a file")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.session.Logout()
			printOK(a.out, a.opts.output, "Logged out.")
			return nil
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			return printSession(a, s)
		},
	}
}
