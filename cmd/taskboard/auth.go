package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		return authenticate(cmd, true)
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and keep the session for later runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return authenticate(cmd, false)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		logger, logCloser, err := newLogger()
		if err != nil {
			return err
		}
		defer logCloser.Close()

		c, err := openClient(logger)
		if err != nil {
			return err
		}
		defer c.close()

		ok, err := c.restore(ctx)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
			return nil
		}
		if err := c.SignOut(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

func init() {
	registerCmd.Flags().String("email", "", "account email (prompted when empty)")
	loginCmd.Flags().String("email", "", "account email (prompted when empty)")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

func authenticate(cmd *cobra.Command, create bool) error {
	ctx := commandContext(cmd)
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		var err error
		if email, err = prompt(in, out, "Email: "); err != nil {
			return err
		}
	}
	password, err := readPassword(in, out, "Password: ")
	if err != nil {
		return err
	}

	logger, logCloser, err := newLogger()
	if err != nil {
		return err
	}
	defer logCloser.Close()

	c, err := openClient(logger)
	if err != nil {
		return err
	}
	defer c.close()

	if create {
		sess, err := c.SignUp(ctx, email, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Registered and signed in as %s.\n", sess.Email)
		return nil
	}
	sess, err := c.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Signed in as %s.\n", sess.Email)
	return nil
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readPassword reads without echo from a terminal, and as a plain line when
// input is piped.
func readPassword(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return prompt(in, out, label)
	}
	fmt.Fprint(out, label)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
