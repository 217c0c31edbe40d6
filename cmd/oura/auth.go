// ABOUTME: CLI commands for dashboard credentials and local sessions.
// ABOUTME: auth hash/secret help fill the config; login/logout manage the session file.
package main

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/oura/internal/auth"
	"github.com/harperreed/oura/internal/config"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage dashboard credentials",
}

var authHashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Hash a dashboard password read from stdin",
	Long: `Read a password from the first line of stdin and print its bcrypt hash.

EXAMPLES:

  read -s PW && echo "$PW" | oura auth hash`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readLine(cmd.InOrStdin())
		if err != nil {
			return err
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

var authSecretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Print a random session signing secret",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(buf))
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Start a dashboard session",
	Long: `Check the dashboard password (first line of stdin) and save a session
token to ~/.local/state/oura/session for use with 'oura serve'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDB()
		if err != nil {
			return err
		}
		authn, err := newAuthenticator(store)
		if err != nil {
			return err
		}

		password, err := readLine(cmd.InOrStdin())
		if err != nil {
			return err
		}
		sess, err := authn.Verify(cmd.Context(), password)
		if err != nil {
			return err
		}
		if err := auth.SaveToken(config.TokenPath(), sess.Token); err != nil {
			return err
		}

		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Logged in until %s\n", sess.ExpiresAt.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the saved dashboard session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.TokenPath()
		token, err := auth.LoadToken(path)
		if err != nil {
			if errors.Is(err, auth.ErrNoToken) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return nil
			}
			return err
		}

		store, err := openDB()
		if err != nil {
			return err
		}
		authn, err := newAuthenticator(store)
		if err != nil {
			return err
		}
		if err := authn.Revoke(cmd.Context(), token); err != nil {
			logger.Warn("session could not be revoked", "error", err)
		}
		if err := auth.RemoveToken(path); err != nil {
			return err
		}

		color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "✓ Logged out")
		return nil
	},
}

// readLine returns the first line of r without its line ending.
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("no password on stdin")
	}
	return line, nil
}

func init() {
	authCmd.AddCommand(authHashCmd)
	authCmd.AddCommand(authSecretCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
