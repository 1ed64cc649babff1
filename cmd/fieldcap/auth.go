package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	captureoutadapter "fieldcap/internal/modules/capture/adapter/out"
	"fieldcap/internal/platform/config"
)

func newAuthCmd(g *globals) *cobra.Command {
	auth := &cobra.Command{Use: "auth", Short: "Manage the signed-in enumerator"}

	var userID int64
	var ttl time.Duration
	login := &cobra.Command{
		Use:   "login --user <id>",
		Short: "Sign in as an enumerator by writing a session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID <= 0 {
				return fmt.Errorf("--user must be a positive id")
			}
			cfg, err := config.New(g.dataDir)
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Identity.SigningKey) == "" {
				return fmt.Errorf("identity.signing_key is not configured")
			}
			token, err := captureoutadapter.IssueToken(userID, cfg.Identity.SigningKey, cfg.Identity.Issuer, ttl, time.Now())
			if err != nil {
				return err
			}
			if err := captureoutadapter.WriteToken(cfg.Identity.TokenPath, token); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "signed in as %d\n", userID)
			return nil
		},
	}
	login.Flags().Int64Var(&userID, "user", 0, "enumerator user id")
	login.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime (0 for no expiry)")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Remove the session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.New(g.dataDir)
			if err != nil {
				return err
			}
			if err := os.Remove(cfg.Identity.TokenPath); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}

	auth.AddCommand(login, logout)
	return auth
}
