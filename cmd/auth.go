package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spigell/prodanswer/internal/localstore"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errNoToken = errors.New("no api token is stored")

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the api token used for the backend",
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store an api token and verify it against the backend",
	Run:   withApp(login),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored api token",
	Run: withApp(func(ctx context.Context, _ *cobra.Command, a *application, _ []string) error {
		if err := a.local.ClearToken(ctx); err != nil {
			return err
		}
		a.logger.Info("logged out")
		return nil
	}),
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether an api token is stored",
	Run: withApp(func(ctx context.Context, _ *cobra.Command, a *application, _ []string) error {
		token, err := a.local.Token(ctx)
		if err != nil {
			return err
		}
		if token == "" && strings.TrimSpace(a.config.TokenFile) == "" {
			return errNoToken
		}

		source := "state db"
		if a.config.TokenFile != "" {
			source = a.config.TokenFile
		}
		status := map[string]string{"source": source}

		t := newTable("", "SOURCE")
		t.add(source)
		return a.out.render(status, t)
	}),
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd, logoutCmd, authStatusCmd)

	loginCmd.Flags().String("token", "", "api token, prompted for when empty")
}

func login(ctx context.Context, cmd *cobra.Command, a *application, _ []string) error {
	token, _ := cmd.Flags().GetString("token")
	token = strings.TrimSpace(token)
	if token == "" {
		var err error
		token, err = askSecret("API token")
		if err != nil {
			return err
		}
	}

	// The new token is checked on its own, so a configured token file or the
	// previously stored token cannot make it look valid.
	q := url.Values{"page_size": {"1"}}
	if _, err := a.client.WithToken(token).ListProducts(ctx, q); err != nil {
		return fmt.Errorf("verifying token: %w", err)
	}

	if err := a.local.SetToken(ctx, token); err != nil {
		return err
	}

	if a.config.TokenFile != "" {
		a.logger.Warn("token file takes precedence over the stored token",
			zap.String("token-file", a.config.TokenFile),
			zap.String("hint", "unset PRODANSWER_TOKEN_FILE to use the stored token"),
		)
	}

	a.logger.Info("logged in", zap.String("key", localstore.TokenKey))
	return nil
}
