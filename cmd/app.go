package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spigell/prodanswer/internal/localstore"
	"github.com/spigell/prodanswer/internal/logger"
	"github.com/spigell/prodanswer/internal/prodanswer"
	"github.com/spigell/prodanswer/internal/router"
	"github.com/spigell/prodanswer/internal/secrets"
	"github.com/spigell/prodanswer/internal/store"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const loginHint = "run 'prodanswer auth login' or open " + router.LoginPath + " to sign in again"

// application holds everything a command needs to talk to the backend.
type application struct {
	config *Config
	logger *zap.Logger
	local  *localstore.Store
	client *prodanswer.Client
	routes *router.Router
	out    *printer

	products   *store.Products
	matching   *store.Matching
	embeddings *store.Embeddings
}

type action func(ctx context.Context, cmd *cobra.Command, a *application, args []string) error

// withApp builds the application for a command and fails with a hint when
// the command returns an error.
func withApp(fn action) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		logger, err := logger.New(logger.Options{
			JSON:  viper.GetBool("json"),
			Debug: viper.GetBool("debug"),
			Level: viper.GetString("log-level"),
			App:   app,
		})
		if err != nil {
			log.Fatalf("creating a logger: %s", err)
		}

		config, err := getConfig()
		if err != nil {
			logger.Fatal("getting a config", zap.Error(err))
		}

		a, err := newApplication(config, logger, cmd.OutOrStdout())
		if err != nil {
			logger.Fatal("starting the prodanswer", errorFields(err)...)
		}

		err = fn(ctx, cmd, a, args)
		a.close()
		if err != nil {
			logger.Fatal(cmd.CommandPath(), errorFields(err)...)
		}
	}
}

func newApplication(config *Config, log *zap.Logger, w io.Writer) (*application, error) {
	format := strings.ToLower(strings.TrimSpace(viper.GetString("output")))
	if format == "" {
		format = outputTable
	}
	if format != outputTable && format != outputJSON {
		return nil, fmt.Errorf("unknown output format %q, use %s or %s", format, outputTable, outputJSON)
	}

	a := &application{
		config: config,
		logger: log,
		routes: router.Default(),
		out:    &printer{w: w, format: format},
	}

	statePath, err := expandHome(config.StateDB)
	if err != nil {
		return nil, err
	}

	a.local, err = localstore.Open(statePath)
	if err != nil {
		return nil, err
	}
	log.Debug("opened state db", zap.String("path", statePath))

	tokens, err := a.tokenSource()
	if err != nil {
		a.close()
		return nil, err
	}

	a.client = prodanswer.New(log, config.APIURL, tokens)
	if config.UserAgent != "" {
		a.client.UserAgent = config.UserAgent
	}
	if config.Timeout > 0 {
		a.client.HTTPClient.Timeout = config.Timeout
	}
	a.client.Retries = config.Retries
	if config.RateLimit != nil {
		a.client.SetRateLimit(config.RateLimit.RPS, config.RateLimit.Burst)
	}
	a.client.OnUnauthorized = a.unauthorized

	a.products = store.NewProducts(a.client)
	a.matching = store.NewMatching(a.client)
	a.embeddings = store.NewEmbeddings(a.client, log)

	return a, nil
}

// tokenSource prefers an explicitly configured token file over the token
// saved by 'auth login'.
func (a *application) tokenSource() (prodanswer.TokenSource, error) {
	file := strings.TrimSpace(a.config.TokenFile)
	if file == "" {
		return a.local, nil
	}

	token, err := secrets.Load(secrets.Source{
		Name: "api token",
		File: file,
	})
	if err != nil {
		return nil, err
	}
	return prodanswer.StaticToken(token), nil
}

func (a *application) unauthorized(ctx context.Context, apiErr *prodanswer.APIError) {
	if err := a.local.ClearToken(ctx); err != nil {
		a.logger.Warn("removing stored token", zap.Error(err))
	}

	a.logger.Warn("session is not authorized",
		zap.String("redirect", router.LoginPath),
		zap.String("request_id", apiErr.RequestID),
		zap.String("hint", loginHint),
	)
}

func (a *application) close() {
	if a.local == nil {
		return
	}
	if err := a.local.Close(); err != nil {
		a.logger.Warn("closing state db", zap.Error(err))
	}
	a.local = nil
}

// errorFields turns an error into log fields with a hint for well-known failures.
func errorFields(err error) []zap.Field {
	fields := []zap.Field{zap.Error(err)}

	var apiErr *prodanswer.APIError
	if errors.As(err, &apiErr) {
		if apiErr.RequestID != "" {
			fields = append(fields, zap.String("request_id", apiErr.RequestID))
		}
		if len(apiErr.Fields) > 0 {
			fields = append(fields, zap.Any("fields", apiErr.Fields))
		}
	}

	switch {
	case errors.Is(err, prodanswer.ErrUnauthorized):
		fields = append(fields, zap.String("hint", loginHint))
	case apiErr != nil && apiErr.Hint() != "":
		fields = append(fields, zap.String("hint", apiErr.Hint()))
	case errors.Is(err, prodanswer.ErrIncompatible):
		fields = append(fields, zap.String("hint", "upgrade the backend or relax service.version-constraint in the configuration file"))
	case errors.Is(err, errNoToken):
		fields = append(fields, zap.String("hint", "run 'prodanswer auth login', set PRODANSWER_TOKEN_FILE environment variable or the 'token-file' key in the configuration file"))
	}

	return fields
}

func expandHome(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home dir: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path, nil
}
