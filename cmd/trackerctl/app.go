package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/opsbatch/trackerkit/internal/config"
	"github.com/opsbatch/trackerkit/internal/credential"
	"github.com/opsbatch/trackerkit/pkg/apis/jira"
	"github.com/opsbatch/trackerkit/pkg/transport"
)

// tokenEnvVar lets CI jobs without a keyring supply the secret directly.
const tokenEnvVar = "TRACKERCTL_TOKEN"

// app bundles the loaded configuration and the constructed client for a
// single command invocation.
type app struct {
	cfg    *config.Config
	client *jira.Client
	logger *slog.Logger
}

// slogPrintf adapts slog to the transport Logger interface.
type slogPrintf struct {
	logger *slog.Logger
}

func (s slogPrintf) Printf(format string, args ...any) {
	s.logger.Debug(fmt.Sprintf(format, args...))
}

func newApp(needsClient bool) (*app, error) {
	level := slog.LevelInfo
	if os.Getenv("TRACKERCTL_VERBOSE") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	configPath := os.Getenv("TRACKERCTL_CONFIG")
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}
	if !needsClient {
		return a, nil
	}

	secret, err := resolveSecret(cfg.Username)
	if err != nil {
		return nil, err
	}

	tr := transport.New(
		transport.WithTimeout(time.Duration(cfg.TimeoutSec)*time.Second),
		transport.WithLogger(slogPrintf{logger: logger}),
	)
	client, err := jira.NewClient(
		jira.WithBaseURL(cfg.BaseURL),
		jira.WithCredentials(cfg.Username, secret),
		jira.WithTransport(tr),
	)
	if err != nil {
		return nil, err
	}
	a.client = client

	return a, nil
}

// resolveSecret prefers the environment so headless jobs work, then falls
// back to the keyring entry written by set-token.
func resolveSecret(username string) (string, error) {
	if secret := os.Getenv(tokenEnvVar); secret != "" {
		return secret, nil
	}
	if username == "" {
		return "", errors.New("no username configured; set username in the config file or TRACKERCTL_USERNAME")
	}

	secret, err := credential.Get(tokenKey(username))
	if err != nil {
		return "", fmt.Errorf("no credential found for %s; run \"trackerctl set-token\" or set %s: %w", username, tokenEnvVar, err)
	}
	return secret, nil
}

func tokenKey(username string) string {
	return "token:" + username
}
