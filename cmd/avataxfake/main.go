// Command avataxfake serves the in-memory AvaTax v16 fake on the host of
// the configured base URL, so SDK code can run against it locally.
//
// It reads the same AVATAX_* settings as the SDK: the account id and
// license key it accepts, the base URL it listens on and the log level.
//
//	AVATAX_BASE_URL=http://localhost:8080 \
//	AVATAX_ACCOUNT_ID=1100000000 \
//	AVATAX_LICENSE_KEY=secret \
//	go run ./cmd/avataxfake -rate 0.0725
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"

	"github.com/adamwoolhether/avatax16/avataxtest"
	"github.com/adamwoolhether/avatax16/config"
	"github.com/adamwoolhether/avatax16/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "avataxfake:", err)
		os.Exit(1)
	}
}

func run() error {
	configFile := flag.String("config", "", "optional config file (yaml, json, toml)")
	rate := flag.Float64("rate", avataxtest.DefaultRate, "flat tax rate applied to every line")
	flag.Parse()

	var opts []config.Option
	if *configFile != "" {
		opts = append(opts, config.WithConfigFile(*configFile))
	}

	cfg, err := config.Load(opts...)
	if err != nil {
		return err
	}

	log := cfg.Logger(os.Stdout)

	addr, err := listenAddr(cfg.BaseURL)
	if err != nil {
		return err
	}

	handler := avataxtest.NewHandler(
		avataxtest.WithRate(*rate),
		avataxtest.WithAccount(cfg.AccountID, cfg.LicenseKey),
		avataxtest.WithLogger(log),
		avataxtest.WithTracer(otel.Tracer("github.com/adamwoolhether/avatax16/cmd/avataxfake")),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting avataxfake", "account", cfg.AccountID, "rate", *rate)

	return server.New(handler, server.WithAddr(addr), server.WithLogger(log)).Run(ctx)
}

// listenAddr returns the host:port of baseURL, defaulting the port from
// the scheme.
func listenAddr(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base url: %w", err)
	}

	if u.Port() != "" {
		return u.Host, nil
	}

	port := "80"
	if u.Scheme == "https" {
		port = "443"
	}

	return net.JoinHostPort(u.Hostname(), port), nil
}
