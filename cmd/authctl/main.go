package main

import (
	"context"
	"fmt"
	"os"

	"github.com/okulikov/authd/internal/authctl"
	"github.com/okulikov/authd/internal/flagx"
	"github.com/okulikov/authd/internal/server/config"
	"github.com/okulikov/authd/internal/server/repositories/repomanager"
	"github.com/okulikov/authd/internal/server/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "authctl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()
	cfg := config.LoadConfig()

	m, err := repomanager.NewPostgresRepositoryManager(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer m.Close()

	credentials, err := services.NewCredentialService(m.Conn(), m)
	if err != nil {
		return err
	}

	args := flagx.PositionalArgs(os.Args[1:], []string{"-a", "-d", "-n", "-m", "-w", "-c", "-config"})
	return authctl.New(credentials, os.Stdout).Run(ctx, args)
}
