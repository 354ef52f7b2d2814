package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/PabloGalante/heartdx/internal/config"
	"github.com/PabloGalante/heartdx/internal/observability"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	if err := newRootCommand(os.Stdout).Run(context.Background(), args); err != nil {
		fmt.Fprintln(os.Stderr, "heartdx:", err)
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:   "heartdx",
		Usage:  "Heart disease risk screening client",
		Writer: out,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "retries", Value: 0, Usage: "re-run retryable failures this many times"},
		},
		Commands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			registerCommand(),
			whoamiCommand(),
			profileCommand(),
			diagnoseCommand(),
			historyCommand(),
			patientsCommand(),
			healthCommand(),
		},
	}
}

// withApp wires a fresh app for one command and tears it down afterwards.
func withApp(ctx context.Context, c *cli.Command, fn func(context.Context, *app) error) error {
	cfg := config.Load()
	observability.Setup(os.Stderr, cfg.LogLevel)

	a, err := newApp(ctx, cfg, c.Root().Writer)
	if err != nil {
		return err
	}
	defer a.close()
	a.retries = c.Root().Int("retries")

	return fn(ctx, a)
}
