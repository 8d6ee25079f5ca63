// Command bookshelf serves the role-gated book catalogue API.
//
// @title                       Bookshelf API
// @version                     1.0
// @description                 Role-gated book catalogue with Basic and Bearer authentication.
// @BasePath                    /
// @securityDefinitions.basic   BasicAuth
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "bookshelf",
		Usage: "role-gated book catalogue API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Usage:   "dotenv file loaded before reading the environment",
				Value:   ".env",
				EnvVars: []string{"ENV_FILE"},
			},
		},
		Before: func(c *cli.Context) error {
			return loadEnvFile(c.String("env-file"))
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:   "seed-roles",
				Usage:  "write the default roles to the configured store",
				Action: seedRoles,
			},
		},
		Action: serve,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "bookshelf: %v\n", err)
		os.Exit(1)
	}
}

// loadEnvFile applies path to the process environment. A missing file is not an error;
// variables already set take precedence.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
