package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hollis-dev/notemirror/auth"
	"github.com/hollis-dev/notemirror/cli/render"
)

// LoginResponse is the rendered result of the login command.
type LoginResponse struct {
	TokenFile  string `json:"token_file"`
	AcquiredAt string `json:"acquired_at"`
}

// LoginCommand returns the login command. The bearer value is supplied
// manually; acquisition from the service's web session happens outside this
// tool.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Store a bearer credential for sync",
		Flags: append(OutputFlags(),
			&cli.StringFlag{
				Name:     "token",
				Usage:    "Bearer token value (with or without the Bearer prefix)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "token-file",
				Usage: "Override the credential cache location",
			},
		),
		Action: loginAction,
	}
}

func loginAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	path := c.String("token-file")
	if path == "" {
		path, err = auth.DefaultTokenPath()
		if err != nil {
			return err
		}
	}

	cred := auth.Login(c.String("token"), time.Now())
	if err := auth.Save(path, cred); err != nil {
		return fmt.Errorf("credential save failed: %w", err)
	}

	return r.Render(LoginResponse{
		TokenFile:  path,
		AcquiredAt: cred.AcquiredAt.Format(time.RFC3339),
	})
}
