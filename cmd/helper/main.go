package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	oauth "github.com/weshareshare/oauth-pkce-golang"
)

func main() {
	app := &cli.App{
		Name: "weshare-oauth-helper",
		Commands: []*cli.Command{
			runDecodeToken,
			runGeneratePkce,
		},
	}

	app.RunAndExitOnError()
}

var runDecodeToken = &cli.Command{
	Name:      "decode-token",
	Usage:     "print a token's payload claims without verifying them",
	ArgsUsage: "<token>",
	Action: func(cmd *cli.Context) error {
		token := cmd.Args().First()
		if token == "" {
			return fmt.Errorf("no token provided")
		}

		claims := oauth.DecodeClaims(token)
		if len(claims) == 0 {
			return fmt.Errorf("token payload could not be decoded")
		}

		b, err := json.MarshalIndent(claims, "", "  ")
		if err != nil {
			return err
		}

		fmt.Println(string(b))

		return nil
	},
}

var runGeneratePkce = &cli.Command{
	Name:  "generate-pkce",
	Usage: "print a fresh verifier/challenge pair",
	Action: func(cmd *cli.Context) error {
		pair, err := oauth.GenerateChallengePair()
		if err != nil {
			return err
		}

		b, err := json.Marshal(pair)
		if err != nil {
			return err
		}

		fmt.Println(string(b))

		return nil
	},
}
