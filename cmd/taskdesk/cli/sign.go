package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/deepnoodle-ai/taskdesk/signature"
	"github.com/deepnoodle-ai/wonton/cli"
)

func registerSignCommand(app *cli.App) {
	app.Command("sign").
		Description("Print Slack signature headers for a request body, for local testing").
		Args("body?").
		Flags(
			cli.String("secret", "s").
				Env("SLACK_SIGNING_SECRET").
				Help("Signing secret"),
			cli.String("file", "f").
				Help("Read the body from a file instead of the argument"),
		).
		Run(func(ctx *cli.Context) error {
			secret := ctx.String("secret")
			if secret == "" {
				return cli.Errorf("no signing secret. Use --secret or SLACK_SIGNING_SECRET")
			}
			var body []byte
			switch {
			case ctx.String("file") != "":
				data, err := os.ReadFile(ctx.String("file"))
				if err != nil {
					return cli.Errorf("failed to read body: %v", err)
				}
				body = data
			case ctx.NArg() > 0:
				body = []byte(ctx.Arg(0))
			default:
				return cli.Errorf("no body provided. Use an argument or --file")
			}
			printSignature(os.Stdout, secret, body, time.Now())
			return nil
		})
}

func printSignature(w io.Writer, secret string, body []byte, now time.Time) {
	ts := strconv.FormatInt(now.Unix(), 10)
	fmt.Fprintf(w, "%s: %s\n", signature.HeaderTimestamp, ts)
	fmt.Fprintf(w, "%s: %s\n", signature.HeaderSignature, signature.Sign(secret, body, ts))
}
