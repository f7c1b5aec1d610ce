package cli

import (
	"io"
	"os"

	"github.com/deepnoodle-ai/taskdesk"
	"github.com/deepnoodle-ai/taskdesk/internal/tablewriter"
	"github.com/deepnoodle-ai/taskdesk/ledger"
	"github.com/deepnoodle-ai/taskdesk/tenant"
	"github.com/deepnoodle-ai/wonton/cli"
)

func registerClientsCommand(app *cli.App) {
	app.Command("clients").
		Description("List the configured clients").
		Flags(
			cli.String("file", "f").
				Help("Clients file; overrides CLIENTS_FILE"),
		).
		Run(func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx, false)
			if err != nil {
				return cli.Errorf("%v", err)
			}
			path := cfg.ClientsFile
			if f := ctx.String("file"); f != "" {
				path = f
			}
			registry, err := tenant.LoadFile(path)
			if err != nil {
				return cli.Errorf("%v", err)
			}
			printClients(os.Stdout, registry.All())
			return nil
		})
}

func printClients(w io.Writer, clients []taskdesk.ClientConfig) {
	if len(clients) == 0 {
		mutedStyle.Fprintln(w, "No clients configured")
		return
	}
	headerStyle.Fprintf(w, "%d client(s)\n", len(clients))
	table := tablewriter.NewWriter(w)
	table.Header("Client", "Channel", "Project", "Ledger")
	for _, c := range clients {
		table.Append(c.DisplayName, c.ConversationID, c.ProjectID, ledger.URL(c.LedgerID))
	}
	table.Render()
}
