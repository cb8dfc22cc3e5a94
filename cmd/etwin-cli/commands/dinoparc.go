package commands

import (
	"fmt"
	"os"

	dplib "etwin-backend/lib/dinoparc"
	"etwin-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var dinoparcUsername *string
var dinoparcPassword *string

func init() {
	dinoparcUsername = dinoparcLoginCmd.Flags().String("username", "", "The account username.")
	dinoparcPassword = dinoparcLoginCmd.Flags().String("password", "", "The account password.")

	dinoparcCmd.AddCommand(dinoparcLoginCmd)
	dinoparcCmd.AddCommand(dinoparcDinozCmd)
	rootCmd.AddCommand(dinoparcCmd)
}

var dinoparcCmd = &cobra.Command{
	Use:   "dinoparc",
	Short: "Scrape dinoparc pages.",
}

var dinoparcLoginCmd = &cobra.Command{
	Use:   "login <server> --username <name> --password <pass>",
	Short: "Log into a dinoparc account and print the session key.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "incorrect number of arguments")
			os.Exit(1)
		}
		server, err := dplib.ParseServer(args[0])
		if err != nil {
			serviceutil.Fatal("invalid server", err)
		}
		username, err := dplib.ParseUsername(*dinoparcUsername)
		if err != nil {
			serviceutil.Fatal("invalid username", err)
		}

		client := dplib.NewHttpClient()
		session, err := client.CreateSession(cmd.Context(), &dplib.Credentials{
			Server:   server,
			Username: username,
			Password: *dinoparcPassword,
		})
		if err != nil {
			serviceutil.Fatal("failed to log in", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendRow(table.Row{"user id", session.User.Id})
		t.AppendRow(table.Row{"username", session.User.Username})
		t.AppendRow(table.Row{"session key", session.Key})
		t.Render()
	},
}

var dinoparcDinozCmd = &cobra.Command{
	Use:   "dinoz <server> <id>",
	Short: "Scrape a public dinoz sheet.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "incorrect number of arguments")
			os.Exit(1)
		}
		server, err := dplib.ParseServer(args[0])
		if err != nil {
			serviceutil.Fatal("invalid server", err)
		}
		id, err := dplib.ParseDinozId(args[1])
		if err != nil {
			serviceutil.Fatal("invalid dinoz id", err)
		}

		client := dplib.NewHttpClient()
		dinoz, err := client.GetDinoz(cmd.Context(), nil, &dplib.GetDinozOptions{
			Server:  server,
			DinozId: id,
		})
		if err != nil {
			serviceutil.Fatal("failed to scrape dinoz", err)
		}
		if dinoz == nil {
			fmt.Fprintln(os.Stderr, "no such dinoz")
			os.Exit(1)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendRow(table.Row{"name", dinoz.Name})
		t.AppendRow(table.Row{"race", dinoz.Race})
		t.AppendRow(table.Row{"level", dinoz.Level})
		t.AppendRow(table.Row{"life", dinoz.Life})
		t.AppendRow(table.Row{"experience", dinoz.Experience})
		t.AppendRow(table.Row{"danger", dinoz.Danger})
		if dinoz.Owner != nil {
			t.AppendRow(table.Row{"owner", dinoz.Owner.Username})
		}
		t.Render()
	},
}
