package commands

import (
	"fmt"
	"os"

	hflib "etwin-backend/lib/hammerfest"
	"etwin-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var hammerfestUsername *string
var hammerfestPassword *string

func init() {
	hammerfestUsername = hammerfestLoginCmd.Flags().String("username", "", "The account username.")
	hammerfestPassword = hammerfestLoginCmd.Flags().String("password", "", "The account password.")

	hammerfestCmd.AddCommand(hammerfestLoginCmd)
	hammerfestCmd.AddCommand(hammerfestUserCmd)
	hammerfestCmd.AddCommand(hammerfestThemesCmd)
	rootCmd.AddCommand(hammerfestCmd)
}

var hammerfestCmd = &cobra.Command{
	Use:   "hammerfest",
	Short: "Scrape hammerfest pages.",
}

var hammerfestLoginCmd = &cobra.Command{
	Use:   "login <server> --username <name> --password <pass>",
	Short: "Log into a hammerfest account and print the session key.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "incorrect number of arguments")
			os.Exit(1)
		}
		server, err := hflib.ParseServer(args[0])
		if err != nil {
			serviceutil.Fatal("invalid server", err)
		}
		username, err := hflib.ParseUsername(*hammerfestUsername)
		if err != nil {
			serviceutil.Fatal("invalid username", err)
		}

		client := hflib.NewHttpClient()
		session, err := client.CreateSession(cmd.Context(), &hflib.Credentials{
			Server:   server,
			Username: username,
			Password: *hammerfestPassword,
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

var hammerfestUserCmd = &cobra.Command{
	Use:   "user <server> <id>",
	Short: "Scrape a public hammerfest profile.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "incorrect number of arguments")
			os.Exit(1)
		}
		server, err := hflib.ParseServer(args[0])
		if err != nil {
			serviceutil.Fatal("invalid server", err)
		}
		id, err := hflib.ParseUserId(args[1])
		if err != nil {
			serviceutil.Fatal("invalid user id", err)
		}

		client := hflib.NewHttpClient()
		profile, err := client.GetProfileById(cmd.Context(), nil, &hflib.GetProfileByIdOptions{
			Server: server,
			UserId: id,
		})
		if err != nil {
			serviceutil.Fatal("failed to scrape profile", err)
		}
		if profile == nil {
			fmt.Fprintln(os.Stderr, "no such user")
			os.Exit(1)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendRow(table.Row{"username", profile.User.Username})
		t.AppendRow(table.Row{"best score", profile.BestScore})
		t.AppendRow(table.Row{"best level", profile.BestLevel})
		t.AppendRow(table.Row{"season score", profile.SeasonScore})
		t.AppendRow(table.Row{"rank", profile.Rank})
		t.AppendRow(table.Row{"has carrot", profile.HasCarrot})
		t.AppendRow(table.Row{"items", len(profile.Items)})
		t.AppendRow(table.Row{"quests", len(profile.Quests)})
		t.Render()
	},
}

var hammerfestThemesCmd = &cobra.Command{
	Use:   "themes <server>",
	Short: "List the forum themes of a hammerfest server.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "incorrect number of arguments")
			os.Exit(1)
		}
		server, err := hflib.ParseServer(args[0])
		if err != nil {
			serviceutil.Fatal("invalid server", err)
		}

		client := hflib.NewHttpClient()
		themes, err := client.GetForumThemes(cmd.Context(), nil, server)
		if err != nil {
			serviceutil.Fatal("failed to scrape forum themes", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"id", "name", "description"})
		for _, theme := range themes {
			t.AppendRow(table.Row{theme.Id, theme.Name, theme.Description})
		}
		t.Render()
	},
}
