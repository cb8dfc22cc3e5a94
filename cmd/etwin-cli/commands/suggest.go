package commands

import (
	"fmt"
	"os"
	"strings"

	"etwin-backend/services/linker"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(suggestCmd)
}

var suggestCmd = &cobra.Command{
	Use:   "suggest <etwin names> <remote names>",
	Short: "Suggest account links between two comma separated name lists.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "incorrect number of arguments")
			os.Exit(1)
		}
		etwinNames := strings.Split(args[0], ",")
		remoteNames := strings.Split(args[1], ",")

		suggestions := linker.SuggestLinks(etwinNames, remoteNames)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"etwin", "remote", "correlation"})
		for _, suggestion := range suggestions {
			t.AppendRow(table.Row{
				suggestion.EtwinName,
				suggestion.RemoteName,
				fmt.Sprintf("%.3f", suggestion.Correlation),
			})
		}
		t.Render()
	},
}
