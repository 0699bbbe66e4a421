package main

import (
	"os"

	"github.com/named-data/repo-go/repo"
	"github.com/named-data/repo-go/tools"
	"github.com/named-data/repo-go/utils"
	"github.com/spf13/cobra"
)

var root = &cobra.Command{
	Use:     "repo-go",
	Short:   "Persistent repository for Named Data Networking",
	Version: utils.RepoVersion,
}

func main() {
	root.AddCommand(
		repo.CmdRun,
		tools.CmdPutFile,
		tools.CmdGetFile,
		tools.CmdWatch,
		tools.CmdLs,
	)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
