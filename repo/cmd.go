package repo

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/named-data/repo-go/engine"
	"github.com/named-data/repo-go/log"
	"github.com/named-data/repo-go/utils"
	"github.com/spf13/cobra"
)

var runConfig = DefaultConfig()

// CmdRun is the daemon entry point.
var CmdRun = &cobra.Command{
	Use:     "run CONFIG-FILE",
	Short:   "Start the repository daemon",
	Version: utils.RepoVersion,
	Args:    cobra.ExactArgs(1),
	Run:     run,
}

func run(cmd *cobra.Command, args []string) {
	configFile := args[0]
	if err := utils.ReadYaml(runConfig, configFile); err != nil {
		log.Fatal(nil, "Failed to read configuration file", "file", configFile, "err", err)
	}
	if err := runConfig.Parse(); err != nil {
		log.Fatal(nil, "Invalid configuration", "file", configFile, "err", err)
	}
	level, _ := log.ParseLevel(runConfig.Repo.LogLevel)
	log.Default().SetLevel(level)

	face, err := engine.FaceFromUri(runConfig.Face.Transport)
	if err != nil {
		log.Fatal(nil, "Failed to create face", "err", err)
	}
	e := engine.NewBasicEngine(face)
	if err := e.Start(); err != nil {
		log.Fatal(nil, "Failed to start engine", "err", err)
	}
	defer e.Stop()

	repo, err := NewRepo(runConfig, e)
	if err != nil {
		log.Fatal(nil, "Failed to create repo", "err", err)
	}
	if err := repo.Start(); err != nil {
		log.Fatal(nil, "Failed to start repo", "err", err)
	}

	// wait for interrupt; SIGHUP is reserved for config reload
	sigChannel := make(chan os.Signal, 1)
	signal.Notify(sigChannel, os.Interrupt, syscall.SIGTERM)
	receivedSig := <-sigChannel
	log.Info(repo, "Received signal - exit", "signal", receivedSig)

	repo.Stop()
}
