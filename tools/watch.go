package tools

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	enc "github.com/named-data/repo-go/encoding"
	"github.com/named-data/repo-go/repo"
	"github.com/spf13/cobra"
)

var watchFlags = struct {
	transport   string
	maxInterest uint64
	timeout     uint64
	checkPeriod uint64
}{}

var CmdWatch = &cobra.Command{
	Use:   "watch REPO-PREFIX NDN-NAME",
	Short: "Ask the repository to watch a name and pull new data",
	Args:  cobra.ExactArgs(2),
	RunE:  runWatch,
}

func init() {
	CmdWatch.Flags().StringVar(&watchFlags.transport, "transport",
		"unix:///run/nfd/nfd.sock", "Forwarder transport URI")
	CmdWatch.Flags().Uint64Var(&watchFlags.maxInterest, "max-interests", 0,
		"Interest budget of the watch; 0 means unbounded")
	CmdWatch.Flags().Uint64Var(&watchFlags.timeout, "timeout", 0,
		"Watch timeout in milliseconds; 0 means unbounded")
	CmdWatch.Flags().Uint64Var(&watchFlags.checkPeriod, "check-period", 1000,
		"Status poll period in milliseconds")
}

func runWatch(cmd *cobra.Command, args []string) error {
	repoPrefix, err := enc.NameFromStr(args[0])
	if err != nil {
		return err
	}
	name, err := enc.NameFromStr(args[1])
	if err != nil {
		return err
	}

	c, err := newClient(watchFlags.transport)
	if err != nil {
		return err
	}
	defer c.stop()

	parameter := &repo.RepoCommandParameter{Name: name}
	if watchFlags.maxInterest > 0 {
		parameter.MaxInterestNum.Set(watchFlags.maxInterest)
	}
	if watchFlags.timeout > 0 {
		parameter.WatchTimeout.Set(time.Duration(watchFlags.timeout) * time.Millisecond)
	}

	resp, err := c.sendCommand(repoPrefix.Append(enc.NewGenericComponent("watch")), "start", parameter)
	if err != nil {
		return err
	}
	if resp.StatusCode.GetOr(0) != repo.StatusInProgress {
		return statusError("watch start", resp)
	}

	sigChannel := make(chan os.Signal, 1)
	signal.Notify(sigChannel, os.Interrupt, syscall.SIGTERM)
	ticker := time.NewTicker(time.Duration(watchFlags.checkPeriod) * time.Millisecond)
	defer ticker.Stop()

	watchPrefix := repoPrefix.Append(enc.NewGenericComponent("watch"))
	check := &repo.RepoCommandParameter{Name: name}

	for {
		select {
		case <-ticker.C:
			resp, err := c.sendCommand(watchPrefix, "check", check)
			if err != nil {
				return err
			}
			switch resp.StatusCode.GetOr(0) {
			case repo.StatusRunning:
				fmt.Printf("watching, %d packets stored\n", resp.InsertNum.GetOr(0))
			case repo.StatusStopped:
				fmt.Printf("watch finished, %d packets stored\n", resp.InsertNum.GetOr(0))
				return nil
			default:
				return statusError("watch check", resp)
			}
		case <-sigChannel:
			// stop the watch before leaving
			resp, err := c.sendCommand(watchPrefix, "stop", check)
			if err != nil {
				return err
			}
			if resp.StatusCode.GetOr(0) != repo.StatusStopped {
				return statusError("watch stop", resp)
			}
			return nil
		}
	}
}
