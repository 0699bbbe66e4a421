package tools

import (
	"fmt"
	"os"
	"time"

	enc "github.com/named-data/repo-go/encoding"
	"github.com/named-data/repo-go/log"
	"github.com/named-data/repo-go/ndn"
	"github.com/named-data/repo-go/repo"
	"github.com/named-data/repo-go/types/optional"
	"github.com/spf13/cobra"
)

const putBlockSize = 1000
const putCheckPeriod = time.Second

var putFlags = struct {
	transport string
	freshness uint64
	lifetime  uint64
	single    bool
}{}

var CmdPutFile = &cobra.Command{
	Use:   "put REPO-PREFIX NDN-NAME FILENAME",
	Short: "Publish a file into the repository",
	Args:  cobra.ExactArgs(3),
	RunE:  runPutFile,
}

func init() {
	CmdPutFile.Flags().StringVar(&putFlags.transport, "transport",
		"unix:///run/nfd/nfd.sock", "Forwarder transport URI")
	CmdPutFile.Flags().Uint64Var(&putFlags.freshness, "freshness", 0,
		"FreshnessPeriod of published data in milliseconds")
	CmdPutFile.Flags().Uint64Var(&putFlags.lifetime, "lifetime", 4000,
		"InterestLifetime in milliseconds")
	CmdPutFile.Flags().BoolVar(&putFlags.single, "single", false,
		"Publish the file as one data packet")
}

func runPutFile(cmd *cobra.Command, args []string) error {
	repoPrefix, err := enc.NameFromStr(args[0])
	if err != nil {
		return err
	}
	dataName, err := enc.NameFromStr(args[1])
	if err != nil {
		return err
	}
	content, err := os.ReadFile(args[2])
	if err != nil {
		return err
	}

	c, err := newClient(putFlags.transport)
	if err != nil {
		return err
	}
	defer c.stop()

	signer := ndn.NewSha256Signer()
	segments, err := buildSegments(dataName, content, signer)
	if err != nil {
		return err
	}

	// serve the prepared packets to the repository's fetcher
	err = c.engine.AttachHandler(dataName, func(hArgs ndn.InterestHandlerArgs) {
		for _, seg := range segments {
			fullName, _ := seg.FullName()
			if hArgs.Interest.CanSelect(fullName) {
				wire, _ := seg.Wire()
				hArgs.Reply(wire)
				return
			}
		}
	})
	if err != nil {
		return err
	}
	if err := c.engine.RegisterRoute(dataName); err != nil {
		return err
	}
	defer c.engine.UnregisterRoute(dataName)

	parameter := &repo.RepoCommandParameter{Name: dataName}
	parameter.InterestLifetime.Set(time.Duration(putFlags.lifetime) * time.Millisecond)
	if !putFlags.single {
		parameter.StartBlockId.Set(0)
		parameter.EndBlockId.Set(uint64(len(segments) - 1))
	}

	resp, err := c.sendCommand(repoPrefix, "insert", parameter)
	if err != nil {
		return err
	}
	if resp.StatusCode.GetOr(0) != repo.StatusInProgress {
		return statusError("insert", resp)
	}
	processId := resp.ProcessId.GetOr(0)
	log.Info(c, "Insert accepted", "process", processId)

	// poll until the repository finished fetching
	for {
		time.Sleep(putCheckPeriod)
		check := &repo.RepoCommandParameter{}
		check.ProcessId.Set(processId)
		resp, err := c.sendCommand(repoPrefix, "insert check", check)
		if err != nil {
			return err
		}
		switch resp.StatusCode.GetOr(0) {
		case repo.StatusCompleted:
			fmt.Printf("inserted %d packets\n", resp.InsertNum.GetOr(0))
			return nil
		case repo.StatusRunning, repo.StatusInProgress:
			// a single-packet process never reports 200; it is done
			// once its one packet is inserted
			if putFlags.single && resp.InsertNum.GetOr(0) >= 1 {
				fmt.Printf("inserted %d packets\n", resp.InsertNum.GetOr(0))
				return nil
			}
			continue
		default:
			return statusError("insert check", resp)
		}
	}
}

// buildSegments splits content into signed segment packets carrying
// the FinalBlockId, or a single unsegmented packet.
func buildSegments(name enc.Name, content []byte, signer ndn.Signer) ([]*ndn.Data, error) {
	freshness := time.Duration(putFlags.freshness) * time.Millisecond

	if putFlags.single {
		data := &ndn.Data{Name: name, Content: content}
		if freshness > 0 {
			data.MetaInfo.FreshnessPeriod.Set(freshness)
		}
		if err := data.SignWith(signer); err != nil {
			return nil, err
		}
		return []*ndn.Data{data}, nil
	}

	nSegments := (len(content) + putBlockSize - 1) / putBlockSize
	if nSegments == 0 {
		nSegments = 1
	}
	finalBlockId := enc.NewSegmentComponent(uint64(nSegments - 1))

	segments := make([]*ndn.Data, 0, nSegments)
	for i := 0; i < nSegments; i++ {
		end := min((i+1)*putBlockSize, len(content))
		data := &ndn.Data{
			Name:    name.WithSegment(uint64(i)),
			Content: content[i*putBlockSize : end],
			MetaInfo: ndn.MetaInfo{
				FinalBlockId: optional.Some(finalBlockId),
			},
		}
		if freshness > 0 {
			data.MetaInfo.FreshnessPeriod.Set(freshness)
		}
		if err := data.SignWith(signer); err != nil {
			return nil, err
		}
		segments = append(segments, data)
	}
	return segments, nil
}
