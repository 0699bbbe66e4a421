package tools

import (
	"os"
	"time"

	enc "github.com/named-data/repo-go/encoding"
	"github.com/named-data/repo-go/ndn"
	"github.com/named-data/repo-go/types/optional"
	"github.com/spf13/cobra"
)

var getFlags = struct {
	transport string
	lifetime  uint64
	output    string
}{}

var CmdGetFile = &cobra.Command{
	Use:   "get NDN-NAME",
	Short: "Fetch a segmented object from the repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runGetFile,
}

func init() {
	CmdGetFile.Flags().StringVar(&getFlags.transport, "transport",
		"unix:///run/nfd/nfd.sock", "Forwarder transport URI")
	CmdGetFile.Flags().Uint64Var(&getFlags.lifetime, "lifetime", 4000,
		"InterestLifetime in milliseconds")
	CmdGetFile.Flags().StringVarP(&getFlags.output, "output", "o", "-",
		"Output file; - writes to stdout")
}

func runGetFile(cmd *cobra.Command, args []string) error {
	name, err := enc.NameFromStr(args[0])
	if err != nil {
		return err
	}

	c, err := newClient(getFlags.transport)
	if err != nil {
		return err
	}
	defer c.stop()

	out := os.Stdout
	if getFlags.output != "-" {
		out, err = os.Create(getFlags.output)
		if err != nil {
			return err
		}
		defer out.Close()
	}

	lifetime := time.Duration(getFlags.lifetime) * time.Millisecond
	var finalBlockId optional.Optional[uint64]

	// iterate segments until the producer's FinalBlockId
	for segment := uint64(0); ; segment++ {
		interest := ndn.NewInterest(name.WithSegment(segment))
		interest.Lifetime.Set(lifetime)
		data, err := c.fetch(interest)
		if err != nil {
			return err
		}

		if _, err := out.Write(data.Content); err != nil {
			return err
		}

		if c, ok := data.MetaInfo.FinalBlockId.Get(); ok {
			if final, err := c.SegmentNumber(); err == nil {
				finalBlockId.Set(final)
			}
		}
		if final, ok := finalBlockId.Get(); ok && segment >= final {
			return nil
		}
	}
}
