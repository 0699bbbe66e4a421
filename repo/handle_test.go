package repo_test

import (
	"testing"
	"time"

	enc "github.com/named-data/repo-go/encoding"
	"github.com/named-data/repo-go/engine"
	"github.com/named-data/repo-go/face"
	"github.com/named-data/repo-go/ndn"
	"github.com/named-data/repo-go/repo"
	"github.com/named-data/repo-go/storage"
	"github.com/named-data/repo-go/types/optional"
	tu "github.com/named-data/repo-go/utils/testutils"
	"github.com/stretchr/testify/require"
)

// fixture drives the repository handles through a dummy face and a
// virtual clock, playing both the command issuer and the producer.
type fixture struct {
	t      *testing.T
	face   *face.DummyFace
	timer  *engine.DummyTimer
	engine *engine.Engine
	store  *storage.MemoryStorage
	facade *storage.RepoStorage
	prefix enc.Name
	signer ndn.Signer
	nonce  uint32
}

func newFixture(t *testing.T, maxPackets int64) *fixture {
	tu.SetT(t)

	f := &fixture{
		t:      t,
		face:   face.NewDummyFace(),
		timer:  engine.NewDummyTimer(),
		store:  storage.NewMemoryStorage(),
		prefix: tu.NoErr(enc.NameFromStr("/example/repo")),
		signer: ndn.NewSha256Signer(),
		nonce:  1,
	}
	f.engine = engine.NewEngine(f.face, f.timer)
	require.NoError(t, f.engine.Start())
	t.Cleanup(func() { f.engine.Stop() })

	f.facade = storage.NewRepoStorage(maxPackets, f.store)
	return f
}

// sendCommand issues a signed command interest and returns the parsed
// response record.
func (f *fixture) sendCommand(verbs []string, parameter *repo.RepoCommandParameter) *repo.RepoCommandResponse {
	name := f.prefix
	for _, v := range verbs {
		name = name.Append(enc.NewGenericComponent(v))
	}
	name = name.Append(enc.NewBytesComponent(enc.TypeGenericNameComponent, parameter.Encode()))
	signed := tu.NoErr(ndn.SignCommandName(name, f.signer, f.timer))

	interest := ndn.NewInterest(signed)
	interest.Nonce.Set(f.nonce)
	f.nonce++
	require.NoError(f.t, f.face.FeedPacket(tu.NoErr(interest.Encode())))

	reply := f.consumeData()
	require.True(f.t, signed.Equal(reply.Name))
	return tu.NoErr(repo.ParseRepoCommandResponse(reply.Content))
}

func (f *fixture) consumeData() *ndn.Data {
	pkt := tu.NoErr(f.face.Consume())
	data, _, err := ndn.ParseData(pkt)
	require.NoError(f.t, err)
	return data
}

func (f *fixture) consumeInterest() *ndn.Interest {
	pkt := tu.NoErr(f.face.Consume())
	interest, _, err := ndn.ParseInterest(pkt)
	require.NoError(f.t, err)
	return interest
}

// drain discards every packet the repository currently has in flight.
func (f *fixture) drain() {
	for {
		if _, err := f.face.Consume(); err != nil {
			return
		}
	}
}

func (f *fixture) feedData(data *ndn.Data) {
	require.NoError(f.t, f.face.FeedPacket(tu.NoErr(data.Wire())))
}

// makeSegment builds a signed segment packet, optionally carrying the
// FinalBlockId.
func (f *fixture) makeSegment(prefix string, segment uint64, final optional.Optional[uint64]) *ndn.Data {
	data := &ndn.Data{
		Name:    tu.NoErr(enc.NameFromStr(prefix)).WithSegment(segment),
		Content: []byte{byte(segment)},
	}
	if v, ok := final.Get(); ok {
		data.MetaInfo.FinalBlockId.Set(enc.NewSegmentComponent(v))
	}
	require.NoError(f.t, data.SignWith(f.signer))
	return data
}

// settle lets the engine loop run callbacks triggered by timer moves.
func (f *fixture) settle() {
	time.Sleep(50 * time.Millisecond)
}
