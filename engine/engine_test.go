package engine_test

import (
	"testing"
	"time"

	enc "github.com/named-data/repo-go/encoding"
	"github.com/named-data/repo-go/engine"
	"github.com/named-data/repo-go/face"
	"github.com/named-data/repo-go/ndn"
	tu "github.com/named-data/repo-go/utils/testutils"
	"github.com/stretchr/testify/require"
)

type engineFixture struct {
	face   *face.DummyFace
	timer  *engine.DummyTimer
	engine *engine.Engine
}

func newEngineFixture(t *testing.T) *engineFixture {
	tu.SetT(t)
	f := &engineFixture{
		face:  face.NewDummyFace(),
		timer: engine.NewDummyTimer(),
	}
	f.engine = engine.NewEngine(f.face, f.timer)
	require.NoError(t, f.engine.Start())
	t.Cleanup(func() { f.engine.Stop() })
	return f
}

func TestExpressReceivesData(t *testing.T) {
	f := newEngineFixture(t)

	result := make(chan ndn.ExpressCallbackArgs, 1)
	interest := ndn.NewInterest(tu.NoErr(enc.NameFromStr("/ping")))
	require.NoError(t, f.engine.Express(interest, func(args ndn.ExpressCallbackArgs) {
		result <- args
	}))

	// the interest reaches the face
	pkt := tu.NoErr(f.face.Consume())
	parsed, _, err := ndn.ParseInterest(pkt)
	require.NoError(t, err)
	require.Equal(t, "/ping", parsed.Name.String())

	// a longer-named data satisfies it (prefix semantics)
	data := &ndn.Data{Name: tu.NoErr(enc.NameFromStr("/ping/pong")), Content: []byte{1}}
	require.NoError(t, data.SignWith(ndn.NewSha256Signer()))
	require.NoError(t, f.face.FeedPacket(tu.NoErr(data.Wire())))

	select {
	case args := <-result:
		require.Equal(t, ndn.InterestResultData, args.Result)
		require.True(t, data.Name.Equal(args.Data.Name))
	case <-time.After(time.Second):
		t.Fatal("callback not invoked")
	}
}

func TestExpressFullNameDigestCheck(t *testing.T) {
	f := newEngineFixture(t)

	data := &ndn.Data{Name: tu.NoErr(enc.NameFromStr("/d")), Content: []byte{2}}
	require.NoError(t, data.SignWith(ndn.NewSha256Signer()))
	fullName := tu.NoErr(data.FullName())

	// a wrong digest never matches
	wrongName := data.Name.Append(enc.NewDigestComponent(make([]byte, 32)))
	wrong := make(chan ndn.ExpressCallbackArgs, 1)
	require.NoError(t, f.engine.Express(ndn.NewInterest(wrongName),
		func(args ndn.ExpressCallbackArgs) { wrong <- args }))

	right := make(chan ndn.ExpressCallbackArgs, 1)
	require.NoError(t, f.engine.Express(ndn.NewInterest(fullName),
		func(args ndn.ExpressCallbackArgs) { right <- args }))

	f.face.Consume()
	f.face.Consume()
	require.NoError(t, f.face.FeedPacket(tu.NoErr(data.Wire())))

	select {
	case args := <-right:
		require.Equal(t, ndn.InterestResultData, args.Result)
	case <-time.After(time.Second):
		t.Fatal("digest interest not satisfied")
	}
	require.Empty(t, wrong)
}

func TestExpressTimeout(t *testing.T) {
	f := newEngineFixture(t)

	result := make(chan ndn.ExpressCallbackArgs, 1)
	interest := ndn.NewInterest(tu.NoErr(enc.NameFromStr("/silence")))
	require.NoError(t, f.engine.Express(interest, func(args ndn.ExpressCallbackArgs) {
		result <- args
	}))
	f.face.Consume()

	f.timer.MoveForward(engine.DefaultInterestLife + time.Second)

	select {
	case args := <-result:
		require.Equal(t, ndn.InterestResultTimeout, args.Result)
	case <-time.After(time.Second):
		t.Fatal("timeout callback not invoked")
	}
}

func TestAttachHandlerLongestPrefixMatch(t *testing.T) {
	f := newEngineFixture(t)

	got := make(chan string, 2)
	require.NoError(t, f.engine.AttachHandler(tu.NoErr(enc.NameFromStr("/svc")),
		func(args ndn.InterestHandlerArgs) { got <- "root" }))
	require.NoError(t, f.engine.AttachHandler(tu.NoErr(enc.NameFromStr("/svc/sub")),
		func(args ndn.InterestHandlerArgs) { got <- "sub" }))

	// duplicate attachment is refused
	err := f.engine.AttachHandler(tu.NoErr(enc.NameFromStr("/svc")),
		func(args ndn.InterestHandlerArgs) {})
	require.ErrorIs(t, err, ndn.ErrMultipleHandlers)

	feed := func(name string) {
		interest := ndn.NewInterest(tu.NoErr(enc.NameFromStr(name)))
		interest.Nonce.Set(1)
		require.NoError(t, f.face.FeedPacket(tu.NoErr(interest.Encode())))
	}

	feed("/svc/sub/item")
	feed("/svc/other")
	require.Equal(t, "sub", <-got)
	require.Equal(t, "root", <-got)
}

func TestHandlerReply(t *testing.T) {
	f := newEngineFixture(t)

	require.NoError(t, f.engine.AttachHandler(tu.NoErr(enc.NameFromStr("/echo")),
		func(args ndn.InterestHandlerArgs) {
			data := &ndn.Data{Name: args.Interest.Name, Content: []byte("hi")}
			require.NoError(t, data.SignWith(ndn.NewSha256Signer()))
			wire, _ := data.Wire()
			require.NoError(t, args.Reply(wire))
		}))

	interest := ndn.NewInterest(tu.NoErr(enc.NameFromStr("/echo/x")))
	interest.Nonce.Set(9)
	require.NoError(t, f.face.FeedPacket(tu.NoErr(interest.Encode())))

	pkt := tu.NoErr(f.face.Consume())
	data, _, err := ndn.ParseData(pkt)
	require.NoError(t, err)
	require.Equal(t, "/echo/x", data.Name.String())
	require.Equal(t, []byte("hi"), data.Content)
}

func TestScheduleAndCancel(t *testing.T) {
	f := newEngineFixture(t)

	fired := make(chan struct{}, 2)
	f.engine.Schedule(time.Second, func() { fired <- struct{}{} })
	cancel := f.engine.Schedule(time.Second, func() { fired <- struct{}{} })
	require.NoError(t, cancel())

	f.timer.MoveForward(2 * time.Second)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("scheduled event not fired")
	}
	// the cancelled event stays silent
	time.Sleep(50 * time.Millisecond)
	require.Len(t, fired, 0)
}

func TestDummyTimerOrdering(t *testing.T) {
	tu.SetT(t)
	timer := engine.NewDummyTimer()

	var order []int
	timer.Schedule(3*time.Second, func() { order = append(order, 3) })
	timer.Schedule(time.Second, func() { order = append(order, 1) })
	timer.Schedule(2*time.Second, func() { order = append(order, 2) })

	timer.MoveForward(90 * time.Minute)
	require.Equal(t, []int{1, 2, 3}, order)

	// events fire once
	timer.MoveForward(time.Hour)
	require.Equal(t, []int{1, 2, 3}, order)
}
