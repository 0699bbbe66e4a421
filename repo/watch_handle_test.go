package repo_test

import (
	"testing"

	enc "github.com/named-data/repo-go/encoding"
	"github.com/named-data/repo-go/ndn"
	"github.com/named-data/repo-go/repo"
	tu "github.com/named-data/repo-go/utils/testutils"
	"github.com/stretchr/testify/require"
)

func newWatchFixture(t *testing.T) *fixture {
	f := newFixture(t, 1000)
	w := repo.NewWatchHandle(f.engine, f.facade, f.signer, repo.NewAcceptAllValidator())
	require.NoError(t, w.Listen(f.prefix))
	return f
}

func (f *fixture) makeChild(prefix, child string) *ndn.Data {
	data := &ndn.Data{
		Name:    tu.NoErr(enc.NameFromStr(prefix + "/" + child)),
		Content: []byte(child),
	}
	require.NoError(f.t, data.SignWith(f.signer))
	return data
}

func TestWatchExcludeRefinement(t *testing.T) {
	f := newWatchFixture(t)

	parameter := &repo.RepoCommandParameter{Name: tu.NoErr(enc.NameFromStr("/w"))}
	parameter.MaxInterestNum.Set(3)

	resp := f.sendCommand([]string{"watch", "start"}, parameter)
	require.Equal(t, repo.StatusInProgress, resp.StatusCode.Unwrap())

	// first pull: rightmost child, no exclusions yet
	fetch := f.consumeInterest()
	require.Equal(t, "/w", fetch.Name.String())
	require.Equal(t, ndn.ChildSelectorRightmost, fetch.Selectors.ChildSelector.Unwrap())
	require.True(t, fetch.Selectors.Exclude.Empty())

	f.feedData(f.makeChild("/w", "1"))

	// second pull excludes everything up to the returned child
	fetch = f.consumeInterest()
	require.True(t, fetch.Selectors.Exclude.IsExcluded(enc.NewGenericComponent("1")))
	require.False(t, fetch.Selectors.Exclude.IsExcluded(enc.NewGenericComponent("2")))

	f.feedData(f.makeChild("/w", "2"))

	// the exclude keeps growing
	fetch = f.consumeInterest()
	require.True(t, fetch.Selectors.Exclude.IsExcluded(enc.NewGenericComponent("1")))
	require.True(t, fetch.Selectors.Exclude.IsExcluded(enc.NewGenericComponent("2")))

	f.feedData(f.makeChild("/w", "3"))

	// the interest budget is exhausted: no further interest goes out
	_, err := f.face.Consume()
	require.Error(t, err)

	// all three packets are stored
	require.Equal(t, int64(3), f.facade.Size())

	check := &repo.RepoCommandParameter{Name: parameter.Name}
	resp = f.sendCommand([]string{"watch", "check"}, check)
	require.Equal(t, repo.StatusStopped, resp.StatusCode.Unwrap())
	require.Equal(t, uint64(3), resp.InsertNum.Unwrap())
}

func TestWatchExactNameUsesSuffixBound(t *testing.T) {
	f := newWatchFixture(t)

	parameter := &repo.RepoCommandParameter{Name: tu.NoErr(enc.NameFromStr("/w2"))}
	resp := f.sendCommand([]string{"watch", "start"}, parameter)
	require.Equal(t, repo.StatusInProgress, resp.StatusCode.Unwrap())

	f.consumeInterest()

	// a reply named exactly like the interest switches to a suffix bound
	data := &ndn.Data{Name: parameter.Name, Content: []byte{1}}
	require.NoError(t, data.SignWith(f.signer))
	f.feedData(data)

	fetch := f.consumeInterest()
	require.Equal(t, uint64(2), fetch.Selectors.MinSuffixComponents.Unwrap())
}

func TestWatchStop(t *testing.T) {
	f := newWatchFixture(t)

	parameter := &repo.RepoCommandParameter{Name: tu.NoErr(enc.NameFromStr("/w3"))}
	resp := f.sendCommand([]string{"watch", "start"}, parameter)
	require.Equal(t, repo.StatusInProgress, resp.StatusCode.Unwrap())
	f.consumeInterest()

	resp = f.sendCommand([]string{"watch", "stop"}, &repo.RepoCommandParameter{Name: parameter.Name})
	require.Equal(t, repo.StatusStopped, resp.StatusCode.Unwrap())

	// a late reply must not revive the session
	f.feedData(f.makeChild("/w3", "x"))
	_, err := f.face.Consume()
	require.Error(t, err)

	resp = f.sendCommand([]string{"watch", "check"}, &repo.RepoCommandParameter{Name: parameter.Name})
	require.Equal(t, repo.StatusStopped, resp.StatusCode.Unwrap())
}

func TestWatchCheckUnknownName(t *testing.T) {
	f := newWatchFixture(t)

	resp := f.sendCommand([]string{"watch", "check"},
		&repo.RepoCommandParameter{Name: tu.NoErr(enc.NameFromStr("/nobody"))})
	require.Equal(t, repo.StatusUnknownProcess, resp.StatusCode.Unwrap())
}

func TestWatchStartRequiresName(t *testing.T) {
	f := newWatchFixture(t)

	resp := f.sendCommand([]string{"watch", "start"}, &repo.RepoCommandParameter{})
	require.Equal(t, repo.StatusBadArguments, resp.StatusCode.Unwrap())
}
