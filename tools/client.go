// Package tools holds the command line clients driving the repository
// protocols: putfile, getfile, watch and ls.
package tools

import (
	"fmt"

	enc "github.com/named-data/repo-go/encoding"
	"github.com/named-data/repo-go/engine"
	"github.com/named-data/repo-go/log"
	"github.com/named-data/repo-go/ndn"
	"github.com/named-data/repo-go/repo"
)

// client drives the repo command protocol from the consumer side.
type client struct {
	engine *engine.Engine
	signer ndn.Signer
}

func newClient(transport string) (*client, error) {
	face, err := engine.FaceFromUri(transport)
	if err != nil {
		return nil, err
	}
	e := engine.NewBasicEngine(face)
	if err := e.Start(); err != nil {
		return nil, err
	}
	return &client{
		engine: e,
		signer: ndn.NewSha256Signer(),
	}, nil
}

func (c *client) String() string {
	return "repo-client"
}

func (c *client) stop() {
	c.engine.Stop()
}

// sendCommand issues one signed command interest and waits for the
// response record.
func (c *client) sendCommand(repoPrefix enc.Name, verb string,
	parameter *repo.RepoCommandParameter) (*repo.RepoCommandResponse, error) {
	name := repoPrefix.Append(
		enc.NewGenericComponent(verb),
		enc.NewBytesComponent(enc.TypeGenericNameComponent, parameter.Encode()),
	)
	signedName, err := ndn.SignCommandName(name, c.signer, c.engine.Timer())
	if err != nil {
		return nil, err
	}

	interest := ndn.NewInterest(signedName)
	interest.Selectors.MustBeFresh = true

	type result struct {
		resp *repo.RepoCommandResponse
		err  error
	}
	ch := make(chan result, 1)

	err = c.engine.Express(interest, func(args ndn.ExpressCallbackArgs) {
		switch args.Result {
		case ndn.InterestResultData:
			resp, err := repo.ParseRepoCommandResponse(args.Data.Content)
			ch <- result{resp, err}
		case ndn.InterestResultTimeout:
			ch <- result{nil, ndn.ErrDeadlineExceed}
		default:
			ch <- result{nil, args.Error}
		}
	})
	if err != nil {
		return nil, err
	}

	ret := <-ch
	if ret.err != nil {
		return nil, ret.err
	}
	log.Debug(c, "Command response", "verb", verb,
		"status", ret.resp.StatusCode.GetOr(0))
	return ret.resp, ret.err
}

// fetch retrieves one data packet by interest.
func (c *client) fetch(interest *ndn.Interest) (*ndn.Data, error) {
	type result struct {
		data *ndn.Data
		err  error
	}
	ch := make(chan result, 1)

	err := c.engine.Express(interest, func(args ndn.ExpressCallbackArgs) {
		switch args.Result {
		case ndn.InterestResultData:
			ch <- result{args.Data, nil}
		case ndn.InterestResultTimeout:
			ch <- result{nil, ndn.ErrDeadlineExceed}
		default:
			ch <- result{nil, args.Error}
		}
	})
	if err != nil {
		return nil, err
	}

	ret := <-ch
	return ret.data, ret.err
}

func statusError(verb string, resp *repo.RepoCommandResponse) error {
	return fmt.Errorf("%s failed with status code %d", verb, resp.StatusCode.GetOr(0))
}
