package engine

import (
	"fmt"
	"time"

	enc "github.com/named-data/repo-go/encoding"
	"github.com/named-data/repo-go/log"
	"github.com/named-data/repo-go/ndn"
	"github.com/named-data/repo-go/types/optional"
)

// NFD management TLV types.
const (
	typeControlParameters enc.TLNum = 104
	typeControlResponse   enc.TLNum = 101
	typeStatusCode        enc.TLNum = 102
	typeStatusText        enc.TLNum = 103
	typeOrigin            enc.TLNum = 111
)

const mgmtCmdLifetime = 1 * time.Second
const originClient = 65

var localhostRib = enc.Name{
	enc.NewGenericComponent("localhost"),
	enc.NewGenericComponent("nfd"),
	enc.NewGenericComponent("rib"),
}

type controlResponse struct {
	StatusCode uint64
	StatusText string
}

func parseControlResponse(buf enc.Buffer) (*controlResponse, error) {
	typ, l, pos, err := enc.ParseTL(buf)
	if err != nil {
		return nil, err
	}
	if typ != typeControlResponse {
		return nil, enc.ErrUnexpectedType{Name: "ControlResponse", Expected: typeControlResponse, Got: typ}
	}
	ret := &controlResponse{}
	inner := buf[pos : pos+l]
	off := 0
	seenCode := false
	for off < len(inner) {
		typ, l, vpos, err := enc.ParseTL(inner[off:])
		if err != nil {
			return nil, err
		}
		val := inner[off+vpos : off+vpos+l]
		switch typ {
		case typeStatusCode:
			v, err := enc.ParseNat(val)
			if err != nil {
				return nil, err
			}
			ret.StatusCode = uint64(v)
			seenCode = true
		case typeStatusText:
			ret.StatusText = string(val)
		}
		off += vpos + l
	}
	if !seenCode {
		return nil, enc.ErrSkipRequired{Name: "StatusCode", TypeNum: typeStatusCode}
	}
	return ret, nil
}

// execRibCmd runs one RIB command (register/unregister) against the
// local forwarder and waits for its response. Must not be called from
// the engine loop itself.
func (e *Engine) execRibCmd(verb string, prefix enc.Name) error {
	params := enc.AppendBlock(nil, ndn.TypeName, prefix.BytesInner())
	params = enc.AppendNatBlock(params, typeOrigin, originClient)
	block := enc.AppendBlock(nil, typeControlParameters, params)

	name := localhostRib.Append(
		enc.NewGenericComponent(verb),
		enc.NewBytesComponent(enc.TypeGenericNameComponent, block),
	)
	signedName, err := ndn.SignCommandName(name, e.cmdSigner, e.timer)
	if err != nil {
		return err
	}

	interest := ndn.NewInterest(signedName)
	interest.Lifetime = optional.Some(mgmtCmdLifetime)
	interest.Selectors.MustBeFresh = true

	type mgmtResult struct {
		resp *controlResponse
		err  error
	}
	ch := make(chan mgmtResult, 1)

	err = e.Express(interest, func(args ndn.ExpressCallbackArgs) {
		switch args.Result {
		case ndn.InterestResultData:
			resp, err := parseControlResponse(args.Data.Content)
			ch <- mgmtResult{resp, err}
		case ndn.InterestResultTimeout:
			ch <- mgmtResult{nil, ndn.ErrDeadlineExceed}
		default:
			ch <- mgmtResult{nil, args.Error}
		}
	})
	if err != nil {
		return err
	}

	ret := <-ch
	if ret.err != nil {
		return ret.err
	}
	if ret.resp.StatusCode != 200 {
		return fmt.Errorf("rib %s failed due to error %d: %s",
			verb, ret.resp.StatusCode, ret.resp.StatusText)
	}
	return nil
}

// RegisterRoute announces a prefix to the local forwarder.
func (e *Engine) RegisterRoute(prefix enc.Name) error {
	if err := e.execRibCmd("register", prefix); err != nil {
		log.Error(e, "Failed to register prefix", "err", err, "name", prefix)
		return err
	}
	log.Debug(e, "Prefix registered", "name", prefix)
	return nil
}

// UnregisterRoute withdraws a prefix from the local forwarder.
func (e *Engine) UnregisterRoute(prefix enc.Name) error {
	if err := e.execRibCmd("unregister", prefix); err != nil {
		log.Error(e, "Failed to unregister prefix", "err", err, "name", prefix)
		return err
	}
	log.Debug(e, "Prefix unregistered", "name", prefix)
	return nil
}
