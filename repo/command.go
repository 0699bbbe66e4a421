// Package repo implements the repository: the command protocol, the
// read/write/watch/delete handles and the TCP bulk-insert acceptor.
package repo

import (
	"time"

	enc "github.com/named-data/repo-go/encoding"
	"github.com/named-data/repo-go/ndn"
	"github.com/named-data/repo-go/types/optional"
)

// Repo command TLV types. Fixed for wire compatibility.
const (
	TypeRepoCommandParameter enc.TLNum = 201
	TypeStartBlockId         enc.TLNum = 204
	TypeEndBlockId           enc.TLNum = 205
	TypeProcessId            enc.TLNum = 206
	TypeRepoCommandResponse  enc.TLNum = 207
	TypeStatusCode           enc.TLNum = 208
	TypeInsertNum            enc.TLNum = 209
	TypeDeleteNum            enc.TLNum = 210
	TypeMaxInterestNum       enc.TLNum = 211
	TypeWatchTimeout         enc.TLNum = 212
	TypeRepoInterestLifetime enc.TLNum = 213
)

// Command status codes.
const (
	StatusInProgress      uint64 = 100
	StatusStopped         uint64 = 101
	StatusCompleted       uint64 = 200
	StatusRunning         uint64 = 300
	StatusAuthFailed      uint64 = 401
	StatusMalformed       uint64 = 402
	StatusBadArguments    uint64 = 403
	StatusUnknownProcess  uint64 = 404
	StatusOperationFailed uint64 = 405
)

// RepoCommandParameter is the sparse parameter record carried by a
// command interest. Every field is independently optional. A Selectors
// block is carried through verbatim so a round trip preserves nested
// TLVs this implementation does not understand.
type RepoCommandParameter struct {
	Name             enc.Name
	StartBlockId     optional.Optional[uint64]
	EndBlockId       optional.Optional[uint64]
	ProcessId        optional.Optional[uint64]
	MaxInterestNum   optional.Optional[uint64]
	WatchTimeout     optional.Optional[time.Duration]
	InterestLifetime optional.Optional[time.Duration]

	// SelectorsWire is the raw Selectors block, or nil.
	SelectorsWire []byte

	unknown []byte
}

func (p *RepoCommandParameter) HasName() bool {
	return p.Name != nil
}

func (p *RepoCommandParameter) HasSelectors() bool {
	return len(p.SelectorsWire) > 0
}

// Selectors decodes the carried Selectors block.
func (p *RepoCommandParameter) Selectors() (ndn.Selectors, error) {
	if !p.HasSelectors() {
		return ndn.Selectors{}, nil
	}
	return ndn.ParseSelectors(p.SelectorsWire)
}

// SetSelectors stores the encoding of the given selectors.
func (p *RepoCommandParameter) SetSelectors(s *ndn.Selectors) {
	p.SelectorsWire = s.Encode()
}

// Encode produces the RepoCommandParameter block.
func (p *RepoCommandParameter) Encode() []byte {
	inner := make([]byte, 0, 64)
	if p.Name != nil {
		inner = append(inner, p.Name.Bytes()...)
	}
	inner = append(inner, p.SelectorsWire...)
	if v, ok := p.StartBlockId.Get(); ok {
		inner = enc.AppendNatBlock(inner, TypeStartBlockId, v)
	}
	if v, ok := p.EndBlockId.Get(); ok {
		inner = enc.AppendNatBlock(inner, TypeEndBlockId, v)
	}
	if v, ok := p.ProcessId.Get(); ok {
		inner = enc.AppendNatBlock(inner, TypeProcessId, v)
	}
	if v, ok := p.MaxInterestNum.Get(); ok {
		inner = enc.AppendNatBlock(inner, TypeMaxInterestNum, v)
	}
	if v, ok := p.WatchTimeout.Get(); ok {
		inner = enc.AppendNatBlock(inner, TypeWatchTimeout, uint64(v.Milliseconds()))
	}
	if v, ok := p.InterestLifetime.Get(); ok {
		inner = enc.AppendNatBlock(inner, TypeRepoInterestLifetime, uint64(v.Milliseconds()))
	}
	inner = append(inner, p.unknown...)
	return enc.AppendBlock(nil, TypeRepoCommandParameter, inner)
}

// ParseRepoCommandParameter decodes a parameter block. Children are
// accepted in any order; unknown children are preserved.
func ParseRepoCommandParameter(buf enc.Buffer) (*RepoCommandParameter, error) {
	typ, l, pos, err := enc.ParseTL(buf)
	if err != nil {
		return nil, err
	}
	if typ != TypeRepoCommandParameter {
		return nil, enc.ErrUnexpectedType{
			Name: "RepoCommandParameter", Expected: TypeRepoCommandParameter, Got: typ}
	}

	ret := &RepoCommandParameter{}
	inner := buf[pos : pos+l]
	off := 0
	for off < len(inner) {
		typ, l, vpos, err := enc.ParseTL(inner[off:])
		if err != nil {
			return nil, err
		}
		val := inner[off+vpos : off+vpos+l]
		block := inner[off : off+vpos+l]
		switch typ {
		case ndn.TypeName:
			name, err := enc.ParseNameValue(val)
			if err != nil {
				return nil, err
			}
			ret.Name = name
		case ndn.TypeSelectors:
			ret.SelectorsWire = block
		case TypeStartBlockId:
			v, err := enc.ParseNat(val)
			if err != nil {
				return nil, err
			}
			ret.StartBlockId.Set(uint64(v))
		case TypeEndBlockId:
			v, err := enc.ParseNat(val)
			if err != nil {
				return nil, err
			}
			ret.EndBlockId.Set(uint64(v))
		case TypeProcessId:
			v, err := enc.ParseNat(val)
			if err != nil {
				return nil, err
			}
			ret.ProcessId.Set(uint64(v))
		case TypeMaxInterestNum:
			v, err := enc.ParseNat(val)
			if err != nil {
				return nil, err
			}
			ret.MaxInterestNum.Set(uint64(v))
		case TypeWatchTimeout:
			v, err := enc.ParseNat(val)
			if err != nil {
				return nil, err
			}
			ret.WatchTimeout.Set(time.Duration(v) * time.Millisecond)
		case TypeRepoInterestLifetime:
			v, err := enc.ParseNat(val)
			if err != nil {
				return nil, err
			}
			ret.InterestLifetime.Set(time.Duration(v) * time.Millisecond)
		default:
			ret.unknown = append(ret.unknown, block...)
		}
		off += vpos + l
	}
	return ret, nil
}

// RepoCommandResponse is the sparse record returned for every command.
type RepoCommandResponse struct {
	StatusCode   optional.Optional[uint64]
	StartBlockId optional.Optional[uint64]
	EndBlockId   optional.Optional[uint64]
	ProcessId    optional.Optional[uint64]
	InsertNum    optional.Optional[uint64]
	DeleteNum    optional.Optional[uint64]
}

// Encode produces the RepoCommandResponse block.
func (r *RepoCommandResponse) Encode() []byte {
	inner := make([]byte, 0, 32)
	if v, ok := r.StatusCode.Get(); ok {
		inner = enc.AppendNatBlock(inner, TypeStatusCode, v)
	}
	if v, ok := r.StartBlockId.Get(); ok {
		inner = enc.AppendNatBlock(inner, TypeStartBlockId, v)
	}
	if v, ok := r.EndBlockId.Get(); ok {
		inner = enc.AppendNatBlock(inner, TypeEndBlockId, v)
	}
	if v, ok := r.ProcessId.Get(); ok {
		inner = enc.AppendNatBlock(inner, TypeProcessId, v)
	}
	if v, ok := r.InsertNum.Get(); ok {
		inner = enc.AppendNatBlock(inner, TypeInsertNum, v)
	}
	if v, ok := r.DeleteNum.Get(); ok {
		inner = enc.AppendNatBlock(inner, TypeDeleteNum, v)
	}
	return enc.AppendBlock(nil, TypeRepoCommandResponse, inner)
}

// ParseRepoCommandResponse decodes a response block. StatusCode is
// required; children are accepted in any order.
func ParseRepoCommandResponse(buf enc.Buffer) (*RepoCommandResponse, error) {
	typ, l, pos, err := enc.ParseTL(buf)
	if err != nil {
		return nil, err
	}
	if typ != TypeRepoCommandResponse {
		return nil, enc.ErrUnexpectedType{
			Name: "RepoCommandResponse", Expected: TypeRepoCommandResponse, Got: typ}
	}

	ret := &RepoCommandResponse{}
	inner := buf[pos : pos+l]
	off := 0
	for off < len(inner) {
		typ, l, vpos, err := enc.ParseTL(inner[off:])
		if err != nil {
			return nil, err
		}
		val := inner[off+vpos : off+vpos+l]
		v, verr := enc.ParseNat(val)
		switch typ {
		case TypeStatusCode:
			if verr != nil {
				return nil, verr
			}
			ret.StatusCode.Set(uint64(v))
		case TypeStartBlockId:
			if verr != nil {
				return nil, verr
			}
			ret.StartBlockId.Set(uint64(v))
		case TypeEndBlockId:
			if verr != nil {
				return nil, verr
			}
			ret.EndBlockId.Set(uint64(v))
		case TypeProcessId:
			if verr != nil {
				return nil, verr
			}
			ret.ProcessId.Set(uint64(v))
		case TypeInsertNum:
			if verr != nil {
				return nil, verr
			}
			ret.InsertNum.Set(uint64(v))
		case TypeDeleteNum:
			if verr != nil {
				return nil, verr
			}
			ret.DeleteNum.Set(uint64(v))
		}
		off += vpos + l
	}
	if !ret.StatusCode.IsSet() {
		return nil, enc.ErrSkipRequired{Name: "StatusCode", TypeNum: TypeStatusCode}
	}
	return ret, nil
}
