package repo

import (
	"encoding/binary"

	enc "github.com/named-data/repo-go/encoding"
	"github.com/named-data/repo-go/engine"
	"github.com/named-data/repo-go/log"
	"github.com/named-data/repo-go/ndn"
	"github.com/named-data/repo-go/storage"
)

// CommandBaseHandle carries the plumbing shared by command handles:
// validation, parameter extraction and signed replies.
type CommandBaseHandle struct {
	engine    *engine.Engine
	storage   *storage.RepoStorage
	signer    ndn.Signer
	validator Validator
}

func newCommandBaseHandle(e *engine.Engine, s *storage.RepoStorage,
	signer ndn.Signer, validator Validator) CommandBaseHandle {
	return CommandBaseHandle{
		engine:    e,
		storage:   s,
		signer:    signer,
		validator: validator,
	}
}

// validate authorizes a command interest; on rejection it replies 401
// and does not run the continuation.
func (h *CommandBaseHandle) validate(src any, args ndn.InterestHandlerArgs, f func(signer string)) {
	h.validator.ValidateCommand(args.Interest, func(ok bool, signer string) {
		if !ok {
			log.Warn(src, "Command authorization failed", "name", args.Interest.Name)
			h.negativeReply(args, StatusAuthFailed)
			return
		}
		f(signer)
	})
}

// extractParameter decodes the parameter component found right after
// the command prefix in the interest name.
func (h *CommandBaseHandle) extractParameter(args ndn.InterestHandlerArgs, prefix enc.Name) (*RepoCommandParameter, error) {
	if len(args.Interest.Name) <= len(prefix) {
		return nil, enc.ErrFormat{Msg: "command interest carries no parameter"}
	}
	return ParseRepoCommandParameter(args.Interest.Name.At(len(prefix)).Val)
}

// reply sends a response record as a Data packet named after the
// request.
func (h *CommandBaseHandle) reply(src any, args ndn.InterestHandlerArgs, response *RepoCommandResponse) {
	data := &ndn.Data{
		Name:    args.Interest.Name,
		Content: response.Encode(),
	}
	if err := data.SignWith(h.signer); err != nil {
		log.Error(src, "Failed to sign command response", "err", err)
		return
	}
	wire, _ := data.Wire()
	if err := args.Reply(wire); err != nil {
		log.Error(src, "Failed to send command response", "err", err)
	}
}

func (h *CommandBaseHandle) negativeReply(args ndn.InterestHandlerArgs, statusCode uint64) {
	response := &RepoCommandResponse{}
	response.StatusCode.Set(statusCode)
	h.reply(h, args, response)
}

func (h *CommandBaseHandle) String() string {
	return "command-handle"
}

// generateProcessId draws a fresh 64-bit process id.
func (h *CommandBaseHandle) generateProcessId(taken func(uint64) bool) uint64 {
	nonce := h.engine.Timer().Nonce()
	pid := binary.BigEndian.Uint64(nonce)
	for taken(pid) {
		pid++
	}
	return pid
}
