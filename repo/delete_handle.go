package repo

import (
	enc "github.com/named-data/repo-go/encoding"
	"github.com/named-data/repo-go/engine"
	"github.com/named-data/repo-go/log"
	"github.com/named-data/repo-go/ndn"
	"github.com/named-data/repo-go/storage"
)

// DeleteHandle removes stored packets by exact name, segment range or
// selector match.
type DeleteHandle struct {
	CommandBaseHandle
}

func NewDeleteHandle(e *engine.Engine, s *storage.RepoStorage,
	signer ndn.Signer, validator Validator) *DeleteHandle {
	return &DeleteHandle{
		CommandBaseHandle: newCommandBaseHandle(e, s, signer, validator),
	}
}

func (h *DeleteHandle) String() string {
	return "delete-handle"
}

// Listen attaches the delete filter under prefix.
func (h *DeleteHandle) Listen(prefix enc.Name) error {
	del := prefix.Append(enc.NewGenericComponent("delete"))
	return h.engine.AttachHandler(del, func(args ndn.InterestHandlerArgs) {
		h.validate(h, args, func(string) { h.onValidated(args, del) })
	})
}

func (h *DeleteHandle) onValidated(args ndn.InterestHandlerArgs, prefix enc.Name) {
	parameter, err := h.extractParameter(args, prefix)
	if err != nil || !parameter.HasName() {
		h.negativeReply(args, StatusBadArguments)
		return
	}

	if parameter.HasSelectors() {
		if parameter.StartBlockId.IsSet() || parameter.EndBlockId.IsSet() {
			h.negativeReply(args, StatusMalformed)
			return
		}
		h.processSelectorDelete(args, parameter)
		return
	}

	if !parameter.StartBlockId.IsSet() && !parameter.EndBlockId.IsSet() {
		h.processSingleDelete(args, parameter)
		return
	}

	h.processSegmentDelete(args, parameter)
}

func (h *DeleteHandle) processSingleDelete(args ndn.InterestHandlerArgs, parameter *RepoCommandParameter) {
	nDeleted := h.storage.DeleteData(parameter.Name)
	if nDeleted == -1 {
		log.Error(h, "Deletion failed", "name", parameter.Name)
		h.negativeReply(args, StatusOperationFailed)
		return
	}
	h.positiveReply(args, parameter, StatusCompleted, uint64(nDeleted))
}

func (h *DeleteHandle) processSelectorDelete(args ndn.InterestHandlerArgs, parameter *RepoCommandParameter) {
	selectors, err := parameter.Selectors()
	if err != nil {
		h.negativeReply(args, StatusMalformed)
		return
	}
	nDeleted := h.storage.DeleteInterest(&ndn.Interest{
		Name:      parameter.Name,
		Selectors: selectors,
	})
	if nDeleted == -1 {
		// partially removed packets are not restored
		log.Error(h, "Selector deletion failed", "name", parameter.Name)
		h.negativeReply(args, StatusOperationFailed)
		return
	}
	h.positiveReply(args, parameter, StatusCompleted, uint64(nDeleted))
}

func (h *DeleteHandle) processSegmentDelete(args ndn.InterestHandlerArgs, parameter *RepoCommandParameter) {
	if !parameter.StartBlockId.IsSet() {
		parameter.StartBlockId.Set(0)
	}
	endBlockId, ok := parameter.EndBlockId.Get()
	if !ok {
		// segmented deletion without an end is not supported
		h.negativeReply(args, StatusBadArguments)
		return
	}
	startBlockId := parameter.StartBlockId.Unwrap()
	if startBlockId > endBlockId {
		h.negativeReply(args, StatusBadArguments)
		return
	}

	nDeleted := uint64(0)
	for i := startBlockId; i <= endBlockId; i++ {
		if h.storage.DeleteData(parameter.Name.WithSegment(i)) > 0 {
			nDeleted++
		}
	}
	h.positiveReply(args, parameter, StatusCompleted, nDeleted)
}

// positiveReply reports a deletion count; the caller must have sent a
// ProcessId to correlate on, else the reply degrades to 403.
func (h *DeleteHandle) positiveReply(args ndn.InterestHandlerArgs, parameter *RepoCommandParameter,
	statusCode uint64, nDeleted uint64) {
	response := &RepoCommandResponse{}
	if processId, ok := parameter.ProcessId.Get(); ok {
		response.ProcessId.Set(processId)
		response.StatusCode.Set(statusCode)
		response.DeleteNum.Set(nDeleted)
	} else {
		response.StatusCode.Set(StatusBadArguments)
	}
	h.reply(h, args, response)
}
