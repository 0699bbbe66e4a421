package repo

import (
	"time"

	enc "github.com/named-data/repo-go/encoding"
	"github.com/named-data/repo-go/engine"
	"github.com/named-data/repo-go/log"
	"github.com/named-data/repo-go/ndn"
	"github.com/named-data/repo-go/storage"
	"github.com/named-data/repo-go/types/optional"
)

const RetryTimeout = 3
const DefaultCredit = 12
const NoEndTimeout = 10 * time.Second
const ProcessDeleteTime = 10 * time.Second
const DefaultInterestLifetime = 4 * time.Second

// WriteHandle runs insertion sessions: single-packet fetches and
// segmented fetches with a sliding credit window.
type WriteHandle struct {
	CommandBaseHandle

	processes map[uint64]*writeProcess

	// interestLifetime applies to outgoing fetch interests; the last
	// validated command carrying an InterestLifetime updates it.
	interestLifetime time.Duration
}

type writeProcess struct {
	response RepoCommandResponse

	// fetchName is the data name prefix being fetched.
	fetchName enc.Name
	// selectors of the original command (single mode only).
	selectors ndn.Selectors

	nextSegmentQueue []uint64
	nextSegment      uint64
	retryCounts      map[uint64]int
	credit           int
	noEndTime        time.Time
}

func NewWriteHandle(e *engine.Engine, s *storage.RepoStorage,
	signer ndn.Signer, validator Validator) *WriteHandle {
	return &WriteHandle{
		CommandBaseHandle: newCommandBaseHandle(e, s, signer, validator),
		processes:         make(map[uint64]*writeProcess),
		interestLifetime:  DefaultInterestLifetime,
	}
}

func (h *WriteHandle) String() string {
	return "write-handle"
}

// Listen attaches the insert and insert-check filters under prefix.
func (h *WriteHandle) Listen(prefix enc.Name) error {
	insert := prefix.Append(enc.NewGenericComponent("insert"))
	if err := h.engine.AttachHandler(insert, func(args ndn.InterestHandlerArgs) {
		h.validate(h, args, func(string) { h.onValidated(args, insert) })
	}); err != nil {
		return err
	}

	check := prefix.Append(enc.NewGenericComponent("insert check"))
	return h.engine.AttachHandler(check, func(args ndn.InterestHandlerArgs) {
		h.validate(h, args, func(string) { h.onCheckValidated(args, check) })
	})
}

func (h *WriteHandle) onValidated(args ndn.InterestHandlerArgs, prefix enc.Name) {
	parameter, err := h.extractParameter(args, prefix)
	if err != nil {
		h.negativeReply(args, StatusBadArguments)
		return
	}
	if !parameter.HasName() {
		h.negativeReply(args, StatusBadArguments)
		return
	}

	if parameter.StartBlockId.IsSet() || parameter.EndBlockId.IsSet() {
		if parameter.HasSelectors() {
			h.negativeReply(args, StatusMalformed)
			return
		}
		h.processSegmentedInsert(args, parameter)
	} else {
		h.processSingleInsert(args, parameter)
	}

	if lt, ok := parameter.InterestLifetime.Get(); ok {
		h.interestLifetime = lt
	}
}

func (h *WriteHandle) processSingleInsert(args ndn.InterestHandlerArgs, parameter *RepoCommandParameter) {
	processId := h.generateProcessId(func(pid uint64) bool {
		_, taken := h.processes[pid]
		return taken
	})

	selectors, err := parameter.Selectors()
	if err != nil {
		h.negativeReply(args, StatusMalformed)
		return
	}

	process := &writeProcess{
		fetchName: parameter.Name,
		selectors: selectors,
	}
	h.processes[processId] = process

	process.response.StatusCode.Set(StatusInProgress)
	process.response.ProcessId.Set(processId)
	process.response.InsertNum.Set(0)
	h.reply(h, args, &process.response)
	process.response.StatusCode.Set(StatusRunning)

	fetch := &ndn.Interest{
		Name:      parameter.Name,
		Selectors: selectors,
		Lifetime:  optional.Some(h.interestLifetime),
	}
	h.engine.Express(fetch, func(cbArgs ndn.ExpressCallbackArgs) {
		switch cbArgs.Result {
		case ndn.InterestResultData:
			h.onData(cbArgs.Data, processId)
		case ndn.InterestResultTimeout:
			log.Warn(h, "Single insert timed out", "process", processId)
			delete(h.processes, processId)
		}
	})
}

func (h *WriteHandle) onData(data *ndn.Data, processId uint64) {
	h.validator.ValidateData(data, func(ok bool) {
		if !ok {
			log.Warn(h, "Fetched data failed validation", "name", data.Name)
			return
		}
		process, found := h.processes[processId]
		if !found {
			return
		}

		if process.response.InsertNum.GetOr(0) == 0 {
			if err := h.storage.InsertData(data); err != nil && !storage.IsDuplicate(err) {
				log.Error(h, "Failed to insert data", "name", data.Name, "err", err)
			}
			process.response.InsertNum.Set(1)
		}

		h.deferredDeleteProcess(processId)
	})
}

func (h *WriteHandle) processSegmentedInsert(args ndn.InterestHandlerArgs, parameter *RepoCommandParameter) {
	if !parameter.StartBlockId.IsSet() {
		parameter.StartBlockId.Set(0)
	}
	startBlockId := parameter.StartBlockId.Unwrap()

	if endBlockId, ok := parameter.EndBlockId.Get(); ok && startBlockId > endBlockId {
		h.negativeReply(args, StatusBadArguments)
		return
	}

	processId := h.generateProcessId(func(pid uint64) bool {
		_, taken := h.processes[pid]
		return taken
	})
	process := &writeProcess{
		fetchName:   parameter.Name,
		retryCounts: make(map[uint64]int),
	}
	h.processes[processId] = process

	response := &process.response
	response.StatusCode.Set(StatusInProgress)
	response.ProcessId.Set(processId)
	response.InsertNum.Set(0)
	response.StartBlockId.Set(startBlockId)
	if endBlockId, ok := parameter.EndBlockId.Get(); ok {
		response.EndBlockId.Set(endBlockId)
	}
	h.reply(h, args, response)

	// data fetching is now in progress
	response.StatusCode.Set(StatusRunning)

	h.segInit(processId, parameter)
}

// segInit opens the credit window and expresses the first interests.
func (h *WriteHandle) segInit(processId uint64, parameter *RepoCommandParameter) {
	process := h.processes[processId]
	startBlockId := parameter.StartBlockId.Unwrap()

	initialCredit := uint64(DefaultCredit)
	if endBlockId, ok := parameter.EndBlockId.Get(); ok {
		initialCredit = min(initialCredit, endBlockId-startBlockId+1)
	} else {
		process.noEndTime = h.engine.Timer().Now().Add(NoEndTimeout)
	}
	process.credit = int(initialCredit)

	segment := startBlockId
	for ; segment < startBlockId+initialCredit; segment++ {
		h.expressSegment(processId, parameter.Name.WithSegment(segment))
		process.credit--
		process.retryCounts[segment] = 0
	}

	process.nextSegment = segment
	process.nextSegmentQueue = append(process.nextSegmentQueue, segment)
}

func (h *WriteHandle) expressSegment(processId uint64, name enc.Name) {
	fetch := &ndn.Interest{
		Name:     name,
		Lifetime: optional.Some(h.interestLifetime),
	}
	h.engine.Express(fetch, func(cbArgs ndn.ExpressCallbackArgs) {
		switch cbArgs.Result {
		case ndn.InterestResultData:
			h.onSegmentData(fetch, cbArgs.Data, processId)
		case ndn.InterestResultTimeout:
			h.onSegmentTimeout(fetch, processId)
		}
	})
}

func (h *WriteHandle) onSegmentData(interest *ndn.Interest, data *ndn.Data, processId uint64) {
	h.validator.ValidateData(data, func(ok bool) {
		if !ok {
			log.Warn(h, "Fetched segment failed validation", "name", data.Name)
			return
		}
		process, found := h.processes[processId]
		if !found {
			return
		}
		response := &process.response

		// refresh endBlockId from the producer's FinalBlockId
		if finalBlock, ok := data.MetaInfo.FinalBlockId.Get(); ok {
			if final, err := finalBlock.SegmentNumber(); err == nil {
				if endBlockId, ok := response.EndBlockId.Get(); !ok || final < endBlockId {
					response.EndBlockId.Set(final)
				}
			}
		}

		if err := h.storage.InsertData(data); err == nil {
			response.InsertNum.Set(response.InsertNum.GetOr(0) + 1)
		} else if !storage.IsDuplicate(err) {
			log.Error(h, "Failed to insert segment", "name", data.Name, "err", err)
		}

		h.onSegmentDataControl(processId, interest)
	})
}

// onSegmentDataControl advances the credit window after a segment
// returned.
func (h *WriteHandle) onSegmentDataControl(processId uint64, interest *ndn.Interest) {
	process, found := h.processes[processId]
	if !found {
		return
	}
	response := &process.response

	// a returning segment gives its credit back
	process.credit++

	if !response.EndBlockId.IsSet() {
		// unbounded fetch; check the no-end deadline
		if h.engine.Timer().Now().After(process.noEndTime) {
			log.Warn(h, "No-end timeout", "process", processId)
			response.StatusCode.Set(StatusOperationFailed)
			h.deferredDeleteProcess(processId)
			return
		}
	} else {
		nSegments := response.EndBlockId.Unwrap() - response.StartBlockId.GetOr(0) + 1
		if response.InsertNum.GetOr(0) >= nSegments {
			// all the data has been inserted
			response.StatusCode.Set(StatusCompleted)
			h.deferredDeleteProcess(processId)
			return
		}
	}

	if process.credit == 0 {
		return
	}
	if len(process.nextSegmentQueue) == 0 {
		return
	}

	sendingSegment := process.nextSegmentQueue[0]
	process.nextSegmentQueue = process.nextSegmentQueue[1:]

	if endBlockId, ok := response.EndBlockId.Get(); ok && sendingSegment > endBlockId {
		return
	}

	// the fetched segment's retry entry is spent
	if fetchedSegment, err := interest.Name.At(-1).SegmentNumber(); err == nil {
		delete(process.retryCounts, fetchedSegment)
	}

	h.expressSegment(processId, interest.Name.Prefix(-1).WithSegment(sendingSegment))
	process.credit--
	if _, found := process.retryCounts[sendingSegment]; !found {
		process.retryCounts[sendingSegment] = 0
	} else {
		process.retryCounts[sendingSegment]++
	}

	if endBlockId, ok := response.EndBlockId.Get(); !ok || process.nextSegment+1 <= endBlockId {
		process.nextSegment++
		process.nextSegmentQueue = append(process.nextSegmentQueue, process.nextSegment)
	}
}

func (h *WriteHandle) onSegmentTimeout(interest *ndn.Interest, processId uint64) {
	process, found := h.processes[processId]
	if !found {
		return
	}

	timeoutSegment, err := interest.Name.At(-1).SegmentNumber()
	if err != nil {
		return
	}
	log.Debug(h, "Segment timed out", "process", processId, "segment", timeoutSegment)

	if process.retryCounts[timeoutSegment] >= RetryTimeout {
		// out of retries; fail the whole process
		log.Warn(h, "Retry limit reached", "process", processId, "segment", timeoutSegment)
		delete(h.processes, processId)
		return
	}
	process.retryCounts[timeoutSegment]++
	h.expressSegment(processId, interest.Name)
}

func (h *WriteHandle) onCheckValidated(args ndn.InterestHandlerArgs, prefix enc.Name) {
	parameter, err := h.extractParameter(args, prefix)
	if err != nil {
		h.negativeReply(args, StatusBadArguments)
		return
	}
	processId, ok := parameter.ProcessId.Get()
	if !ok {
		h.negativeReply(args, StatusBadArguments)
		return
	}
	process, found := h.processes[processId]
	if !found {
		log.Debug(h, "Check for unknown process", "process", processId)
		h.negativeReply(args, StatusUnknownProcess)
		return
	}
	response := &process.response

	// single-packet processes report the draft as is
	if !response.StartBlockId.IsSet() && !response.EndBlockId.IsSet() {
		h.reply(h, args, response)
		return
	}

	if !response.EndBlockId.IsSet() {
		h.extendNoEndTime(process)
	}
	h.reply(h, args, response)
}

// extendNoEndTime pushes the no-end deadline out on a status check,
// or marks the process failed when the deadline already passed.
func (h *WriteHandle) extendNoEndTime(process *writeProcess) {
	now := h.engine.Timer().Now()
	if now.After(process.noEndTime) {
		process.response.StatusCode.Set(StatusOperationFailed)
		return
	}
	process.noEndTime = now.Add(NoEndTimeout)
}

func (h *WriteHandle) deferredDeleteProcess(processId uint64) {
	h.engine.Schedule(ProcessDeleteTime, func() {
		delete(h.processes, processId)
	})
}
