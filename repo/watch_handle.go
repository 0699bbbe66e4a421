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

// WatchHandle pulls new data under a name by repeatedly issuing
// rightmost-child interests, refining the Exclude filter after every
// reply so each round reaches past what is already stored.
type WatchHandle struct {
	CommandBaseHandle

	// processes are keyed by the watched name.
	processes map[string]*watchProcess
}

type watchProcess struct {
	name     enc.Name
	response RepoCommandResponse
	running  bool

	interestNum      uint64
	maxInterestNum   uint64
	size             uint64
	startTime        time.Time
	watchTimeout     time.Duration
	interestLifetime time.Duration
}

func NewWatchHandle(e *engine.Engine, s *storage.RepoStorage,
	signer ndn.Signer, validator Validator) *WatchHandle {
	return &WatchHandle{
		CommandBaseHandle: newCommandBaseHandle(e, s, signer, validator),
		processes:         make(map[string]*watchProcess),
	}
}

func (h *WatchHandle) String() string {
	return "watch-handle"
}

// Listen attaches the watch start/check/stop filters under prefix.
func (h *WatchHandle) Listen(prefix enc.Name) error {
	watch := prefix.Append(enc.NewGenericComponent("watch"))

	start := watch.Append(enc.NewGenericComponent("start"))
	if err := h.engine.AttachHandler(start, func(args ndn.InterestHandlerArgs) {
		h.validate(h, args, func(string) { h.onStartValidated(args, start) })
	}); err != nil {
		return err
	}

	check := watch.Append(enc.NewGenericComponent("check"))
	if err := h.engine.AttachHandler(check, func(args ndn.InterestHandlerArgs) {
		h.validate(h, args, func(string) { h.onCheckValidated(args, check) })
	}); err != nil {
		return err
	}

	stop := watch.Append(enc.NewGenericComponent("stop"))
	return h.engine.AttachHandler(stop, func(args ndn.InterestHandlerArgs) {
		h.validate(h, args, func(string) { h.onStopValidated(args, stop) })
	})
}

func (h *WatchHandle) onStartValidated(args ndn.InterestHandlerArgs, prefix enc.Name) {
	parameter, err := h.extractParameter(args, prefix)
	if err != nil || !parameter.HasName() {
		h.negativeReply(args, StatusBadArguments)
		return
	}
	selectors, err := parameter.Selectors()
	if err != nil {
		h.negativeReply(args, StatusMalformed)
		return
	}

	process := &watchProcess{
		name:             parameter.Name,
		running:          true,
		watchTimeout:     parameter.WatchTimeout.GetOr(0),
		maxInterestNum:   parameter.MaxInterestNum.GetOr(0),
		interestLifetime: parameter.InterestLifetime.GetOr(DefaultInterestLifetime),
		startTime:        h.engine.Timer().Now(),
	}
	process.response.StatusCode.Set(StatusRunning)
	h.processes[parameter.Name.TlvStr()] = process

	accepted := &RepoCommandResponse{}
	accepted.StatusCode.Set(StatusInProgress)
	h.reply(h, args, accepted)

	fetch := &ndn.Interest{
		Name:      parameter.Name,
		Selectors: selectors,
		Lifetime:  optional.Some(process.interestLifetime),
	}
	fetch.Selectors.ChildSelector.Set(ndn.ChildSelectorRightmost)
	process.interestNum++
	h.expressWatch(fetch, parameter.Name)
}

func (h *WatchHandle) expressWatch(fetch *ndn.Interest, name enc.Name) {
	h.engine.Express(fetch, func(cbArgs ndn.ExpressCallbackArgs) {
		switch cbArgs.Result {
		case ndn.InterestResultData:
			h.onData(fetch, cbArgs.Data, name)
		case ndn.InterestResultTimeout:
			h.onTimeout(fetch, name)
		}
	})
}

func (h *WatchHandle) onData(interest *ndn.Interest, data *ndn.Data, name enc.Name) {
	h.validator.ValidateData(data, func(ok bool) {
		process := h.processes[name.TlvStr()]
		if process == nil || !process.running {
			return
		}

		inserted := false
		if ok {
			err := h.storage.InsertData(data)
			switch {
			case err == nil:
				inserted = true
			case storage.IsDuplicate(err):
				log.Debug(h, "Watched data already stored", "name", data.Name)
			default:
				log.Error(h, "Failed to insert watched data", "name", data.Name, "err", err)
			}
		} else {
			log.Warn(h, "Watched data failed validation", "name", data.Name)
		}
		if inserted {
			process.size++
			process.response.InsertNum.Set(process.size)
		}

		if !h.onRunning(process) {
			return
		}

		fetch := &ndn.Interest{
			Name:      interest.Name,
			Selectors: interest.Selectors.Clone(),
			Lifetime:  optional.Some(process.interestLifetime),
		}
		fetch.Selectors.ChildSelector.Set(ndn.ChildSelectorRightmost)

		if len(data.Name) == len(interest.Name) {
			// the reply carried the bare name; a suffix bound keeps it
			// from coming back
			fetch.Selectors.MinSuffixComponents.Set(2)
		} else {
			// exclude this child and every child ordered before it
			exclude := fetch.Selectors.Exclude
			if exclude == nil {
				exclude = &ndn.Exclude{}
			}
			exclude.ExcludeBefore(data.Name[len(interest.Name)])
			fetch.Selectors.Exclude = exclude
		}

		process.interestNum++
		h.expressWatch(fetch, name)
	})
}

func (h *WatchHandle) onTimeout(interest *ndn.Interest, name enc.Name) {
	process := h.processes[name.TlvStr()]
	if process == nil || !process.running {
		return
	}
	if !h.onRunning(process) {
		return
	}

	// selectors do not need to be updated
	fetch := &ndn.Interest{
		Name:      interest.Name,
		Selectors: interest.Selectors.Clone(),
		Lifetime:  optional.Some(process.interestLifetime),
	}
	fetch.Selectors.ChildSelector.Set(ndn.ChildSelectorRightmost)

	process.interestNum++
	h.expressWatch(fetch, name)
}

// onRunning tests the session budgets; an exhausted session is stopped
// and garbage collected.
func (h *WatchHandle) onRunning(process *watchProcess) bool {
	now := h.engine.Timer().Now()
	isTimeout := process.watchTimeout != 0 && now.Sub(process.startTime) > process.watchTimeout
	isMaxInterest := process.maxInterestNum != 0 && process.interestNum >= process.maxInterestNum
	if isTimeout || isMaxInterest {
		h.deferredDeleteProcess(process.name)
		h.watchStop(process)
		return false
	}
	return true
}

// watchStop halts the session and resets its counters.
func (h *WatchHandle) watchStop(process *watchProcess) {
	process.running = false
	process.interestNum = 0
	process.maxInterestNum = 0
	process.watchTimeout = 0
	process.interestLifetime = DefaultInterestLifetime
	process.size = 0
	process.startTime = h.engine.Timer().Now()
}

func (h *WatchHandle) onStopValidated(args ndn.InterestHandlerArgs, prefix enc.Name) {
	parameter, err := h.extractParameter(args, prefix)
	if err != nil || !parameter.HasName() {
		h.negativeReply(args, StatusBadArguments)
		return
	}

	if process := h.processes[parameter.Name.TlvStr()]; process != nil {
		h.watchStop(process)
		h.deferredDeleteProcess(process.name)
	}
	h.negativeReply(args, StatusStopped)
}

func (h *WatchHandle) onCheckValidated(args ndn.InterestHandlerArgs, prefix enc.Name) {
	parameter, err := h.extractParameter(args, prefix)
	if err != nil {
		h.negativeReply(args, StatusBadArguments)
		return
	}
	if !parameter.HasName() {
		h.negativeReply(args, StatusBadArguments)
		return
	}

	process := h.processes[parameter.Name.TlvStr()]
	if process == nil {
		log.Debug(h, "Check for unknown watch", "name", parameter.Name)
		h.negativeReply(args, StatusUnknownProcess)
		return
	}
	if !process.running {
		process.response.StatusCode.Set(StatusStopped)
	}
	h.reply(h, args, &process.response)
}

func (h *WatchHandle) deferredDeleteProcess(name enc.Name) {
	key := name.TlvStr()
	h.engine.Schedule(ProcessDeleteTime, func() {
		delete(h.processes, key)
	})
}
