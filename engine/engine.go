// Package engine runs the event loop shared by all repository
// components. Handler callbacks, expressed-interest callbacks and
// scheduled events all run on one goroutine; other goroutines hand
// work to the loop through Post.
package engine

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	enc "github.com/named-data/repo-go/encoding"
	"github.com/named-data/repo-go/log"
	"github.com/named-data/repo-go/ndn"
)

const DefaultInterestLife = 4 * time.Second
const TimeoutMargin = 10 * time.Millisecond

type pendInt struct {
	callback      ndn.ExpressCallbackFunc
	deadline      time.Time
	impSha256     []byte
	timeoutCancel func() error
}

type Engine struct {
	face  ndn.Face
	timer ndn.Timer

	// fib contains the attached Interest handlers, keyed by prefix.
	fib map[string]ndn.InterestHandler
	// pit contains pending outgoing Interests, keyed by node name.
	pit map[string][]*pendInt

	fibLock sync.Mutex
	pitLock sync.Mutex

	// inQueue is the incoming packet queue.
	// The face will be blocked when the queue is full.
	inQueue chan []byte
	// taskQueue is the task queue for the main goroutine.
	taskQueue chan func()
	// close is the channel to signal the main goroutine to stop.
	close chan struct{}
	// running is the flag to indicate if the engine is running.
	running atomic.Bool

	// cmdSigner signs forwarder management commands.
	cmdSigner ndn.Signer
}

func NewEngine(face ndn.Face, timer ndn.Timer) *Engine {
	if face == nil || timer == nil {
		return nil
	}
	return &Engine{
		face:  face,
		timer: timer,

		fib: make(map[string]ndn.InterestHandler),
		pit: make(map[string][]*pendInt),

		inQueue:   make(chan []byte, 256),
		taskQueue: make(chan func(), 512),
		close:     make(chan struct{}),

		cmdSigner: ndn.NewSha256Signer(),
	}
}

func (e *Engine) String() string {
	return "engine"
}

func (e *Engine) Timer() ndn.Timer {
	return e.timer
}

func (e *Engine) Face() ndn.Face {
	return e.face
}

// AttachHandler attaches an Interest handler to a prefix.
func (e *Engine) AttachHandler(prefix enc.Name, handler ndn.InterestHandler) error {
	e.fibLock.Lock()
	defer e.fibLock.Unlock()
	key := prefix.TlvStr()
	if e.fib[key] != nil {
		return fmt.Errorf("%w: %s", ndn.ErrMultipleHandlers, prefix)
	}
	e.fib[key] = handler
	return nil
}

// DetachHandler removes the handler attached to a prefix.
func (e *Engine) DetachHandler(prefix enc.Name) error {
	e.fibLock.Lock()
	defer e.fibLock.Unlock()
	key := prefix.TlvStr()
	if e.fib[key] == nil {
		return ndn.ErrInvalidValue{Item: "prefix", Value: prefix}
	}
	delete(e.fib, key)
	return nil
}

func (e *Engine) onPacket(frame []byte) {
	typ, p := enc.ParseTLNum(frame)
	if p == 0 {
		log.Error(e, "Failed to parse packet type - DROP")
		return
	}

	switch typ {
	case ndn.TypeInterest:
		interest, _, err := ndn.ParseInterest(frame)
		if err != nil {
			log.Error(e, "Failed to parse Interest - DROP", "err", err)
			return
		}
		log.Trace(e, "Interest received", "name", interest.Name)
		e.onInterest(interest, frame)
	case ndn.TypeData:
		data, _, err := ndn.ParseData(frame)
		if err != nil {
			log.Error(e, "Failed to parse Data - DROP", "err", err)
			return
		}
		log.Trace(e, "Data received", "name", data.Name)
		e.onData(data, frame)
	default:
		log.Warn(e, "Unknown packet type - DROP", "type", uint64(typ))
	}
}

func (e *Engine) onInterest(interest *ndn.Interest, raw []byte) {
	// longest prefix match on the attached handlers
	handler := func() ndn.InterestHandler {
		e.fibLock.Lock()
		defer e.fibLock.Unlock()
		for k := len(interest.Name); k >= 0; k-- {
			if h := e.fib[interest.Name.Prefix(k).TlvStr()]; h != nil {
				return h
			}
		}
		return nil
	}()
	if handler == nil {
		log.Warn(e, "No handler for interest", "name", interest.Name)
		return
	}

	handler(ndn.InterestHandlerArgs{
		Interest: interest,
		Raw:      raw,
		Deadline: e.timer.Now().Add(interest.Lifetime.GetOr(DefaultInterestLife)),
		Reply: func(dataWire []byte) error {
			if dataWire == nil {
				return nil
			}
			if !e.IsRunning() || !e.face.IsRunning() {
				return ndn.ErrFaceDown
			}
			return e.face.Send(enc.Wire{dataWire})
		},
	})
}

// onDataMatch pops the pending entries satisfied by the data packet.
// Any prefix of the data name may hold matching entries.
func (e *Engine) onDataMatch(data *ndn.Data, raw []byte) []*pendInt {
	e.pitLock.Lock()
	defer e.pitLock.Unlock()

	var digest []byte
	ret := make([]*pendInt, 0, 4)
	for k := len(data.Name); k >= 0; k-- {
		key := data.Name.Prefix(k).TlvStr()
		entries := e.pit[key]
		if entries == nil {
			continue
		}
		for i := 0; i < len(entries); i++ {
			entry := entries[i]

			// check ImplicitDigest256
			if entry.impSha256 != nil {
				if digest == nil {
					d := sha256.Sum256(raw)
					digest = d[:]
				}
				if !bytes.Equal(entry.impSha256, digest) {
					continue
				}
			}

			// pop entry
			entries[i] = entries[len(entries)-1]
			entries = entries[:len(entries)-1]
			i-- // recheck the current index
			ret = append(ret, entry)
		}
		if len(entries) == 0 {
			delete(e.pit, key)
		} else {
			e.pit[key] = entries
		}
	}
	return ret
}

func (e *Engine) onData(data *ndn.Data, raw []byte) {
	matched := e.onDataMatch(data, raw)
	if len(matched) == 0 {
		log.Warn(e, "Received data for an unknown interest - DROP", "name", data.Name)
		return
	}
	for _, entry := range matched {
		entry.timeoutCancel()
		entry.callback(ndn.ExpressCallbackArgs{
			Result: ndn.InterestResultData,
			Data:   data,
			Raw:    raw,
		})
	}
}

func (e *Engine) onExpressTimeout(key string) {
	now := e.timer.Now()

	expired := func() []*pendInt {
		e.pitLock.Lock()
		defer e.pitLock.Unlock()

		ret := make([]*pendInt, 0, 4)
		entries := e.pit[key]
		for i := 0; i < len(entries); i++ {
			entry := entries[i]
			if entry.deadline.After(now) {
				continue
			}

			// pop entry
			entries[i] = entries[len(entries)-1]
			entries = entries[:len(entries)-1]
			i-- // recheck the current index
			ret = append(ret, entry)
		}

		if len(entries) == 0 {
			delete(e.pit, key)
		} else {
			e.pit[key] = entries
		}
		return ret
	}()

	for _, entry := range expired {
		entry.callback(ndn.ExpressCallbackArgs{
			Result: ndn.InterestResultTimeout,
		})
	}
}

// Express sends an Interest. The callback runs on the engine loop when
// matching data arrives or the lifetime passes.
func (e *Engine) Express(interest *ndn.Interest, callback ndn.ExpressCallbackFunc) error {
	if callback == nil {
		callback = func(ndn.ExpressCallbackArgs) {}
	}
	if len(interest.Name) == 0 && interest.Selectors.Empty() {
		return ndn.ErrInvalidValue{Item: "interest.Name", Value: interest.Name}
	}

	// node name never includes the implicit digest
	var impSha256 []byte = nil
	nodeName := interest.Name
	if last := interest.Name.At(-1); last.IsDigest() {
		impSha256 = last.Val
		nodeName = interest.Name.Prefix(-1)
	}

	if !interest.Nonce.IsSet() {
		nonce := e.timer.Nonce()
		interest.Nonce.Set(binary.BigEndian.Uint32(nonce[:4]))
	}
	wire, err := interest.Encode()
	if err != nil {
		return err
	}

	lifetime := interest.Lifetime.GetOr(DefaultInterestLife)
	deadline := e.timer.Now().Add(lifetime)
	key := nodeName.TlvStr()

	func() {
		e.pitLock.Lock()
		defer e.pitLock.Unlock()

		entry := &pendInt{
			callback:  callback,
			deadline:  deadline,
			impSha256: impSha256,
			timeoutCancel: e.timer.Schedule(lifetime+TimeoutMargin, func() {
				e.Post(func() { e.onExpressTimeout(key) })
			}),
		}
		e.pit[key] = append(e.pit[key], entry)
	}()

	err = e.face.Send(enc.Wire{wire})
	if err != nil {
		log.Error(e, "Failed to send interest", "err", err)
	}

	log.Trace(e, "Interest sent", "name", interest.Name)
	return err
}

// Schedule runs f on the engine loop after d.
func (e *Engine) Schedule(d time.Duration, f func()) func() error {
	return e.timer.Schedule(d, func() {
		e.Post(f)
	})
}

func (e *Engine) Start() error {
	if e.face.IsRunning() {
		return fmt.Errorf("face is already running")
	}

	e.face.OnPacket(func(frame []byte) {
		// Copy received buffer from face so face can reuse it
		frameCopy := make([]byte, len(frame))
		copy(frameCopy, frame)
		e.inQueue <- frameCopy
	})
	e.face.OnError(func(err error) {
		log.Error(e, "Error on face", "err", err, "face", e.face)
		e.Stop()
	})

	err := e.face.Open()
	if err != nil {
		return err
	}

	e.running.Store(true)
	go func() {
		defer e.face.Close()
		defer e.running.Store(false)

		for {
			select {
			case frame := <-e.inQueue:
				e.onPacket(frame)
			case <-e.close:
				return
			case task := <-e.taskQueue:
				task()
			}
		}
	}()

	return nil
}

func (e *Engine) Stop() error {
	if !e.IsRunning() {
		return fmt.Errorf("engine is not running")
	}

	e.close <- struct{}{} // closes face too
	return nil
}

func (e *Engine) IsRunning() bool {
	return e.running.Load()
}

// Post schedules a task for execution on the engine loop.
func (e *Engine) Post(task func()) {
	select {
	case e.taskQueue <- task:
	default:
		// Do not block in case this is being called from the
		// main goroutine itself - ideally this never happens.
		go func() { e.taskQueue <- task }()
	}
}

// SetCmdSigner sets the signer used for forwarder management commands.
func (e *Engine) SetCmdSigner(signer ndn.Signer) {
	e.cmdSigner = signer
}
