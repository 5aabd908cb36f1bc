// File: cpu/cpu.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Core-management subsystem: topology discovery, per-core memory windows,
// restricted-mode bring-up, and cross-core deferred work. One OS thread per
// core, pinned for its lifetime; every operation is synchronous. The only
// I/O is the one-time topology scan during Init, which runs before any
// core exists and therefore without contention.

package cpu

import (
	"fmt"
	"log"
	"runtime"
	"sync"

	"github.com/AmberBraun/zygos/affinity"
	"github.com/AmberBraun/zygos/api"
	"github.com/AmberBraun/zygos/control"
	"github.com/AmberBraun/zygos/percpu"
	"github.com/AmberBraun/zygos/restricted"
	"github.com/AmberBraun/zygos/runqueue"
	"github.com/AmberBraun/zygos/topology"
)

// Subsystem owns every process-wide per-core table: topology entries,
// memory windows, core states, run lists, and item pools. Each table slot
// is written once by its owning core during bring-up and read-only after.
type Subsystem struct {
	// collaborators, fixed at New
	detect       func() int
	topoPath     string
	storageBytes int
	runnerCap    int
	bind         func(int) error
	current      func() (int, int, error)
	entry        restricted.Primitive
	pageAlloc    percpu.PageAllocator

	topo    *topology.Registry
	windows *percpu.Manager
	metrics *control.MetricsRegistry
	journal *control.Journal

	mu          sync.RWMutex
	initialized bool
	coreCount   int
	active      int
	states      [api.NCPU]api.CoreState
	dispatch    *runqueue.Dispatcher
}

// New assembles a subsystem with platform defaults for every collaborator.
func New(opts ...Option) *Subsystem {
	s := &Subsystem{
		detect:       runtime.NumCPU,
		topoPath:     topology.DefaultSource,
		storageBytes: percpu.DefaultStorageLen,
		runnerCap:    api.MaxRunners,
		bind:         affinity.Bind,
		current:      affinity.Current,
		entry:        restricted.Default(),
		pageAlloc:    percpu.DefaultAllocator(),
		topo:         topology.NewRegistry(),
		metrics:      control.NewMetricsRegistry(),
		journal:      control.NewJournal(0),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.windows = percpu.NewManager(s.pageAlloc, s.storageBytes)
	return s
}

// Init performs the one-time subsystem setup: core count detection and
// bounds check, runner datastore creation, and topology discovery. It must
// complete before any BringUpCore call. On any failure the subsystem stays
// uninitialized and the caller must treat process init as failed.
func (s *Subsystem) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return api.ErrAlreadyInitialized
	}
	n := s.detect()
	if n <= 0 || n > api.NCPU {
		return fmt.Errorf("%w: %d not in (0, %d]", api.ErrConfig, n, api.NCPU)
	}
	log.Printf("cpu: detected %d cores", n)

	ds, err := runqueue.NewDatastore(s.runnerCap)
	if err != nil {
		return fmt.Errorf("%w: %v", api.ErrConfig, err)
	}
	if err := s.topo.Discover(s.topoPath); err != nil {
		return err
	}
	s.dispatch = runqueue.NewDispatcher(n, ds)
	s.coreCount = n
	s.initialized = true
	s.metrics.Set("cpu.count", int64(n))
	return nil
}

// BringUpCore runs the bring-up state machine for one core, on the thread
// that will own it. On success the thread is pinned, the core's memory
// window is mapped, restricted mode is entered, and the returned Core
// handle is the only way to drain the core's run list. Any failure aborts
// bring-up with no partial-state cleanup; a half-initialized core cannot
// safely run, so callers are expected to treat the error as process-fatal.
func (s *Subsystem) BringUpCore(logical int) (*Core, error) {
	s.mu.RLock()
	initialized, count := s.initialized, s.coreCount
	s.mu.RUnlock()
	if !initialized {
		return nil, api.ErrNotInitialized
	}
	if logical < 0 || logical >= count {
		return nil, fmt.Errorf("%w: core %d", api.ErrInvalidTarget, logical)
	}
	if st, _ := s.ReadCoreState(logical); st.Active {
		return nil, fmt.Errorf("%w: core %d", api.ErrAlreadyInitialized, logical)
	}

	// The thread stays this core's resident thread for its lifetime.
	runtime.LockOSThread()

	if err := s.bind(logical); err != nil {
		return nil, fmt.Errorf("%w: core %d: %v", api.ErrAffinity, logical, err)
	}
	cur, node, err := s.current()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", api.ErrTopologyQuery, err)
	}
	if cur != logical {
		log.Printf("cpu: couldn't migrate to core %d, running on %d", logical, cur)
		return nil, fmt.Errorf("%w: migration mismatch, want core %d got %d",
			api.ErrAffinity, logical, cur)
	}

	win, err := s.windows.Allocate(logical, node)
	if err != nil {
		return nil, err
	}

	token, err := restricted.Enter(s.entry, win.Base())
	if err != nil {
		log.Printf("cpu: failed to enter restricted mode on core %d: %v", logical, err)
		return nil, err
	}

	hwid, ok := s.topo.HardwareID(logical)
	if !ok {
		return nil, fmt.Errorf("%w: core %d missing from topology table",
			api.ErrInternal, logical)
	}

	s.mu.Lock()
	s.states[logical] = api.CoreState{
		Index:      logical,
		NUMANode:   node,
		HardwareID: hwid,
		Active:     true,
	}
	s.active++
	s.mu.Unlock()

	if err := s.dispatch.InitCore(logical); err != nil {
		return nil, err
	}

	s.journal.Record(logical, "started core %d, numa node %d, apicid %d", logical, node, hwid)
	s.metrics.Add("cpu.active", 1)
	log.Printf("cpu: started core %d, numa node %d, apicid %d", logical, node, hwid)

	return &Core{sub: s, index: logical, token: token, window: win}, nil
}

// SubmitWork schedules fn(arg) for one-shot execution on the target core.
// Callable from any initialized core. ErrResourceExhausted and
// ErrInvalidTarget are the only recoverable errors in the subsystem; the
// caller may retry, drop, or escalate, but no retry happens here.
func (s *Subsystem) SubmitWork(target int, fn runqueue.Func, arg any) error {
	s.mu.RLock()
	dispatch, count := s.dispatch, s.coreCount
	s.mu.RUnlock()
	if dispatch == nil {
		return api.ErrNotInitialized
	}
	if target < 0 || target >= count {
		return fmt.Errorf("%w: core %d", api.ErrInvalidTarget, target)
	}
	return dispatch.Submit(target, fn, arg)
}

// CoreCount returns the usable core count fixed at Init, zero before.
func (s *Subsystem) CoreCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.coreCount
}

// ActiveCores returns how many cores completed bring-up.
func (s *Subsystem) ActiveCores() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// ReadCoreState returns core N's state. It is meaningful only after that
// core's bring-up; before that, Active is false and the rest is undefined.
func (s *Subsystem) ReadCoreState(core int) (api.CoreState, error) {
	if core < 0 || core >= api.NCPU {
		return api.CoreState{}, fmt.Errorf("%w: core %d", api.ErrInvalidTarget, core)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[core], nil
}

// Metrics exposes the subsystem's counters.
func (s *Subsystem) Metrics() *control.MetricsRegistry {
	return s.metrics
}

// Journal exposes the bring-up event journal.
func (s *Subsystem) Journal() *control.Journal {
	return s.journal
}
