// File: cpu/cpu_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package cpu

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/AmberBraun/zygos/api"
)

// writeCPUInfo materializes a cpuinfo-format fixture with apicid = 2*index.
func writeCPUInfo(t *testing.T, cores int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cpuinfo")
	var b []byte
	for i := 0; i < cores; i++ {
		b = append(b, fmt.Sprintf("processor\t: %d\nmodel name\t: test\napicid\t\t: %d\n\n", i, 2*i)...)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// fakeHost simulates affinity binding and the running-core query: after a
// successful bind the thread reports the bound core on NUMA node 1.
type fakeHost struct {
	boundTo  int
	bindErr  error
	queryErr error
	reportAs int // overrides the reported core when >= 0
}

func newFakeHost() *fakeHost {
	return &fakeHost{boundTo: -1, reportAs: -1}
}

func (h *fakeHost) bind(cpu int) error {
	if h.bindErr != nil {
		return h.bindErr
	}
	h.boundTo = cpu
	return nil
}

func (h *fakeHost) current() (int, int, error) {
	if h.queryErr != nil {
		return -1, -1, h.queryErr
	}
	if h.reportAs >= 0 {
		return h.reportAs, 1, nil
	}
	return h.boundTo, 1, nil
}

type heapTestAllocator struct{}

func (heapTestAllocator) Alloc(size, _ int) ([]byte, error) { return make([]byte, size), nil }
func (heapTestAllocator) Free([]byte)                       {}

type failAllocator struct{}

func (failAllocator) Alloc(int, int) ([]byte, error) { return nil, errors.New("out of pages") }
func (failAllocator) Free([]byte)                    {}

func newTestSubsystem(t *testing.T, cores int, extra ...Option) (*Subsystem, *fakeHost) {
	t.Helper()
	host := newFakeHost()
	opts := append([]Option{
		WithCoreCount(cores),
		WithTopologySource(writeCPUInfo(t, cores)),
		WithStorageBytes(1024),
		WithRunnerCapacity(8),
		WithPageAllocator(heapTestAllocator{}),
		WithAffinity(host.bind, host.current),
		WithEntryPrimitive(func(uintptr) int32 { return 0 }),
	}, extra...)
	return New(opts...), host
}

func TestInit_CoreCountBounds(t *testing.T) {
	for _, n := range []int{0, -1, api.NCPU + 1} {
		t.Run(fmt.Sprintf("count=%d", n), func(t *testing.T) {
			s, _ := newTestSubsystem(t, 1, WithCoreCount(n))
			err := s.Init()
			if !errors.Is(err, api.ErrConfig) {
				t.Fatalf("expected ErrConfig, got %v", err)
			}
			if s.CoreCount() != 0 {
				t.Error("failed init left a core count")
			}
		})
	}
}

func TestInit_TopologyFailure(t *testing.T) {
	s, _ := newTestSubsystem(t, 2, WithTopologySource("/nonexistent/cpuinfo"))
	if err := s.Init(); !errors.Is(err, api.ErrTopologyScan) {
		t.Fatalf("expected ErrTopologyScan, got %v", err)
	}
	// Init did not complete, so bring-up must refuse.
	if _, err := s.BringUpCore(0); !errors.Is(err, api.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestInit_Once(t *testing.T) {
	s, _ := newTestSubsystem(t, 2)
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := s.Init(); !errors.Is(err, api.ErrAlreadyInitialized) {
		t.Fatalf("second Init: expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestBringUpCore_PopulatesState(t *testing.T) {
	s, host := newTestSubsystem(t, 4)
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	before, _ := s.ReadCoreState(2)
	if before.Active {
		t.Fatal("core reported active before bring-up")
	}

	core, err := s.BringUpCore(2)
	if err != nil {
		t.Fatalf("BringUpCore: %v", err)
	}
	if host.boundTo != 2 {
		t.Errorf("thread bound to core %d, want 2", host.boundTo)
	}
	st, err := s.ReadCoreState(2)
	if err != nil {
		t.Fatalf("ReadCoreState: %v", err)
	}
	if !st.Active || st.Index != 2 || st.NUMANode != 1 || st.HardwareID != 4 {
		t.Fatalf("core state = %+v", st)
	}
	if s.ActiveCores() != 1 {
		t.Errorf("active cores = %d, want 1", s.ActiveCores())
	}
	if !core.Token().Valid() {
		t.Error("bring-up returned an invalid restricted token")
	}
	if core.Window() == nil || len(core.Window().Storage()) != 1024 {
		t.Error("bring-up did not attach the memory window")
	}
	if core.PoolFree() != 8 {
		t.Errorf("fresh pool free = %d, want 8", core.PoolFree())
	}
}

func TestBringUpCore_Twice(t *testing.T) {
	s, _ := newTestSubsystem(t, 2)
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := s.BringUpCore(0); err != nil {
		t.Fatalf("BringUpCore: %v", err)
	}
	if _, err := s.BringUpCore(0); !errors.Is(err, api.ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestBringUpCore_FailurePropagation(t *testing.T) {
	cases := []struct {
		name    string
		prepare func(*Subsystem, *fakeHost)
		want    error
	}{
		{
			name:    "out of range",
			prepare: func(*Subsystem, *fakeHost) {},
			want:    api.ErrInvalidTarget,
		},
		{
			name:    "bind rejected",
			prepare: func(_ *Subsystem, h *fakeHost) { h.bindErr = errors.New("EPERM") },
			want:    api.ErrAffinity,
		},
		{
			name:    "getcpu unsupported",
			prepare: func(_ *Subsystem, h *fakeHost) { h.queryErr = errors.New("ENOSYS") },
			want:    api.ErrTopologyQuery,
		},
		{
			name:    "migration mismatch",
			prepare: func(_ *Subsystem, h *fakeHost) { h.reportAs = 0 },
			want:    api.ErrAffinity,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, host := newTestSubsystem(t, 2)
			if err := s.Init(); err != nil {
				t.Fatalf("Init: %v", err)
			}
			tc.prepare(s, host)
			target := 1
			if tc.name == "out of range" {
				target = 2
			}
			_, err := s.BringUpCore(target)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if st, _ := s.ReadCoreState(1); st.Active {
				t.Error("failed bring-up marked the core active")
			}
		})
	}
}

func TestBringUpCore_WindowAllocFailure(t *testing.T) {
	s, _ := newTestSubsystem(t, 1, WithPageAllocator(failAllocator{}))
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := s.BringUpCore(0); !errors.Is(err, api.ErrWindowAlloc) {
		t.Fatalf("expected ErrWindowAlloc, got %v", err)
	}
}

func TestBringUpCore_EntryFailure(t *testing.T) {
	s, _ := newTestSubsystem(t, 1, WithEntryPrimitive(func(uintptr) int32 { return -1 }))
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := s.BringUpCore(0); !errors.Is(err, api.ErrPrivilegedEntry) {
		t.Fatalf("expected ErrPrivilegedEntry, got %v", err)
	}
	if s.ActiveCores() != 0 {
		t.Error("entry failure left an active core")
	}
}

func TestBringUpCore_MissingTopologyEntry(t *testing.T) {
	// Two usable cores, but the information source only describes one.
	s, _ := newTestSubsystem(t, 2, WithTopologySource(writeCPUInfo(t, 1)))
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := s.BringUpCore(1); !errors.Is(err, api.ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
}

func TestSubmitWork_Validation(t *testing.T) {
	s, _ := newTestSubsystem(t, 2)

	if err := s.SubmitWork(0, func(any) {}, nil); !errors.Is(err, api.ErrNotInitialized) {
		t.Fatalf("pre-init submit: expected ErrNotInitialized, got %v", err)
	}
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := s.SubmitWork(2, func(any) {}, nil); !errors.Is(err, api.ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget, got %v", err)
	}
	if err := s.SubmitWork(-1, func(any) {}, nil); !errors.Is(err, api.ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget, got %v", err)
	}
	// Valid index, but the core has not been brought up.
	if err := s.SubmitWork(1, func(any) {}, nil); !errors.Is(err, api.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestSubmitAndDrainRoundTrip(t *testing.T) {
	s, _ := newTestSubsystem(t, 2)
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	core, err := s.BringUpCore(1)
	if err != nil {
		t.Fatalf("BringUpCore: %v", err)
	}

	var got []int
	for i := 0; i < 3; i++ {
		if err := s.SubmitWork(1, func(arg any) { got = append(got, arg.(int)) }, i); err != nil {
			t.Fatalf("SubmitWork(%d): %v", i, err)
		}
	}
	if n := core.Drain(); n != 3 {
		t.Fatalf("drained %d items, want 3", n)
	}
	for i, v := range []int{2, 1, 0} {
		if got[i] != v {
			t.Fatalf("execution order %v, want [2 1 0]", got)
		}
	}
	if core.PoolFree() != 8 {
		t.Errorf("pool occupancy %d after drain, want 8", core.PoolFree())
	}
	if st := core.Stats(); st.Submitted != 3 || st.Executed != 3 {
		t.Errorf("stats = %+v", st)
	}
}

func TestJournalAndMetrics(t *testing.T) {
	s, _ := newTestSubsystem(t, 1)
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := s.BringUpCore(0); err != nil {
		t.Fatalf("BringUpCore: %v", err)
	}
	if s.Metrics().Get("cpu.count") != 1 || s.Metrics().Get("cpu.active") != 1 {
		t.Errorf("metrics = %v", s.Metrics().GetSnapshot())
	}
	if s.Journal().Len() == 0 {
		t.Error("bring-up recorded no journal events")
	}
}
