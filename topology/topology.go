// File: topology/topology.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Topology registry: maps dense logical core indices to platform hardware
// identifiers by scanning the processor information source once at boot.
// The table is write-once; after a successful scan it is read-only and safe
// for concurrent lookup.

package topology

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/AmberBraun/zygos/api"
)

// DefaultSource is the line-oriented processor description scanned by
// Discover. Overridable in Subsystem options for tests.
const DefaultSource = "/proc/cpuinfo"

// Entry pairs one discovered logical index with its hardware identifier.
type Entry struct {
	Processor  int
	HardwareID int
}

// Registry holds the fixed discovery table. Populate it with Discover or
// DiscoverFrom exactly once, before any core bring-up.
type Registry struct {
	entries [api.NCPU]Entry
	count   int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Discover scans the processor information file at path.
func (r *Registry) Discover(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", api.ErrTopologyScan, path, err)
	}
	defer f.Close()
	return r.DiscoverFrom(f)
}

// DiscoverFrom scans a cpuinfo-format record stream. A "processor : N" line
// opens a record; the following "apicid : M" line commits the pair in
// discovery order. A malformed value, an apicid with no preceding
// processor, or more records than NCPU fails the scan and leaves the table
// partial and unusable.
func (r *Registry) DiscoverFrom(src io.Reader) error {
	sc := bufio.NewScanner(src)
	pending := -1
	havePending := false
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "processor"):
			v, err := fieldValue(line)
			if err != nil {
				return fmt.Errorf("%w: %v", api.ErrTopologyScan, err)
			}
			pending = v
			havePending = true
		case strings.HasPrefix(line, "apicid"):
			v, err := fieldValue(line)
			if err != nil {
				return fmt.Errorf("%w: %v", api.ErrTopologyScan, err)
			}
			if !havePending {
				return fmt.Errorf("%w: apicid record with no processor index", api.ErrTopologyScan)
			}
			if r.count >= api.NCPU {
				return fmt.Errorf("%w: more than %d processors", api.ErrTopologyScan, api.NCPU)
			}
			r.entries[r.count] = Entry{Processor: pending, HardwareID: v}
			r.count++
			havePending = false
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%w: %v", api.ErrTopologyScan, err)
	}
	return nil
}

// fieldValue parses the integer after the colon of a "key : value" line.
func fieldValue(line string) (int, error) {
	_, rest, ok := strings.Cut(line, ":")
	if !ok {
		return 0, fmt.Errorf("malformed record %q", line)
	}
	v, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return 0, fmt.Errorf("malformed record %q", line)
	}
	return v, nil
}

// HardwareID looks up the hardware identifier recorded for a logical index.
func (r *Registry) HardwareID(logical int) (int, bool) {
	for i := 0; i < r.count; i++ {
		if r.entries[i].Processor == logical {
			return r.entries[i].HardwareID, true
		}
	}
	return 0, false
}

// Len returns the number of committed entries.
func (r *Registry) Len() int {
	return r.count
}

// Entry returns the i-th entry in discovery order.
func (r *Registry) Entry(i int) Entry {
	return r.entries[i]
}
