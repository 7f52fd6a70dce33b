package sim

import (
	"fmt"
	"math"
	"strings"
)

// LogCategory groups SimLog entries by the part of the model that emitted
// them.
type LogCategory string

const (
	LogContact LogCategory = "contact" // pickup, transmit
	LogPatient LogCategory = "patient" // progress, emerge, recover
	LogNurse   LogCategory = "nurse"   // compliance, clean (verbose)
	LogChurn   LogCategory = "churn"   // admit
	LogTriage  LogCategory = "triage"  // route
)

// SimLogEntry is one recorded domain event.
type SimLogEntry struct {
	Step     int
	Agent    string // "P12" or "N3"
	Ward     int    // ward the event happened in; the destination for triage
	Category LogCategory
	Key      string
	Value    string
	NumVal   float64
}

// String formats the entry as a fixed-width log line.
//
//	[S=042] P17  w3  contact  transmit         Cp_r from N4
func (e SimLogEntry) String() string {
	return fmt.Sprintf("[S=%03d] %-5s w%-2d %-8s %-16s %s",
		e.Step, e.Agent, e.Ward, e.Category, e.Key, e.Value)
}

// SimLog collects structured events during a run. It is unbounded; attach
// one only to runs you intend to inspect.
type SimLog struct {
	entries []SimLogEntry
	verbose bool
}

// NewSimLog creates a SimLog. If verbose is true, per-step nurse compliance
// and decontamination entries are also recorded.
func NewSimLog(verbose bool) *SimLog {
	return &SimLog{verbose: verbose}
}

// Add records a new entry. A nil log ignores the call.
func (sl *SimLog) Add(step int, agent string, ward int, category LogCategory, key, value string, numVal float64) {
	if sl == nil {
		return
	}
	sl.entries = append(sl.entries, SimLogEntry{
		Step:     step,
		Agent:    agent,
		Ward:     ward,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	})
}

// AddVerbose records an entry only when verbose mode is on.
func (sl *SimLog) AddVerbose(step int, agent string, ward int, category LogCategory, key, value string, numVal float64) {
	if sl == nil || !sl.verbose {
		return
	}
	sl.Add(step, agent, ward, category, key, value, numVal)
}

// Entries returns all recorded entries.
func (sl *SimLog) Entries() []SimLogEntry {
	return sl.entries
}

// Filter returns entries of category with the given key; an empty key
// matches any.
func (sl *SimLog) Filter(category LogCategory, key string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.Category == category && (key == "" || e.Key == key) {
			out = append(out, e)
		}
	}
	return out
}

// Count returns len(Filter(category, key)).
func (sl *SimLog) Count(category LogCategory, key string) int {
	return len(sl.Filter(category, key))
}

// FilterWard returns the entries recorded in one ward.
func (sl *SimLog) FilterWard(ward int) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.Ward == ward {
			out = append(out, e)
		}
	}
	return out
}

// WardCounts tallies category/key entries per ward, e.g. transmissions
// per ward with (LogContact, "transmit").
func (sl *SimLog) WardCounts(category LogCategory, key string) map[int]int {
	out := map[int]int{}
	for _, e := range sl.Filter(category, key) {
		out[e.Ward]++
	}
	return out
}

// Format returns the full log as a single string for t.Log output.
func (sl *SimLog) Format() string {
	return formatEntries(sl.entries, 0, math.MaxInt)
}

// FormatRange returns the log lines of steps [from, to].
func (sl *SimLog) FormatRange(from, to int) string {
	return formatEntries(sl.entries, from, to)
}

func formatEntries(entries []SimLogEntry, from, to int) string {
	var sb strings.Builder
	for _, e := range entries {
		if e.Step < from || e.Step > to {
			continue
		}
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Summary returns a short human-readable summary of the population.
func Summary(step int, patients []*Patient, nurses []*Nurse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Summary at S=%03d ---\n", step)

	counts := make(map[HealthState]int, len(healthStates))
	for _, pt := range patients {
		counts[pt.state]++
	}
	sb.WriteString("Patients: ")
	for _, h := range healthStates {
		fmt.Fprintf(&sb, "%s=%d  ", h, counts[h])
	}
	sb.WriteByte('\n')

	contaminated := 0
	compliance := 0.0
	for _, n := range nurses {
		if n.state.Contaminated() {
			contaminated++
		}
		compliance += n.compliance
	}
	if len(nurses) > 0 {
		compliance /= float64(len(nurses))
	}
	fmt.Fprintf(&sb, "Nurses: %d  contaminated=%d  avg compliance=%.3f\n",
		len(nurses), contaminated, compliance)
	return sb.String()
}
