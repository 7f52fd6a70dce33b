package sim

import "math/rand/v2"

// AssignmentPolicy decides which patients a nurse touches in a step.
type AssignmentPolicy interface {
	// Seed distributes the initial population.
	Seed(patients []*Patient, nurses []*Nurse, r *rand.Rand)
	// Admit places a newly admitted patient.
	Admit(pt *Patient, nurses []*Nurse, r *rand.Rand)
	// Transfer re-places a patient whose ward changed.
	Transfer(pt *Patient, nurses []*Nurse, r *rand.Rand)
	// Prune drops patients that can no longer be contacted.
	Prune()
	// Contacts returns the patients nurse n meets this step. pool is the
	// shuffled active population of the nurse's scope; limit caps sampling.
	Contacts(n *Nurse, pool []*Patient, limit int, r *rand.Rand) []*Patient
}

// AdHocAssignment keeps no structure: every step each nurse samples
// patients from its scope without replacement.
type AdHocAssignment struct {
	buf []*Patient
}

func (*AdHocAssignment) Seed([]*Patient, []*Nurse, *rand.Rand) {}
func (*AdHocAssignment) Admit(*Patient, []*Nurse, *rand.Rand) {}
func (*AdHocAssignment) Transfer(*Patient, []*Nurse, *rand.Rand) {}
func (*AdHocAssignment) Prune() {}

// Contacts draws min(limit, len(pool)) distinct patients. The returned slice
// is reused by the next call.
func (a *AdHocAssignment) Contacts(_ *Nurse, pool []*Patient, limit int, r *rand.Rand) []*Patient {
	k := min(limit, len(pool))
	if k <= 0 {
		return nil
	}
	a.buf = append(a.buf[:0], pool...)
	for i := 0; i < k; i++ {
		j := i + r.IntN(len(a.buf)-i)
		a.buf[i], a.buf[j] = a.buf[j], a.buf[i]
	}
	return a.buf[:k]
}

// PersistentAssignment gives every patient exactly one nurse. New arrivals
// go to the least-burdened nurse of their ward.
type PersistentAssignment struct {
	lists map[int][]*Patient // nurse id -> assigned patients, in assignment order
	owner map[int]int        // patient id -> nurse id
	buf   []*Patient
}

// NewPersistentAssignment returns an empty assignment table.
func NewPersistentAssignment() *PersistentAssignment {
	return &PersistentAssignment{
		lists: make(map[int][]*Patient),
		owner: make(map[int]int),
	}
}

// Seed distributes patients round-robin across the nurses of their ward.
// Patients of a ward without nurses stay unassigned.
func (pa *PersistentAssignment) Seed(patients []*Patient, nurses []*Nurse, _ *rand.Rand) {
	byWard := nursesByWard(nurses)
	seen := make(map[int]int) // ward -> patients placed so far
	for _, pt := range patients {
		staff := byWard[pt.ward]
		if len(staff) == 0 {
			continue
		}
		pa.assign(pt, staff[seen[pt.ward]%len(staff)])
		seen[pt.ward]++
	}
}

// Admit assigns pt to the least-burdened nurse in its ward, ties going to
// the first nurse found. A ward without nurses leaves pt unassigned.
func (pa *PersistentAssignment) Admit(pt *Patient, nurses []*Nurse, _ *rand.Rand) {
	if !pt.state.Active() {
		return
	}
	var best *Nurse
	for _, n := range nurses {
		if n.ward != pt.ward {
			continue
		}
		if best == nil || len(pa.lists[n.id]) < len(pa.lists[best.id]) {
			best = n
		}
	}
	if best == nil {
		return
	}
	pa.assign(pt, best)
}

// Transfer removes pt from its current nurse and re-admits it in its new ward.
func (pa *PersistentAssignment) Transfer(pt *Patient, nurses []*Nurse, r *rand.Rand) {
	pa.release(pt)
	pa.Admit(pt, nurses, r)
}

// Prune drops Recovered patients from every list.
func (pa *PersistentAssignment) Prune() {
	for nid, list := range pa.lists {
		kept := list[:0]
		for _, pt := range list {
			if pt.state.Active() {
				kept = append(kept, pt)
				continue
			}
			delete(pa.owner, pt.id)
		}
		pa.lists[nid] = kept
	}
}

// Contacts returns the nurse's active assigned patients; pool and limit are
// ignored. The returned slice is reused by the next call.
func (pa *PersistentAssignment) Contacts(n *Nurse, _ []*Patient, _ int, _ *rand.Rand) []*Patient {
	pa.buf = pa.buf[:0]
	for _, pt := range pa.lists[n.id] {
		if pt.state.Active() {
			pa.buf = append(pa.buf, pt)
		}
	}
	return pa.buf
}

// Assigned returns a copy of the patient list of nurse id.
func (pa *PersistentAssignment) Assigned(nurseID int) []*Patient {
	return append([]*Patient(nil), pa.lists[nurseID]...)
}

// Owner returns the nurse a patient is assigned to.
func (pa *PersistentAssignment) Owner(patientID int) (int, bool) {
	nid, ok := pa.owner[patientID]
	return nid, ok
}

// Table returns nurse id -> assigned patient ids.
func (pa *PersistentAssignment) Table() map[int][]int {
	out := make(map[int][]int, len(pa.lists))
	for nid, list := range pa.lists {
		ids := make([]int, len(list))
		for i, pt := range list {
			ids[i] = pt.id
		}
		out[nid] = ids
	}
	return out
}

func (pa *PersistentAssignment) assign(pt *Patient, n *Nurse) {
	pa.lists[n.id] = append(pa.lists[n.id], pt)
	pa.owner[pt.id] = n.id
}

func (pa *PersistentAssignment) release(pt *Patient) {
	nid, ok := pa.owner[pt.id]
	if !ok {
		return
	}
	list := pa.lists[nid]
	for i, p := range list {
		if p.id == pt.id {
			pa.lists[nid] = append(list[:i], list[i+1:]...)
			break
		}
	}
	delete(pa.owner, pt.id)
}

func nursesByWard(nurses []*Nurse) map[int][]*Nurse {
	out := make(map[int][]*Nurse)
	for _, n := range nurses {
		out[n.ward] = append(out[n.ward], n)
	}
	return out
}
