package service

import (
	"math/rand"
	"sort"

	"github.com/Edufam-Tech/edufam-backend-sub000/internal/models"
)

const (
	defaultBacktracksPerUnit = 20
	teacherLoadBalanceFactor = 0.1
	noPlacementReason        = "no feasible placement under current constraints"
)

// solverInput is the frozen world one generation run searches over. Nothing
// in it may be mutated while the search runs.
type solverInput struct {
	Config        *models.ScheduleConfig
	Grid          []models.Slot
	Snapshot      *ConstraintSnapshot
	Classes       map[string]models.Class
	Subjects      map[string]models.Subject
	Rooms         []models.Room
	Eligibility   map[string][]string // subject id -> qualified teacher ids
	Loads         []models.CurriculumLoad
	Seed          int64
	MaxBacktracks int
	// BacktracksPerUnit scales the default bound when MaxBacktracks is
	// unset. Zero falls back to defaultBacktracksPerUnit.
	BacktracksPerUnit int
}

type solverResult struct {
	Entries       []models.TimetableEntry
	Unassigned    []unassignedUnit
	TotalUnits    int
	Backtracks    int
	Bound         int
	BoundExceeded bool
}

type unassignedUnit struct {
	ClassID   string
	SubjectID string
	BlockSize int
	Reason    string
}

// placementUnit is one schedulable demand: a single period, or a 2-period
// block when the subject requires double periods.
type placementUnit struct {
	ClassID     string
	SubjectID   string
	ClassName   string
	SubjectName string
	IsCore      bool
	BlockSize   int
	Requirement models.SubjectRequirement
	HasReq      bool
}

func (u placementUnit) needsRoom() bool {
	return u.HasReq && (u.Requirement.RequiresLab || u.Requirement.RequiresComputerLab)
}

type placementCandidate struct {
	Slot      models.Slot
	Second    *models.Slot
	TeacherID string
	RoomID    *string
	Score     float64
}

func (c placementCandidate) slotList() []models.Slot {
	if c.Second == nil {
		return []models.Slot{c.Slot}
	}
	return []models.Slot{c.Slot, *c.Second}
}

type searchFrame struct {
	unitIdx int
	cands   []placementCandidate
	next    int
}

type subjectDayKey struct {
	ClassID   string
	SubjectID string
	Day       models.Weekday
}

type orderedUnit struct {
	unit  placementUnit
	count int
}

// solveTimetable runs the bounded backtracking search and always returns the
// best partial result it reached: placed entries plus the units it could not
// place. Identical inputs and seed yield identical output.
func solveTimetable(in solverInput) *solverResult {
	st := newSearchState(in)
	order := orderUnits(st, buildPlacementUnits(in))

	bound := in.MaxBacktracks
	if bound <= 0 {
		factor := in.BacktracksPerUnit
		if factor <= 0 {
			factor = defaultBacktracksPerUnit
		}
		bound = factor * len(order)
	}
	res := &solverResult{TotalUnits: len(order), Bound: bound}

	unassigned := make(map[int]string, len(order))
	for idx, ou := range order {
		if ou.count == 0 {
			unassigned[idx] = st.unassignableReason(ou.unit)
		}
	}

	placed := make(map[int]placementCandidate, len(order))
	var stack []searchFrame
	backtracks := 0
	boundExceeded := false

	i := 0
	for i < len(order) {
		if _, skip := unassigned[i]; skip {
			i++
			continue
		}
		unit := order[i].unit
		cands := st.enumerate(unit)
		if len(cands) > 0 {
			st.place(unit, cands[0])
			placed[i] = cands[0]
			if !boundExceeded {
				stack = append(stack, searchFrame{unitIdx: i, cands: cands, next: 1})
			}
			i++
			continue
		}
		if boundExceeded {
			unassigned[i] = noPlacementReason
			i++
			continue
		}
		// Chronological backtracking: undo the deepest placement and try its
		// next candidate. At root exhaustion the failing unit is dropped and
		// the surviving units are replayed; at the bound the search degrades
		// to greedy forward placement so a partial result always comes back.
		for {
			if len(stack) == 0 {
				unassigned[i] = noPlacementReason
				i = 0
				break
			}
			if backtracks >= bound {
				boundExceeded = true
				break
			}
			top := &stack[len(stack)-1]
			st.unplace(order[top.unitIdx].unit, placed[top.unitIdx])
			delete(placed, top.unitIdx)
			backtracks++
			if top.next < len(top.cands) {
				st.place(order[top.unitIdx].unit, top.cands[top.next])
				placed[top.unitIdx] = top.cands[top.next]
				top.next++
				i = top.unitIdx + 1
				break
			}
			stack = stack[:len(stack)-1]
		}
	}

	res.Backtracks = backtracks
	res.BoundExceeded = boundExceeded
	for idx, ou := range order {
		// A unit undone by the last backtrack before the bound hit is in
		// neither map; it counts as unassigned.
		cand, ok := placed[idx]
		if !ok {
			reason := unassigned[idx]
			if reason == "" {
				reason = noPlacementReason
			}
			res.Unassigned = append(res.Unassigned, unassignedUnit{
				ClassID:   ou.unit.ClassID,
				SubjectID: ou.unit.SubjectID,
				BlockSize: ou.unit.BlockSize,
				Reason:    reason,
			})
			continue
		}
		for _, slot := range cand.slotList() {
			res.Entries = append(res.Entries, models.TimetableEntry{
				ClassID:        ou.unit.ClassID,
				SubjectID:      ou.unit.SubjectID,
				TeacherID:      cand.TeacherID,
				RoomID:         cand.RoomID,
				DayOfWeek:      slot.Day,
				PeriodNumber:   slot.Period,
				StartTime:      slot.StartTime,
				EndTime:        slot.EndTime,
				IsDoublePeriod: cand.Second != nil,
				SoftScore:      cand.Score,
			})
		}
	}
	sortEntries(res.Entries)
	return res
}

// buildPlacementUnits expands curriculum loads into units, pairing periods of
// double-period subjects into 2-period blocks with any odd remainder single.
func buildPlacementUnits(in solverInput) []placementUnit {
	units := make([]placementUnit, 0, len(in.Loads))
	for _, load := range in.Loads {
		if load.PeriodsPerWeek <= 0 {
			continue
		}
		var req models.SubjectRequirement
		hasReq := false
		if in.Snapshot != nil {
			req, hasReq = in.Snapshot.Requirement(load.SubjectID)
		}
		base := placementUnit{
			ClassID:     load.ClassID,
			SubjectID:   load.SubjectID,
			ClassName:   in.Classes[load.ClassID].Name,
			SubjectName: in.Subjects[load.SubjectID].Name,
			IsCore:      in.Subjects[load.SubjectID].IsCore,
			BlockSize:   1,
			Requirement: req,
			HasReq:      hasReq,
		}
		remaining := load.PeriodsPerWeek
		if hasReq && req.RequiresDoublePeriod && in.Config.AllowDoublePeriods {
			for remaining >= 2 {
				unit := base
				unit.BlockSize = 2
				units = append(units, unit)
				remaining -= 2
			}
		}
		for remaining > 0 {
			units = append(units, base)
			remaining--
		}
	}
	return units
}

// orderUnits sorts most-constrained-first by static candidate count, ties by
// subject name then class name so the search order is deterministic.
func orderUnits(st *searchState, units []placementUnit) []orderedUnit {
	out := make([]orderedUnit, len(units))
	for i, unit := range units {
		out[i] = orderedUnit{unit: unit, count: st.staticCandidateCount(unit)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count < out[j].count
		}
		if out[i].unit.SubjectName != out[j].unit.SubjectName {
			return out[i].unit.SubjectName < out[j].unit.SubjectName
		}
		return out[i].unit.ClassName < out[j].unit.ClassName
	})
	return out
}

func sortEntries(entries []models.TimetableEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].DayOfWeek != entries[j].DayOfWeek {
			return entries[i].DayOfWeek.Index() < entries[j].DayOfWeek.Index()
		}
		if entries[i].PeriodNumber != entries[j].PeriodNumber {
			return entries[i].PeriodNumber < entries[j].PeriodNumber
		}
		if entries[i].ClassID != entries[j].ClassID {
			return entries[i].ClassID < entries[j].ClassID
		}
		return entries[i].SubjectID < entries[j].SubjectID
	})
}

// --- Search state ---

type searchState struct {
	cfg            *models.ScheduleConfig
	snap           *ConstraintSnapshot
	slots          []models.Slot
	partner        map[models.SlotKey]models.Slot
	rooms          []models.Room
	eligibility    map[string][]string
	teacherBusy    map[string]map[models.SlotKey]bool
	classBusy      map[string]map[models.SlotKey]bool
	roomBusy       map[string]map[models.SlotKey]bool
	teacherLoad    map[string]int
	teacherDayLoad map[string]map[models.Weekday]int
	subjectPeriods map[subjectDayKey][]int
	rng            *rand.Rand
}

func newSearchState(in solverInput) *searchState {
	st := &searchState{
		cfg:            in.Config,
		snap:           in.Snapshot,
		rooms:          in.Rooms,
		eligibility:    in.Eligibility,
		partner:        make(map[models.SlotKey]models.Slot),
		teacherBusy:    make(map[string]map[models.SlotKey]bool),
		classBusy:      make(map[string]map[models.SlotKey]bool),
		roomBusy:       make(map[string]map[models.SlotKey]bool),
		teacherLoad:    make(map[string]int),
		teacherDayLoad: make(map[string]map[models.Weekday]int),
		subjectPeriods: make(map[subjectDayKey][]int),
		rng:            rand.New(rand.NewSource(in.Seed)),
	}
	assignable := make(map[models.SlotKey]models.Slot, len(in.Grid))
	for _, slot := range in.Grid {
		if slot.IsBreak {
			continue
		}
		st.slots = append(st.slots, slot)
		assignable[slot.Key()] = slot
	}
	for _, slot := range st.slots {
		if next, ok := assignable[models.SlotKey{Day: slot.Day, Period: slot.Period + 1}]; ok {
			st.partner[slot.Key()] = next
		}
	}
	return st
}

// enumerate lists every placement currently open to the unit, ranked by local
// score. Ties are broken by a seeded shuffle ahead of the stable sort, so the
// order of equal-score candidates is a pure function of the seed.
func (st *searchState) enumerate(u placementUnit) []placementCandidate {
	teachers := st.eligibility[u.SubjectID]
	if len(teachers) == 0 {
		return nil
	}
	var out []placementCandidate
	for _, slot := range st.slots {
		var second *models.Slot
		if u.BlockSize == 2 {
			next, ok := st.partner[slot.Key()]
			if !ok {
				continue
			}
			second = &next
		}
		if st.occupied(st.classBusy, u.ClassID, slot, second) {
			continue
		}
		if !st.subjectSpacingOK(u, slot, second) {
			continue
		}
		for _, teacherID := range teachers {
			if st.occupied(st.teacherBusy, teacherID, slot, second) {
				continue
			}
			if !st.teacherDayLoadOK(teacherID, slot.Day, u.BlockSize) {
				continue
			}
			weight, ok := st.allowedWeight(EntityTeacher, teacherID, slot, second)
			if !ok {
				continue
			}
			base := weight + st.placementBonus(u, slot) - teacherLoadBalanceFactor*float64(st.teacherLoad[teacherID])
			if !u.needsRoom() {
				out = append(out, placementCandidate{Slot: slot, Second: second, TeacherID: teacherID, Score: base})
				continue
			}
			for _, room := range st.rooms {
				if !roomSatisfies(room, u.Requirement) {
					continue
				}
				if st.occupied(st.roomBusy, room.ID, slot, second) {
					continue
				}
				roomWeight, roomOK := st.allowedWeight(EntityRoom, room.ID, slot, second)
				if !roomOK {
					continue
				}
				roomID := room.ID
				out = append(out, placementCandidate{
					Slot:      slot,
					Second:    second,
					TeacherID: teacherID,
					RoomID:    &roomID,
					Score:     base + roomWeight,
				})
			}
		}
	}
	st.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func (st *searchState) allowedWeight(kind EntityKind, id string, slot models.Slot, second *models.Slot) (float64, bool) {
	allowed, weight := st.snap.Allowed(kind, id, slot)
	if !allowed {
		return 0, false
	}
	if second != nil {
		allowedSecond, weightSecond := st.snap.Allowed(kind, id, *second)
		if !allowedSecond {
			return 0, false
		}
		weight += weightSecond
	}
	return weight, true
}

func (st *searchState) occupied(busy map[string]map[models.SlotKey]bool, id string, slot models.Slot, second *models.Slot) bool {
	taken := busy[id]
	if taken == nil {
		return false
	}
	if taken[slot.Key()] {
		return true
	}
	return second != nil && taken[second.Key()]
}

func (st *searchState) teacherDayLoadOK(teacherID string, day models.Weekday, blockSize int) bool {
	limit := st.cfg.MaxPeriodsPerTeacherPerDay
	if limit <= 0 {
		return true
	}
	return st.teacherDayLoad[teacherID][day]+blockSize <= limit
}

// subjectSpacingOK enforces the minimum gap between periods of the same
// subject on one day and the subject's maximum consecutive run. The two
// periods of a double block are exempt from the gap check against each other.
func (st *searchState) subjectSpacingOK(u placementUnit, slot models.Slot, second *models.Slot) bool {
	existing := st.subjectPeriods[subjectDayKey{ClassID: u.ClassID, SubjectID: u.SubjectID, Day: slot.Day}]
	added := []int{slot.Period}
	if second != nil {
		added = append(added, second.Period)
	}
	if gap := st.cfg.MinGapBetweenSameSubject; gap > 0 {
		for _, p := range added {
			for _, ep := range existing {
				if intAbs(p-ep) <= gap {
					return false
				}
			}
		}
	}
	if u.HasReq && u.Requirement.MaxConsecutivePeriods > 0 {
		if longestRun(existing, added) > u.Requirement.MaxConsecutivePeriods {
			return false
		}
	}
	return true
}

// placementBonus folds the soft placement preferences into the local score:
// morning slots for core subjects and the subject's own daypart preference.
func (st *searchState) placementBonus(u placementUnit, slot models.Slot) float64 {
	bonus := 0.0
	morning := st.isMorning(slot.Period)
	if st.cfg.PreferMorningForCore && u.IsCore && morning {
		bonus += 1.0
	}
	if u.HasReq {
		switch u.Requirement.PreferredTimeOfDay {
		case models.TimeOfDayMorning:
			if morning {
				bonus += 0.5
			}
		case models.TimeOfDayAfternoon:
			if !morning {
				bonus += 0.5
			}
		}
	}
	return bonus
}

func (st *searchState) isMorning(period int) bool {
	return period <= (st.cfg.PeriodsPerDay+1)/2
}

func (st *searchState) place(u placementUnit, c placementCandidate) {
	for _, slot := range c.slotList() {
		key := slot.Key()
		markBusy(st.teacherBusy, c.TeacherID, key)
		markBusy(st.classBusy, u.ClassID, key)
		if c.RoomID != nil {
			markBusy(st.roomBusy, *c.RoomID, key)
		}
		dayKey := subjectDayKey{ClassID: u.ClassID, SubjectID: u.SubjectID, Day: slot.Day}
		st.subjectPeriods[dayKey] = append(st.subjectPeriods[dayKey], slot.Period)
		if st.teacherDayLoad[c.TeacherID] == nil {
			st.teacherDayLoad[c.TeacherID] = make(map[models.Weekday]int)
		}
		st.teacherDayLoad[c.TeacherID][slot.Day]++
		st.teacherLoad[c.TeacherID]++
	}
}

func (st *searchState) unplace(u placementUnit, c placementCandidate) {
	for _, slot := range c.slotList() {
		key := slot.Key()
		delete(st.teacherBusy[c.TeacherID], key)
		delete(st.classBusy[u.ClassID], key)
		if c.RoomID != nil {
			delete(st.roomBusy[*c.RoomID], key)
		}
		dayKey := subjectDayKey{ClassID: u.ClassID, SubjectID: u.SubjectID, Day: slot.Day}
		st.subjectPeriods[dayKey] = removePeriod(st.subjectPeriods[dayKey], slot.Period)
		st.teacherDayLoad[c.TeacherID][slot.Day]--
		st.teacherLoad[c.TeacherID]--
	}
}

// staticCandidateCount sizes the unit's search space before any placement:
// eligible teachers x hosting slots x room choices.
func (st *searchState) staticCandidateCount(u placementUnit) int {
	teachers := len(st.eligibility[u.SubjectID])
	slots := len(st.slots)
	if u.BlockSize == 2 {
		slots = 0
		for _, slot := range st.slots {
			if _, ok := st.partner[slot.Key()]; ok {
				slots++
			}
		}
	}
	rooms := 1
	if u.needsRoom() {
		rooms = 0
		for _, room := range st.rooms {
			if roomSatisfies(room, u.Requirement) {
				rooms++
			}
		}
	}
	return teachers * slots * rooms
}

func (st *searchState) unassignableReason(u placementUnit) string {
	if len(st.eligibility[u.SubjectID]) == 0 {
		return "no teacher is qualified for the subject"
	}
	if u.needsRoom() {
		found := false
		for _, room := range st.rooms {
			if roomSatisfies(room, u.Requirement) {
				found = true
				break
			}
		}
		if !found {
			return "no room satisfies the subject requirements"
		}
	}
	if u.BlockSize == 2 {
		return "no contiguous slot pair can host a double period"
	}
	return noPlacementReason
}

func roomSatisfies(room models.Room, req models.SubjectRequirement) bool {
	if req.RequiresLab && !room.IsLab {
		return false
	}
	if req.RequiresComputerLab && !room.IsComputerLab {
		return false
	}
	return true
}

// longestRun returns the longest numerically consecutive run that contains at
// least one of the added periods.
func longestRun(existing, added []int) int {
	set := make(map[int]bool, len(existing)+len(added))
	for _, p := range existing {
		set[p] = true
	}
	for _, p := range added {
		set[p] = true
	}
	best := 0
	for _, p := range added {
		start := p
		for set[start-1] {
			start--
		}
		length := 0
		for set[start+length] {
			length++
		}
		if length > best {
			best = length
		}
	}
	return best
}

func removePeriod(periods []int, period int) []int {
	for i, p := range periods {
		if p == period {
			return append(periods[:i], periods[i+1:]...)
		}
	}
	return periods
}

func markBusy(busy map[string]map[models.SlotKey]bool, id string, key models.SlotKey) {
	if busy[id] == nil {
		busy[id] = make(map[models.SlotKey]bool)
	}
	busy[id][key] = true
}

func intAbs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
