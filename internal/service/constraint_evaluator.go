package service

import (
	"github.com/andino-edu/horario-api/internal/models"
)

// Hard-feasibility check names, in evaluation order. The first failing check
// is reported for diagnostics; infeasibility is data, never an error.
const (
	checkTeacherBooked  = "teacher_already_booked"
	checkRoomBooked     = "room_already_booked"
	checkQualification  = "teacher_not_qualified"
	checkRoomSuitable   = "room_requirement_unmet"
	checkHardConstraint = "hard_constraint_violated"
)

// candidateSlot is one (class, day, block, teacher, room) tuple under
// consideration. The override flags record which English-level bypasses apply.
type candidateSlot struct {
	section         *models.ClassSection
	day             int
	block           int
	teacherID       string
	roomID          string
	teacherOverride bool
	roomOverride    bool
}

type occupancyKey struct {
	owner string
	day   int
	block int
}

type teacherDayKey struct {
	teacherID string
	day       int
}

// occupancy is the monotonically growing booking table of one solver run.
type occupancy struct {
	teacherBusy    map[occupancyKey]string
	roomBusy       map[occupancyKey]string
	teacherDayLoad map[teacherDayKey]int
}

func newOccupancy() *occupancy {
	return &occupancy{
		teacherBusy:    make(map[occupancyKey]string),
		roomBusy:       make(map[occupancyKey]string),
		teacherDayLoad: make(map[teacherDayKey]int),
	}
}

func (o *occupancy) teacherBookedAt(teacherID string, day, block int) bool {
	_, ok := o.teacherBusy[occupancyKey{owner: teacherID, day: day, block: block}]
	return ok
}

func (o *occupancy) roomBookedAt(roomID string, day, block int) bool {
	_, ok := o.roomBusy[occupancyKey{owner: roomID, day: day, block: block}]
	return ok
}

func (o *occupancy) commit(slot candidateSlot) {
	o.teacherBusy[occupancyKey{owner: slot.teacherID, day: slot.day, block: slot.block}] = slot.section.ID
	o.roomBusy[occupancyKey{owner: slot.roomID, day: slot.day, block: slot.block}] = slot.section.ID
	o.teacherDayLoad[teacherDayKey{teacherID: slot.teacherID, day: slot.day}]++
}

// hardFeasible evaluates the blocking rules in fixed order, short-circuiting
// on the first failure. Pure over the inputs and the current occupancy.
func hardFeasible(in *scheduleInputs, occ *occupancy, slot candidateSlot) (bool, string) {
	if occ.teacherBookedAt(slot.teacherID, slot.day, slot.block) {
		return false, checkTeacherBooked
	}
	if occ.roomBookedAt(slot.roomID, slot.day, slot.block) {
		return false, checkRoomBooked
	}
	if !slot.teacherOverride && !teacherQualified(in, slot.teacherID, slot.section) {
		return false, checkQualification
	}
	if !slot.roomOverride {
		if req := in.requirementFor(slot.section.ID); req != nil {
			room := roomByID(in, slot.roomID)
			if room == nil || !req.AdmitsRoom(*room) {
				return false, checkRoomSuitable
			}
		}
	}
	for _, rule := range in.HardConstraints {
		if violatesHardConstraint(rule, slot) {
			return false, checkHardConstraint
		}
	}
	return true, ""
}

func violatesHardConstraint(rule models.HardConstraint, slot candidateSlot) bool {
	if !rule.AppliesAt(slot.day, slot.block) {
		return false
	}
	switch rule.Kind {
	case models.HardKindTeacherBlackout:
		return rule.TeacherID != nil && *rule.TeacherID == slot.teacherID
	case models.HardKindRoomBlackout:
		return rule.RoomID != nil && *rule.RoomID == slot.roomID
	}
	return false
}

// softEvaluate sums the weights of violated soft constraints and counts the
// violations. Violations never block a placement.
func softEvaluate(in *scheduleInputs, occ *occupancy, slot candidateSlot) (penalty float64, violations int) {
	lastBlock := in.lastBlockIndex()
	for _, rule := range in.SoftConstraints {
		if !rule.AppliesToTeacher(slot.teacherID) {
			continue
		}
		violated := false
		switch rule.Kind {
		case models.SoftKindNoBackToBack:
			violated = occ.teacherBookedAt(slot.teacherID, slot.day, slot.block-1) ||
				occ.teacherBookedAt(slot.teacherID, slot.day, slot.block+1)
		case models.SoftKindMaxDailyLoad:
			violated = rule.Limit != nil &&
				occ.teacherDayLoad[teacherDayKey{teacherID: slot.teacherID, day: slot.day}] >= *rule.Limit
		case models.SoftKindAvoidLastBlock:
			violated = slot.block == lastBlock
		}
		if violated {
			penalty += rule.Weight
			violations++
		}
	}
	return penalty, violations
}

func teacherQualified(in *scheduleInputs, teacherID string, section *models.ClassSection) bool {
	for _, q := range in.Qualifications {
		if q.TeacherID == teacherID && q.Covers(section.Subject, section.Grade) {
			return true
		}
	}
	return false
}

func roomByID(in *scheduleInputs, roomID string) *models.Room {
	for i := range in.Rooms {
		if in.Rooms[i].ID == roomID {
			return &in.Rooms[i]
		}
	}
	return nil
}
