package service

import (
	"sort"

	"github.com/andino-edu/horario-api/internal/models"
)

// Conflict reasons reported for unplaceable classes.
const (
	reasonNoEligibleTeacher = "no_eligible_teacher"
	reasonNoEligibleRoom    = "no_eligible_room"
)

// placement is one committed (class, day, block) -> (teacher, room) binding.
type placement struct {
	Section   *models.ClassSection
	Day       int
	Block     int
	TeacherID string
	RoomID    string
}

// placementConflict records a class that could not be placed and why.
type placementConflict struct {
	ClassID string
	Reason  string
}

// solveResult is the solver output; a non-empty conflict list never aborts
// the run, it only marks the schedule as infeasible.
type solveResult struct {
	Placements     []placement
	Conflicts      []placementConflict
	SoftViolations int
}

// sectionCandidates holds the structurally eligible dimensions of one class,
// computed before any booking or blackout checks.
type sectionCandidates struct {
	section         *models.ClassSection
	teacherIDs      []string
	roomIDs         []string
	teacherOverride bool
	roomOverride    bool
}

func (c sectionCandidates) tightness() int {
	return len(c.teacherIDs) * len(c.roomIDs)
}

// solveTimetable greedily places every class in a fixed deterministic order:
// tightest structural candidate set first, then grade, subject, and class id.
// Committed placements are never revisited; an unplaceable class degrades the
// run to a partial schedule instead of failing it.
func solveTimetable(in *scheduleInputs) solveResult {
	result := solveResult{}
	occ := newOccupancy()

	candidates := make([]sectionCandidates, 0, len(in.Sections))
	for i := range in.Sections {
		candidates = append(candidates, structuralCandidates(in, &in.Sections[i]))
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.tightness() != b.tightness() {
			return a.tightness() < b.tightness()
		}
		if a.section.Grade != b.section.Grade {
			return a.section.Grade < b.section.Grade
		}
		if a.section.Subject != b.section.Subject {
			return a.section.Subject < b.section.Subject
		}
		return a.section.ID < b.section.ID
	})

	for _, cand := range candidates {
		if len(cand.teacherIDs) == 0 {
			result.Conflicts = append(result.Conflicts, placementConflict{ClassID: cand.section.ID, Reason: reasonNoEligibleTeacher})
			continue
		}
		if len(cand.roomIDs) == 0 {
			result.Conflicts = append(result.Conflicts, placementConflict{ClassID: cand.section.ID, Reason: reasonNoEligibleRoom})
			continue
		}

		best, reason := pickSlot(in, occ, cand)
		if best == nil {
			result.Conflicts = append(result.Conflicts, placementConflict{ClassID: cand.section.ID, Reason: reason})
			continue
		}

		_, violations := softEvaluate(in, occ, *best)
		occ.commit(*best)
		result.SoftViolations += violations
		result.Placements = append(result.Placements, placement{
			Section:   best.section,
			Day:       best.day,
			Block:     best.block,
			TeacherID: best.teacherID,
			RoomID:    best.roomID,
		})
	}

	return result
}

// pickSlot scans every (day, block, teacher, room) tuple for the class and
// returns the hard-feasible one with the lowest soft penalty; ties break by
// teacher id, room id, day, then block index. When nothing is feasible the
// most frequent failing check is reported.
func pickSlot(in *scheduleInputs, occ *occupancy, cand sectionCandidates) (*candidateSlot, string) {
	blockIndexes := make([]int, 0, len(in.Config.Blocks))
	for _, block := range in.Config.Blocks {
		blockIndexes = append(blockIndexes, block.Index)
	}
	sort.Ints(blockIndexes)

	var best *candidateSlot
	var bestPenalty float64
	failures := map[string]int{}

	for day := 1; day <= in.Config.DaysPerWeek; day++ {
		for _, block := range blockIndexes {
			for _, teacherID := range cand.teacherIDs {
				for _, roomID := range cand.roomIDs {
					slot := candidateSlot{
						section:         cand.section,
						day:             day,
						block:           block,
						teacherID:       teacherID,
						roomID:          roomID,
						teacherOverride: cand.teacherOverride,
						roomOverride:    cand.roomOverride,
					}
					ok, check := hardFeasible(in, occ, slot)
					if !ok {
						failures[check]++
						continue
					}
					penalty, _ := softEvaluate(in, occ, slot)
					if best == nil || lessCandidate(penalty, slot, bestPenalty, *best) {
						chosen := slot
						best = &chosen
						bestPenalty = penalty
					}
				}
			}
		}
	}

	if best == nil {
		return nil, dominantFailure(failures)
	}
	return best, ""
}

func lessCandidate(penalty float64, slot candidateSlot, bestPenalty float64, best candidateSlot) bool {
	if penalty != bestPenalty {
		return penalty < bestPenalty
	}
	if slot.teacherID != best.teacherID {
		return slot.teacherID < best.teacherID
	}
	if slot.roomID != best.roomID {
		return slot.roomID < best.roomID
	}
	if slot.day != best.day {
		return slot.day < best.day
	}
	return slot.block < best.block
}

// structuralCandidates filters teachers by qualification and rooms by
// requirement before any booking checks, keeping the search space small.
// Leveled-English overrides collapse a dimension to the assigned teacher or
// room; a pinned teacher or room on the section pins that dimension.
func structuralCandidates(in *scheduleInputs, section *models.ClassSection) sectionCandidates {
	cand := sectionCandidates{section: section}

	level := ""
	if in.leveledEnglish(section) {
		level = in.englishLevelOf(section)
	}

	if level != "" {
		if teacherID, ok := in.EnglishTeachers[level]; ok {
			cand.teacherIDs = []string{teacherID}
			cand.teacherOverride = true
		}
		if roomID, ok := in.EnglishRooms[level]; ok {
			if roomByID(in, roomID) != nil {
				cand.roomIDs = []string{roomID}
				cand.roomOverride = true
			}
		}
	}

	if len(cand.teacherIDs) == 0 {
		if section.TeacherID != nil {
			cand.teacherIDs = []string{*section.TeacherID}
		} else {
			for _, teacherID := range in.sortedTeacherIDs() {
				if teacherQualified(in, teacherID, section) {
					cand.teacherIDs = append(cand.teacherIDs, teacherID)
				}
			}
		}
	}

	if len(cand.roomIDs) == 0 {
		if section.RoomID != nil {
			if roomByID(in, *section.RoomID) != nil {
				cand.roomIDs = []string{*section.RoomID}
			}
		} else {
			req := in.requirementFor(section.ID)
			for i := range in.Rooms {
				if req == nil || req.AdmitsRoom(in.Rooms[i]) {
					cand.roomIDs = append(cand.roomIDs, in.Rooms[i].ID)
				}
			}
			sort.Strings(cand.roomIDs)
		}
	}

	return cand
}

func dominantFailure(failures map[string]int) string {
	ordered := []string{checkTeacherBooked, checkRoomBooked, checkQualification, checkRoomSuitable, checkHardConstraint}
	best := ""
	bestCount := 0
	for _, check := range ordered {
		if failures[check] > bestCount {
			best = check
			bestCount = failures[check]
		}
	}
	if best == "" {
		return reasonNoEligibleTeacher
	}
	return best
}
