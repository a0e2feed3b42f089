package service

import (
	"sort"
	"time"

	"github.com/andino-edu/horario-api/internal/models"
)

const defaultEnglishSessionMinutes = 45

// buildScheduleEntries maps committed placements to output entries, applying
// the English duration override: an English class sitting on a 60-minute
// block is shortened to the configured session length; every other entry
// keeps the block's own interval.
func buildScheduleEntries(in *scheduleInputs, result solveResult, generationID string, englishMinutes int) []models.ScheduleEntry {
	if englishMinutes <= 0 {
		englishMinutes = defaultEnglishSessionMinutes
	}

	entries := make([]models.ScheduleEntry, 0, len(result.Placements))
	for _, p := range result.Placements {
		block := in.blockByIndex(p.Block)
		if block == nil {
			continue
		}
		endTime := block.EndTime
		if p.Section.IsEnglishPrimary && block.DurationMinutes() == 60 {
			endTime = addMinutes(block.StartTime, englishMinutes)
		}
		entries = append(entries, models.ScheduleEntry{
			GenerationID: generationID,
			ClassID:      p.Section.ID,
			TeacherID:    p.TeacherID,
			RoomID:       p.RoomID,
			Grade:        p.Section.Grade,
			Week:         in.Week,
			Day:          p.Day,
			Block:        p.Block,
			StartTime:    block.StartTime,
			EndTime:      endTime,
			CreatedAt:    in.Now,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Day != entries[j].Day {
			return entries[i].Day < entries[j].Day
		}
		if entries[i].Block != entries[j].Block {
			return entries[i].Block < entries[j].Block
		}
		return entries[i].ClassID < entries[j].ClassID
	})
	return entries
}

// buildStatistics aggregates run figures; ExecutionMs is stamped by the
// orchestrator once the wall clock stops.
func buildStatistics(result solveResult) models.ScheduleStatistics {
	teachers := map[string]struct{}{}
	rooms := map[string]struct{}{}
	for _, p := range result.Placements {
		teachers[p.TeacherID] = struct{}{}
		rooms[p.RoomID] = struct{}{}
	}

	conflicts := make([]string, 0, len(result.Conflicts))
	for _, c := range result.Conflicts {
		conflicts = append(conflicts, c.ClassID)
	}
	sort.Strings(conflicts)

	return models.ScheduleStatistics{
		TotalAssignments: len(result.Placements),
		TeachersAssigned: len(teachers),
		RoomsUsed:        len(rooms),
		Conflicts:        conflicts,
		SoftViolations:   result.SoftViolations,
	}
}

func addMinutes(clock string, minutes int) string {
	start, err := models.ParseClock(clock)
	if err != nil {
		return clock
	}
	return start.Add(time.Duration(minutes) * time.Minute).Format("15:04")
}
