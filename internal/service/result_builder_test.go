package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andino-edu/horario-api/internal/models"
)

func TestBuildScheduleEntriesShortensEnglishOnStandardBlock(t *testing.T) {
	in := newSolverInputs(1, 2)
	english := models.ClassSection{ID: "class-eng", Subject: "ENGLISH", Grade: "2", IsEnglishPrimary: true}
	math := models.ClassSection{ID: "class-math", Subject: "MATH", Grade: "2"}
	result := solveResult{Placements: []placement{
		{Section: &english, Day: 1, Block: 1, TeacherID: "teacher-1", RoomID: "room-1"},
		{Section: &math, Day: 1, Block: 2, TeacherID: "teacher-2", RoomID: "room-1"},
	}}

	entries := buildScheduleEntries(in, result, "gen-1", 45)

	require.Len(t, entries, 2)
	assert.Equal(t, "08:00", entries[0].StartTime)
	assert.Equal(t, "08:45", entries[0].EndTime)
	assert.Equal(t, "09:00", entries[1].StartTime)
	assert.Equal(t, "10:00", entries[1].EndTime)
	for _, e := range entries {
		assert.Equal(t, "gen-1", e.GenerationID)
		assert.Equal(t, in.Week, e.Week)
		assert.Equal(t, in.Now, e.CreatedAt)
	}
}

func TestBuildScheduleEntriesKeepsEnglishOnNonStandardBlock(t *testing.T) {
	in := newSolverInputs(1, 1)
	in.Config.Blocks[0].EndTime = "09:30" // 90-minute block, override does not apply
	english := models.ClassSection{ID: "class-eng", Subject: "ENGLISH", Grade: "2", IsEnglishPrimary: true}
	result := solveResult{Placements: []placement{
		{Section: &english, Day: 1, Block: 1, TeacherID: "teacher-1", RoomID: "room-1"},
	}}

	entries := buildScheduleEntries(in, result, "gen-1", 45)

	require.Len(t, entries, 1)
	assert.Equal(t, "09:30", entries[0].EndTime)
}

func TestBuildScheduleEntriesSortedByDayBlockClass(t *testing.T) {
	in := newSolverInputs(2, 2)
	a := models.ClassSection{ID: "class-a", Subject: "MATH", Grade: "1"}
	b := models.ClassSection{ID: "class-b", Subject: "MATH", Grade: "1"}
	result := solveResult{Placements: []placement{
		{Section: &b, Day: 2, Block: 1, TeacherID: "teacher-1", RoomID: "room-1"},
		{Section: &a, Day: 1, Block: 2, TeacherID: "teacher-1", RoomID: "room-1"},
		{Section: &a, Day: 1, Block: 1, TeacherID: "teacher-1", RoomID: "room-1"},
	}}

	entries := buildScheduleEntries(in, result, "gen-1", 45)

	require.Len(t, entries, 3)
	assert.Equal(t, []int{1, 1, 2}, []int{entries[0].Day, entries[1].Day, entries[2].Day})
	assert.Equal(t, []int{1, 2, 1}, []int{entries[0].Block, entries[1].Block, entries[2].Block})
}

func TestBuildStatistics(t *testing.T) {
	a := models.ClassSection{ID: "class-a"}
	b := models.ClassSection{ID: "class-b"}
	result := solveResult{
		Placements: []placement{
			{Section: &a, Day: 1, Block: 1, TeacherID: "teacher-1", RoomID: "room-1"},
			{Section: &b, Day: 1, Block: 2, TeacherID: "teacher-1", RoomID: "room-2"},
		},
		Conflicts: []placementConflict{
			{ClassID: "class-z", Reason: reasonNoEligibleTeacher},
			{ClassID: "class-c", Reason: reasonNoEligibleRoom},
		},
		SoftViolations: 3,
	}

	stats := buildStatistics(result)

	assert.Equal(t, 2, stats.TotalAssignments)
	assert.Equal(t, 1, stats.TeachersAssigned)
	assert.Equal(t, 2, stats.RoomsUsed)
	assert.Equal(t, []string{"class-c", "class-z"}, stats.Conflicts)
	assert.Equal(t, 3, stats.SoftViolations)
}
