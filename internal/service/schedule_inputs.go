package service

import (
	"sort"
	"time"

	"github.com/andino-edu/horario-api/internal/models"
)

// scheduleInputs is the immutable snapshot a run solves against. It is built
// once by the orchestrator; the solver never reloads or mutates it, and the
// fixed Now keeps every derived timestamp reproducible.
type scheduleInputs struct {
	SchoolYear string
	Week       int
	Now        time.Time

	Config          *models.ScheduleConfiguration
	Teachers        []models.Teacher
	Sections        []models.ClassSection
	Rooms           []models.Room
	Qualifications  []models.TeacherSubjectQualification
	Requirements    []models.ClassRequirement
	HardConstraints []models.HardConstraint
	SoftConstraints []models.SoftConstraint
	Students        []models.Student

	// Leveled-English routing for the flagged upper grades.
	LeveledGrades   map[string]bool
	EnglishTeachers map[string]string // level -> teacher id
	EnglishRooms    map[string]string // level -> room id
}

// validate runs structural checks over every loaded record. The first broken
// record aborts the run as a data-integrity failure.
func (in *scheduleInputs) validate() error {
	if err := in.Config.Validate(); err != nil {
		return err
	}
	for _, t := range in.Teachers {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	for _, s := range in.Sections {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	for _, r := range in.Rooms {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	for _, q := range in.Qualifications {
		if err := q.Validate(); err != nil {
			return err
		}
	}
	for _, r := range in.Requirements {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	for _, c := range in.HardConstraints {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	for _, c := range in.SoftConstraints {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	for _, s := range in.Students {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// requirementFor returns the first requirement declared for the class, if any.
func (in *scheduleInputs) requirementFor(classID string) *models.ClassRequirement {
	for i := range in.Requirements {
		if in.Requirements[i].ClassID == classID {
			return &in.Requirements[i]
		}
	}
	return nil
}

// leveledEnglish reports whether the section routes through the per-level
// English assignments.
func (in *scheduleInputs) leveledEnglish(section *models.ClassSection) bool {
	return section.IsEnglishPrimary && in.LeveledGrades[section.Grade]
}

// englishLevelOf resolves the proficiency level of a leveled section: the
// explicit designation wins; otherwise the dominant level among enrolled
// students, ties broken in BASIC < LOWER < UPPER order for determinism.
func (in *scheduleInputs) englishLevelOf(section *models.ClassSection) string {
	if section.EnglishLevel != nil {
		return *section.EnglishLevel
	}

	byStudent := make(map[string]string, len(in.Students))
	for _, s := range in.Students {
		if s.EnglishLevel != nil {
			byStudent[s.ID] = *s.EnglishLevel
		}
	}

	counts := map[string]int{}
	for _, id := range section.StudentIDs {
		if level, ok := byStudent[id]; ok {
			counts[level]++
		}
	}

	best := ""
	for _, level := range []string{models.EnglishLevelBasic, models.EnglishLevelLower, models.EnglishLevelUpper} {
		if counts[level] > 0 && (best == "" || counts[level] > counts[best]) {
			best = level
		}
	}
	return best
}

// lastBlockIndex returns the highest block index of the grid.
func (in *scheduleInputs) lastBlockIndex() int {
	last := 0
	for _, block := range in.Config.Blocks {
		if block.Index > last {
			last = block.Index
		}
	}
	return last
}

// blockByIndex returns the grid block with the given index.
func (in *scheduleInputs) blockByIndex(index int) *models.TimeBlock {
	for i := range in.Config.Blocks {
		if in.Config.Blocks[i].Index == index {
			return &in.Config.Blocks[i]
		}
	}
	return nil
}

// sortedTeacherIDs returns active teacher ids in ascending order.
func (in *scheduleInputs) sortedTeacherIDs() []string {
	ids := make([]string, 0, len(in.Teachers))
	for _, t := range in.Teachers {
		ids = append(ids, t.ID)
	}
	sort.Strings(ids)
	return ids
}
