package ranking

import (
	"strings"

	"github.com/hyperjump/jobrecall/internal/models"
)

// Job level codes.
const (
	LevelUnknown = 0
	LevelJunior  = 1
	LevelMid     = 2
	LevelSenior  = 3
)

var levelCodes = map[string]int{
	strings.ToLower(models.LevelInternship): LevelJunior,
	strings.ToLower(models.LevelEntry):      LevelJunior,
	strings.ToLower(models.LevelJunior):     LevelJunior,
	strings.ToLower(models.LevelMid):        LevelMid,
	strings.ToLower(models.LevelSenior):     LevelSenior,
	strings.ToLower(models.LevelLead):       LevelSenior,
	strings.ToLower(models.LevelPrincipal):  LevelSenior,
	strings.ToLower(models.LevelStaff):      LevelSenior,
	strings.ToLower(models.LevelManager):    LevelSenior,
	strings.ToLower(models.LevelDirector):   LevelSenior,
	strings.ToLower(models.LevelExecutive):  LevelSenior,
}

// JobLevelCode maps a job's level set to a seniority code. The highest level
// wins; unknown levels are ignored.
func JobLevelCode(levels []string) int {
	code := LevelUnknown
	for _, l := range levels {
		if c := levelCodes[strings.ToLower(strings.TrimSpace(l))]; c > code {
			code = c
		}
	}
	return code
}
