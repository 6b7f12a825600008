package search

import (
	"strings"
	"time"

	"github.com/hyperjump/jobrecall/internal/extract"
	"github.com/hyperjump/jobrecall/internal/models"
	"github.com/hyperjump/jobrecall/internal/ranking"
	"github.com/hyperjump/jobrecall/internal/recall"
	"github.com/hyperjump/jobrecall/pkg/utils"
)

// ProcessRequest normalises a validated request into recall features and
// ranking inputs. Desired positions are extended with the "/"-separated parts
// of the most recent job title.
func ProcessRequest(req *models.RecommendRequest, now time.Time) (recall.Query, *ranking.Candidate) {
	var q recall.Query
	cand := &ranking.Candidate{}

	var positions []string
	if dp := req.DesiredPosition; dp != nil {
		positions = append(positions, dp.Positions...)
		cand.Cities = utils.DedupeFold(dp.City)
		cand.JobType = strings.TrimSpace(dp.JobType)
	}

	if r := req.Resume; r != nil {
		q.Skills = utils.DedupeFold(r.Skills)
		if recent := extract.MostRecentExperience(r.WorkExperiences); recent != nil {
			positions = append(positions, strings.Split(recent.Job, "/")...)
			q.Experience = strings.TrimSpace(recent.Description)
		}
		cand.Years = extract.CandidateYears(r.WorkExperiences, now)
	}
	q.Positions = utils.DedupeFold(positions)
	return q, cand
}

// emptyQuery reports whether no recall signal has input.
func emptyQuery(q recall.Query) bool {
	return len(q.Skills) == 0 && len(q.Positions) == 0 && q.Experience == ""
}
