package ranking

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/jobrecall/internal/config"
	"github.com/hyperjump/jobrecall/internal/models"
	"github.com/hyperjump/jobrecall/internal/recall"
)

type fakeResponsibilities struct {
	items map[string]string
	err   error
	calls int
}

func (f *fakeResponsibilities) ResponsibilityItems(ctx context.Context, ids []string) (map[string]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]string)
	for _, id := range ids {
		if v, ok := f.items[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func fusionConfig() config.FusionConfig {
	return config.Default().Fusion
}

func job(id string, experience ...string) *models.JobRecord {
	j := &models.JobRecord{ID: id, Title: id}
	for i, e := range experience {
		j.Qualification.Required = append(j.Qualification.Required, models.QualificationItem{
			ID: fmt.Sprintf("%s-q%d", id, i), Category: models.CategoryExperience, Item: e,
		})
	}
	return j
}

func TestRank_titleBreaksSkillTie(t *testing.T) {
	r := NewRanker(fusionConfig(), nil)
	jobs := []*models.JobRecord{job("a"), job("b")}
	hits := []recall.Hit{
		{JobID: "a", Signal: recall.SignalSkill, Score: 1.0},
		{JobID: "b", Signal: recall.SignalSkill, Score: 1.0},
		{JobID: "b", Signal: recall.SignalTitle, Score: 0.8},
	}
	results, err := r.Rank(context.Background(), &Candidate{}, jobs, hits, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].JobID != "b" {
		t.Fatalf("title-matching job should rank first: %+v", results)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("expected strict ordering, got %v and %v", results[0].Score, results[1].Score)
	}
	// a: 0.25*1 (skill) + 0.25*1 (yoe) = 0.5; b adds 0.25*0.7 title
	if results[1].Score != 0.5 || results[0].Score != 0.675 {
		t.Errorf("scores = %v, %v", results[0].Score, results[1].Score)
	}
}

func TestRank_breakdownPresence(t *testing.T) {
	r := NewRanker(fusionConfig(), nil)
	hits := []recall.Hit{{JobID: "a", Signal: recall.SignalTitle, Score: 0.9}}
	results, err := r.Rank(context.Background(), &Candidate{}, []*models.JobRecord{job("a")}, hits, 10)
	if err != nil {
		t.Fatal(err)
	}
	d := results[0].Detail
	if d.Skill != nil || d.Experience != nil || d.Function != nil {
		t.Errorf("absent signals must stay nil: %+v", d)
	}
	if d.Title == nil || *d.Title != 0.9 {
		t.Errorf("title = %v", d.Title)
	}
	if d.Location != nil || d.JobType != nil {
		t.Error("no preference should record no location or job type fit")
	}
	if d.YoE == nil || *d.YoE != 1 {
		t.Errorf("yoe = %v", d.YoE)
	}
}

func TestRank_onlyRecalledJobs(t *testing.T) {
	r := NewRanker(fusionConfig(), nil)
	jobs := []*models.JobRecord{job("a"), job("orphan")}
	hits := []recall.Hit{{JobID: "a", Signal: recall.SignalFunction, Score: 1}}
	results, _ := r.Rank(context.Background(), &Candidate{}, jobs, hits, 10)
	if len(results) != 1 || results[0].JobID != "a" {
		t.Errorf("results = %+v", results)
	}
}

func TestRank_multipliersAndFloor(t *testing.T) {
	r := NewRanker(fusionConfig(), nil)
	berlin := job("berlin")
	berlin.WorkLocations = []string{"Berlin, Germany"}
	berlin.JobType = []string{models.TypeFullTime}
	remote := job("remote")
	remote.WorkLocations = []string{"Remote"}
	remote.JobType = []string{models.TypeContract}

	hits := []recall.Hit{
		{JobID: "berlin", Signal: recall.SignalSkill, Score: 1},
		{JobID: "remote", Signal: recall.SignalSkill, Score: 1},
	}
	cand := &Candidate{Cities: []string{"berlin"}, JobType: "full time"}
	results, err := r.Rank(context.Background(), cand, []*models.JobRecord{berlin, remote}, hits, 10)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].JobID != "berlin" || results[0].Score != 0.5 {
		t.Errorf("berlin = %+v", results[0])
	}
	if results[1].JobID != "remote" || results[1].Score != 0.05 {
		t.Errorf("mismatched job should sit at the floor: %+v", results[1])
	}
	if *results[1].Detail.Location != 0 || *results[1].Detail.JobType != 0 {
		t.Errorf("fits should be recorded as 0: %+v", results[1].Detail)
	}
}

func TestRank_zeroFloor(t *testing.T) {
	cfg := fusionConfig()
	floor := 0.0
	cfg.ScoreFloor = &floor
	r := NewRanker(cfg, nil)
	paris := job("paris")
	paris.WorkLocations = []string{"Paris"}
	hits := []recall.Hit{{JobID: "paris", Signal: recall.SignalSkill, Score: 1}}
	results, err := r.Rank(context.Background(), &Candidate{Cities: []string{"Berlin"}},
		[]*models.JobRecord{paris}, hits, 10)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Score != 0 {
		t.Errorf("score = %v, want 0 with a zero floor", results[0].Score)
	}
}

func TestRank_yoeShortfall(t *testing.T) {
	r := NewRanker(fusionConfig(), nil)
	hits := []recall.Hit{{JobID: "a", Signal: recall.SignalSkill, Score: 1}}
	results, _ := r.Rank(context.Background(), &Candidate{Years: 2},
		[]*models.JobRecord{job("a", "5+ years of experience with Go")}, hits, 10)
	if got := *results[0].Detail.YoE; got != 0.7 {
		t.Errorf("yoe = %v, want 0.7", got)
	}
}

func TestRank_reasons(t *testing.T) {
	lookup := &fakeResponsibilities{items: map[string]string{"r1": "Design APIs"}}
	r := NewRanker(fusionConfig(), lookup)
	hits := []recall.Hit{
		{JobID: "a", Signal: recall.SignalSkill, Score: 0.75, MatchedIDs: []string{"s1", "s2", "s3"}},
		{JobID: "a", Signal: recall.SignalExperience, Score: 0.5, MatchedIDs: []string{"r1", "r-missing"}},
		{JobID: "b", Signal: recall.SignalSkill, Score: 0.5},
	}
	results, err := r.Rank(context.Background(), &Candidate{}, []*models.JobRecord{job("a"), job("b")}, hits, 10)
	if err != nil {
		t.Fatal(err)
	}
	wantA := []string{"Core skills match: 75% of the job's skills", "Relevant experience: Design APIs"}
	if !reflect.DeepEqual(results[0].Detail.Reason, wantA) {
		t.Errorf("reasons a = %v", results[0].Detail.Reason)
	}
	wantB := []string{"Partial skills match: 50% of the job's skills"}
	if !reflect.DeepEqual(results[1].Detail.Reason, wantB) {
		t.Errorf("reasons b = %v", results[1].Detail.Reason)
	}
	if lookup.calls != 1 {
		t.Errorf("responsibility text should be fetched in one batch, got %d calls", lookup.calls)
	}
}

func TestRank_reasonLookupFailureKeepsResults(t *testing.T) {
	lookup := &fakeResponsibilities{err: errors.New("graph down")}
	r := NewRanker(fusionConfig(), lookup)
	hits := []recall.Hit{{JobID: "a", Signal: recall.SignalExperience, Score: 1, MatchedIDs: []string{"r1"}}}
	results, err := r.Rank(context.Background(), &Candidate{}, []*models.JobRecord{job("a")}, hits, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || len(results[0].Detail.Reason) != 0 {
		t.Errorf("results = %+v", results)
	}
}

type panicMultiplier struct{}

func (panicMultiplier) Name() string { return "panic" }
func (panicMultiplier) Factor(ctx *ScoringContext) (float64, bool) {
	if ctx.Job.ID == "bad" {
		panic("boom")
	}
	return 1, false
}
func (panicMultiplier) Record(b *models.ScoreBreakdown, factor float64) {}

func TestRank_scoringFailureUsesFloor(t *testing.T) {
	r := NewRanker(fusionConfig(), nil, WithMultipliers([]Multiplier{panicMultiplier{}}))
	hits := []recall.Hit{
		{JobID: "bad", Signal: recall.SignalSkill, Score: 1},
		{JobID: "good", Signal: recall.SignalSkill, Score: 1},
	}
	results, err := r.Rank(context.Background(), &Candidate{}, []*models.JobRecord{job("bad"), job("good")}, hits, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("failed job should be kept: %+v", results)
	}
	if results[1].JobID != "bad" || results[1].Score != 0.05 {
		t.Errorf("bad job = %+v", results[1])
	}
}

func TestRank_topKAndDeterminism(t *testing.T) {
	r := NewRanker(fusionConfig(), nil)
	var jobs []*models.JobRecord
	var hits []recall.Hit
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("job-%02d", i)
		jobs = append(jobs, job(id))
		hits = append(hits, recall.Hit{JobID: id, Signal: recall.SignalSkill, Score: float64(i%4) / 4})
	}
	first, _ := r.Rank(context.Background(), &Candidate{}, jobs, hits, 5)
	second, _ := r.Rank(context.Background(), &Candidate{}, jobs, hits, 5)
	if len(first) != 5 {
		t.Fatalf("len = %d, want 5", len(first))
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("ranking should be deterministic")
	}
	for i := 1; i < len(first); i++ {
		a, b := first[i-1], first[i]
		if a.Score < b.Score || (a.Score == b.Score && a.JobID > b.JobID) {
			t.Errorf("bad order at %d: %+v then %+v", i, a, b)
		}
	}
}

func TestRank_scoreBounds(t *testing.T) {
	cfg := fusionConfig()
	cfg.SkillWeight = 1
	cfg.TitleWeight = 1
	r := NewRanker(cfg, nil)
	hits := []recall.Hit{
		{JobID: "a", Signal: recall.SignalSkill, Score: 1},
		{JobID: "a", Signal: recall.SignalTitle, Score: 1},
	}
	results, _ := r.Rank(context.Background(), &Candidate{}, []*models.JobRecord{job("a")}, hits, 10)
	if results[0].Score != 1 {
		t.Errorf("score should clamp to 1, got %v", results[0].Score)
	}
}

func TestRank_jobLevel(t *testing.T) {
	r := NewRanker(fusionConfig(), nil)
	j := job("a")
	j.JobLevel = []string{"Senior"}
	results, _ := r.Rank(context.Background(), &Candidate{},
		[]*models.JobRecord{j}, []recall.Hit{{JobID: "a", Signal: recall.SignalTitle, Score: 1}}, 10)
	if results[0].Detail.JobLevel == nil || *results[0].Detail.JobLevel != LevelSenior {
		t.Errorf("job level = %v", results[0].Detail.JobLevel)
	}
}

func TestSkillReason(t *testing.T) {
	r := NewRanker(fusionConfig(), nil)
	if got := r.skillReason(nil); got != "" {
		t.Errorf("nil skill reason = %q", got)
	}
	half := 0.5
	if got := r.skillReason(&half); !strings.HasPrefix(got, "Partial") {
		t.Errorf("0.5 is not core: %q", got)
	}
}

func BenchmarkRank(b *testing.B) {
	r := NewRanker(fusionConfig(), &fakeResponsibilities{items: map[string]string{"r": "x"}})
	var jobs []*models.JobRecord
	var hits []recall.Hit
	for i := 0; i < 1000; i++ {
		id := fmt.Sprintf("job-%04d", i)
		jobs = append(jobs, job(id, "3-5 years of experience"))
		hits = append(hits,
			recall.Hit{JobID: id, Signal: recall.SignalSkill, Score: float64(i%10) / 10},
			recall.Hit{JobID: id, Signal: recall.SignalExperience, Score: 0.5, MatchedIDs: []string{"r"}})
	}
	cand := &Candidate{Years: 4, Cities: []string{"Berlin"}}
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.Rank(ctx, cand, jobs, hits, 50); err != nil {
			b.Fatal(err)
		}
	}
}
