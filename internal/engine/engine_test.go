// internal/engine/engine_test.go
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trm-match-engine/internal/common/errors"
	"trm-match-engine/internal/common/logger"
	"trm-match-engine/internal/models"
)

// ==========================
// Test Fakes
// ==========================

type fakeJobs struct {
	jobs    map[string]*models.Job
	listErr error
}

func (f *fakeJobs) GetByID(_ context.Context, id string) (*models.Job, error) {
	return f.jobs[id], nil
}

func (f *fakeJobs) ListActive(_ context.Context) ([]models.Job, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Job
	for _, j := range f.jobs {
		if j.Active {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out, nil
}

type fakeCandidates struct {
	candidates map[string]*models.Candidate
}

func (f *fakeCandidates) GetByID(_ context.Context, id string) (*models.Candidate, error) {
	return f.candidates[id], nil
}

func (f *fakeCandidates) ListActive(_ context.Context, role string) ([]models.Candidate, error) {
	var out []models.Candidate
	for _, c := range f.candidates {
		if c.Active && c.Role == role {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out, nil
}

type fakeScores struct {
	mu        sync.Mutex
	records   map[string]*models.MatchScore
	upsertErr func(*models.MatchScore) error
}

func newFakeScores() *fakeScores {
	return &fakeScores{records: make(map[string]*models.MatchScore)}
}

func pairKey(jobID, candidateID string) string {
	return jobID + "|" + candidateID
}

func (f *fakeScores) Upsert(_ context.Context, score *models.MatchScore) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		if err := f.upsertErr(score); err != nil {
			return err
		}
	}
	key := pairKey(score.JobID, score.CandidateID)
	copied := *score
	if existing, ok := f.records[key]; ok {
		copied.Notifications = existing.Notifications
	}
	f.records[key] = &copied
	return nil
}

func (f *fakeScores) Get(_ context.Context, jobID, candidateID string) (*models.MatchScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.records[pairKey(jobID, candidateID)]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeScores) ranked(filter func(*models.MatchScore) bool, limit int) []models.MatchScore {
	var out []models.MatchScore
	for _, r := range f.records {
		if filter(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].OverallScore != out[k].OverallScore {
			return out[i].OverallScore > out[k].OverallScore
		}
		return out[i].CalculatedAt.After(out[k].CalculatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (f *fakeScores) TopCandidatesForJob(_ context.Context, jobID string, limit, minScore int) ([]models.MatchScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ranked(func(r *models.MatchScore) bool {
		return r.JobID == jobID && r.OverallScore >= minScore
	}, limit), nil
}

func (f *fakeScores) TopJobsForCandidate(_ context.Context, candidateID string, limit, minScore int) ([]models.MatchScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ranked(func(r *models.MatchScore) bool {
		return r.CandidateID == candidateID && r.OverallScore >= minScore
	}, limit), nil
}

func (f *fakeScores) TopMatches(_ context.Context, jobID *string, limit, minScore int) ([]models.MatchScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ranked(func(r *models.MatchScore) bool {
		if jobID != nil && r.JobID != *jobID {
			return false
		}
		return r.OverallScore >= minScore
	}, limit), nil
}

func (f *fakeScores) UnnotifiedPerfectMatches(_ context.Context, jobID *string, kind string) ([]models.MatchScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ranked(func(r *models.MatchScore) bool {
		if !r.IsPerfectMatch || r.HasNotification(kind) {
			return false
		}
		return jobID == nil || r.JobID == *jobID
	}, 0), nil
}

func (f *fakeScores) AppendNotification(_ context.Context, jobID, candidateID string, n models.Notification) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[pairKey(jobID, candidateID)]
	if !ok || r.HasNotification(n.Kind) {
		return false, nil
	}
	r.Notifications = append(r.Notifications, n)
	return true, nil
}

func (f *fakeScores) CleanupExpired(_ context.Context, staleAfter time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cutoff := time.Now().UTC().Add(-staleAfter)
	var deleted int64
	for key, r := range f.records {
		if r.CalculatedAt.Before(cutoff) {
			delete(f.records, key)
			deleted++
		}
	}
	return deleted, nil
}

type sentNotification struct {
	UserID  string
	Kind    string
	Payload map[string]interface{}
}

type fakeSender struct {
	mu      sync.Mutex
	sent    []sentNotification
	failFor map[string]error
}

func newFakeSender() *fakeSender {
	return &fakeSender{failFor: make(map[string]error)}
}

func (f *fakeSender) Send(_ context.Context, userID, kind string, payload map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[userID]; err != nil {
		return err
	}
	f.sent = append(f.sent, sentNotification{UserID: userID, Kind: kind, Payload: payload})
	return nil
}

func (f *fakeSender) sentTo(userID string) []sentNotification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentNotification
	for _, s := range f.sent {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

type fakeNetwork struct {
	downlines map[string][]models.CandidateRef
	err       error
}

func (f *fakeNetwork) Downline(_ context.Context, referrerID string, _ int) ([]models.CandidateRef, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.downlines[referrerID], nil
}

// ==========================
// Test Fixtures
// ==========================

func testJob(id string) *models.Job {
	return &models.Job{
		ID:              id,
		CompanyID:       "company-1",
		Title:           "Backend Engineer",
		Skills:          []string{"sql", "python"},
		ExperienceLevel: models.LevelSenior,
		LocationType:    models.LocationRemote,
		Active:          true,
	}
}

func testCandidate(id string) *models.Candidate {
	return &models.Candidate{
		ID:             id,
		Email:          id + "@example.com",
		Role:           "job_seeker",
		Skills:         []string{"sql", "python", "go"},
		ExperienceText: "8 years of backend work",
		ResumeURL:      "https://cdn.example.com/resume.pdf",
		Education:      "BSc",
		PortfolioURL:   "https://portfolio.example.com",
		LinkedInURL:    "https://linkedin.com/in/x",
		Active:         true,
	}
}

func newTestEngine(t *testing.T, jobs *fakeJobs, candidates *fakeCandidates, scores *fakeScores, sender *fakeSender, network *fakeNetwork, opts Options) *Engine {
	t.Helper()
	eng, err := New(jobs, candidates, scores, sender, network, opts, logger.NewNoOpLogger())
	require.NoError(t, err)
	return eng
}

// ==========================
// Construction
// ==========================

func TestNew_InvalidWeightOverrides(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[models.Factor]float64
	}{
		{"negative weight", map[models.Factor]float64{models.FactorSkills: -1}},
		{"unknown factor", map[models.Factor]float64{models.Factor("vibes"): 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&fakeJobs{}, &fakeCandidates{}, newFakeScores(), newFakeSender(), &fakeNetwork{},
				Options{WeightOverrides: tt.overrides}, logger.NewNoOpLogger())

			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeInvalidWeights, errors.CodeOf(err))
		})
	}
}

func TestNew_AppliesDefaults(t *testing.T) {
	eng := newTestEngine(t, &fakeJobs{}, &fakeCandidates{}, newFakeScores(), newFakeSender(), &fakeNetwork{}, Options{})

	assert.Equal(t, DefaultBatchSize, eng.batchSize)
	assert.Equal(t, DefaultPerfectMatchThreshold, eng.perfectThreshold)
	assert.Equal(t, DefaultSuggestionMinScore, eng.suggestionMinScore)
	assert.Equal(t, models.DefaultWeights(), eng.Weights())
}

// ==========================
// Single Calculation
// ==========================

func TestCalculateMatchScore_PerfectMatch(t *testing.T) {
	jobs := &fakeJobs{jobs: map[string]*models.Job{"job-1": testJob("job-1")}}
	candidates := &fakeCandidates{candidates: map[string]*models.Candidate{"cand-1": testCandidate("cand-1")}}
	scores := newFakeScores()
	eng := newTestEngine(t, jobs, candidates, scores, newFakeSender(), &fakeNetwork{}, Options{})

	score, err := eng.CalculateMatchScore(context.Background(), "job-1", "cand-1")
	require.NoError(t, err)

	// skills 100 (full match), experience 100 (8y senior), location 100
	// (remote), salary 100 (no range), quality 70, network 50:
	// 30 + 25 + 15 + 15 + 7 + 2.5 = 94.5 → 95
	assert.Equal(t, 95, score.OverallScore)
	assert.True(t, score.IsPerfectMatch)
	assert.Equal(t, models.FactorScores{
		Skills:           100,
		Experience:       100,
		Location:         100,
		Salary:           100,
		CandidateQuality: 70,
		ReferrerNetwork:  50,
	}, score.Factors)
	assert.Equal(t, []string{"sql", "python"}, score.MatchedSkills)
	assert.Empty(t, score.MissingSkills)
	assert.Equal(t, 100.0, score.SkillMatchPercentage)
	assert.Equal(t, "company-1", score.CompanyID)
	assert.Equal(t, AlgorithmVersion, score.AlgorithmVersion)
	assert.Equal(t, "Backend Engineer", score.JobSnapshot.Title)
	assert.Equal(t, 100, score.QualitySnapshot.ProfileCompleteness)
	assert.WithinDuration(t, time.Now().UTC(), score.CalculatedAt, time.Minute)

	stored, err := scores.Get(context.Background(), "job-1", "cand-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, score.OverallScore, stored.OverallScore)
}

func TestCalculateMatchScore_NotFound(t *testing.T) {
	jobs := &fakeJobs{jobs: map[string]*models.Job{"job-1": testJob("job-1")}}
	candidates := &fakeCandidates{candidates: map[string]*models.Candidate{"cand-1": testCandidate("cand-1")}}
	eng := newTestEngine(t, jobs, candidates, newFakeScores(), newFakeSender(), &fakeNetwork{}, Options{})

	_, err := eng.CalculateMatchScore(context.Background(), "missing", "cand-1")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, errors.ErrCodeJobNotFound, errors.CodeOf(err))

	_, err = eng.CalculateMatchScore(context.Background(), "job-1", "missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, errors.ErrCodeCandidateNotFound, errors.CodeOf(err))
}

func TestCalculateMatchScore_PersistFailure(t *testing.T) {
	jobs := &fakeJobs{jobs: map[string]*models.Job{"job-1": testJob("job-1")}}
	candidates := &fakeCandidates{candidates: map[string]*models.Candidate{"cand-1": testCandidate("cand-1")}}
	scores := newFakeScores()
	scores.upsertErr = func(*models.MatchScore) error { return fmt.Errorf("connection reset") }
	eng := newTestEngine(t, jobs, candidates, scores, newFakeSender(), &fakeNetwork{}, Options{})

	_, err := eng.CalculateMatchScore(context.Background(), "job-1", "cand-1")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeScorePersistFailed, errors.CodeOf(err))
	assert.True(t, errors.IsRetryable(err))
}

func TestCalculateMatchScore_RecalculationPreservesLedger(t *testing.T) {
	jobs := &fakeJobs{jobs: map[string]*models.Job{"job-1": testJob("job-1")}}
	candidates := &fakeCandidates{candidates: map[string]*models.Candidate{"cand-1": testCandidate("cand-1")}}
	scores := newFakeScores()
	eng := newTestEngine(t, jobs, candidates, scores, newFakeSender(), &fakeNetwork{}, Options{})

	_, err := eng.CalculateMatchScore(context.Background(), "job-1", "cand-1")
	require.NoError(t, err)

	appended, err := scores.AppendNotification(context.Background(), "job-1", "cand-1", models.Notification{
		Kind:   models.KindInstantMatchAlert,
		SentAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.True(t, appended)

	_, err = eng.CalculateMatchScore(context.Background(), "job-1", "cand-1")
	require.NoError(t, err)

	stored, err := scores.Get(context.Background(), "job-1", "cand-1")
	require.NoError(t, err)
	assert.True(t, stored.HasNotification(models.KindInstantMatchAlert))
}

// ==========================
// Ranked Queries
// ==========================

func TestGetTopCandidatesForJob(t *testing.T) {
	jobs := &fakeJobs{jobs: map[string]*models.Job{"job-1": testJob("job-1")}}

	strong := testCandidate("cand-strong")
	weak := testCandidate("cand-weak")
	weak.Skills = []string{"cobol"}
	weak.ExperienceText = "1 year"
	candidates := &fakeCandidates{candidates: map[string]*models.Candidate{
		"cand-strong": strong,
		"cand-weak":   weak,
	}}

	scores := newFakeScores()
	eng := newTestEngine(t, jobs, candidates, scores, newFakeSender(), &fakeNetwork{}, Options{})

	ranked, err := eng.GetTopCandidatesForJob(context.Background(), "job-1", 10, 0, true)
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	assert.Equal(t, "cand-strong", ranked[0].CandidateID)
	assert.Equal(t, "cand-weak", ranked[1].CandidateID)
	assert.Greater(t, ranked[0].Score.OverallScore, ranked[1].Score.OverallScore)

	// minScore filters the weak candidate out.
	ranked, err = eng.GetTopCandidatesForJob(context.Background(), "job-1", 10, 90, false)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "cand-strong", ranked[0].CandidateID)
}

func TestGetTopJobsForCandidate(t *testing.T) {
	remote := testJob("job-remote")
	onsite := testJob("job-onsite")
	onsite.LocationType = models.LocationOnsite
	jobs := &fakeJobs{jobs: map[string]*models.Job{"job-remote": remote, "job-onsite": onsite}}
	candidates := &fakeCandidates{candidates: map[string]*models.Candidate{"cand-1": testCandidate("cand-1")}}

	eng := newTestEngine(t, jobs, candidates, newFakeScores(), newFakeSender(), &fakeNetwork{}, Options{})

	ranked, err := eng.GetTopJobsForCandidate(context.Background(), "cand-1", 10, 0, true)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "job-remote", ranked[0].JobID)
	assert.Equal(t, "job-onsite", ranked[1].JobID)
}

// ==========================
// Cleanup
// ==========================

func TestCleanupExpired(t *testing.T) {
	jobs := &fakeJobs{jobs: map[string]*models.Job{"job-1": testJob("job-1")}}
	candidates := &fakeCandidates{candidates: map[string]*models.Candidate{"cand-1": testCandidate("cand-1")}}
	scores := newFakeScores()
	eng := newTestEngine(t, jobs, candidates, scores, newFakeSender(), &fakeNetwork{},
		Options{StaleAfter: 24 * time.Hour})

	_, err := eng.CalculateMatchScore(context.Background(), "job-1", "cand-1")
	require.NoError(t, err)

	stale := &models.MatchScore{
		JobID:        "job-old",
		CandidateID:  "cand-old",
		CalculatedAt: time.Now().UTC().Add(-48 * time.Hour),
	}
	require.NoError(t, scores.Upsert(context.Background(), stale))

	deleted, err := eng.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	kept, err := scores.Get(context.Background(), "job-1", "cand-1")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}
