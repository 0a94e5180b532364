// internal/store/matchscores_test.go
package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trm-match-engine/internal/common/logger"
	"trm-match-engine/internal/models"
)

func testScore() *models.MatchScore {
	return &models.MatchScore{
		JobID:          "job-1",
		CandidateID:    "cand-1",
		CompanyID:      "company-1",
		OverallScore:   95,
		IsPerfectMatch: true,
		Factors: models.FactorScores{
			Skills:           100,
			Experience:       100,
			Location:         100,
			Salary:           100,
			CandidateQuality: 70,
			ReferrerNetwork:  50,
		},
		Weights:              models.DefaultWeights(),
		MatchedSkills:        []string{"sql", "python"},
		MissingSkills:        nil,
		SkillMatchPercentage: 100,
		AlgorithmVersion:     "1.3.0",
		CalculatedAt:         time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func matchScoreRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"job_id", "candidate_id", "company_id",
		"overall_score", "is_perfect_match",
		"skills_score", "experience_score", "location_score", "salary_score",
		"quality_score", "network_score",
		"weights", "matched_skills", "missing_skills", "skill_match_percentage",
		"quality_snapshot", "job_snapshot",
		"algorithm_version", "calculated_at", "notifications",
	})
}

func addScoreRow(rows *sqlmock.Rows, jobID, candidateID string, overall int, notifications string) *sqlmock.Rows {
	return rows.AddRow(
		jobID, candidateID, "company-1",
		overall, overall >= 90,
		100, 100, 100, 100, 70, 50,
		[]byte(`{"skills":0.3,"experience":0.25,"location":0.15,"salary":0.15,"candidateQuality":0.1,"referrerNetwork":0.05}`),
		"{sql,python}", "{}", 100.0,
		[]byte(`{"profileCompleteness":100,"pastSuccessRate":50,"totalReferrals":0,"successfulHires":0,"referrerTier":"","networkSize":0}`),
		[]byte(`{"title":"Backend Engineer","skills":["sql","python"],"experienceLevel":"senior","locationType":"remote","salary":{"min":0,"max":0}}`),
		"1.3.0", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		[]byte(notifications),
	)
}

func TestMatchScores_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO match_scores`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewMatchScores(db, logger.NewNoOpLogger())
	err = s.Upsert(context.Background(), testScore())

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchScores_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := addScoreRow(matchScoreRows(), "job-1", "cand-1", 95,
		`[{"kind":"instant_match_alert","sentAt":"2026-08-01T12:05:00Z","recipient":"cand-1"}]`)
	mock.ExpectQuery(`WHERE job_id = \$1 AND candidate_id = \$2`).
		WithArgs("job-1", "cand-1").
		WillReturnRows(rows)

	s := NewMatchScores(db, logger.NewNoOpLogger())
	score, err := s.Get(context.Background(), "job-1", "cand-1")

	require.NoError(t, err)
	require.NotNil(t, score)
	assert.Equal(t, "job-1", score.JobID)
	assert.Equal(t, 95, score.OverallScore)
	assert.True(t, score.IsPerfectMatch)
	assert.Equal(t, []string{"sql", "python"}, score.MatchedSkills)
	assert.Empty(t, score.MissingSkills)
	assert.InDelta(t, 0.3, score.Weights.Skills, 1e-9)
	assert.Equal(t, "Backend Engineer", score.JobSnapshot.Title)
	assert.True(t, score.HasNotification(models.KindInstantMatchAlert))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchScores_Get_Missing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`WHERE job_id = \$1 AND candidate_id = \$2`).
		WithArgs("job-x", "cand-x").
		WillReturnRows(matchScoreRows())

	s := NewMatchScores(db, logger.NewNoOpLogger())
	score, err := s.Get(context.Background(), "job-x", "cand-x")

	assert.NoError(t, err)
	assert.Nil(t, score)
}

func TestMatchScores_TopCandidatesForJob(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := matchScoreRows()
	addScoreRow(rows, "job-1", "cand-a", 95, `[]`)
	addScoreRow(rows, "job-1", "cand-b", 91, `[]`)
	mock.ExpectQuery(`WHERE job_id = \$1 AND overall_score >= \$2`).
		WithArgs("job-1", 90, 10).
		WillReturnRows(rows)

	s := NewMatchScores(db, logger.NewNoOpLogger())
	scores, err := s.TopCandidatesForJob(context.Background(), "job-1", 10, 90)

	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "cand-a", scores[0].CandidateID)
	assert.Equal(t, "cand-b", scores[1].CandidateID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchScores_UnnotifiedPerfectMatches(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := addScoreRow(matchScoreRows(), "job-1", "cand-a", 95, `[]`)
	mock.ExpectQuery(`WHERE is_perfect_match AND NOT notifications @> \$1::jsonb`).
		WithArgs([]byte(`[{"kind":"instant_match_alert"}]`)).
		WillReturnRows(rows)

	s := NewMatchScores(db, logger.NewNoOpLogger())
	scores, err := s.UnnotifiedPerfectMatches(context.Background(), nil, models.KindInstantMatchAlert)

	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, "cand-a", scores[0].CandidateID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchScores_UnnotifiedPerfectMatches_JobScoped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`WHERE is_perfect_match AND job_id = \$1 AND NOT notifications @> \$2::jsonb`).
		WithArgs("job-1", []byte(`[{"kind":"instant_match_alert"}]`)).
		WillReturnRows(matchScoreRows())

	s := NewMatchScores(db, logger.NewNoOpLogger())
	jobID := "job-1"
	scores, err := s.UnnotifiedPerfectMatches(context.Background(), &jobID, models.KindInstantMatchAlert)

	assert.NoError(t, err)
	assert.Empty(t, scores)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchScores_AppendNotification(t *testing.T) {
	t.Run("appends when kind absent", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`SET notifications = notifications \|\| \$3::jsonb`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		s := NewMatchScores(db, logger.NewNoOpLogger())
		appended, err := s.AppendNotification(context.Background(), "job-1", "cand-1", models.Notification{
			Kind:      models.KindInstantMatchAlert,
			SentAt:    time.Now().UTC(),
			Recipient: "cand-1",
		})

		require.NoError(t, err)
		assert.True(t, appended)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports false when kind already present", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE match_scores`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		s := NewMatchScores(db, logger.NewNoOpLogger())
		appended, err := s.AppendNotification(context.Background(), "job-1", "cand-1", models.Notification{
			Kind: models.KindInstantMatchAlert,
		})

		require.NoError(t, err)
		assert.False(t, appended)
	})
}

func TestMatchScores_CleanupExpired(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM match_scores`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	s := NewMatchScores(db, logger.NewNoOpLogger())
	deleted, err := s.CleanupExpired(context.Background(), 30*24*time.Hour)

	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
