package recommend

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/koor-works/koor-backend/internal/jobs"
	"github.com/koor-works/koor-backend/internal/tenders"
	"github.com/koor-works/koor-backend/pkg/db/models"
	"github.com/koor-works/koor-backend/pkg/enums"
	"github.com/koor-works/koor-backend/pkg/logger"
)

func TestScoreTenderCountsEveryDimension(t *testing.T) {
	ref := &models.Tender{
		BudgetAmount: decimal.NewFromInt(1000),
		Tags:         pq.StringArray{"hvac"},
		Categories:   pq.StringArray{"mechanical"},
		TenderTypes:  pq.StringArray{"supply"},
		Sectors:      pq.StringArray{"construction"},
	}
	perfect := &models.Tender{
		BudgetAmount: decimal.NewFromInt(1000),
		Tags:         pq.StringArray{"HVAC", "other"},
		Categories:   pq.StringArray{"mechanical"},
		TenderTypes:  pq.StringArray{"supply"},
		Sectors:      pq.StringArray{"construction"},
	}
	require.Equal(t, 5, ScoreTender(ref, perfect))

	unrelated := &models.Tender{BudgetAmount: decimal.NewFromInt(99)}
	require.Equal(t, 0, ScoreTender(ref, unrelated))
}

func TestScoreJobUsesEducationEquality(t *testing.T) {
	edu := "bachelor"
	ref := &models.Job{
		BudgetAmount:     decimal.NewFromInt(3000),
		Skills:           pq.StringArray{"welding"},
		Categories:       pq.StringArray{"construction"},
		HighestEducation: &edu,
	}
	eduUpper := "Bachelor"
	candidate := &models.Job{
		BudgetAmount:     decimal.NewFromInt(3000),
		Skills:           pq.StringArray{"plumbing"},
		Categories:       pq.StringArray{"construction"},
		HighestEducation: &eduUpper,
	}
	require.Equal(t, 3, ScoreJob(ref, candidate))
}

func TestRankTendersPrefersNonZeroAndBreaksTiesByRecency(t *testing.T) {
	older := ScoredTender{Tender: models.Tender{Title: "older"}, Matches: 2}
	older.Tender.CreatedAt = time.Now().Add(-2 * time.Hour)
	newer := ScoredTender{Tender: models.Tender{Title: "newer"}, Matches: 2}
	newer.Tender.CreatedAt = time.Now().Add(-1 * time.Hour)
	zero := ScoredTender{Tender: models.Tender{Title: "zero"}, Matches: 0}
	zero.Tender.CreatedAt = time.Now()

	// No candidate reaches the top tier, so the full ranked list comes back.
	ranked := rankTenders([]ScoredTender{zero, older, newer}, 0)
	require.Len(t, ranked, 3)
	require.Equal(t, "newer", ranked[0].Tender.Title)
	require.Equal(t, "older", ranked[1].Tender.Title)
	require.Equal(t, "zero", ranked[2].Tender.Title)
}

func TestRankTendersTopTierCut(t *testing.T) {
	strong := ScoredTender{Tender: models.Tender{Title: "strong"}, Matches: 4}
	weak := ScoredTender{Tender: models.Tender{Title: "weak"}, Matches: 1}

	ranked := rankTenders([]ScoredTender{weak, strong}, 0)
	require.Len(t, ranked, 1)
	require.Equal(t, "strong", ranked[0].Tender.Title)
}

func TestMatchesJobFilter(t *testing.T) {
	duration := "6 months"
	job := &models.Job{
		Country:      "Qatar",
		City:         "Doha",
		IsFullTime:   true,
		BudgetAmount: decimal.NewFromInt(3000),
		Duration:     &duration,
		Categories:   pq.StringArray{"construction"},
	}

	filter := &models.JobFilter{
		Country:    "qatar",
		IsFullTime: true,
		SalaryMin:  decimal.NewFromInt(2000),
		SalaryMax:  decimal.NewFromInt(4000),
		Categories: pq.StringArray{"Construction"},
	}
	require.True(t, MatchesJobFilter(filter, job))

	filter.SalaryMin = decimal.NewFromInt(3500)
	require.False(t, MatchesJobFilter(filter, job))

	filter.SalaryMin = decimal.NewFromInt(2000)
	filter.City = "Al Rayyan"
	require.False(t, MatchesJobFilter(filter, job))
}

func TestMatchesTenderFilterDeadlineFloor(t *testing.T) {
	deadline := time.Now().Add(24 * time.Hour)
	tender := &models.Tender{
		BudgetAmount: decimal.NewFromInt(50000),
		Deadline:     &deadline,
		Sectors:      pq.StringArray{"construction"},
	}

	floor := time.Now()
	filter := &models.TenderFilter{Deadline: &floor, Sectors: pq.StringArray{"construction"}}
	require.True(t, MatchesTenderFilter(filter, tender))

	late := time.Now().Add(48 * time.Hour)
	filter.Deadline = &late
	require.False(t, MatchesTenderFilter(filter, tender))
}

func TestSimilarJobsEndToEnd(t *testing.T) {
	dsn := fmt.Sprintf("file:recommend_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Media{},
		&models.Job{}, &models.JobLanguage{}, &models.JobAttachment{},
		&models.Tender{}, &models.TenderAttachment{},
	))

	ownerID := uuid.New()
	mkJob := func(title string, budget int64, skills []string) *models.Job {
		job := &models.Job{
			JobID:        fmt.Sprintf("%04d-%04d", 1000+budget%9000, 1000+int64(len(title))),
			Slug:         fmt.Sprintf("%s-%s", title, uuid.NewString()),
			UserID:       ownerID,
			Title:        title,
			Status:       enums.PostingStatusActive,
			BudgetAmount: decimal.NewFromInt(budget),
			Skills:       pq.StringArray(skills),
			Categories:   pq.StringArray{"construction"},
		}
		require.NoError(t, db.Create(job).Error)
		return job
	}

	ref := mkJob("reference", 3000, []string{"welding"})
	closeJob := mkJob("close", 3000, []string{"welding"})
	_ = mkJob("far", 100, []string{"accounting"})

	svc, err := NewService(ServiceParams{
		JobRepo:    jobs.NewRepository(db),
		TenderRepo: tenders.NewRepository(db),
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)

	out, err := svc.SimilarJobs(context.Background(), ref.ID, 10)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	require.Equal(t, closeJob.ID, out[0].ID)
}
