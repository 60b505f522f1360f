package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MuhammadMuneeb007/OpenGrammar/internal/domain"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/dbctx"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/logger"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 200
)

type AnalysisRunRepo interface {
	Create(dbc dbctx.Context, run *domain.AnalysisRun) (*domain.AnalysisRun, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.AnalysisRun, error)
	ListRecent(dbc dbctx.Context, limit int) ([]*domain.AnalysisRun, error)
	CountByStatus(dbc dbctx.Context) (map[string]int64, error)
}

type analysisRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnalysisRunRepo(db *gorm.DB, baseLog *logger.Logger) AnalysisRunRepo {
	return &analysisRunRepo{
		db:  db,
		log: baseLog.With("repo", "AnalysisRunRepo"),
	}
}

func (r *analysisRunRepo) Create(dbc dbctx.Context, run *domain.AnalysisRun) (*domain.AnalysisRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if run == nil {
		return nil, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (r *analysisRunRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.AnalysisRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var run domain.AnalysisRun
	err := transaction.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&run).Error
	if err != nil {
		return nil, err
	}
	if run.ID == uuid.Nil {
		return nil, nil
	}
	return &run, nil
}

// ListRecent returns the newest runs first. limit is clamped to
// [1, MaxListLimit]; zero or negative selects DefaultListLimit.
func (r *analysisRunRepo) ListRecent(dbc dbctx.Context, limit int) ([]*domain.AnalysisRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	out := []*domain.AnalysisRun{}
	if err := transaction.WithContext(dbc.Ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *analysisRunRepo) CountByStatus(dbc dbctx.Context) (map[string]int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []struct {
		Status string
		N      int64
	}
	if err := transaction.WithContext(dbc.Ctx).
		Model(&domain.AnalysisRun{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}
