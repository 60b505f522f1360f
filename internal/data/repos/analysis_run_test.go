package repos

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/MuhammadMuneeb007/OpenGrammar/internal/domain"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/dbctx"
	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormLogger.Default.LogMode(gormLogger.Silent)})
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
		t.Cleanup(func() { _ = sqlDB.Close() })
	}
	if err := db.AutoMigrate(&domain.AnalysisRun{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestAnalysisRunRepoCreateAndGet(t *testing.T) {
	repo := NewAnalysisRunRepo(testDB(t), logger.NewNop())
	dbc := dbctx.Context{Ctx: context.Background()}

	run, err := repo.Create(dbc, &domain.AnalysisRun{TextSHA256: "abc", CharCount: 12, Status: domain.RunStatusOK})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if run.ID == uuid.Nil {
		t.Fatalf("expected id to be assigned")
	}
	got, err := repo.GetByID(dbc, run.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}
	if got.TextSHA256 != "abc" || got.CharCount != 12 {
		t.Fatalf("row: got=%+v", got)
	}

	missing, err := repo.GetByID(dbc, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("missing id: got=%v err=%v", missing, err)
	}
}

func TestAnalysisRunRepoListRecentOrdersAndCounts(t *testing.T) {
	repo := NewAnalysisRunRepo(testDB(t), logger.NewNop())
	dbc := dbctx.Context{Ctx: context.Background()}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		status := domain.RunStatusOK
		if i == 1 {
			status = domain.RunStatusParseFailed
		}
		if _, err := repo.Create(dbc, &domain.AnalysisRun{
			TextSHA256: fmt.Sprintf("h%d", i),
			Status:     status,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}

	runs, err := repo.ListRecent(dbc, 2)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(runs) != 2 || runs[0].TextSHA256 != "h2" || runs[1].TextSHA256 != "h1" {
		t.Fatalf("order: got=%v", runs)
	}

	runs, err = repo.ListRecent(dbc, 0)
	if err != nil || len(runs) != 3 {
		t.Fatalf("default limit: got=%d err=%v", len(runs), err)
	}

	counts, err := repo.CountByStatus(dbc)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[domain.RunStatusOK] != 2 || counts[domain.RunStatusParseFailed] != 1 {
		t.Fatalf("counts: got=%v", counts)
	}
}
