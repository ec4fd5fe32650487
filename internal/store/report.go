package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/wri/terramatch-workflow/internal/store/model"
	"gorm.io/gorm"
)

type Report interface {
	CreateProjectReport(ctx context.Context, report model.ProjectReport) (*model.ProjectReport, error)
	CreateSiteReport(ctx context.Context, report model.SiteReport) (*model.SiteReport, error)
	CreateNurseryReport(ctx context.Context, report model.NurseryReport) (*model.NurseryReport, error)
	CreateFinancialReport(ctx context.Context, report model.FinancialReport) (*model.FinancialReport, error)
}

type ReportStore struct {
	db *gorm.DB
}

var _ Report = (*ReportStore)(nil)

func NewReportStore(db *gorm.DB) Report {
	return &ReportStore{db: db}
}

func (r *ReportStore) CreateProjectReport(ctx context.Context, report model.ProjectReport) (*model.ProjectReport, error) {
	if report.UUID == uuid.Nil {
		report.UUID = uuid.New()
	}
	if err := getDB(ctx, r.db).Create(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *ReportStore) CreateSiteReport(ctx context.Context, report model.SiteReport) (*model.SiteReport, error) {
	if report.UUID == uuid.Nil {
		report.UUID = uuid.New()
	}
	if err := getDB(ctx, r.db).Omit("Site").Create(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *ReportStore) CreateNurseryReport(ctx context.Context, report model.NurseryReport) (*model.NurseryReport, error) {
	if report.UUID == uuid.Nil {
		report.UUID = uuid.New()
	}
	if err := getDB(ctx, r.db).Omit("Nursery").Create(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *ReportStore) CreateFinancialReport(ctx context.Context, report model.FinancialReport) (*model.FinancialReport, error) {
	if report.UUID == uuid.Nil {
		report.UUID = uuid.New()
	}
	if err := getDB(ctx, r.db).Create(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}
