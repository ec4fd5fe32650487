package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wri/terramatch-workflow/internal/store/model"
	"gorm.io/gorm"
)

// EntityOwner carries the project and organisation a status subject belongs to.
type EntityOwner struct {
	ProjectID      *uint
	OrganisationID *uint
}

// Entity resolves polymorphic references through an explicit per-type table.
type Entity interface {
	Get(ctx context.Context, ref model.EntityRef) (model.StatusSubject, error)
	Owner(ctx context.Context, ref model.EntityRef) (*EntityOwner, error)
	UpdateStatus(ctx context.Context, ref model.EntityRef, update StatusUpdate) error
}

// StatusUpdate holds the columns written by a status change.
type StatusUpdate struct {
	Status         model.Status
	Feedback       *string
	FeedbackFields []string
}

type entityRepository struct {
	newModel   func() model.StatusSubject
	ownerQuery string
}

var entityRepositories = map[model.EntityType]entityRepository{
	model.EntityTypeProject: {
		newModel:   func() model.StatusSubject { return &model.Project{} },
		ownerQuery: "SELECT p.id AS project_id, p.organisation_id AS organisation_id FROM projects p WHERE p.id = ?",
	},
	model.EntityTypeSite: {
		newModel: func() model.StatusSubject { return &model.Site{} },
		ownerQuery: "SELECT p.id AS project_id, p.organisation_id AS organisation_id FROM sites s " +
			"JOIN projects p ON p.id = s.project_id WHERE s.id = ?",
	},
	model.EntityTypeNursery: {
		newModel: func() model.StatusSubject { return &model.Nursery{} },
		ownerQuery: "SELECT p.id AS project_id, p.organisation_id AS organisation_id FROM nurseries n " +
			"JOIN projects p ON p.id = n.project_id WHERE n.id = ?",
	},
	model.EntityTypeProjectReport: {
		newModel: func() model.StatusSubject { return &model.ProjectReport{} },
		ownerQuery: "SELECT p.id AS project_id, p.organisation_id AS organisation_id FROM project_reports r " +
			"JOIN projects p ON p.id = r.project_id WHERE r.id = ?",
	},
	model.EntityTypeSiteReport: {
		newModel: func() model.StatusSubject { return &model.SiteReport{} },
		ownerQuery: "SELECT p.id AS project_id, p.organisation_id AS organisation_id FROM site_reports r " +
			"JOIN sites s ON s.id = r.site_id JOIN projects p ON p.id = s.project_id WHERE r.id = ?",
	},
	model.EntityTypeNurseryReport: {
		newModel: func() model.StatusSubject { return &model.NurseryReport{} },
		ownerQuery: "SELECT p.id AS project_id, p.organisation_id AS organisation_id FROM nursery_reports r " +
			"JOIN nurseries n ON n.id = r.nursery_id JOIN projects p ON p.id = n.project_id WHERE r.id = ?",
	},
	model.EntityTypeOrganisation: {
		newModel:   func() model.StatusSubject { return &model.Organisation{} },
		ownerQuery: "SELECT NULL AS project_id, o.id AS organisation_id FROM organisations o WHERE o.id = ?",
	},
	model.EntityTypeFinancialReport: {
		newModel:   func() model.StatusSubject { return &model.FinancialReport{} },
		ownerQuery: "SELECT NULL AS project_id, r.organisation_id AS organisation_id FROM financial_reports r WHERE r.id = ?",
	},
}

type EntityStore struct {
	db *gorm.DB
}

var _ Entity = (*EntityStore)(nil)

func NewEntityStore(db *gorm.DB) Entity {
	return &EntityStore{db: db}
}

func lookupRepository(t model.EntityType) (entityRepository, error) {
	repo, ok := entityRepositories[t]
	if !ok {
		return entityRepository{}, fmt.Errorf("%w: %s", ErrUnknownEntity, t)
	}
	return repo, nil
}

func (e *EntityStore) Get(ctx context.Context, ref model.EntityRef) (model.StatusSubject, error) {
	repo, err := lookupRepository(ref.Type)
	if err != nil {
		return nil, err
	}

	m := repo.newModel()
	if err := getDB(ctx, e.db).First(m, "id = ?", ref.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return m, nil
}

func (e *EntityStore) Owner(ctx context.Context, ref model.EntityRef) (*EntityOwner, error) {
	repo, err := lookupRepository(ref.Type)
	if err != nil {
		return nil, err
	}

	var rows []EntityOwner
	if err := getDB(ctx, e.db).Raw(repo.ownerQuery, ref.ID).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrRecordNotFound
	}
	return &rows[0], nil
}

func (e *EntityStore) UpdateStatus(ctx context.Context, ref model.EntityRef, update StatusUpdate) error {
	repo, err := lookupRepository(ref.Type)
	if err != nil {
		return err
	}

	fields, err := json.Marshal(update.FeedbackFields)
	if err != nil {
		return err
	}
	if update.FeedbackFields == nil {
		fields = []byte("[]")
	}

	columns := map[string]any{
		"status":          update.Status,
		"feedback":        update.Feedback,
		"feedback_fields": string(fields),
	}
	if ref.Type == model.EntityTypeOrganisation {
		// organisations keep no feedback columns
		columns = map[string]any{"status": update.Status}
	}

	result := getDB(ctx, e.db).Model(repo.newModel()).Where("id = ?", ref.ID).Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
