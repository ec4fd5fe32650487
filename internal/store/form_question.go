package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/wri/terramatch-workflow/internal/store/model"
	"gorm.io/gorm"
)

type FormQuestion interface {
	Create(ctx context.Context, question model.FormQuestion) (*model.FormQuestion, error)
	LabelsByUUID(ctx context.Context, uuids []string) (map[string]string, error)
}

type FormQuestionStore struct {
	db *gorm.DB
}

var _ FormQuestion = (*FormQuestionStore)(nil)

func NewFormQuestionStore(db *gorm.DB) FormQuestion {
	return &FormQuestionStore{db: db}
}

func (f *FormQuestionStore) Create(ctx context.Context, question model.FormQuestion) (*model.FormQuestion, error) {
	if question.UUID == uuid.Nil {
		question.UUID = uuid.New()
	}
	if err := getDB(ctx, f.db).Create(&question).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

// LabelsByUUID maps each known question uuid to its label, keyed by the ids as given.
// Ids are matched in canonical form. Unknown or malformed ids are absent from the result.
func (f *FormQuestionStore) LabelsByUUID(ctx context.Context, uuids []string) (map[string]string, error) {
	labels := make(map[string]string, len(uuids))

	byCanonical := make(map[string][]string, len(uuids))
	canonical := make([]string, 0, len(uuids))
	for _, id := range uuids {
		parsed, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		key := parsed.String()
		if _, seen := byCanonical[key]; !seen {
			canonical = append(canonical, key)
		}
		byCanonical[key] = append(byCanonical[key], id)
	}
	if len(canonical) == 0 {
		return labels, nil
	}

	var questions []model.FormQuestion
	if err := getDB(ctx, f.db).Select("uuid", "label").Where("uuid IN ?", canonical).Find(&questions).Error; err != nil {
		return nil, err
	}
	for _, q := range questions {
		for _, id := range byCanonical[q.UUID.String()] {
			labels[id] = q.Label
		}
	}
	return labels, nil
}
