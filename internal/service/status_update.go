package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/thoas/go-funk"
	"github.com/wri/terramatch-workflow/internal/auth"
	"github.com/wri/terramatch-workflow/internal/events"
	"github.com/wri/terramatch-workflow/internal/jobs"
	"github.com/wri/terramatch-workflow/internal/store"
	"github.com/wri/terramatch-workflow/internal/store/model"
	"github.com/wri/terramatch-workflow/pkg/metrics"
	"go.uber.org/zap"
)

const noFeedback = "(No feedback)"

// statuses that trigger a rollup of the parent task when a report reaches them
var rollupStatuses = []model.Status{
	model.StatusApproved,
	model.StatusNeedsMoreInformation,
	model.StatusAwaitingApproval,
}

// AnalyticsSink receives the status change signal. Delivery is fire-and-forget.
type AnalyticsSink interface {
	StatusUpdated(ctx context.Context, e events.StatusUpdateEvent) error
}

// StatusUpdateService keeps actions, audit rows and task status consistent with an entity status change.
type StatusUpdateService struct {
	store     store.Store
	queue     WorkQueue
	analytics AnalyticsSink
	tasks     *TaskStatusService
}

func NewStatusUpdateService(s store.Store, queue WorkQueue, analytics AnalyticsSink) *StatusUpdateService {
	return &StatusUpdateService{
		store:     s,
		queue:     queue,
		analytics: analytics,
		tasks:     NewTaskStatusService(s),
	}
}

// Handle processes the status change of subject, already persisted with its new status.
// actor is nil for system-triggered changes.
func (s *StatusUpdateService) Handle(ctx context.Context, subject model.StatusSubject, actor *auth.User) error {
	ref := subject.Ref()
	status := subject.CurrentStatus()
	logger := zap.S().Named("status_update").With("entity", ref.String(), "status", status)

	event := events.StatusUpdateEvent{
		UUID:   subject.EntityUUID().String(),
		Type:   ref.Type,
		Status: status,
	}
	afterCommit(ctx, func(ctx context.Context) {
		if err := s.analytics.StatusUpdated(ctx, event); err != nil {
			logger.Warnw("failed to emit status update event", "error", err)
		}
	})

	if !ref.Type.IsAuditable() {
		logger.Errorw("unknown entity type, skipping status update side effects", "type", ref.Type)
		return nil
	}

	if ref.Type.IsTrackable() {
		enqueueAfterCommit(ctx, s.queue, jobs.StatusUpdateEmailArgs{Type: ref.Type, ID: ref.ID})
		if err := s.updateActions(ctx, subject); err != nil {
			return err
		}
	}

	if err := s.createAuditStatus(ctx, subject, actor); err != nil {
		return err
	}

	if ref.Type.IsReport() && funk.Contains(rollupStatuses, status) {
		if report, ok := subject.(model.TaskReport); ok && report.ParentTaskID() != nil {
			if _, err := s.tasks.Rollup(ctx, *report.ParentTaskID()); err != nil {
				return err
			}
		}
	}

	metrics.IncreaseStatusUpdatesMetric(ref.Type.String(), status.String())
	logger.Debug("status update processed")
	return nil
}

// updateActions replaces the pending notification of the entity. Nothing is created while awaiting approval.
func (s *StatusUpdateService) updateActions(ctx context.Context, subject model.StatusSubject) error {
	ref := subject.Ref()

	if _, err := s.store.Action().DeletePendingNotifications(ctx, ref); err != nil {
		return fmt.Errorf("failed to delete pending actions of %s: %w", ref, err)
	}

	status := subject.CurrentStatus()
	if status == model.StatusAwaitingApproval {
		return nil
	}

	owner, err := s.store.Entity().Owner(ctx, ref)
	if err != nil {
		return fmt.Errorf("failed to resolve owner of %s: %w", ref, err)
	}

	action := model.Action{
		TargetableType: ref.Type,
		TargetableID:   ref.ID,
		Type:           model.ActionTypeNotification,
		Status:         model.ActionStatusPending,
		ProjectID:      owner.ProjectID,
		OrganisationID: owner.OrganisationID,
	}
	if named, ok := subject.(model.NamedSubject); ok && !ref.Type.IsReport() {
		title := named.DisplayName()
		text := status.Label()
		action.Title = &title
		action.Text = &text
	}

	if _, err := s.store.Action().Create(ctx, action); err != nil {
		return fmt.Errorf("failed to create action for %s: %w", ref, err)
	}
	return nil
}

func (s *StatusUpdateService) createAuditStatus(ctx context.Context, subject model.StatusSubject, actor *auth.User) error {
	ref := subject.Ref()
	status := subject.CurrentStatus()

	audit := model.AuditStatus{
		AuditableType: ref.Type,
		AuditableID:   ref.ID,
		Status:        status,
		CreatedBy:     actor.EmailAddress(),
		FirstName:     actor.GivenName(),
		LastName:      actor.FamilyName(),
	}

	switch status {
	case model.StatusApproved:
		comment := approvedComment(subject.FeedbackText())
		audit.Comment = &comment
	case model.StatusNeedsMoreInformation:
		labels, err := s.fieldLabels(ctx, subject.FeedbackFieldIDs())
		if err != nil {
			return err
		}
		changeRequest := model.AuditStatusTypeChangeRequest
		comment := changeRequestComment(labels, subject.FeedbackText())
		audit.Type = &changeRequest
		audit.Comment = &comment
	case model.StatusAwaitingApproval:
	default:
		if status != model.StatusStarted {
			zap.S().Named("status_update").Warnw("no audit status recorded for status", "entity", ref.String(), "status", status)
		}
		return nil
	}

	if _, err := s.store.AuditStatus().Create(ctx, audit); err != nil {
		return fmt.Errorf("failed to create audit status for %s: %w", ref, err)
	}
	return nil
}

// fieldLabels resolves feedback field identifiers to their question labels, keeping their order.
func (s *StatusUpdateService) fieldLabels(ctx context.Context, ids []string) ([]string, error) {
	byID, err := s.store.FormQuestion().LabelsByUUID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve feedback field labels: %w", err)
	}

	labels := make([]string, 0, len(ids))
	for _, id := range ids {
		if label, ok := byID[id]; ok {
			labels = append(labels, label)
		}
	}
	return labels, nil
}

func approvedComment(feedback string) string {
	return fmt.Sprintf("Approved: %s", feedback)
}

func changeRequestComment(labels []string, feedback string) string {
	if strings.TrimSpace(feedback) == "" {
		feedback = noFeedback
	}
	return fmt.Sprintf("Request More Information on the following fields: %s. Feedback: %s", strings.Join(labels, ", "), feedback)
}
