package main

import (
	"github.com/spf13/cobra"
	"github.com/wri/terramatch-workflow/internal/auth"
	"github.com/wri/terramatch-workflow/internal/service"
	"github.com/wri/terramatch-workflow/internal/store"
	"github.com/wri/terramatch-workflow/internal/store/model"
	"go.uber.org/zap"
)

var (
	statusEntityType     string
	statusEntityID       uint
	statusValue          string
	statusFeedback       string
	statusFeedbackFields []string
	statusActorID        uint
	statusActorEmail     string
	statusActorFirstName string
	statusActorLastName  string
)

var setStatusCmd = &cobra.Command{
	Use:   "set-status",
	Short: "Move an entity to a new status and run the status update side effects",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, undo := setup()
		defer undo()

		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		producer, err := newEventProducer(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = producer.Close() }()

		ctx := cmd.Context()
		queue, err := newCommandQueue(ctx, cfg)
		if err != nil {
			return err
		}
		defer queue.Close(ctx, s)

		change := service.StatusChange{
			Type:           model.EntityType(statusEntityType),
			ID:             statusEntityID,
			Status:         model.Status(statusValue),
			FeedbackFields: statusFeedbackFields,
		}
		if cmd.Flags().Changed("feedback") {
			change.Feedback = &statusFeedback
		}

		var actor *auth.User
		if statusActorID != 0 {
			actor = &auth.User{
				ID:        statusActorID,
				Email:     statusActorEmail,
				FirstName: statusActorFirstName,
				LastName:  statusActorLastName,
			}
		}

		updates := service.NewStatusUpdateService(s, queue, producer)
		subject, err := service.NewEntityStatusService(s, updates).UpdateStatus(ctx, change, actor)
		if err != nil {
			return err
		}
		zap.S().Infow("status updated", "entity", subject.Ref(), "status", subject.CurrentStatus())
		return nil
	},
}

func init() {
	setStatusCmd.Flags().StringVar(&statusEntityType, "type", "", "entity type (project, site, nursery, project-report, site-report, nursery-report)")
	setStatusCmd.Flags().UintVar(&statusEntityID, "id", 0, "entity id")
	setStatusCmd.Flags().StringVar(&statusValue, "status", "", "new status")
	setStatusCmd.Flags().StringVar(&statusFeedback, "feedback", "", "feedback left for the entity owner")
	setStatusCmd.Flags().StringSliceVar(&statusFeedbackFields, "feedback-field", nil, "uuid of a form question needing more information (repeatable)")
	setStatusCmd.Flags().UintVar(&statusActorID, "actor-id", 0, "id of the acting user, empty for a system change")
	setStatusCmd.Flags().StringVar(&statusActorEmail, "actor-email", "", "email of the acting user")
	setStatusCmd.Flags().StringVar(&statusActorFirstName, "actor-first-name", "", "first name of the acting user, recorded on the audit row")
	setStatusCmd.Flags().StringVar(&statusActorLastName, "actor-last-name", "", "last name of the acting user, recorded on the audit row")

	_ = setStatusCmd.MarkFlagRequired("type")
	_ = setStatusCmd.MarkFlagRequired("id")
	_ = setStatusCmd.MarkFlagRequired("status")
}
