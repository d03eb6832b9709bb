package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/models"
	"github.com/charlesng35/releasetrack/internal/notifications"
	apperrors "github.com/charlesng35/releasetrack/pkg/errors"
	"github.com/charlesng35/releasetrack/pkg/logger"
)

// AddCommentInput describes a new comment.
type AddCommentInput struct {
	TicketID string
	AuthorID string
	Content  string
	Mentions []string
}

// CommentService stores ticket comments and notifies participants and mentioned users.
type CommentService struct {
	db       *gorm.DB
	notifier TicketNotifier
	log      *zap.Logger
}

// NewCommentService constructs a CommentService. notifier may be nil.
func NewCommentService(db *gorm.DB, notifier TicketNotifier) (*CommentService, error) {
	if db == nil {
		return nil, errors.New("comment service: db is required")
	}
	return &CommentService{db: db, notifier: notifier, log: logger.WithModule("comments")}, nil
}

// Add persists the comment and then raises the comment notification.
func (s *CommentService) Add(ctx context.Context, input AddCommentInput) (*models.Comment, error) {
	ctx = ensureContext(ctx)

	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, apperrors.NewBadRequest("content is required")
	}

	var ticket models.Ticket
	err := s.db.WithContext(ctx).First(&ticket, "id = ?", strings.TrimSpace(input.TicketID)).Error
	if isMissingRecord(err) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("comment service: load ticket: %w", err)
	}

	comment := &models.Comment{
		TicketID: ticket.ID,
		AuthorID: strings.TrimSpace(input.AuthorID),
		Content:  content,
		Mentions: datatypes.JSONSlice[string](normaliseIDs(input.Mentions)),
	}
	if comment.Mentions == nil {
		comment.Mentions = datatypes.JSONSlice[string]{}
	}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, fmt.Errorf("comment service: create comment: %w", err)
	}

	if s.notifier != nil {
		result := s.notifier.NotifyComment(ctx, notifications.CommentEvent{
			Ticket:  ticket,
			ActorID: comment.AuthorID,
			Comment: *comment,
		})
		if !result.Success && !result.Skipped() {
			s.log.Warn("comment notification failed", zap.String("ticket_id", ticket.ID), zap.String("comment_id", comment.ID), zap.Error(result.Error))
		}
	}

	return comment, nil
}

// ListForTicket returns a ticket's comments, oldest first.
func (s *CommentService) ListForTicket(ctx context.Context, ticketID string) ([]models.Comment, error) {
	ctx = ensureContext(ctx)

	var comments []models.Comment
	if err := s.db.WithContext(ctx).
		Where("ticket_id = ?", strings.TrimSpace(ticketID)).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("comment service: list comments: %w", err)
	}
	return comments, nil
}
