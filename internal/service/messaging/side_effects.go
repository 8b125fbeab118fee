package messaging

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/service/email"
	"rahmah-exchange/internal/service/notification"
)

// fanOut notifies the other side of a conversation about a new message.
// Applicant messages go to caseworker and admin participants; staff messages
// go to the applicant by email.
func (s *service) fanOut(ctx context.Context, actor domain.Actor, applicant *domain.Applicant, conv *domain.Conversation, msg *domain.Message) {
	log := s.logger.With(
		zap.String("tenant_id", conv.TenantID.String()),
		zap.String("case_id", applicant.CaseID),
		zap.String("conversation_id", conv.ID.String()),
	)

	var notices []notification.Notice
	if actor.Role == domain.RoleApplicant {
		notices = s.staffNotices(ctx, log, applicant, conv, msg)
	} else if n, ok := s.applicantNotice(log, applicant, conv, msg); ok {
		notices = append(notices, n)
	}

	if len(notices) > 0 {
		s.Notifier.Send(ctx, notices...)
	}
}

func (s *service) staffNotices(ctx context.Context, log *zap.Logger, applicant *domain.Applicant, conv *domain.Conversation, msg *domain.Message) []notification.Notice {
	participants, err := s.Conversations.ListParticipants(ctx, conv.ID)
	if err != nil {
		log.Warn("failed to load participants", zap.Error(err))
		return nil
	}

	ids := recipientIDs(participants, msg.SenderID, applicant.ID)
	if len(ids) == 0 {
		return nil
	}
	users, err := s.Users.ListByIDs(ctx, conv.TenantID, ids)
	if err != nil {
		log.Warn("failed to load recipients", zap.Error(err))
		return nil
	}

	notices := make([]notification.Notice, 0, len(users))
	for i := range users {
		user := users[i]
		// Current role, not the one stored when the user joined.
		if !user.IsActive || (user.Role != domain.RoleCaseworker && user.Role != domain.RoleAdmin) {
			continue
		}
		rendered, err := s.Renderer.NewMessage(email.NewMessageInput{
			To:         user.Email,
			Name:       user.FullName,
			SenderName: msg.SenderName,
			CaseID:     applicant.CaseID,
			Subject:    conv.Subject,
			Body:       msg.Body,
			Link:       s.Renderer.CaseURL(applicant.CaseID),
		})
		if err != nil {
			log.Warn("failed to render message notification", zap.String("recipient", user.Email), zap.Error(err))
			continue
		}
		notices = append(notices, notification.Notice{
			TenantID: conv.TenantID,
			UserID:   &user.ID,
			Type:     domain.NotifNewMessage,
			Title:    rendered.Subject,
			Message:  msg.SenderName + ": " + conv.Subject,
			Data: map[string]string{
				"conversationId": conv.ID.String(),
				"applicantId":    applicant.ID.String(),
				"caseId":         applicant.CaseID,
			},
			Email: &rendered,
		})
	}
	return notices
}

func (s *service) applicantNotice(log *zap.Logger, applicant *domain.Applicant, conv *domain.Conversation, msg *domain.Message) (notification.Notice, bool) {
	if applicant.Email == "" {
		return notification.Notice{}, false
	}
	rendered, err := s.Renderer.NewMessage(email.NewMessageInput{
		To:         applicant.Email,
		Name:       applicant.FullName(),
		SenderName: msg.SenderName,
		CaseID:     applicant.CaseID,
		Subject:    conv.Subject,
		Body:       msg.Body,
		Link:       s.Renderer.PortalLoginURL(),
	})
	if err != nil {
		log.Warn("failed to render applicant message email", zap.Error(err))
		return notification.Notice{}, false
	}
	return notification.Notice{
		TenantID: conv.TenantID,
		Type:     domain.NotifNewMessage,
		Email:    &rendered,
	}, true
}

// recipientIDs picks the staff participants, never the sender or the
// applicant. Role filtering happens on the loaded users.
func recipientIDs(participants []domain.Participant, senderID, applicantID uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(participants))
	var ids []uuid.UUID
	for _, p := range participants {
		if p.Kind != domain.ParticipantStaff {
			continue
		}
		if p.ParticipantID == senderID || p.ParticipantID == applicantID || seen[p.ParticipantID] {
			continue
		}
		seen[p.ParticipantID] = true
		ids = append(ids, p.ParticipantID)
	}
	return ids
}
