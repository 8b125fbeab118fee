package workflow

import (
	"context"

	"go.uber.org/zap"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/pkg/cache"
	"rahmah-exchange/internal/service/email"
	"rahmah-exchange/internal/service/notification"
)

// afterStatusChange fans out the notifications of a committed transition.
// Nothing here can fail the request; errors are logged.
func (s *service) afterStatusChange(ctx context.Context, c statusChange) {
	ctx = context.WithoutCancel(ctx)
	cache.Delete(ctx, s.Redis, cache.DashboardKey(c.applicant.TenantID))
	// applyStatus wrote a status_update note.
	cache.InvalidatePattern(ctx, s.Redis, cache.CaseNotesPattern(c.applicant.ID))

	log := s.logger.With(
		zap.String("tenant_id", c.applicant.TenantID.String()),
		zap.String("case_id", c.applicant.CaseID),
		zap.String("from", string(c.from)),
		zap.String("to", string(c.to)),
	)

	var approvalNote *domain.CaseNote
	if c.to == domain.StatusApproved {
		note, err := s.Notes.LatestApprovalNote(ctx, c.applicant.ID)
		if err != nil {
			log.Warn("failed to load latest approval note", zap.Error(err))
		}
		approvalNote = note
	}

	var notices []notification.Notice
	if c.to == domain.StatusApproved && c.actor.Role == domain.RoleApprover {
		notices = append(notices, s.treasurerNotices(ctx, log, c, approvalNote)...)
	}
	if c.to.IsDecision() && c.applicant.Email != "" {
		if n, ok := s.applicantNotice(log, c, approvalNote); ok {
			notices = append(notices, n)
		}
	}
	if c.to == domain.StatusRejected {
		notices = append(notices, s.rejectionNotices(ctx, log, c)...)
	}

	if len(notices) > 0 {
		s.Notifier.Send(ctx, notices...)
	}
}

func (s *service) treasurerNotices(ctx context.Context, log *zap.Logger, c statusChange, approvalNote *domain.CaseNote) []notification.Notice {
	treasurers, err := s.Users.ListActiveByRole(ctx, c.applicant.TenantID, domain.RoleTreasurer)
	if err != nil {
		log.Warn("failed to load treasurers", zap.Error(err))
		return nil
	}
	if len(treasurers) == 0 {
		log.Info("no active treasurer to notify")
		return nil
	}

	recent, err := s.Notes.ListRecentByType(ctx, c.applicant.ID, domain.NoteApproval, recentApprovalNotes)
	if err != nil {
		log.Warn("failed to load approval notes", zap.Error(err))
	}

	notices := make([]notification.Notice, 0, len(treasurers))
	for i := range treasurers {
		t := treasurers[i]
		msg, err := s.Renderer.TreasurerPaymentRequired(email.TreasurerPaymentInput{
			To:            t.Email,
			Name:          t.FullName,
			CaseID:        c.applicant.CaseID,
			ApplicantName: c.applicant.FullName(),
			ApproverName:  c.actor.Name,
			Amount:        amountOf(approvalNote),
			Notes:         recent,
		})
		if err != nil {
			log.Warn("failed to render treasurer email", zap.String("recipient", t.Email), zap.Error(err))
			continue
		}
		notices = append(notices, notification.Notice{
			TenantID: c.applicant.TenantID,
			UserID:   &t.ID,
			Type:     domain.NotifPaymentRequired,
			Title:    msg.Subject,
			Message:  "Case " + c.applicant.CaseID + " was approved and is awaiting payment.",
			Data:     map[string]string{"applicantId": c.applicant.ID.String(), "caseId": c.applicant.CaseID},
			Email:    &msg,
		})
	}
	return notices
}

func (s *service) applicantNotice(log *zap.Logger, c statusChange, approvalNote *domain.CaseNote) (notification.Notice, bool) {
	msg, err := s.Renderer.ApplicantStatus(email.ApplicantStatusInput{
		To:     c.applicant.Email,
		Name:   c.applicant.FullName(),
		CaseID: c.applicant.CaseID,
		Status: c.to,
		Amount: amountOf(approvalNote),
	})
	if err != nil {
		log.Warn("failed to render applicant status email", zap.Error(err))
		return notification.Notice{}, false
	}
	return notification.Notice{
		TenantID: c.applicant.TenantID,
		Type:     domain.NotifCaseStatus,
		Email:    &msg,
	}, true
}

func (s *service) rejectionNotices(ctx context.Context, log *zap.Logger, c statusChange) []notification.Notice {
	notes, err := s.Notes.ListSince(ctx, c.applicant.ID, s.Now().Add(-rejectionNoteWindow), rejectionNoteLimit)
	if err != nil {
		log.Warn("failed to load recent notes", zap.Error(err))
	}

	recipients, err := s.Assignments.ListAssignedUsers(ctx, c.applicant.ID, domain.RoleCaseworker)
	if err != nil {
		log.Warn("failed to load assigned caseworkers", zap.Error(err))
	}
	if len(recipients) == 0 {
		recipients, err = s.Users.ListActiveByRole(ctx, c.applicant.TenantID, domain.RoleCaseworker)
		if err != nil {
			log.Warn("failed to load caseworkers", zap.Error(err))
			return nil
		}
	}

	notices := make([]notification.Notice, 0, len(recipients))
	for i := range recipients {
		u := recipients[i]
		msg, err := s.Renderer.CaseRejected(email.CaseRejectedInput{
			To:            u.Email,
			Name:          u.FullName,
			CaseID:        c.applicant.CaseID,
			ApplicantName: c.applicant.FullName(),
			RejectedBy:    c.actor.Name,
			Notes:         notes,
		})
		if err != nil {
			log.Warn("failed to render rejection email", zap.String("recipient", u.Email), zap.Error(err))
			continue
		}
		notices = append(notices, notification.Notice{
			TenantID: c.applicant.TenantID,
			UserID:   &u.ID,
			Type:     domain.NotifCaseRejected,
			Title:    msg.Subject,
			Message:  "Case " + c.applicant.CaseID + " was rejected.",
			Data:     map[string]string{"applicantId": c.applicant.ID.String(), "caseId": c.applicant.CaseID},
			Email:    &msg,
		})
	}
	return notices
}
