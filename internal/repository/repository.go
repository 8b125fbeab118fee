package repository

import (
	"context"
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Repositories struct {
	Tenant       TenantRepository
	User         UserRepository
	Session      SessionRepository
	Applicant    ApplicantRepository
	Grant        GrantRepository
	Payment      PaymentRepository
	CaseNote     CaseNoteRepository
	Assignment   AssignmentRepository
	Document     DocumentRepository
	Conversation ConversationRepository
	Notification NotificationRepository
	AuditLog     AuditLogRepository
	Tx           Transactor
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Tenant:       NewTenantRepository(db),
		User:         NewUserRepository(db),
		Session:      NewSessionRepository(db),
		Applicant:    NewApplicantRepository(db),
		Grant:        NewGrantRepository(db),
		Payment:      NewPaymentRepository(db),
		CaseNote:     NewCaseNoteRepository(db),
		Assignment:   NewAssignmentRepository(db),
		Document:     NewDocumentRepository(db),
		Conversation: NewConversationRepository(db),
		Notification: NewNotificationRepository(db),
		AuditLog:     NewAuditLogRepository(db),
		Tx:           NewTransactor(db),
	}
}

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// conn returns the transaction bound to ctx by Transactor.WithinTx, or the
// pool when there is none.
func conn(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok && tx != nil {
		return tx
	}
	return db
}

// prefixed qualifies every column with a table alias for use in joins.
func prefixed(alias string, columns []string) string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = alias + "." + c
	}
	return strings.Join(out, ", ")
}

// IsUniqueViolation reports whether err is a Postgres unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
