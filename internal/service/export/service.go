package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/repository"
)

const (
	paymentsSheet = "Payments"
	grantsSheet   = "Grants"
	dateLayout    = "2006-01-02"
)

var paymentHeader = []string{"Case ID", "Applicant", "Amount", "Method", "Payment Date", "Status", "Recorded By"}

var grantHeader = []string{"Case ID", "Applicant", "Granted Amount", "Months", "Status", "Total Paid", "Last Updated"}

type Service interface {
	// PaymentsWorkbook builds an XLSX with one sheet of payments and one of
	// grants for the actor's tenant.
	PaymentsWorkbook(ctx context.Context, actor domain.Actor) ([]byte, error)
}

type service struct {
	grantRepo   repository.GrantRepository
	paymentRepo repository.PaymentRepository
}

func NewService(grantRepo repository.GrantRepository, paymentRepo repository.PaymentRepository) Service {
	return &service{
		grantRepo:   grantRepo,
		paymentRepo: paymentRepo,
	}
}

func (s *service) PaymentsWorkbook(ctx context.Context, actor domain.Actor) ([]byte, error) {
	if !actor.HasAnyRole(domain.RoleAdmin, domain.RoleTreasurer) {
		return nil, fmt.Errorf("%w: role %s may not export payments", domain.ErrForbidden, actor.Role)
	}

	payments, err := s.paymentRepo.ListForExport(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}
	grants, err := s.grantRepo.ListForExport(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	paymentRows := make([][]any, 0, len(payments))
	for _, p := range payments {
		paymentRows = append(paymentRows, []any{
			p.CaseID,
			p.ApplicantName,
			p.Amount.InexactFloat64(),
			p.PaymentMethod,
			p.PaymentDate.Format(dateLayout),
			p.Status,
			p.RecordedBy,
		})
	}

	grantRows := make([][]any, 0, len(grants))
	for _, g := range grants {
		grantRows = append(grantRows, []any{
			g.CaseID,
			g.ApplicantName,
			optionalAmount(g.GrantedAmount),
			optionalInt(g.NumberOfMonths),
			g.Status,
			g.TotalPaid.InexactFloat64(),
			g.UpdatedAt.Format(dateLayout),
		})
	}

	if err := f.SetSheetName("Sheet1", paymentsSheet); err != nil {
		return nil, err
	}
	if err := writeSheet(f, paymentsSheet, paymentHeader, paymentRows, headerStyle); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(grantsSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := writeSheet(f, grantsSheet, grantHeader, grantRows, headerStyle); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any, headerStyle int) error {
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}

	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", lastCol, 20)
}

func optionalAmount(d *decimal.Decimal) any {
	if d == nil {
		return ""
	}
	return d.InexactFloat64()
}

func optionalInt(n *int) any {
	if n == nil {
		return ""
	}
	return *n
}
