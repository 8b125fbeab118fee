package export_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/mocks"
	"rahmah-exchange/internal/service/export"
)

func TestPaymentsWorkbook(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	grants := new(mocks.GrantRepository)
	payments := new(mocks.PaymentRepository)
	svc := export.NewService(grants, payments)

	granted := decimal.RequireFromString("1200.50")
	months := 3
	paidOn := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	payments.On("ListForExport", ctx, tenantID).Return([]domain.PaymentExportRow{{
		CaseID: "CASE-20240301-AB12CD", ApplicantName: "Amina Yusuf", Amount: decimal.NewFromInt(400),
		PaymentMethod: "bank_transfer", PaymentDate: paidOn, Status: "completed", RecordedBy: "Omar",
	}}, nil).Once()
	grants.On("ListForExport", ctx, tenantID).Return([]domain.GrantExportRow{
		{CaseID: "CASE-20240301-AB12CD", ApplicantName: "Amina Yusuf", GrantedAmount: &granted, NumberOfMonths: &months, Status: "Approved", TotalPaid: decimal.NewFromInt(400), UpdatedAt: paidOn},
		{CaseID: "CASE-20240302-ZZ99YY", ApplicantName: "Bilal Khan", Status: "Pending", TotalPaid: decimal.Zero, UpdatedAt: paidOn},
	}, nil).Once()

	data, err := svc.PaymentsWorkbook(ctx, domain.Actor{Role: domain.RoleTreasurer, TenantID: tenantID})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Payments", "Grants"}, f.GetSheetList())

	paymentRows, err := f.GetRows("Payments")
	require.NoError(t, err)
	require.Len(t, paymentRows, 2)
	assert.Equal(t, "Case ID", paymentRows[0][0])
	assert.Equal(t, []string{"CASE-20240301-AB12CD", "Amina Yusuf", "400", "bank_transfer", "2024-03-05", "completed", "Omar"}, paymentRows[1])

	grantRows, err := f.GetRows("Grants")
	require.NoError(t, err)
	require.Len(t, grantRows, 3)
	assert.Equal(t, "1200.5", grantRows[1][2])
	assert.Equal(t, "3", grantRows[1][3])
	assert.Equal(t, "Pending", grantRows[2][4])
}

func TestPaymentsWorkbook_Forbidden(t *testing.T) {
	svc := export.NewService(new(mocks.GrantRepository), new(mocks.PaymentRepository))

	_, err := svc.PaymentsWorkbook(context.Background(), domain.Actor{Role: domain.RoleCaseworker})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
