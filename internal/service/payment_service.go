package service

import (
	"context"
	"time"

	"poscore/internal/apierror"
	"poscore/internal/dto"
	"poscore/internal/model"
	"poscore/internal/repository"
	"poscore/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentService allocates payments against a transaction's outstanding
// balance and decides when the transaction is fully paid. All balance checks
// run with the transaction row locked, so two concurrent payments cannot
// both observe a stale remaining balance and jointly overpay.
type PaymentService interface {
	Apply(ctx context.Context, req dto.CreatePaymentRequest) (*dto.PaymentResult, error)
	ApplyMultiple(ctx context.Context, req dto.CreateMultiplePaymentsRequest) (*dto.MultiplePaymentsResponse, error)
	Update(ctx context.Context, paymentID uuid.UUID, amount decimal.Decimal) (*dto.PaymentResult, error)
	Delete(ctx context.Context, paymentID uuid.UUID) error

	// ApplyEntriesTx records payments inside the caller's settlement
	// transaction against a freshly created (already locked) transaction
	// row. Returns the created payments and the resulting status.
	ApplyEntriesTx(ctx context.Context, tx *gorm.DB, txn *model.Transaction, entries []dto.PaymentEntryRequest) ([]model.Payment, string, error)
}

type paymentService struct {
	transactions repository.TransactionRepository
	dispatcher   *worker.Dispatcher
}

func NewPaymentService(transactions repository.TransactionRepository, dispatcher *worker.Dispatcher) PaymentService {
	return &paymentService{transactions: transactions, dispatcher: dispatcher}
}

func validPaymentMethod(method string) bool {
	switch method {
	case model.MethodCash, model.MethodCard, model.MethodMobile:
		return true
	}
	return false
}

func validatePaymentEntry(method string, amount decimal.Decimal) error {
	if !validPaymentMethod(method) {
		return apierror.Validation("Payment method must be CASH, CARD, or MOBILE")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return apierror.Validation("Payment amount must be greater than 0")
	}
	return nil
}

func (s *paymentService) Apply(ctx context.Context, req dto.CreatePaymentRequest) (*dto.PaymentResult, error) {
	txnID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		return nil, apierror.Validation("Required fields: transactionId, method, amount")
	}
	amount := round2(req.Amount)
	if err := validatePaymentEntry(req.Method, amount); err != nil {
		return nil, err
	}

	var payment model.Payment
	var status string
	txErr := runTx(ctx, s.transactions.DB(), func(tx *gorm.DB) error {
		txn, err := s.transactions.FindByIDForUpdateTx(tx, txnID)
		if err != nil {
			return apierror.NotFound("Transaction not found")
		}
		if txn.Status == model.StatusCompleted {
			return apierror.BusinessRule("Cannot modify payments of a completed transaction")
		}

		priorPaid, err := s.transactions.SumPaymentsTx(tx, txnID, nil)
		if err != nil {
			return err
		}
		if priorPaid.Add(amount).GreaterThan(txn.TotalGross.Add(paymentTolerance)) {
			return apierror.BusinessRule("Payment amount exceeds remaining balance")
		}

		payment = model.Payment{TransactionID: txnID, Method: req.Method, Amount: amount}
		if err := s.transactions.CreatePaymentTx(tx, &payment); err != nil {
			return err
		}

		status = model.StatusPending
		if priorPaid.Add(amount).GreaterThanOrEqual(txn.TotalGross) {
			status = model.StatusCompleted
			if err := s.transactions.UpdateTx(tx, txnID, map[string]interface{}{"status": status}); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if status == model.StatusCompleted {
		s.notifyCompleted(ctx, txnID)
	}

	return &dto.PaymentResult{
		Payment:           paymentToResponse(&payment),
		TransactionStatus: status,
	}, nil
}

func (s *paymentService) ApplyMultiple(ctx context.Context, req dto.CreateMultiplePaymentsRequest) (*dto.MultiplePaymentsResponse, error) {
	txnID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		return nil, apierror.Validation("Required fields: transactionId, payments")
	}

	// Validate the whole batch before applying any of it
	batchTotal := decimal.Zero
	for _, entry := range req.Payments {
		amount := round2(entry.Amount)
		if err := validatePaymentEntry(entry.Method, amount); err != nil {
			return nil, err
		}
		batchTotal = batchTotal.Add(amount)
	}

	var created []model.Payment
	var status string
	txErr := runTx(ctx, s.transactions.DB(), func(tx *gorm.DB) error {
		txn, err := s.transactions.FindByIDForUpdateTx(tx, txnID)
		if err != nil {
			return apierror.NotFound("Transaction not found")
		}
		if txn.Status == model.StatusCompleted {
			return apierror.BusinessRule("Cannot modify payments of a completed transaction")
		}

		priorPaid, err := s.transactions.SumPaymentsTx(tx, txnID, nil)
		if err != nil {
			return err
		}
		if priorPaid.Add(batchTotal).GreaterThan(txn.TotalGross.Add(paymentTolerance)) {
			return apierror.BusinessRule("Total payment amount would exceed transaction amount")
		}

		for _, entry := range req.Payments {
			p := model.Payment{TransactionID: txnID, Method: entry.Method, Amount: round2(entry.Amount)}
			if err := s.transactions.CreatePaymentTx(tx, &p); err != nil {
				return err
			}
			created = append(created, p)
		}

		status = model.StatusPending
		if priorPaid.Add(batchTotal).GreaterThanOrEqual(txn.TotalGross) {
			status = model.StatusCompleted
			if err := s.transactions.UpdateTx(tx, txnID, map[string]interface{}{"status": status}); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if status == model.StatusCompleted {
		s.notifyCompleted(ctx, txnID)
	}

	resp := &dto.MultiplePaymentsResponse{
		Summary: dto.MultiplePaymentsSummary{
			TotalProcessed:    batchTotal,
			TransactionStatus: status,
		},
	}
	for i := range created {
		resp.Payments = append(resp.Payments, paymentToResponse(&created[i]))
	}
	return resp, nil
}

func (s *paymentService) Update(ctx context.Context, paymentID uuid.UUID, amount decimal.Decimal) (*dto.PaymentResult, error) {
	amount = round2(amount)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, apierror.Validation("Payment amount must be greater than 0")
	}

	payment, err := s.transactions.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, apierror.NotFound("Payment not found")
	}

	var status string
	txErr := runTx(ctx, s.transactions.DB(), func(tx *gorm.DB) error {
		txn, err := s.transactions.FindByIDForUpdateTx(tx, payment.TransactionID)
		if err != nil {
			return apierror.NotFound("Transaction not found")
		}
		if txn.Status == model.StatusCompleted {
			return apierror.BusinessRule("Cannot modify payments of a completed transaction")
		}

		// Overpayment check recomputed excluding the payment being edited
		otherPaid, err := s.transactions.SumPaymentsTx(tx, payment.TransactionID, &paymentID)
		if err != nil {
			return err
		}
		if otherPaid.Add(amount).GreaterThan(txn.TotalGross.Add(paymentTolerance)) {
			return apierror.BusinessRule("Payment amount exceeds remaining balance")
		}

		if err := s.transactions.UpdatePaymentAmountTx(tx, paymentID, amount); err != nil {
			return err
		}
		payment.Amount = amount

		status = model.StatusPending
		if otherPaid.Add(amount).GreaterThanOrEqual(txn.TotalGross) {
			status = model.StatusCompleted
			if err := s.transactions.UpdateTx(tx, payment.TransactionID, map[string]interface{}{"status": status}); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if status == model.StatusCompleted {
		s.notifyCompleted(ctx, payment.TransactionID)
	}

	return &dto.PaymentResult{
		Payment:           paymentToResponse(payment),
		TransactionStatus: status,
	}, nil
}

func (s *paymentService) Delete(ctx context.Context, paymentID uuid.UUID) error {
	payment, err := s.transactions.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return apierror.NotFound("Payment not found")
	}

	return runTx(ctx, s.transactions.DB(), func(tx *gorm.DB) error {
		txn, err := s.transactions.FindByIDForUpdateTx(tx, payment.TransactionID)
		if err != nil {
			return apierror.NotFound("Transaction not found")
		}
		if txn.Status == model.StatusCompleted {
			return apierror.BusinessRule("Cannot modify payments of a completed transaction")
		}
		return s.transactions.DeletePaymentTx(tx, paymentID)
	})
}

func (s *paymentService) ApplyEntriesTx(ctx context.Context, tx *gorm.DB, txn *model.Transaction, entries []dto.PaymentEntryRequest) ([]model.Payment, string, error) {
	total := decimal.Zero
	for _, entry := range entries {
		amount := round2(entry.Amount)
		if err := validatePaymentEntry(entry.Method, amount); err != nil {
			return nil, "", err
		}
		total = total.Add(amount)
	}
	if total.GreaterThan(txn.TotalGross.Add(paymentTolerance)) {
		return nil, "", apierror.BusinessRule("Total payment amount would exceed transaction amount")
	}

	var created []model.Payment
	for _, entry := range entries {
		p := model.Payment{TransactionID: txn.ID, Method: entry.Method, Amount: round2(entry.Amount)}
		if err := s.transactions.CreatePaymentTx(tx, &p); err != nil {
			return nil, "", err
		}
		created = append(created, p)
	}

	status := model.StatusPending
	if len(entries) > 0 && total.GreaterThanOrEqual(txn.TotalGross) {
		status = model.StatusCompleted
	}
	return created, status, nil
}

// notifyCompleted enqueues the receipt job. Best effort — settlement already
// committed, a queue failure only delays the receipt.
func (s *paymentService) notifyCompleted(ctx context.Context, txnID uuid.UUID) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.EnqueueReceipt(ctx, worker.ReceiptPayload{TransactionID: txnID.String()}); err != nil {
		log.Error().Err(err).Str("transaction_id", txnID.String()).Msg("failed to enqueue receipt job")
	}
}

func paymentToResponse(p *model.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:            p.ID.String(),
		TransactionID: p.TransactionID.String(),
		Method:        p.Method,
		Amount:        p.Amount,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
	}
}
