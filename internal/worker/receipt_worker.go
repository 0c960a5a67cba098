package worker

import (
	"context"
	"fmt"

	"poscore/internal/infra"
	"poscore/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReceiptWorker renders the PDF receipt for a completed transaction and,
// when the customer has an email on file, hands it off to the email queue.
type ReceiptWorker struct {
	transactions repository.TransactionRepository
	customers    repository.CustomerRepository
	dispatcher   *Dispatcher
	businessName string
	storagePath  string
}

func NewReceiptWorker(
	transactions repository.TransactionRepository,
	customers repository.CustomerRepository,
	dispatcher *Dispatcher,
	businessName, storagePath string,
) *ReceiptWorker {
	return &ReceiptWorker{
		transactions: transactions,
		customers:    customers,
		dispatcher:   dispatcher,
		businessName: businessName,
		storagePath:  storagePath,
	}
}

// Process renders the receipt PDF. A non-nil return means the job failed
// and the pool retries it, dead-lettering after the last attempt.
func (w *ReceiptWorker) Process(ctx context.Context, payload ReceiptPayload) error {
	id, err := uuid.Parse(payload.TransactionID)
	if err != nil {
		return fmt.Errorf("receipt job with invalid transaction id %q", payload.TransactionID)
	}
	txn, err := w.transactions.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("receipt job: transaction %s not found: %w", payload.TransactionID, err)
	}

	pdfPath, err := infra.GenerateReceiptPDF(txn, w.businessName, w.storagePath)
	if err != nil {
		return fmt.Errorf("receipt PDF generation for %s: %w", txn.ReceiptNumber, err)
	}
	log.Info().Str("receipt", txn.ReceiptNumber).Str("path", pdfPath).Msg("receipt PDF generated")

	// No customer or no email on file is a successful render, not a failure
	if txn.CustomerID == nil {
		return nil
	}
	customer, err := w.customers.FindByID(ctx, *txn.CustomerID)
	if err != nil || customer.Email == nil || *customer.Email == "" {
		return nil
	}

	emailJob := EmailPayload{
		To:      *customer.Email,
		Subject: fmt.Sprintf("Your receipt %s", txn.ReceiptNumber),
		Body:    fmt.Sprintf("Thank you for your purchase. Receipt %s is attached.", txn.ReceiptNumber),
		PDFPath: pdfPath,
	}
	if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
		return fmt.Errorf("enqueue receipt email for %s: %w", txn.ReceiptNumber, err)
	}
	return nil
}

// EmailWorker sends receipt emails. Deliveries go through a circuit breaker
// so a dead SMTP relay fast-fails instead of stalling the pool.
type EmailWorker struct {
	mailer *infra.Mailer
	cb     *infra.CircuitBreaker
}

func NewEmailWorker(mailer *infra.Mailer, cb *infra.CircuitBreaker) *EmailWorker {
	return &EmailWorker{mailer: mailer, cb: cb}
}

func (w *EmailWorker) Process(_ context.Context, payload EmailPayload) error {
	err := w.cb.Execute(func() error {
		return w.mailer.SendReceipt(payload.To, payload.Subject, payload.Body, payload.PDFPath)
	})
	if err != nil {
		return fmt.Errorf("receipt email to %s: %w", payload.To, err)
	}
	log.Info().Str("to", payload.To).Msg("receipt email sent")
	return nil
}
