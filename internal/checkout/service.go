package checkout

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/angelmondragon/wholesale-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
	"github.com/angelmondragon/wholesale-backend/pkg/metrics"
	"github.com/angelmondragon/wholesale-backend/pkg/outbox"
)

const maxNotesLength = 2000

// Service places orders and prices carts.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*CommitResult, error)
	QuoteLine(ctx context.Context, line CartLine) (*ItemDraft, error)
	PreviewCart(ctx context.Context, lines []CartLine) (*CartPreview, error)
}

// PlaceOrderInput is a retailer's order request.
type PlaceOrderInput struct {
	AccountID    uuid.UUID
	Items        []CartLine
	PaymentTerms enums.PaymentTerms
	Notes        *string
	Actor        *outbox.ActorRef
}

type service struct {
	assembler   *Assembler
	coordinator *Coordinator
	metrics     *metrics.CheckoutMetrics
}

// NewService builds the checkout service.
func NewService(assembler *Assembler, coordinator *Coordinator, m *metrics.CheckoutMetrics) (Service, error) {
	if assembler == nil {
		return nil, fmt.Errorf("assembler required")
	}
	if coordinator == nil {
		return nil, fmt.Errorf("coordinator required")
	}
	return &service{assembler: assembler, coordinator: coordinator, metrics: m}, nil
}

// PlaceOrder assembles the cart outside any transaction, then commits it.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*CommitResult, error) {
	if !input.PaymentTerms.IsValid() {
		return nil, s.reject(pkgerrors.New(pkgerrors.CodeValidation, "invalid payment terms").
			WithDetails(map[string]any{"payment_terms": input.PaymentTerms}))
	}
	notes := normalizeNotes(input.Notes)
	if notes != nil && utf8.RuneCountInString(*notes) > maxNotesLength {
		return nil, s.reject(pkgerrors.New(pkgerrors.CodeValidation, "notes are too long").
			WithDetails(map[string]any{"max_length": maxNotesLength}))
	}

	assembled, err := s.assembler.Assemble(ctx, input.Items)
	if err != nil {
		return nil, s.reject(err)
	}

	result, err := s.coordinator.Commit(ctx, CommitInput{
		AccountID:    input.AccountID,
		Order:        assembled,
		PaymentTerms: input.PaymentTerms,
		Notes:        notes,
		Actor:        input.Actor,
	})
	if err != nil {
		return nil, s.reject(err)
	}
	return result, nil
}

func (s *service) QuoteLine(ctx context.Context, line CartLine) (*ItemDraft, error) {
	return s.assembler.PriceLine(ctx, line)
}

func (s *service) PreviewCart(ctx context.Context, lines []CartLine) (*CartPreview, error) {
	return s.assembler.Preview(ctx, lines)
}

// reject counts business rejections. Storage failures are not rejections.
func (s *service) reject(err error) error {
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() == pkgerrors.CodePersistence {
		return err
	}
	reason := pkgerrors.Reason(err)
	if reason == "" {
		reason = strings.ToLower(string(typed.Code()))
	}
	s.metrics.IncRejection(reason)
	return err
}

func normalizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
