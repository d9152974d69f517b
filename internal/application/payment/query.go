package payment

import (
	"context"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	dompay "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	useCasePaymentGet        = "payment.get"
	useCasePaymentGetByOrder = "payment.get_by_order"
)

type QueryService struct {
	repo dompay.Repository
	in   application.Instrument
}

func NewQueryService(repo dompay.Repository, tel observability.Observability) *QueryService {
	return &QueryService{repo: repo, in: application.NewInstrument(paymentService, tel)}
}

func (s *QueryService) Get(ctx context.Context, id string) (_ *dompay.Payment, err error) {
	ctx, run := s.in.Start(ctx, useCasePaymentGet, "GetPayment", attribute.String("payment.id", id))
	run.Annotate(observability.F("payment_id", id))
	defer func() { run.End(err) }()

	p, err := s.repo.Get(ctx, id)
	if err != nil {
		run.Fail("PAYMENT_LOOKUP_FAILED")
		return nil, err
	}
	return p, nil
}

func (s *QueryService) GetByOrder(ctx context.Context, orderID string) (_ *dompay.Payment, err error) {
	ctx, run := s.in.Start(ctx, useCasePaymentGetByOrder, "GetPaymentByOrder", attribute.String("order.id", orderID))
	run.Annotate(observability.F("order_id", orderID))
	defer func() { run.End(err) }()

	p, err := s.repo.GetByOrder(ctx, orderID)
	if err != nil {
		run.Fail("PAYMENT_LOOKUP_FAILED")
		return nil, err
	}
	return p, nil
}
