package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"gavel/contexts/distribution/payment-splitter-service/application/commands"
	"gavel/contexts/distribution/payment-splitter-service/application/queries"
	"gavel/contexts/distribution/payment-splitter-service/domain/entities"
	httptransport "gavel/contexts/distribution/payment-splitter-service/transport/http"
)

type Handler struct {
	CreateSplitter commands.CreateSplitterUseCase
	ReceivePayment commands.ReceivePaymentUseCase
	Distribute     commands.DistributeUseCase
	AddPayee       commands.AddPayeeUseCase
	Pending        queries.PendingUseCase
	GetSplitter    queries.GetSplitterUseCase
	Logger         *slog.Logger
}

func (h Handler) CreateSplitterHandler(
	ctx context.Context,
	owner string,
	req httptransport.CreateSplitterRequest,
) (httptransport.GetSplitterResponse, error) {
	result, err := h.CreateSplitter.Execute(ctx, commands.CreateSplitterCommand{
		Name:     req.Name,
		Owner:    owner,
		Payees:   req.Payees,
		Projects: req.Projects,
		Shares:   req.Shares,
	})
	if err != nil {
		return httptransport.GetSplitterResponse{}, err
	}
	return httptransport.GetSplitterResponse{
		Splitter: mapSplitter(result.Splitter),
	}, nil
}

func (h Handler) ReceivePaymentHandler(
	ctx context.Context,
	from, splitterName string,
	req httptransport.ReceivePaymentRequest,
) error {
	return h.ReceivePayment.Execute(ctx, commands.ReceivePaymentCommand{
		SplitterName: splitterName,
		From:         from,
		Amount:       req.Amount,
	})
}

func (h Handler) DistributeHandler(
	ctx context.Context,
	splitterName string,
	req httptransport.DistributeRequest,
) (httptransport.DistributeResponse, error) {
	result, err := h.Distribute.Execute(ctx, commands.DistributeCommand{
		SplitterName: splitterName,
		Token:        req.Token,
		Payee:        req.Payee,
		ProjectID:    req.ProjectID,
		Memo:         req.Memo,
	})
	if err != nil {
		return httptransport.DistributeResponse{}, err
	}
	return httptransport.DistributeResponse{Amount: result.Amount}, nil
}

func (h Handler) AddPayeeHandler(
	ctx context.Context,
	caller, splitterName string,
	req httptransport.AddPayeeRequest,
) error {
	return h.AddPayee.Execute(ctx, commands.AddPayeeCommand{
		SplitterName: splitterName,
		Caller:       caller,
		Address:      req.Address,
		ProjectID:    req.ProjectID,
		ShareUnits:   req.ShareUnits,
	})
}

func (h Handler) PendingHandler(
	ctx context.Context,
	splitterName, token, payee string,
	projectID uint64,
) (httptransport.PendingResponse, error) {
	pending, err := h.Pending.Execute(ctx, queries.PendingQuery{
		SplitterName: splitterName,
		Token:        token,
		Payee:        payee,
		ProjectID:    projectID,
	})
	if err != nil {
		return httptransport.PendingResponse{}, err
	}
	return httptransport.PendingResponse{Pending: pending}, nil
}

func (h Handler) GetSplitterHandler(ctx context.Context, name string) (httptransport.GetSplitterResponse, error) {
	splitter, err := h.GetSplitter.Execute(ctx, queries.GetSplitterQuery{Name: name})
	if err != nil {
		return httptransport.GetSplitterResponse{}, err
	}
	return httptransport.GetSplitterResponse{Splitter: mapSplitter(splitter)}, nil
}

func mapSplitter(item entities.Splitter) httptransport.SplitterDTO {
	payees := make([]httptransport.PayeeDTO, 0, len(item.Payees))
	for _, payee := range item.Payees {
		payees = append(payees, httptransport.PayeeDTO{
			Address:    payee.Address,
			ProjectID:  payee.ProjectID,
			ShareUnits: payee.ShareUnits,
		})
	}
	return httptransport.SplitterDTO{
		Name:      item.Name,
		Owner:     item.Owner,
		Payees:    payees,
		CreatedAt: item.CreatedAt.UTC().Format(time.RFC3339),
	}
}
