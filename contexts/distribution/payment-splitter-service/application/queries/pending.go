package queries

import (
	"context"
	"strings"

	"gavel/contexts/distribution/payment-splitter-service/domain/entities"
	domainerrors "gavel/contexts/distribution/payment-splitter-service/domain/errors"
	"gavel/contexts/distribution/payment-splitter-service/domain/services"
	"gavel/contexts/distribution/payment-splitter-service/ports"
)

type PendingQuery struct {
	SplitterName string
	Token        string
	Payee        string
	ProjectID    uint64
}

type PendingUseCase struct {
	Splitters ports.SplitterRepository
	Ledger    ports.Ledger
}

func (uc PendingUseCase) Execute(ctx context.Context, q PendingQuery) (uint64, error) {
	token := strings.TrimSpace(q.Token)
	if token == "" {
		token = ports.NativeToken
	}
	splitter, err := uc.Splitters.GetSplitter(ctx, strings.TrimSpace(q.SplitterName))
	if err != nil {
		return 0, err
	}
	payeeKey := entities.Payee{Address: strings.TrimSpace(q.Payee)}.Key()
	if q.ProjectID != 0 {
		payeeKey = entities.Payee{ProjectID: q.ProjectID}.Key()
	}
	if _, registered := splitter.FindPayee(payeeKey); !registered {
		return 0, domainerrors.ErrNoShare
	}
	poolBalance, err := uc.Ledger.Balance(ctx, token, splitter.Account())
	if err != nil {
		return 0, err
	}
	return services.Pending(splitter, token, payeeKey, poolBalance), nil
}

type GetSplitterQuery struct {
	Name string
}

type GetSplitterUseCase struct {
	Splitters ports.SplitterRepository
}

func (uc GetSplitterUseCase) Execute(ctx context.Context, q GetSplitterQuery) (entities.Splitter, error) {
	return uc.Splitters.GetSplitter(ctx, strings.TrimSpace(q.Name))
}
