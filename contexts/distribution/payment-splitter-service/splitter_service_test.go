package paymentsplitterservice_test

import (
	"context"
	"errors"
	"testing"

	paymentsplitterservice "gavel/contexts/distribution/payment-splitter-service"
	"gavel/contexts/distribution/payment-splitter-service/application/commands"
	"gavel/contexts/distribution/payment-splitter-service/application/workers"
	domainerrors "gavel/contexts/distribution/payment-splitter-service/domain/errors"
	"gavel/contexts/distribution/payment-splitter-service/ports"
	httptransport "gavel/contexts/distribution/payment-splitter-service/transport/http"
)

type capturePublisher struct {
	topics []string
}

func (p *capturePublisher) Publish(_ context.Context, topic string, _ ports.EventEnvelope) error {
	p.topics = append(p.topics, topic)
	return nil
}

func TestCreateSplitterValidation(t *testing.T) {
	module := paymentsplitterservice.NewInMemoryModule(nil)
	ctx := context.Background()

	cases := []struct {
		name string
		req  httptransport.CreateSplitterRequest
		want error
	}{
		{
			name: "empty payee set",
			req:  httptransport.CreateSplitterRequest{Name: "s1"},
			want: domainerrors.ErrInvalidLength,
		},
		{
			name: "share count mismatch",
			req: httptransport.CreateSplitterRequest{
				Name:   "s1",
				Payees: []string{"alice", "bob"},
				Shares: []uint64{500_000},
			},
			want: domainerrors.ErrInvalidLength,
		},
		{
			name: "zero share",
			req: httptransport.CreateSplitterRequest{
				Name:   "s1",
				Payees: []string{"alice"},
				Shares: []uint64{0},
			},
			want: domainerrors.ErrInvalidShare,
		},
		{
			name: "empty address",
			req: httptransport.CreateSplitterRequest{
				Name:   "s1",
				Payees: []string{"  "},
				Shares: []uint64{100},
			},
			want: domainerrors.ErrInvalidPayee,
		},
		{
			name: "zero project",
			req: httptransport.CreateSplitterRequest{
				Name:     "s1",
				Projects: []uint64{0},
				Shares:   []uint64{100},
			},
			want: domainerrors.ErrInvalidPayee,
		},
		{
			name: "project without terminal",
			req: httptransport.CreateSplitterRequest{
				Name:     "s1",
				Projects: []uint64{42},
				Shares:   []uint64{100},
			},
			want: domainerrors.ErrMissingProjectTerminal,
		},
		{
			name: "oversubscribed shares",
			req: httptransport.CreateSplitterRequest{
				Name:   "s1",
				Payees: []string{"alice", "bob"},
				Shares: []uint64{900_000, 200_000},
			},
			want: domainerrors.ErrInvalidShareTotal,
		},
	}

	for _, tc := range cases {
		if _, err := module.Handler.CreateSplitterHandler(ctx, "owner", tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestNativePoolReceiveAndDistribute(t *testing.T) {
	module := paymentsplitterservice.NewInMemoryModule(nil)
	ctx := context.Background()
	module.Store.Credit(ports.NativeToken, "payer", 1_500)

	if _, err := module.Handler.CreateSplitterHandler(ctx, "owner", httptransport.CreateSplitterRequest{
		Name:   "royalties",
		Payees: []string{"alice", "bob"},
		Shares: []uint64{600_000, 300_000}, // 10% deliberately unassigned
	}); err != nil {
		t.Fatalf("create splitter failed: %v", err)
	}

	if err := module.Handler.ReceivePaymentHandler(ctx, "payer", "royalties", httptransport.ReceivePaymentRequest{
		Amount: 1_000,
	}); err != nil {
		t.Fatalf("receive failed: %v", err)
	}

	pending, err := module.Handler.PendingHandler(ctx, "royalties", "", "alice", 0)
	if err != nil {
		t.Fatalf("pending failed: %v", err)
	}
	if pending.Pending != 600 {
		t.Fatalf("expected 600 pending for alice, got %d", pending.Pending)
	}

	released, err := module.Handler.DistributeHandler(ctx, "royalties", httptransport.DistributeRequest{Payee: "alice"})
	if err != nil {
		t.Fatalf("distribute failed: %v", err)
	}
	if released.Amount != 600 {
		t.Fatalf("expected 600 released, got %d", released.Amount)
	}
	if got, _ := module.Store.Balance(ctx, ports.NativeToken, "alice"); got != 600 {
		t.Fatalf("expected alice balance 600, got %d", got)
	}

	_, err = module.Handler.DistributeHandler(ctx, "royalties", httptransport.DistributeRequest{Payee: "alice"})
	if !errors.Is(err, domainerrors.ErrNothingDue) {
		t.Fatalf("expected NOTHING_DUE on repeat, got %v", err)
	}
	_, err = module.Handler.DistributeHandler(ctx, "royalties", httptransport.DistributeRequest{Payee: "mallory"})
	if !errors.Is(err, domainerrors.ErrNoShare) {
		t.Fatalf("expected NO_SHARE for stranger, got %v", err)
	}

	// A second receipt accrues on top of the already-drawn pool.
	if err := module.Handler.ReceivePaymentHandler(ctx, "payer", "royalties", httptransport.ReceivePaymentRequest{
		Amount: 500,
	}); err != nil {
		t.Fatalf("second receive failed: %v", err)
	}
	pending, err = module.Handler.PendingHandler(ctx, "royalties", "", "alice", 0)
	if err != nil {
		t.Fatalf("pending failed: %v", err)
	}
	if pending.Pending != 300 {
		t.Fatalf("expected 300 pending after second receipt, got %d", pending.Pending)
	}
	if _, err := module.Handler.DistributeHandler(ctx, "royalties", httptransport.DistributeRequest{Payee: "bob"}); err != nil {
		t.Fatalf("bob distribute failed: %v", err)
	}
	if got, _ := module.Store.Balance(ctx, ports.NativeToken, "bob"); got != 450 {
		t.Fatalf("expected bob balance 450, got %d", got)
	}
}

func TestTokenPoolAccruesByDirectTransfer(t *testing.T) {
	module := paymentsplitterservice.NewInMemoryModule(nil)
	ctx := context.Background()

	if _, err := module.Handler.CreateSplitterHandler(ctx, "owner", httptransport.CreateSplitterRequest{
		Name:   "token-split",
		Payees: []string{"alice"},
		Shares: []uint64{1_000_000},
	}); err != nil {
		t.Fatalf("create splitter failed: %v", err)
	}

	module.Store.Credit("dai", "splitter/token-split", 2_000)

	pending, err := module.Handler.PendingHandler(ctx, "token-split", "dai", "alice", 0)
	if err != nil {
		t.Fatalf("pending failed: %v", err)
	}
	if pending.Pending != 2_000 {
		t.Fatalf("expected full token pool pending, got %d", pending.Pending)
	}

	if _, err := module.Handler.DistributeHandler(ctx, "token-split", httptransport.DistributeRequest{
		Token: "dai", Payee: "alice",
	}); err != nil {
		t.Fatalf("token distribute failed: %v", err)
	}
	if got, _ := module.Store.Balance(ctx, "dai", "alice"); got != 2_000 {
		t.Fatalf("expected alice dai balance 2000, got %d", got)
	}
}

func TestProjectPayeeRoutesThroughTerminal(t *testing.T) {
	module := paymentsplitterservice.NewInMemoryModule(nil)
	ctx := context.Background()
	module.Store.Credit(ports.NativeToken, "payer", 1_000)
	module.Store.RegisterTerminal(5, "terminal-5", ports.NativeToken)

	if _, err := module.Handler.CreateSplitterHandler(ctx, "owner", httptransport.CreateSplitterRequest{
		Name:     "project-split",
		Projects: []uint64{5},
		Shares:   []uint64{1_000_000},
	}); err != nil {
		t.Fatalf("create splitter failed: %v", err)
	}
	if err := module.Handler.ReceivePaymentHandler(ctx, "payer", "project-split", httptransport.ReceivePaymentRequest{
		Amount: 1_000,
	}); err != nil {
		t.Fatalf("receive failed: %v", err)
	}

	if _, err := module.Handler.DistributeHandler(ctx, "project-split", httptransport.DistributeRequest{
		ProjectID: 5,
	}); err != nil {
		t.Fatalf("project distribute failed: %v", err)
	}
	if got := module.Store.TerminalBalance("terminal-5", ports.NativeToken); got != 1_000 {
		t.Fatalf("expected 1000 in project terminal, got %d", got)
	}

	// The token pool has no terminal registered for this project.
	module.Store.Credit("dai", "splitter/project-split", 100)
	_, err := module.Handler.DistributeHandler(ctx, "project-split", httptransport.DistributeRequest{
		Token: "dai", ProjectID: 5,
	})
	if !errors.Is(err, domainerrors.ErrPaymentFailure) {
		t.Fatalf("expected PAYMENT_FAILURE without token terminal, got %v", err)
	}
}

func TestAddPayee(t *testing.T) {
	module := paymentsplitterservice.NewInMemoryModule(nil)
	ctx := context.Background()

	if _, err := module.Handler.CreateSplitterHandler(ctx, "owner", httptransport.CreateSplitterRequest{
		Name:   "grow",
		Payees: []string{"alice"},
		Shares: []uint64{800_000},
	}); err != nil {
		t.Fatalf("create splitter failed: %v", err)
	}

	err := module.Handler.AddPayeeHandler(ctx, "intruder", "grow", httptransport.AddPayeeRequest{
		Address: "bob", ShareUnits: 100_000,
	})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED for non-owner, got %v", err)
	}

	err = module.Handler.AddPayeeHandler(ctx, "owner", "grow", httptransport.AddPayeeRequest{
		Address: "bob", ShareUnits: 0,
	})
	if !errors.Is(err, domainerrors.ErrInvalidShare) {
		t.Fatalf("expected INVALID_SHARE, got %v", err)
	}

	err = module.Handler.AddPayeeHandler(ctx, "owner", "grow", httptransport.AddPayeeRequest{
		Address: "bob", ShareUnits: 300_000,
	})
	if !errors.Is(err, domainerrors.ErrInvalidShareTotal) {
		t.Fatalf("expected INVALID_SHARE_TOTAL over denominator, got %v", err)
	}

	if err := module.Handler.AddPayeeHandler(ctx, "owner", "grow", httptransport.AddPayeeRequest{
		Address: "bob", ShareUnits: 200_000,
	}); err != nil {
		t.Fatalf("add payee failed: %v", err)
	}

	splitter, err := module.Handler.GetSplitterHandler(ctx, "grow")
	if err != nil {
		t.Fatalf("get splitter failed: %v", err)
	}
	if len(splitter.Splitter.Payees) != 2 {
		t.Fatalf("expected 2 payees, got %d", len(splitter.Splitter.Payees))
	}
}

func TestSplitterOutboxEventNames(t *testing.T) {
	module := paymentsplitterservice.NewInMemoryModule(nil)
	ctx := context.Background()
	module.Store.Credit(ports.NativeToken, "payer", 1_000)
	module.Store.RegisterTerminal(5, "terminal-5", ports.NativeToken)

	if _, err := module.Handler.CreateSplitterHandler(ctx, "owner", httptransport.CreateSplitterRequest{
		Name:     "events",
		Payees:   []string{"alice"},
		Projects: []uint64{5},
		Shares:   []uint64{500_000, 500_000},
	}); err != nil {
		t.Fatalf("create splitter failed: %v", err)
	}
	if err := module.Handler.ReceivePaymentHandler(ctx, "payer", "events", httptransport.ReceivePaymentRequest{
		Amount: 1_000,
	}); err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	if _, err := module.Handler.DistributeHandler(ctx, "events", httptransport.DistributeRequest{Payee: "alice"}); err != nil {
		t.Fatalf("address distribute failed: %v", err)
	}
	if _, err := module.Handler.DistributeHandler(ctx, "events", httptransport.DistributeRequest{ProjectID: 5}); err != nil {
		t.Fatalf("project distribute failed: %v", err)
	}
	module.Store.Credit("dai", "splitter/events", 200)
	if _, err := module.Handler.DistributeHandler(ctx, "events", httptransport.DistributeRequest{
		Token: "dai", Payee: "alice",
	}); err != nil {
		t.Fatalf("token distribute failed: %v", err)
	}

	publisher := &capturePublisher{}
	relay := workers.OutboxRelay{Outbox: module.Store, Publisher: publisher}
	if err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("relay failed: %v", err)
	}

	seen := map[string]bool{}
	for _, topic := range publisher.topics {
		seen[topic] = true
	}
	for _, want := range []string{
		commands.EventPaymentReceived,
		commands.EventPaymentReleased,
		commands.EventProjectPaymentReleased,
		commands.EventTokenPaymentReleased,
	} {
		if !seen[want] {
			t.Fatalf("expected %s event, saw %v", want, publisher.topics)
		}
	}
}
