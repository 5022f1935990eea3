package httpserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	paymentsplitterservice "gavel/contexts/distribution/payment-splitter-service"
	vestingservice "gavel/contexts/distribution/vesting-service"
	listingservice "gavel/contexts/marketplace/listing-service"
	"gavel/contexts/marketplace/listing-service/domain/entities"
	listingports "gavel/contexts/marketplace/listing-service/ports"
	"gavel/internal/platform/cache"
	"gavel/internal/platform/httpserver"
)

type serverFixture struct {
	handler http.Handler
	market  listingservice.Module
}

func newServerFixture(t *testing.T) serverFixture {
	t.Helper()
	market := listingservice.NewInMemoryModule(entities.Settings{
		Owner:               "owner",
		ProjectID:           1,
		FeeReceiverTerminal: "terminal-fees",
		FeeRatePPB:          25_000_000,
		AllowPublicSales:    true,
		AllowPublicAuctions: true,
		PricingPeriod:       time.Hour,
	}, nil, nil)
	market.Treasury.RegisterTerminal(1, "terminal-fees", listingports.NativeToken)

	server := httpserver.New(
		market,
		paymentsplitterservice.NewInMemoryModule(nil),
		vestingservice.NewInMemoryModule(nil),
		cache.NewIdempotencyStore(time.Hour),
		nil,
		":0",
	)
	return serverFixture{handler: server.Mux(), market: market}
}

func (f serverFixture) do(t *testing.T, method, path, user string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if user != "" {
		req.Header.Set("X-User-Id", user)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	f.handler.ServeHTTP(recorder, req)
	return recorder
}

func errorCode(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return payload.Code
}

func TestCreateAndGetListingOverHTTP(t *testing.T) {
	f := newServerFixture(t)
	f.market.Treasury.MintAsset("gallery", 7, "seller-1")
	f.market.Treasury.ApproveOperator("gallery", 7, listingports.EscrowAccount)

	resp := f.do(t, http.MethodPost, "/api/market/v1/listings", "seller-1", map[string]any{
		"mode":             "fixed",
		"asset_contract":   "gallery",
		"token_id":         7,
		"price":            1000,
		"duration_seconds": 3600,
	}, nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", resp.Code, resp.Body.String())
	}

	resp = f.do(t, http.MethodGet, "/api/market/v1/listings/gallery/7", "", nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("get status = %d", resp.Code)
	}
	var got struct {
		Listing struct {
			Seller string `json:"seller"`
			Mode   string `json:"mode"`
		} `json:"listing"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if got.Listing.Seller != "seller-1" || got.Listing.Mode != "fixed" {
		t.Fatalf("listing = %+v", got.Listing)
	}
}

func TestOfferAndBidOverHTTP(t *testing.T) {
	f := newServerFixture(t)
	f.market.Treasury.MintAsset("gallery", 11, "seller-1")
	f.market.Treasury.ApproveOperator("gallery", 11, listingports.EscrowAccount)
	f.market.Treasury.MintAsset("gallery", 12, "seller-1")
	f.market.Treasury.ApproveOperator("gallery", 12, listingports.EscrowAccount)
	f.market.Treasury.Credit(listingports.NativeToken, "buyer-1", 2_000)
	f.market.Treasury.Credit(listingports.NativeToken, "bidder-1", 2_000)

	resp := f.do(t, http.MethodPost, "/api/market/v1/listings", "seller-1", map[string]any{
		"mode":             "fixed",
		"asset_contract":   "gallery",
		"token_id":         11,
		"price":            1_000,
		"duration_seconds": 3600,
	}, nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create sale status = %d, body %s", resp.Code, resp.Body.String())
	}
	resp = f.do(t, http.MethodPost, "/api/market/v1/listings/gallery/11/offer", "buyer-1", map[string]any{
		"amount": 1_000,
	}, nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("offer status = %d, body %s", resp.Code, resp.Body.String())
	}

	resp = f.do(t, http.MethodPost, "/api/market/v1/listings", "seller-1", map[string]any{
		"mode":             "english",
		"asset_contract":   "gallery",
		"token_id":         12,
		"base_price":       100,
		"duration_seconds": 3600,
	}, nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create auction status = %d, body %s", resp.Code, resp.Body.String())
	}
	resp = f.do(t, http.MethodPost, "/api/market/v1/listings/gallery/12/bids", "bidder-1", map[string]any{
		"amount": 500,
	}, nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("bid status = %d, body %s", resp.Code, resp.Body.String())
	}
	resp = f.do(t, http.MethodPost, "/api/market/v1/listings/gallery/12/bids", "bidder-1", map[string]any{
		"amount": 500,
	}, nil)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("matching bid status = %d", resp.Code)
	}
	if code := errorCode(t, resp); code != "INVALID_BID" {
		t.Fatalf("matching bid code = %s", code)
	}
}

func TestErrorCodesSurfaceInResponses(t *testing.T) {
	f := newServerFixture(t)

	resp := f.do(t, http.MethodGet, "/api/market/v1/listings/gallery/404", "", nil, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("missing listing status = %d", resp.Code)
	}
	if code := errorCode(t, resp); code != "INVALID_SALE" {
		t.Fatalf("missing listing code = %s", code)
	}

	resp = f.do(t, http.MethodPost, "/api/splitters/v1/splitters", "owner", map[string]any{
		"name": "empty",
	}, nil)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty splitter status = %d", resp.Code)
	}
	if code := errorCode(t, resp); code != "INVALID_LENGTH" {
		t.Fatalf("empty splitter code = %s", code)
	}

	resp = f.do(t, http.MethodPost, "/api/vesting/v1/plans/nope/distribute", "", nil, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("unknown plan status = %d", resp.Code)
	}
	if code := errorCode(t, resp); code != "INVALID_PLAN" {
		t.Fatalf("unknown plan code = %s", code)
	}

	resp = f.do(t, http.MethodPost, "/api/market/v1/listings", "", map[string]any{}, nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("missing user status = %d", resp.Code)
	}
}

func TestIdempotencyKeyReplaysRecordedResponse(t *testing.T) {
	f := newServerFixture(t)
	f.market.Treasury.MintAsset("gallery", 9, "seller-1")
	f.market.Treasury.ApproveOperator("gallery", 9, listingports.EscrowAccount)

	body := map[string]any{
		"mode":             "fixed",
		"asset_contract":   "gallery",
		"token_id":         9,
		"price":            500,
		"duration_seconds": 3600,
	}
	headers := map[string]string{"Idempotency-Key": "create-9"}

	first := f.do(t, http.MethodPost, "/api/market/v1/listings", "seller-1", body, headers)
	if first.Code != http.StatusCreated {
		t.Fatalf("first create status = %d, body %s", first.Code, first.Body.String())
	}

	// A replay with the same key must not hit the module again; without the
	// key the duplicate create would return SALE_EXISTS.
	second := f.do(t, http.MethodPost, "/api/market/v1/listings", "seller-1", body, headers)
	if second.Code != http.StatusCreated {
		t.Fatalf("replay status = %d, body %s", second.Code, second.Body.String())
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("replay body differs: %s vs %s", second.Body.String(), first.Body.String())
	}

	fresh := f.do(t, http.MethodPost, "/api/market/v1/listings", "seller-1", body, nil)
	if fresh.Code != http.StatusConflict {
		t.Fatalf("duplicate without key status = %d", fresh.Code)
	}
	if code := errorCode(t, fresh); code != "SALE_EXISTS" {
		t.Fatalf("duplicate code = %s", code)
	}
}
