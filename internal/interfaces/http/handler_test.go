package httpinterface_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/reserve-lister/internal/core/application"
	"github.com/tdex-network/reserve-lister/internal/core/domain"
	staticoracle "github.com/tdex-network/reserve-lister/internal/infrastructure/oracle/static"
	"github.com/tdex-network/reserve-lister/internal/infrastructure/orderbook"
	"github.com/tdex-network/reserve-lister/internal/infrastructure/pubsub"
	"github.com/tdex-network/reserve-lister/internal/infrastructure/registry"
	httpinterface "github.com/tdex-network/reserve-lister/internal/interfaces/http"
)

const (
	lister          = "0x1010101010101010101010101010101010101010"
	admin           = "0x7070707070707070707070707070707070707070"
	registryAddr    = "0x4040404040404040404040404040404040404040"
	factoryAddr     = "0x5050505050505050505050505050505050505050"
	priceOracleAddr = "0x6060606060606060606060606060606060606060"
	rateOracleAddr  = "0x6161616161616161616161616161616161616161"
	governanceToken = "0x8080808080808080808080808080808080808080"
	asset           = "0x1111111111111111111111111111111111111111"
	maker           = "0x2121212121212121212121212121212121212121"
	otherMaker      = "0x2323232323232323232323232323232323232323"
)

var (
	ctx        = context.Background()
	authSecret = []byte("0123456789abcdef0123456789abcdef")
)

func units(v int64) decimal.Decimal {
	return decimal.NewFromInt(v).Mul(domain.RatePrecision)
}

type testServer struct {
	*httptest.Server
	rateOracle *staticoracle.Oracle
}

func newTestServer(t *testing.T, requestsPerSecond int) *testServer {
	network, err := registry.NewNetwork(registryAddr, admin, lister)
	require.NoError(t, err)
	factory, err := orderbook.NewFactory(factoryAddr)
	require.NoError(t, err)
	webhooks, err := pubsub.NewService(0)
	require.NoError(t, err)
	priceOracle := staticoracle.NewOracle(priceOracleAddr, units(200))
	rateOracle := staticoracle.NewOracle(rateOracleAddr, units(600))

	cfg := &application.Config{
		DBType:       application.DBInMemory,
		AdminAddress: admin,
		RateOracle:   rateOracle,
		PubSub:       webhooks,
		Lister: application.ListerConfig{
			Address:            lister,
			Registry:           network,
			OrderbookFactory:   factory,
			PriceOracle:        priceOracle,
			GovernanceToken:    governanceToken,
			MaxOrdersPerTrade:  5,
			MinListingValueUsd: decimal.NewFromInt(1000),
		},
	}
	require.NoError(t, cfg.Validate())

	feeLedger := cfg.FeeLedgerService()
	require.NoError(t, feeLedger.Init(ctx))
	require.NoError(t, feeLedger.AddOperator(ctx, admin, lister))

	router := httpinterface.NewRouter(
		cfg.ListerService(), cfg.ReserveService(), feeLedger,
		cfg.PubSubService(), authSecret, requestsPerSecond,
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{srv, rateOracle}
}

func (s *testServer) do(
	t *testing.T, method, path string, body interface{},
) (int, map[string]interface{}) {
	return s.doWithToken(t, "", method, path, body)
}

// doAs sends the request with a bearer token authenticating identity.
func (s *testServer) doAs(
	t *testing.T, identity, method, path string, body interface{},
) (int, map[string]interface{}) {
	token, err := httpinterface.IssueToken(authSecret, identity, time.Hour)
	require.NoError(t, err)
	return s.doWithToken(t, token, method, path, body)
}

func (s *testServer) doWithToken(
	t *testing.T, token, method, path string, body interface{},
) (int, map[string]interface{}) {
	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}
	req, err := http.NewRequest(method, s.URL+path, &reqBody)
	require.NoError(t, err)
	if len(token) > 0 {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	res := make(map[string]interface{})
	if resp.StatusCode != http.StatusNoContent &&
		resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	}
	return resp.StatusCode, res
}

func TestListingEndpoints(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, 0)
	listingPath := fmt.Sprintf("/v1/listings/%s", asset)

	status, res := srv.do(t, http.MethodGet, listingPath, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "NONE", res["stage"])
	require.Equal(t, "", res["reserve"])

	status, _ = srv.do(t, http.MethodGet, "/v1/listings/0x00", nil)
	require.Equal(t, http.StatusBadRequest, status)

	status, res = srv.do(
		t, http.MethodGet, "/v1/listings/0x0000000000000000000000000000000000000000", nil,
	)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "NONE", res["stage"])

	status, res = srv.do(t, http.MethodPost, listingPath+"/add", nil)
	require.Equal(t, http.StatusOK, status)
	reserve, ok := res["reserve"].(string)
	require.True(t, ok)
	require.True(t, domain.IsValidAddress(reserve))

	status, _ = srv.do(t, http.MethodPost, listingPath+"/add", nil)
	require.Equal(t, http.StatusConflict, status)
	status, _ = srv.do(t, http.MethodPost, listingPath+"/list", nil)
	require.Equal(t, http.StatusConflict, status)

	status, res = srv.do(t, http.MethodPost, listingPath+"/init", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "INIT", res["stage"])

	status, res = srv.do(t, http.MethodPost, listingPath+"/list", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "LISTED", res["stage"])
	require.Equal(t, reserve, res["reserve"])

	status, _ = srv.do(t, http.MethodPost, listingPath+"/unlist?index=0", nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)

	srv.rateOracle.SetRate(units(3600))
	status, res = srv.do(t, http.MethodPost, "/v1/fees/refresh", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, units(3600).String(), res["rate"])

	status, _ = srv.do(t, http.MethodPost, listingPath+"/unlist", nil)
	require.Equal(t, http.StatusBadRequest, status)

	status, res = srv.do(t, http.MethodPost, listingPath+"/unlist?index=0", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "NONE", res["stage"])
	require.Equal(t, []interface{}{reserve}, res["past_reserves"])

	status, res = srv.do(t, http.MethodGet, "/v1/lister", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, registryAddr, res["registry"])
	require.Equal(t, "1000", res["min_listing_value_usd"])
}

func TestReserveEndpoints(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, 0)
	listingPath := fmt.Sprintf("/v1/listings/%s", asset)

	_, res := srv.do(t, http.MethodPost, listingPath+"/add", nil)
	reserve := res["reserve"].(string)
	status, _ := srv.do(t, http.MethodPost, listingPath+"/init", nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = srv.do(t, http.MethodPost, listingPath+"/list", nil)
	require.Equal(t, http.StatusOK, status)

	reservePath := fmt.Sprintf("/v1/reserves/%s", reserve)

	status, _ = srv.doAs(t, maker, http.MethodPost, reservePath+"/deposit", map[string]string{
		"kind": "quote", "amount": "1",
	})
	require.Equal(t, http.StatusBadRequest, status)

	status, res = srv.doAs(t, maker, http.MethodPost, reservePath+"/deposit", map[string]string{
		"kind": "base", "amount": units(100).String(),
	})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, reserve, res["address"])

	status, _ = srv.doAs(t, maker, http.MethodPost, reservePath+"/stake", map[string]string{
		"amount": units(1000).String(),
	})
	require.Equal(t, http.StatusOK, status)

	status, _ = srv.doAs(t, maker, http.MethodPost, reservePath+"/orders", map[string]string{
		"src_amount": units(1).String(), "dst_amount": units(1).String(),
	})
	require.Equal(t, http.StatusUnprocessableEntity, status)

	status, res = srv.doAs(t, maker, http.MethodPost, reservePath+"/orders", map[string]string{
		"src_amount": units(5).String(), "dst_amount": units(1000).String(),
	})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, float64(1), res["id"])

	status, res = srv.do(t, http.MethodGet, reservePath+"/trust", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, false, res["blocked"])

	status, _ = srv.doAs(t, maker, http.MethodPost, reservePath+"/orders/1/take", nil)
	require.Equal(t, http.StatusForbidden, status)
	status, _ = srv.doAs(t, lister, http.MethodPost, reservePath+"/orders/7/take", nil)
	require.Equal(t, http.StatusNotFound, status)
	status, _ = srv.doAs(t, lister, http.MethodPost, reservePath+"/orders/abc/take", nil)
	require.Equal(t, http.StatusBadRequest, status)

	status, res = srv.doAs(t, lister, http.MethodPost, reservePath+"/orders/1/take", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, units(5).String(), res["src_amount"])

	burnPath := fmt.Sprintf("/v1/fees/%s", reserve)
	status, _ = srv.doAs(t, maker, http.MethodPost, burnPath+"/burn", nil)
	require.Equal(t, http.StatusForbidden, status)

	status, res = srv.doAs(t, lister, http.MethodPost, burnPath+"/burn", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "7499999999999999999", res["amount"])

	status, res = srv.do(t, http.MethodGet, burnPath+"/burns", nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, res["burns"], 1)

	status, _ = srv.do(t, http.MethodGet, "/v1/reserves/"+maker, nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestFeeOperatorEndpoints(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, 0)

	status, _ := srv.doAs(t, maker, http.MethodPost, "/v1/fees/operators", map[string]string{
		"operator": maker,
	})
	require.Equal(t, http.StatusForbidden, status)

	status, res := srv.doAs(t, admin, http.MethodPost, "/v1/fees/operators", map[string]string{
		"operator": maker,
	})
	require.Equal(t, http.StatusOK, status)
	require.ElementsMatch(t, []interface{}{lister, maker}, res["operators"])

	status, res = srv.doAs(t, admin, http.MethodDelete, "/v1/fees/operators", map[string]string{
		"operator": maker,
	})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, []interface{}{lister}, res["operators"])
}

func TestWebhookEndpoints(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, 0)
	hook := map[string]string{
		"topic":    application.TopicListingStageChanged,
		"endpoint": "http://localhost:9999/hook",
		"secret":   "secret",
	}

	status, _ := srv.doAs(t, admin, http.MethodPost, "/v1/webhooks", map[string]string{
		"topic": "UNKNOWN", "endpoint": "http://localhost:9999/hook",
	})
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = srv.doAs(t, maker, http.MethodPost, "/v1/webhooks", hook)
	require.Equal(t, http.StatusForbidden, status)

	status, res := srv.doAs(t, admin, http.MethodPost, "/v1/webhooks", hook)
	require.Equal(t, http.StatusOK, status)
	id := res["id"].(string)

	status, _ = srv.doAs(t, maker, http.MethodGet, "/v1/webhooks", nil)
	require.Equal(t, http.StatusForbidden, status)
	status, res = srv.doAs(t, admin, http.MethodGet, "/v1/webhooks", nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, res["webhooks"], 1)

	status, _ = srv.doAs(t, maker, http.MethodDelete, "/v1/webhooks/"+id, nil)
	require.Equal(t, http.StatusForbidden, status)
	status, _ = srv.doAs(t, admin, http.MethodDelete, "/v1/webhooks/"+id, nil)
	require.Equal(t, http.StatusNoContent, status)
	status, _ = srv.doAs(t, admin, http.MethodDelete, "/v1/webhooks/"+id, nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestAuthentication(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, 0)
	operatorReq := map[string]string{"operator": otherMaker}

	forgedToken, err := httpinterface.IssueToken(
		[]byte("fedcba9876543210fedcba9876543210"), admin, time.Hour,
	)
	require.NoError(t, err)
	wrongAudience, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Audience: "webhook", Subject: admin,
	}).SignedString(authSecret)
	require.NoError(t, err)
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Audience:  httpinterface.TokenAudience,
		Subject:   admin,
		ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	}).SignedString(authSecret)
	require.NoError(t, err)
	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.StandardClaims{
		Audience: httpinterface.TokenAudience, Subject: admin,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"token signed with another secret", forgedToken},
		{"token for another audience", wrongAudience},
		{"expired token", expired},
		{"unsigned token", noneAlg},
		{"malformed token", "not-a-jwt"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			status, _ := srv.doWithToken(
				t, tt.token, http.MethodPost, "/v1/fees/operators", operatorReq,
			)
			require.Equal(t, http.StatusUnauthorized, status)
		})
	}

	// The acting identity comes from the token only.
	status, _ := srv.doAs(t, maker, http.MethodPost, "/v1/fees/operators", map[string]string{
		"caller": admin, "operator": otherMaker,
	})
	require.Equal(t, http.StatusBadRequest, status)
	status, _ = srv.doAs(t, maker, http.MethodPost, "/v1/fees/operators", operatorReq)
	require.Equal(t, http.StatusForbidden, status)

	_, res := srv.do(t, http.MethodGet, "/v1/fees", nil)
	require.Equal(t, []interface{}{lister}, res["operators"])
}

func TestMakerIsolation(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, 0)
	listingPath := fmt.Sprintf("/v1/listings/%s", asset)
	_, res := srv.do(t, http.MethodPost, listingPath+"/add", nil)
	reserve := res["reserve"].(string)
	srv.do(t, http.MethodPost, listingPath+"/init", nil)
	srv.do(t, http.MethodPost, listingPath+"/list", nil)
	reservePath := fmt.Sprintf("/v1/reserves/%s", reserve)

	deposit := map[string]string{"kind": "base", "amount": units(100).String()}
	status, _ := srv.do(t, http.MethodPost, reservePath+"/deposit", deposit)
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = srv.doAs(t, maker, http.MethodPost, reservePath+"/deposit", deposit)
	require.Equal(t, http.StatusOK, status)
	status, _ = srv.doAs(t, maker, http.MethodPost, reservePath+"/stake", map[string]string{
		"amount": units(1000).String(),
	})
	require.Equal(t, http.StatusOK, status)
	status, _ = srv.doAs(t, maker, http.MethodPost, reservePath+"/orders", map[string]string{
		"src_amount": units(5).String(), "dst_amount": units(1000).String(),
	})
	require.Equal(t, http.StatusOK, status)

	status, _ = srv.doAs(t, otherMaker, http.MethodPost, reservePath+"/withdraw", map[string]string{
		"maker": maker, "kind": "base", "amount": units(95).String(),
	})
	require.Equal(t, http.StatusBadRequest, status)
	status, _ = srv.doAs(t, otherMaker, http.MethodPost, reservePath+"/withdraw", map[string]string{
		"kind": "base", "amount": units(95).String(),
	})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	status, _ = srv.doAs(t, otherMaker, http.MethodPost, reservePath+"/unstake", map[string]string{
		"amount": units(1).String(),
	})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	status, _ = srv.doAs(t, otherMaker, http.MethodDelete, reservePath+"/orders/1", nil)
	require.Equal(t, http.StatusForbidden, status)

	status, res = srv.do(t, http.MethodGet, reservePath, nil)
	require.Equal(t, http.StatusOK, status)
	makers := res["makers"].(map[string]interface{})
	require.Len(t, makers, 1)
	funds := makers[maker].(map[string]interface{})
	require.Equal(t, units(95).String(), funds["base_funds"])
	require.Len(t, funds["orders"], 1)

	status, _ = srv.doAs(t, maker, http.MethodDelete, reservePath+"/orders/1", nil)
	require.Equal(t, http.StatusOK, status)
}

func TestRateLimiter(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, 1)

	status, _ := srv.do(t, http.MethodGet, "/v1/lister", nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = srv.do(t, http.MethodGet, "/v1/lister", nil)
	require.Equal(t, http.StatusTooManyRequests, status)

	// Metrics are not throttled.
	status, _ = srv.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, status)
}
