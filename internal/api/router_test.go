package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgesmithishere/prepo-monorepo-fork/internal/events/memory"
	"github.com/georgesmithishere/prepo-monorepo-fork/internal/models"
	memstore "github.com/georgesmithishere/prepo-monorepo-fork/internal/storage/memory"
	"github.com/georgesmithishere/prepo-monorepo-fork/internal/strategy"
	"github.com/georgesmithishere/prepo-monorepo-fork/internal/token"
)

const (
	owner      = "0x00000000000000000000000000000000000000f1"
	controller = "0x00000000000000000000000000000000000000c0"
	user       = "0x00000000000000000000000000000000000000e1"
	stratAddr  = "0x00000000000000000000000000000000000000a1"
	baseAddr   = "0x00000000000000000000000000000000000000b1"
	vaultAddr  = "0x00000000000000000000000000000000000000b2"
)

var fixedNow = time.Unix(1_700_000_000, 0)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	ctx := context.Background()

	base := token.New(baseAddr, "Fake USD", owner)
	vault := token.New(vaultAddr, "Collateral", owner)
	require.NoError(t, base.SetMinter(ctx, owner, stratAddr))
	require.NoError(t, vault.OwnerMint(ctx, owner, decimal.NewFromInt(1_000_000_000)))
	tokens := token.NewRegistry(base, vault)

	log := logrus.New()
	log.SetOutput(io.Discard)

	s, err := strategy.Open(ctx, strategy.Config{
		ID:         "api-test",
		Address:    stratAddr,
		Owner:      owner,
		Controller: controller,
	}, strategy.Deps{
		Token:     base,
		Supply:    tokens,
		Store:     memstore.NewMemoryStrategyStore(),
		Publisher: memory.NewRecorder(),
		Logger:    log,
	})
	require.NoError(t, err)

	srv := NewServer(s, tokens, log)
	srv.now = func() time.Time { return fixedNow }
	return srv, srv.Router()
}

func do(t *testing.T, h http.Handler, method, path, caller, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if caller != "" {
		req.Header.Set(CallerHeader, caller)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestOwnerOnlyRoutes(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, http.MethodPut, "/strategy/apy", user, `{"apy":7}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ownable: caller is not the owner")

	rec = do(t, h, http.MethodPut, "/strategy/apy", "", `{"apy":7}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPut, "/strategy/apy", owner, `{"apy":-3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/strategy/apy", owner, `{"apy":7}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var state models.StrategyState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, int64(7), state.Apy)

	rec = do(t, h, http.MethodPut, "/strategy/vault", owner, `{"vault":"`+vaultAddr+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodPut, "/strategy/vault", owner, `{"vault":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTotalValueAt(t *testing.T) {
	_, h := newTestServer(t)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPut, "/strategy/vault", owner, `{"vault":"`+vaultAddr+`"}`).Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPut, "/strategy/apy", owner, `{"apy":7}`).Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPut, "/strategy/beginning", owner, `{"timestamp":1000}`).Code)

	rec := do(t, h, http.MethodGet, "/strategy/total-value?at=1001", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var v struct {
		Total   decimal.Decimal `json:"total_value"`
		Virtual decimal.Decimal `json:"virtual_balance"`
		Actual  decimal.Decimal `json:"actual_balance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, "1000000002", v.Total.String())
	assert.Equal(t, "1000000002", v.Virtual.String())
	assert.True(t, v.Actual.IsZero())

	rec = do(t, h, http.MethodGet, "/strategy/total-value?at=soon", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDepositAndWithdrawFlow(t *testing.T) {
	_, h := newTestServer(t)
	tokenPath := "/tokens/" + baseAddr

	require.Equal(t, http.StatusNoContent, do(t, h, http.MethodPost, tokenPath+"/mint", owner, `{"amount":"500"}`).Code)
	require.Equal(t, http.StatusNoContent, do(t, h, http.MethodPost, tokenPath+"/transfer", owner, `{"to":"`+controller+`","amount":"500"}`).Code)

	rec := do(t, h, http.MethodPost, "/strategy/deposit", controller, `{"amount":"200"}`)
	assert.Equal(t, http.StatusConflict, rec.Code, "deposit without allowance")

	require.Equal(t, http.StatusNoContent, do(t, h, http.MethodPost, tokenPath+"/approve", controller, `{"spender":"`+stratAddr+`","amount":"200"}`).Code)

	rec = do(t, h, http.MethodPost, "/strategy/deposit", user, `{"amount":"200"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodPost, "/strategy/deposit", controller, `{"amount":"200"}`)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/strategy/withdraw", controller, `{"recipient":"`+user+`","amount":"250"}`)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, tokenPath+"/balances/"+user, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var bal struct {
		Balance decimal.Decimal `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bal))
	assert.Equal(t, "250", bal.Balance.String())

	rec = do(t, h, http.MethodGet, "/strategy/entries", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []models.LedgerEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, models.EntryDeposit, entries[0].Kind)
	assert.Equal(t, models.EntryMint, entries[1].Kind)
	assert.Equal(t, "50", entries[1].Amount.String())
	assert.Equal(t, models.EntryWithdraw, entries[2].Kind)
}

func TestOversizedAmountRejected(t *testing.T) {
	_, h := newTestServer(t)
	tokenPath := "/tokens/" + baseAddr

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- do(t, h, http.MethodPost, tokenPath+"/transfer", owner, `{"to":"`+user+`","amount":"1e20000000"}`)
	}()
	select {
	case rec := <-done:
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	case <-time.After(5 * time.Second):
		t.Fatal("transfer of an oversized amount did not return")
	}

	// the token is still usable afterwards
	require.Equal(t, http.StatusNoContent, do(t, h, http.MethodPost, tokenPath+"/mint", owner, `{"amount":"1"}`).Code)
	rec := do(t, h, http.MethodPost, "/strategy/deposit", controller, `{"amount":"115792089237316195423570985008687907853269984665640564039457584007913129639936"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownToken(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/tokens/"+user+"/balances/"+user, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsExposed(t *testing.T) {
	_, h := newTestServer(t)
	do(t, h, http.MethodGet, "/health", "", "")

	rec := do(t, h, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "accrual_http_requests_total")
}
