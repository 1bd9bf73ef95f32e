package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/georgesmithishere/prepo-monorepo-fork/internal/metrics"
	"github.com/georgesmithishere/prepo-monorepo-fork/internal/models"
	"github.com/georgesmithishere/prepo-monorepo-fork/internal/strategy"
	"github.com/georgesmithishere/prepo-monorepo-fork/internal/token"
)

// CallerHeader carries the address a request acts as.
const CallerHeader = "X-Caller"

// Server exposes one strategy and the tokens it works with over HTTP.
type Server struct {
	strategy *strategy.Strategy
	tokens   *token.Registry
	log      logrus.FieldLogger
	now      func() time.Time // clock for accrual; replaced in tests
}

func NewServer(s *strategy.Strategy, tokens *token.Registry, log logrus.FieldLogger) *Server {
	return &Server{strategy: s, tokens: tokens, log: log, now: time.Now}
}

// Router wires every route. Each route is instrumented under its template path.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	handle := func(path string, h http.HandlerFunc, methods ...string) {
		r.Handle(path, metrics.InstrumentHandler(path, h)).Methods(methods...)
	}

	handle("/health", s.health, http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	handle("/strategy", s.getStrategy, http.MethodGet)
	handle("/strategy/total-value", s.totalValue, http.MethodGet)
	handle("/strategy/entries", s.entries, http.MethodGet)
	handle("/strategy/apy", s.setApy, http.MethodPut)
	handle("/strategy/beginning", s.setBeginning, http.MethodPut)
	handle("/strategy/vault", s.setVault, http.MethodPut)
	handle("/strategy/owner", s.transferOwnership, http.MethodPut)
	handle("/strategy/deposit", s.deposit, http.MethodPost)
	handle("/strategy/withdraw", s.withdraw, http.MethodPost)

	handle("/tokens/{token}/balances/{account}", s.balanceOf, http.MethodGet)
	handle("/tokens/{token}/transfer", s.transfer, http.MethodPost)
	handle("/tokens/{token}/approve", s.approve, http.MethodPost)
	handle("/tokens/{token}/mint", s.mint, http.MethodPost)

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getStrategy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.strategy.State())
}

func (s *Server) totalValue(w http.ResponseWriter, r *http.Request) {
	at := s.now()
	if raw := r.URL.Query().Get("at"); raw != "" {
		unix, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "at must be unix seconds", http.StatusBadRequest)
			return
		}
		at = time.Unix(unix, 0)
	}

	v, err := s.strategy.Value(r.Context(), at)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) entries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.strategy.Entries(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) setApy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Apy int64 `json:"apy"`
	}
	caller, ok := decode(w, r, &req)
	if !ok {
		return
	}
	if err := s.strategy.SetApy(r.Context(), caller, req.Apy); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.strategy.State())
}

func (s *Server) setBeginning(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Timestamp int64 `json:"timestamp"`
	}
	caller, ok := decode(w, r, &req)
	if !ok {
		return
	}
	if err := s.strategy.SetBeginning(r.Context(), caller, req.Timestamp); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.strategy.State())
}

func (s *Server) setVault(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Vault string `json:"vault"`
	}
	caller, ok := decode(w, r, &req)
	if !ok {
		return
	}
	vault, err := models.ParseAddress(req.Vault)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.strategy.SetVault(r.Context(), caller, vault); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.strategy.State())
}

func (s *Server) transferOwnership(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Owner string `json:"owner"`
	}
	caller, ok := decode(w, r, &req)
	if !ok {
		return
	}
	owner, err := models.ParseAddress(req.Owner)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.strategy.TransferOwnership(r.Context(), caller, owner); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.strategy.State())
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	caller, ok := decode(w, r, &req)
	if !ok {
		return
	}
	if err := s.strategy.Deposit(r.Context(), caller, req.Amount, s.now()); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Recipient string          `json:"recipient"`
		Amount    decimal.Decimal `json:"amount"`
	}
	caller, ok := decode(w, r, &req)
	if !ok {
		return
	}
	recipient, err := models.ParseAddress(req.Recipient)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.strategy.Withdraw(r.Context(), caller, recipient, req.Amount, s.now()); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) balanceOf(w http.ResponseWriter, r *http.Request) {
	t, ok := s.token(w, r)
	if !ok {
		return
	}
	account, err := models.ParseAddress(mux.Vars(r)["account"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	balance, err := t.BalanceOf(r.Context(), account)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Account models.Address  `json:"account"`
		Balance decimal.Decimal `json:"balance"`
	}{account, balance})
}

func (s *Server) transfer(w http.ResponseWriter, r *http.Request) {
	t, ok := s.token(w, r)
	if !ok {
		return
	}
	var req struct {
		To     string          `json:"to"`
		Amount decimal.Decimal `json:"amount"`
	}
	caller, ok := decode(w, r, &req)
	if !ok {
		return
	}
	to, err := models.ParseAddress(req.To)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := t.Transfer(r.Context(), caller, to, req.Amount); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) approve(w http.ResponseWriter, r *http.Request) {
	t, ok := s.token(w, r)
	if !ok {
		return
	}
	var req struct {
		Spender string          `json:"spender"`
		Amount  decimal.Decimal `json:"amount"`
	}
	caller, ok := decode(w, r, &req)
	if !ok {
		return
	}
	spender, err := models.ParseAddress(req.Spender)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := t.Approve(r.Context(), caller, spender, req.Amount); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) mint(w http.ResponseWriter, r *http.Request) {
	t, ok := s.token(w, r)
	if !ok {
		return
	}
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	caller, ok := decode(w, r, &req)
	if !ok {
		return
	}
	if err := t.OwnerMint(r.Context(), caller, req.Amount); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) (*token.Token, bool) {
	addr, err := models.ParseAddress(mux.Vars(r)["token"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	t, err := s.tokens.Get(addr)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	return t, true
}

// fail maps domain errors onto status codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, strategy.ErrUnauthorized),
		errors.Is(err, token.ErrNotOwner),
		errors.Is(err, token.ErrNotMinter):
		status = http.StatusForbidden
	case errors.Is(err, strategy.ErrInvalidAmount),
		errors.Is(err, strategy.ErrInvalidAddress),
		errors.Is(err, strategy.ErrInvalidTimestamp),
		errors.Is(err, token.ErrInvalidAmount),
		errors.Is(err, token.ErrInvalidAddress):
		status = http.StatusBadRequest
	case errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, token.ErrInsufficientAllowance):
		status = http.StatusConflict
	}

	entry := s.log.WithError(err).WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path, "status": status})
	if status == http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}
	http.Error(w, err.Error(), status)
}

// decode reads the caller header and the JSON body into dst.
func decode(w http.ResponseWriter, r *http.Request, dst any) (models.Address, bool) {
	caller, err := models.ParseAddress(r.Header.Get(CallerHeader))
	if err != nil {
		http.Error(w, CallerHeader+" header must be an address", http.StatusUnauthorized)
		return "", false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return "", false
	}
	return caller, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
