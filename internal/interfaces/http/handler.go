package httpinterface

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tdex-network/reserve-lister/internal/core/application"
	"github.com/tdex-network/reserve-lister/internal/core/domain"
)

type handler struct {
	lister    application.ListerService
	reserve   application.ReserveService
	feeLedger application.FeeLedgerService
	pubsub    application.PubSubService
}

// NewRouter returns the router exposing the lister, reserve, fee ledger and
// webhook operations, plus the prometheus metrics. Operations acting on behalf
// of a maker, an operator or the admin require a bearer token signed with
// authSecret, and the acting identity is always the token subject.
func NewRouter(
	lister application.ListerService,
	reserve application.ReserveService,
	feeLedger application.FeeLedgerService,
	pubsub application.PubSubService,
	authSecret []byte,
	requestsPerSecond int,
) http.Handler {
	h := &handler{lister, reserve, feeLedger, pubsub}
	auth := authMiddleware(authSecret)
	authenticated := func(f http.HandlerFunc) http.Handler {
		return auth(f)
	}

	r := mux.NewRouter()
	r.Use(loggerMiddleware)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(rateLimiterMiddleware(requestsPerSecond))

	v1.HandleFunc("/lister", h.getLister).Methods(http.MethodGet)
	v1.HandleFunc("/listings", h.listListings).Methods(http.MethodGet)
	v1.HandleFunc("/listings/{asset}", h.getListing).Methods(http.MethodGet)
	v1.HandleFunc("/listings/{asset}/add", h.addAsset).Methods(http.MethodPost)
	v1.HandleFunc("/listings/{asset}/init", h.initAsset).Methods(http.MethodPost)
	v1.HandleFunc("/listings/{asset}/list", h.listAsset).Methods(http.MethodPost)
	v1.HandleFunc("/listings/{asset}/unlist", h.unlistAsset).Methods(http.MethodPost)

	v1.HandleFunc("/reserves/{reserve}", h.getReserve).Methods(http.MethodGet)
	v1.HandleFunc("/reserves/{reserve}/trust", h.getReserveTrust).Methods(http.MethodGet)
	v1.Handle("/reserves/{reserve}/deposit", authenticated(h.deposit)).Methods(http.MethodPost)
	v1.Handle("/reserves/{reserve}/withdraw", authenticated(h.withdraw)).Methods(http.MethodPost)
	v1.Handle("/reserves/{reserve}/stake", authenticated(h.depositStake)).Methods(http.MethodPost)
	v1.Handle("/reserves/{reserve}/unstake", authenticated(h.withdrawStake)).Methods(http.MethodPost)
	v1.Handle("/reserves/{reserve}/orders", authenticated(h.submitOrder)).Methods(http.MethodPost)
	v1.Handle("/reserves/{reserve}/orders/{id}", authenticated(h.cancelOrder)).Methods(http.MethodDelete)
	v1.Handle("/reserves/{reserve}/orders/{id}/take", authenticated(h.takeOrder)).Methods(http.MethodPost)

	v1.HandleFunc("/fees", h.getFeeLedger).Methods(http.MethodGet)
	v1.HandleFunc("/fees/refresh", h.refreshRate).Methods(http.MethodPost)
	v1.Handle("/fees/operators", authenticated(h.addOperator)).Methods(http.MethodPost)
	v1.Handle("/fees/operators", authenticated(h.removeOperator)).Methods(http.MethodDelete)
	v1.Handle("/fees/{reserve}/burn", authenticated(h.burnFees)).Methods(http.MethodPost)
	v1.HandleFunc("/fees/{reserve}/burns", h.listBurns).Methods(http.MethodGet)

	v1.Handle("/webhooks", authenticated(h.addWebhook)).Methods(http.MethodPost)
	v1.Handle("/webhooks", authenticated(h.listWebhooks)).Methods(http.MethodGet)
	v1.Handle("/webhooks/{id}", authenticated(h.removeWebhook)).Methods(http.MethodDelete)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

// **** Listings ****

func (h *handler) getLister(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newListerResponse(h.lister.Info()))
}

func (h *handler) listListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.lister.ListListings(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	res := make([]listingResponse, 0, len(listings))
	for _, l := range listings {
		res = append(res, newListingResponse(l))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"listings": res})
}

func (h *handler) getListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.lister.GetListing(r.Context(), mux.Vars(r)["asset"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newListingResponse(*listing))
}

func (h *handler) addAsset(w http.ResponseWriter, r *http.Request) {
	reserve, err := h.lister.AddAsset(r.Context(), mux.Vars(r)["asset"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reserve": reserve})
}

func (h *handler) initAsset(w http.ResponseWriter, r *http.Request) {
	h.stageTransition(w, r, h.lister.InitAsset(r.Context(), mux.Vars(r)["asset"]))
}

func (h *handler) listAsset(w http.ResponseWriter, r *http.Request) {
	h.stageTransition(w, r, h.lister.ListAsset(r.Context(), mux.Vars(r)["asset"]))
}

func (h *handler) unlistAsset(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil || index < 0 {
		writeError(w, http.StatusBadRequest, errInvalidIndex)
		return
	}
	h.stageTransition(
		w, r, h.lister.UnlistAsset(r.Context(), mux.Vars(r)["asset"], index),
	)
}

func (h *handler) stageTransition(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.getListing(w, r)
}

// **** Reserves ****

func (h *handler) getReserve(w http.ResponseWriter, r *http.Request) {
	reserve, err := h.reserve.GetReserve(r.Context(), mux.Vars(r)["reserve"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newReserveResponse(*reserve))
}

func (h *handler) getReserveTrust(w http.ResponseWriter, r *http.Request) {
	trust, err := h.reserve.GetReserveTrust(r.Context(), mux.Vars(r)["reserve"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trustResponse{
		Reserve:     trust.Reserve,
		BaseRate:    trust.BaseRate.String(),
		CurrentRate: trust.CurrentRate.String(),
		Blocked:     trust.Blocked,
	})
}

func (h *handler) deposit(w http.ResponseWriter, r *http.Request) {
	req := fundsRequest{}
	if !decodeRequest(w, r, &req, req.validate) {
		return
	}
	err := h.reserve.Deposit(
		r.Context(), mux.Vars(r)["reserve"], callerFromContext(r.Context()),
		assetKinds[req.Kind], req.Amount,
	)
	h.reserveUpdated(w, r, err)
}

func (h *handler) withdraw(w http.ResponseWriter, r *http.Request) {
	req := fundsRequest{}
	if !decodeRequest(w, r, &req, req.validate) {
		return
	}
	err := h.reserve.Withdraw(
		r.Context(), mux.Vars(r)["reserve"], callerFromContext(r.Context()),
		assetKinds[req.Kind], req.Amount,
	)
	h.reserveUpdated(w, r, err)
}

func (h *handler) depositStake(w http.ResponseWriter, r *http.Request) {
	req := stakeRequest{}
	if !decodeRequest(w, r, &req, req.validate) {
		return
	}
	err := h.reserve.DepositStake(
		r.Context(), mux.Vars(r)["reserve"], callerFromContext(r.Context()),
		req.Amount,
	)
	h.reserveUpdated(w, r, err)
}

func (h *handler) withdrawStake(w http.ResponseWriter, r *http.Request) {
	req := stakeRequest{}
	if !decodeRequest(w, r, &req, req.validate) {
		return
	}
	err := h.reserve.WithdrawStake(
		r.Context(), mux.Vars(r)["reserve"], callerFromContext(r.Context()),
		req.Amount,
	)
	h.reserveUpdated(w, r, err)
}

func (h *handler) submitOrder(w http.ResponseWriter, r *http.Request) {
	req := orderRequest{}
	if !decodeRequest(w, r, &req, req.validate) {
		return
	}
	id, err := h.reserve.SubmitOrder(
		r.Context(), mux.Vars(r)["reserve"], callerFromContext(r.Context()),
		req.SrcAmount, req.DstAmount,
	)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint32{"id": id})
}

func (h *handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseOrderID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	err = h.reserve.CancelOrder(
		r.Context(), mux.Vars(r)["reserve"], callerFromContext(r.Context()), id,
	)
	h.reserveUpdated(w, r, err)
}

// takeOrder fills an order on behalf of the trading network, whose
// settlement is accounted by the fee ledger operators.
func (h *handler) takeOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseOrderID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !h.requireOperator(w, r) {
		return
	}
	order, err := h.reserve.TakeOrder(r.Context(), mux.Vars(r)["reserve"], id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(*order))
}

func (h *handler) reserveUpdated(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.getReserve(w, r)
}

// **** Fee ledger ****

func (h *handler) getFeeLedger(w http.ResponseWriter, r *http.Request) {
	ledger, err := h.feeLedger.GetFeeLedger(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newFeeLedgerResponse(*ledger))
}

func (h *handler) refreshRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.feeLedger.RefreshRate(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"rate": rate.String()})
}

func (h *handler) addOperator(w http.ResponseWriter, r *http.Request) {
	req := operatorRequest{}
	if !decodeRequest(w, r, &req, req.validate) {
		return
	}
	if err := h.feeLedger.AddOperator(
		r.Context(), callerFromContext(r.Context()), req.Operator,
	); err != nil {
		writeServiceError(w, err)
		return
	}
	h.getFeeLedger(w, r)
}

func (h *handler) removeOperator(w http.ResponseWriter, r *http.Request) {
	req := operatorRequest{}
	if !decodeRequest(w, r, &req, req.validate) {
		return
	}
	if err := h.feeLedger.RemoveOperator(
		r.Context(), callerFromContext(r.Context()), req.Operator,
	); err != nil {
		writeServiceError(w, err)
		return
	}
	h.getFeeLedger(w, r)
}

func (h *handler) burnFees(w http.ResponseWriter, r *http.Request) {
	burn, err := h.feeLedger.BurnFees(
		r.Context(), callerFromContext(r.Context()), mux.Vars(r)["reserve"],
	)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBurnResponse(*burn))
}

func (h *handler) listBurns(w http.ResponseWriter, r *http.Request) {
	burns, err := h.feeLedger.ListBurns(r.Context(), mux.Vars(r)["reserve"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	res := make([]burnResponse, 0, len(burns))
	for _, b := range burns {
		res = append(res, newBurnResponse(b))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"burns": res})
}

// **** Webhooks ****

func (h *handler) addWebhook(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	req := webhookRequest{}
	if !decodeRequest(w, r, &req, req.validate) {
		return
	}
	id, err := h.pubsub.AddWebhook(r.Context(), req.Topic, req.Endpoint, req.Secret)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *handler) listWebhooks(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	subs, err := h.pubsub.ListWebhooks(r.Context(), r.URL.Query().Get("topic"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	res := make([]webhookResponse, 0, len(subs))
	for _, s := range subs {
		res = append(res, webhookResponse{
			ID:       s.Id(),
			Topic:    s.Topic(),
			Endpoint: s.NotifyAt(),
			Secured:  s.IsSecured(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"webhooks": res})
}

func (h *handler) removeWebhook(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	if err := h.pubsub.RemoveWebhook(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireAdmin writes 403 unless the authenticated caller is the fee ledger
// admin.
func (h *handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	ledger, err := h.feeLedger.GetFeeLedger(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return false
	}
	if callerFromContext(r.Context()) != ledger.Admin {
		writeServiceError(w, fmt.Errorf("%w: caller is not the admin", domain.ErrNotAuthorized))
		return false
	}
	return true
}

// requireOperator writes 403 unless the authenticated caller is a fee ledger
// operator.
func (h *handler) requireOperator(w http.ResponseWriter, r *http.Request) bool {
	ledger, err := h.feeLedger.GetFeeLedger(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return false
	}
	if !ledger.IsOperator(callerFromContext(r.Context())) {
		writeServiceError(w, fmt.Errorf("%w: caller is not an operator", domain.ErrNotAuthorized))
		return false
	}
	return true
}

func decodeRequest(
	w http.ResponseWriter, r *http.Request, req interface{},
	validate func() error,
) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, errBadRequestBody)
		return false
	}
	if err := validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func parseOrderID(r *http.Request) (uint32, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil || id == 0 {
		return 0, errInvalidOrderID
	}
	return uint32(id), nil
}
