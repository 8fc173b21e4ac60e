package httpinterface

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/reserve-lister/internal/core/application"
	"github.com/tdex-network/reserve-lister/internal/core/domain"
	"github.com/tdex-network/reserve-lister/internal/core/ports"
)

var (
	errBadRequestBody = errors.New("malformed request body")
	errInvalidOrderID = errors.New("invalid order id")
	errInvalidIndex   = errors.New("invalid registry index")
)

var statusByError = []struct {
	err    error
	status int
}{
	{domain.ErrInvalidArgument, http.StatusBadRequest},
	{domain.ErrUnsupportedAsset, http.StatusBadRequest},
	{domain.ErrNotAuthorized, http.StatusForbidden},
	{domain.ErrReserveNotFound, http.StatusNotFound},
	{domain.ErrOrderNotFound, http.StatusNotFound},
	{domain.ErrFeeLedgerNotFound, http.StatusNotFound},
	{domain.ErrReserveNotRegistered, http.StatusNotFound},
	{ports.ErrSubscriptionNotFound, http.StatusNotFound},
	{domain.ErrInvalidStageTransition, http.StatusConflict},
	{domain.ErrReserveAlreadyInitialized, http.StatusConflict},
	{domain.ErrReserveNotListed, http.StatusConflict},
	{domain.ErrInsufficientBalance, http.StatusUnprocessableEntity},
	{domain.ErrInsufficientStake, http.StatusUnprocessableEntity},
	{domain.ErrRateNotEligibleForUnlisting, http.StatusUnprocessableEntity},
	{domain.ErrOrderCountExceeded, http.StatusUnprocessableEntity},
	{domain.ErrOrderTooSmall, http.StatusUnprocessableEntity},
	{domain.ErrNoAccruedVolume, http.StatusUnprocessableEntity},
	{domain.ErrBurnAmountTooLow, http.StatusUnprocessableEntity},
	{domain.ErrReserveNotInitialized, http.StatusUnprocessableEntity},
	{domain.ErrRateBlocksTrade, http.StatusUnprocessableEntity},
	{domain.ErrRegistryRejected, http.StatusBadGateway},
	{domain.ErrOrderbookFactoryFailed, http.StatusBadGateway},
	{domain.ErrOracleInvalid, http.StatusBadGateway},
	{application.ErrPubSubNotConfigured, http.StatusServiceUnavailable},
}

func errorStatus(err error) int {
	for _, e := range statusByError {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		log.WithError(err).Warn("request failed")
	}
	writeJSON(w, status, errorResponse{err.Error()})
}

func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, errorStatus(err), err)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("failed to encode response")
	}
}
