package httpinterface

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/reserve-lister/internal/interfaces"
)

const shutdownTimeout = 5 * time.Second

type service struct {
	address string
	server  *http.Server
}

// NewService returns the http interface listening on the given address.
func NewService(address string, handler http.Handler) (interfaces.Service, error) {
	if len(address) <= 0 {
		return nil, fmt.Errorf("missing listening address")
	}
	if handler == nil {
		return nil, fmt.Errorf("missing handler")
	}
	return &service{
		address: address,
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func (s *service) Start() error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	go func() {
		if err := s.server.Serve(lis); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Warn("http server stopped unexpectedly")
		}
	}()

	log.Infof("http interface listening on %s", s.address)
	return nil
}

func (s *service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// nolint
	s.server.Shutdown(ctx)
	log.Debug("stopped http interface")
}
