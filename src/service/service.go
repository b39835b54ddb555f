// Package service implements the HTTP control surface of a naivechain node.
package service

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/mosaicnetworks/naivechain/src/node"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// MineRequest is the body of POST /mineBlock.
type MineRequest struct {
	Data string `json:"data"`
}

// AddPeerRequest is the body of POST /addPeer.
type AddPeerRequest struct {
	Peer string `json:"peer"`
}

var errMissingPeer = errors.New("missing peer address")

// Service ...
type Service struct {
	sync.Mutex

	bindAddress string
	node        *node.Node
	mux         *http.ServeMux
	handler     http.Handler
	listener    net.Listener
	server      *http.Server
	logger      *logrus.Entry
}

// NewService ...
func NewService(bindAddress string, n *node.Node, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		node:        n,
		mux:         http.NewServeMux(),
		logger:      logger,
	}

	service.registerHandlers()

	// enable CORS
	service.handler = cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}).Handler(service.mux)

	service.server = &http.Server{Handler: service.handler}

	return &service
}

// registerHandlers registers the API handlers with the service's own ServeMux.
func (s *Service) registerHandlers() {
	s.logger.Debug("Registering naivechain API handlers")
	s.mux.HandleFunc("/blocks", s.makeHandler(http.MethodGet, s.GetBlocks))
	s.mux.HandleFunc("/mineBlock", s.makeHandler(http.MethodPost, s.MineBlock))
	s.mux.HandleFunc("/peers", s.makeHandler(http.MethodGet, s.GetPeers))
	s.mux.HandleFunc("/addPeer", s.makeHandler(http.MethodPost, s.AddPeer))
	s.mux.HandleFunc("/stats", s.makeHandler(http.MethodGet, s.GetStats))
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Service) makeHandler(method string, fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		if r.Method != method {
			w.Header().Set("Allow", method)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		fn(w, r)
	}
}

// Handler returns the http.Handler serving the API.
func (s *Service) Handler() http.Handler {
	return s.handler
}

// Listen binds the service address. A bind failure is returned so that the
// caller can abort startup.
func (s *Service) Listen() error {
	list, err := net.Listen("tcp", s.bindAddress)
	if err != nil {
		return err
	}
	s.listener = list
	return nil
}

// Addr returns the bound address, or the configured one if the service is not
// listening yet.
func (s *Service) Addr() string {
	if s.listener == nil {
		return s.bindAddress
	}
	return s.listener.Addr().String()
}

// Serve serves the API on the bound listener, binding it first if needed.
// This is a blocking call.
func (s *Service) Serve() {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			s.logger.Error(err)
			return
		}
	}

	s.logger.WithField("bind_address", s.Addr()).Debug("Serving naivechain API")

	err := s.server.Serve(s.listener)
	if err != nil && err != http.ErrServerClosed {
		s.logger.Error(err)
	}
}

// Close stops the HTTP server.
func (s *Service) Close() error {
	return s.server.Close()
}

// GetBlocks ...
func (s *Service) GetBlocks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.node.GetBlocks())
}

// MineBlock ...
func (s *Service) MineBlock(w http.ResponseWriter, r *http.Request) {
	var req MineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.WithError(err).Error("Parsing mineBlock request")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	block, err := s.node.Mine(req.Data)
	if err != nil {
		s.logger.WithError(err).Error("Mining block")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.logger.WithField("block", block.Hash).Debug("Block added")

	writeJSON(w, block)
}

// GetPeers ...
func (s *Service) GetPeers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.node.GetPeers())
}

// AddPeer ...
func (s *Service) AddPeer(w http.ResponseWriter, r *http.Request) {
	var req AddPeerRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err == nil && req.Peer == "" {
		err = errMissingPeer
	}
	if err != nil {
		s.logger.WithError(err).Error("Parsing addPeer request")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.node.AddPeers(req.Peer)

	w.WriteHeader(http.StatusOK)
}

// GetStats ...
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.node.GetStats())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")

	encoder := json.NewEncoder(w)

	encoder.Encode(v)
}
