// Package web exposes the pool operations over HTTP: a thin decode-and-call
// layer plus an SSE stream of pool events. No pricing or custody logic
// lives here.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vadiminshakov/swapcore/internal/domain"
	"github.com/vadiminshakov/swapcore/internal/events"
	"go.uber.org/zap"
)

// PoolAPI is the slice of the pool service the server calls.
type PoolAPI interface {
	CreatePool(ctx context.Context, pair domain.Pair, authority domain.AccountID) (domain.Pool, error)
	AddLiquidity(ctx context.Context, req domain.DepositRequest) error
	Swap(ctx context.Context, req domain.SwapRequest) (domain.SwapResult, error)
	PoolState(ctx context.Context, pair domain.Pair) (domain.Pool, uint64, uint64, error)
	Pools() []domain.Pool
}

// Server exposes HTTP endpoints for the pool operations and an SSE stream.
type Server struct {
	Addr      string
	API       PoolAPI
	Broadcast *events.PoolBroadcaster
	Logger    *zap.Logger
}

// NewServer creates a new web server instance.
func NewServer(addr string, api PoolAPI, broadcast *events.PoolBroadcaster, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{Addr: addr, API: api, Broadcast: broadcast, Logger: logger}
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /pools", s.handleCreatePool)
	mux.HandleFunc("GET /pools", s.handleListPools)
	mux.HandleFunc("GET /pool", s.handlePoolState)
	mux.HandleFunc("POST /deposit", s.handleDeposit)
	mux.HandleFunc("POST /swap", s.handleSwap)
	mux.HandleFunc("GET /events/stream", s.handleEventStream)

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type createPoolRequest struct {
	AssetA    string `json:"asset_a"`
	AssetB    string `json:"asset_b"`
	Authority string `json:"authority"`
}

func (s *Server) handleCreatePool(w http.ResponseWriter, r *http.Request) {
	var req createPoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	pair := domain.Pair{A: domain.AssetID(req.AssetA), B: domain.AssetID(req.AssetB)}
	pool, err := s.API.CreatePool(r.Context(), pair, common.HexToAddress(req.Authority))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pool)
}

func (s *Server) handleListPools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.API.Pools())
}

type poolStateResponse struct {
	Pool     domain.Pool `json:"pool"`
	ReserveA uint64      `json:"reserve_a"`
	ReserveB uint64      `json:"reserve_b"`
	Price    string      `json:"price,omitempty"`
}

func (s *Server) handlePoolState(w http.ResponseWriter, r *http.Request) {
	pair := domain.Pair{
		A: domain.AssetID(r.URL.Query().Get("asset_a")),
		B: domain.AssetID(r.URL.Query().Get("asset_b")),
	}
	pool, reserveA, reserveB, err := s.API.PoolState(r.Context(), pair)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, poolStateResponse{
		Pool:     pool,
		ReserveA: reserveA,
		ReserveB: reserveB,
		Price:    events.SpotPrice(reserveA, reserveB),
	})
}

type depositRequest struct {
	AssetA    string `json:"asset_a"`
	AssetB    string `json:"asset_b"`
	Depositor string `json:"depositor"`
	FromA     string `json:"from_a"`
	FromB     string `json:"from_b"`
	AmountA   uint64 `json:"amount_a"`
	AmountB   uint64 `json:"amount_b"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	err := s.API.AddLiquidity(r.Context(), domain.DepositRequest{
		Pair:      domain.Pair{A: domain.AssetID(req.AssetA), B: domain.AssetID(req.AssetB)},
		Depositor: common.HexToAddress(req.Depositor),
		FromA:     common.HexToAddress(req.FromA),
		FromB:     common.HexToAddress(req.FromB),
		AmountA:   req.AmountA,
		AmountB:   req.AmountB,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type swapRequest struct {
	AssetA       string `json:"asset_a"`
	AssetB       string `json:"asset_b"`
	Trader       string `json:"trader"`
	PayFrom      string `json:"pay_from"`
	ReceiveTo    string `json:"receive_to"`
	AmountIn     uint64 `json:"amount_in"`
	MinAmountOut uint64 `json:"min_amount_out"`
	Direction    string `json:"direction"`
}

func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	var req swapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	direction := domain.DirectionAToB
	switch req.Direction {
	case "", domain.DirectionAToB.String():
	case domain.DirectionBToA.String():
		direction = domain.DirectionBToA
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown direction %q", req.Direction))
		return
	}

	result, err := s.API.Swap(r.Context(), domain.SwapRequest{
		Pair:         domain.Pair{A: domain.AssetID(req.AssetA), B: domain.AssetID(req.AssetB)},
		Trader:       common.HexToAddress(req.Trader),
		PayFrom:      common.HexToAddress(req.PayFrom),
		ReceiveTo:    common.HexToAddress(req.ReceiveTo),
		AmountIn:     req.AmountIn,
		MinAmountOut: req.MinAmountOut,
		Direction:    direction,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	if s.Broadcast == nil {
		writeError(w, http.StatusNotFound, errors.New("event stream disabled"))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := s.Broadcast.Subscribe()
	defer s.Broadcast.Unsubscribe(sub)

	for {
		select {
		case <-r.Context().Done():
			return
		case e, open := <-sub:
			if !open {
				return
			}
			payload, err := json.Marshal(e)
			if err != nil {
				s.Logger.Error("encode pool event", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// writeDomainError maps the error taxonomy onto HTTP statuses; everything
// else (ledger transfer errors included) is reported as unprocessable.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusUnprocessableEntity
	switch {
	case errors.Is(err, domain.ErrPoolExists):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrPoolNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyAsset), errors.Is(err, domain.ErrSameAsset):
		status = http.StatusBadRequest
	}
	s.Logger.Debug("request failed", zap.Error(err))
	writeError(w, status, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
