// Package api exposes the paper-trading engine over HTTP for the server
// host. All trade rejections come back as 200s with {ok:false, reason},
// matching the engine's recoverable-by-design error contract; 4xx is
// reserved for malformed requests.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zappabad/papertrade/internal/engine"
	"github.com/zappabad/papertrade/internal/market"
)

// Handler serves the engine's HTTP surface.
type Handler struct {
	eng *engine.Engine
	log *slog.Logger
}

// NewHandler creates a Handler over the given engine.
func NewHandler(eng *engine.Engine, log *slog.Logger) *Handler {
	return &Handler{eng: eng, log: log}
}

// Router returns a chi router with all routes registered and request
// logging attached.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(requestLogging(h.log))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/v1/opportunities", h.getOpportunities)
	r.Get("/v1/quote/{symbol}", h.getQuote)
	r.Get("/v1/portfolio", h.getPortfolio)
	r.Get("/v1/orders", h.getOrders)
	r.Post("/v1/orders", h.postOrder)
	r.Post("/v1/orders/{order_id}/note", h.postOrderNote)
	r.Post("/v1/reset", h.postReset)
	r.Post("/v1/tick", h.postTick)
	r.Get("/v1/watchlist", h.getWatchlist)
	r.Post("/v1/watchlist", h.postWatchlist)
	r.Delete("/v1/watchlist/{symbol}", h.deleteWatchlist)
	r.Post("/v1/universe", h.postUniverse)

	return r
}

func (h *Handler) getOpportunities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"day":           h.eng.Day(),
		"session":       h.eng.Session().String(),
		"opportunities": h.eng.Snapshot(),
	})
}

func (h *Handler) getQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	q, ok := h.eng.Quote(symbol)
	if !ok {
		writeError(w, http.StatusNotFound, "no_quote", "No quote for symbol.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"symbol":  q.Symbol,
		"bid":     q.Bid,
		"ask":     q.Ask,
		"last":    q.Last,
		"spread":  q.Spread,
		"session": q.Session.String(),
	})
}

func (h *Handler) getPortfolio(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.eng.Portfolio())
}

func (h *Handler) getOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.eng.Orders())
}

type orderRequest struct {
	Side   string `json:"side"`
	Symbol string `json:"symbol"`
	Qty    int64  `json:"qty"`
}

func (h *Handler) postOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	side, err := market.ParseSide(req.Side)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "side must be BUY or SELL")
		return
	}
	if req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "symbol is required")
		return
	}

	var res engine.TradeResult
	if side == market.SideBuy {
		res = h.eng.Buy(req.Symbol, req.Qty)
	} else {
		res = h.eng.Sell(req.Symbol, req.Qty)
	}
	writeJSON(w, http.StatusOK, res)
}

type noteRequest struct {
	Note string `json:"note"`
}

func (h *Handler) postOrderNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	id := chi.URLParam(r, "order_id")
	if !h.eng.AttachNote(id, req.Note) {
		writeError(w, http.StatusNotFound, "order_not_found", "No order with that id.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type resetRequest struct {
	StartingCash float64 `json:"startingCash"`
}

func (h *Handler) postReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	h.eng.ResetPaper(req.StartingCash)
	writeJSON(w, http.StatusOK, h.eng.Portfolio())
}

type tickRequest struct {
	Days int `json:"days"`
}

func (h *Handler) postTick(w http.ResponseWriter, r *http.Request) {
	var req tickRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	h.eng.TickAll(req.Days)
	writeJSON(w, http.StatusOK, map[string]any{
		"day":     h.eng.Day(),
		"session": h.eng.Session().String(),
	})
}

func (h *Handler) getWatchlist(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.eng.Watchlist())
}

type symbolRequest struct {
	Symbol string `json:"symbol"`
}

func (h *Handler) postWatchlist(w http.ResponseWriter, r *http.Request) {
	var req symbolRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "symbol is required")
		return
	}
	h.eng.AddToWatchlist(req.Symbol)
	writeJSON(w, http.StatusOK, h.eng.Watchlist())
}

func (h *Handler) deleteWatchlist(w http.ResponseWriter, r *http.Request) {
	h.eng.RemoveFromWatchlist(chi.URLParam(r, "symbol"))
	writeJSON(w, http.StatusOK, h.eng.Watchlist())
}

func (h *Handler) postUniverse(w http.ResponseWriter, r *http.Request) {
	var req symbolRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "symbol is required")
		return
	}
	h.eng.AddToUniverse(req.Symbol)
	q, _ := h.eng.Quote(req.Symbol)
	writeJSON(w, http.StatusOK, q)
}

// requestLogging logs each request's method, path, status, and duration.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}
