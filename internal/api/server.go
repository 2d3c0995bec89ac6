// Package api is the HTTP ingress: it turns master-order requests into
// Signal Events and fans them out through the router. Acceptance (202)
// means the signal is durably published, not that any trade executed.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chandu88611/tradeRepliction/internal/signal"
)

// Publisher is the fanout boundary the ingress publishes through.
type Publisher interface {
	Publish(ctx context.Context, sig signal.Event) error
}

type Server struct {
	R      *gin.Engine
	Pub    Publisher
	Logger *zap.Logger
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type acceptedResponse struct {
	OK       bool   `json:"ok"`
	SignalID string `json:"signalId"`
}

type masterOrderRequest struct {
	ID     string   `json:"id"`
	Symbol string   `json:"symbol"`
	Side   string   `json:"side"`
	Qty    int64    `json:"qty"`
	Price  *float64 `json:"price"`
	TIF    string   `json:"tif"`
}

// NewServer wires the router, publisher, and middleware.
func NewServer(pub Publisher, logger *zap.Logger, corsOrigin string) *Server {
	g := gin.New()

	// Request logging
	g.Use(func(cn *gin.Context) {
		start := time.Now()
		cn.Next()
		logger.Info("http_request",
			zap.String("method", cn.Request.Method),
			zap.String("path", cn.Request.URL.Path),
			zap.Int("status", cn.Writer.Status()),
			zap.String("ip", cn.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		)
	})

	g.Use(gin.Recovery())

	// CORS
	g.Use(func(cn *gin.Context) {
		origin := cn.GetHeader("Origin")
		cn.Writer.Header().Set("Vary", "Origin")
		cn.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		cn.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		cn.Writer.Header().Set("Access-Control-Max-Age", "86400")
		if corsOrigin == "*" {
			cn.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else if origin != "" && origin == corsOrigin {
			cn.Writer.Header().Set("Access-Control-Allow-Origin", corsOrigin)
		}
		if cn.Request.Method == http.MethodOptions {
			cn.AbortWithStatus(http.StatusNoContent)
			return
		}
		cn.Next()
	})

	s := &Server{R: g, Pub: pub, Logger: logger}

	g.GET("/health", func(cn *gin.Context) { cn.JSON(http.StatusOK, gin.H{"ok": true}) })
	g.POST("/master/orders", s.postMasterOrder)
	g.POST("/master/orders/:id/modify", s.postOrderAction(signal.EventModify))
	g.POST("/master/orders/:id/cancel", s.postOrderAction(signal.EventCancel))
	g.POST("/master/orders/:id/close", s.postOrderAction(signal.EventClose))

	return s
}

// --- Helpers ---

func (s *Server) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, apiError{Code: "bad_request", Message: msg})
}

func (s *Server) publishFailed(c *gin.Context, err error) {
	s.Logger.Error("publish_failed", zap.Error(err))
	c.JSON(http.StatusBadGateway, apiError{Code: "bus_unavailable", Message: "signal could not be published; retry"})
}

func (r masterOrderRequest) toMasterOrder(id string) (signal.MasterOrder, string) {
	m := signal.MasterOrder{
		ID:     id,
		Symbol: r.Symbol,
		Qty:    r.Qty,
		Price:  r.Price,
		TS:     time.Now().UnixMilli(),
	}
	if r.Side != "" {
		side, ok := signal.ParseSide(r.Side)
		if !ok {
			return m, "invalid side (use BUY or SELL)"
		}
		m.Side = side
	}
	if r.TIF != "" {
		tif, ok := signal.ParseTIF(r.TIF)
		if !ok {
			return m, "invalid tif (use DAY, IOC or GTC)"
		}
		m.TIF = tif
	}
	return m, ""
}

// --- Handlers ---

func (s *Server) postMasterOrder(c *gin.Context) {
	var req masterOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid body: "+err.Error())
		return
	}
	m, msg := req.toMasterOrder(req.ID)
	if msg == "" && m.Symbol == "" {
		msg = "symbol is required"
	}
	if msg == "" && m.Side == "" {
		msg = "side is required"
	}
	if msg == "" && req.Qty <= 0 {
		msg = "qty must be > 0"
	}
	if msg != "" {
		s.badRequest(c, msg)
		return
	}

	sig := signal.Normalize(m, signal.EventNew)
	if err := s.Pub.Publish(c.Request.Context(), sig); err != nil {
		s.publishFailed(c, err)
		return
	}
	c.JSON(http.StatusAccepted, acceptedResponse{OK: true, SignalID: sig.ID})
}

func (s *Server) postOrderAction(kind signal.EventKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req masterOrderRequest
		// cancel/close take an empty body; modify carries the changed fields
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			s.badRequest(c, "invalid body: "+err.Error())
			return
		}
		m, msg := req.toMasterOrder(c.Param("id"))
		if msg == "" && m.ID == "" {
			msg = "order id is required"
		}
		if msg != "" {
			s.badRequest(c, msg)
			return
		}

		sig := signal.Normalize(m, kind)
		if err := s.Pub.Publish(c.Request.Context(), sig); err != nil {
			s.publishFailed(c, err)
			return
		}
		c.JSON(http.StatusAccepted, acceptedResponse{OK: true, SignalID: sig.ID})
	}
}
