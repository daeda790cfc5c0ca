// Package httpapi exposes the menu conversations over HTTP. Each request is
// served on its own goroutine, so a long analysis in one conversation never
// delays another.
package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KaramelBytes/callpulse/internal/feature"
	"github.com/KaramelBytes/callpulse/internal/menu"
)

// Conversations is the menu surface; *menu.Machine implements it.
type Conversations interface {
	Handle(ctx context.Context, conv string, in menu.Intent, send func(menu.Reply))
	State(conv string) menu.State
	Reset(conv string)
}

// Catalog lists the available features; *feature.Registry implements it.
type Catalog interface {
	Definitions() []feature.Definition
}

type intentRequest struct {
	Intent    string `json:"intent" binding:"required"`
	ManagerID string `json:"manager_id"`
	Top       int    `json:"top"`
}

type stateResponse struct {
	Status  string `json:"status"`
	Feature string `json:"feature,omitempty"`
}

type intentResponse struct {
	Conversation string        `json:"conversation"`
	Replies      []menu.Reply  `json:"replies"`
	State        stateResponse `json:"state"`
}

type featureResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Handler serves the conversation routes.
type Handler struct {
	convs   Conversations
	catalog Catalog
	log     *zap.Logger
}

// NewHandler returns a handler over convs and catalog.
func NewHandler(convs Conversations, catalog Catalog, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{convs: convs, catalog: catalog, log: log}
}

// Router builds the gin engine:
//
//	GET    /healthz
//	GET    /v1/features
//	POST   /v1/conversations/:id/intents
//	GET    /v1/conversations/:id
//	DELETE /v1/conversations/:id
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.accessLog())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	v1 := router.Group("/v1")
	{
		v1.GET("/features", h.ListFeatures)
		conv := v1.Group("/conversations/:id")
		conv.POST("/intents", h.PostIntent)
		conv.GET("", h.GetState)
		conv.DELETE("", h.DeleteConversation)
	}
	return router
}

// ListFeatures returns the feature catalog.
func (h *Handler) ListFeatures(c *gin.Context) {
	defs := h.catalog.Definitions()
	out := make([]featureResponse, 0, len(defs))
	for _, d := range defs {
		out = append(out, featureResponse{ID: string(d.ID), Title: d.Title, Description: d.Description})
	}
	c.JSON(http.StatusOK, gin.H{"features": out})
}

// PostIntent applies one intent and returns every reply it produced. A run
// intent holds the request open until the analysis finishes.
func (h *Handler) PostIntent(c *gin.Context) {
	conv := strings.TrimSpace(c.Param("id"))
	var req intentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in, err := menu.ParseIntent(req.Intent)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if in.Action == menu.ActRun {
		if req.ManagerID != "" {
			in.Params.ManagerID = strings.TrimSpace(req.ManagerID)
		}
		if req.Top < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "top must not be negative"})
			return
		}
		if req.Top > 0 {
			in.Params.TopN = req.Top
		}
		in.Params.Origin = "http:" + conv
	}

	// a started analysis runs to completion even if the client goes away;
	// only the dispatcher timeout bounds it
	replies := []menu.Reply{}
	h.convs.Handle(context.WithoutCancel(c.Request.Context()), conv, in, func(r menu.Reply) {
		replies = append(replies, r)
	})
	c.JSON(http.StatusOK, intentResponse{
		Conversation: conv,
		Replies:      replies,
		State:        toState(h.convs.State(conv)),
	})
}

// GetState reports where a conversation is in the menu.
func (h *Handler) GetState(c *gin.Context) {
	conv := c.Param("id")
	c.JSON(http.StatusOK, gin.H{"conversation": conv, "state": toState(h.convs.State(conv))})
}

// DeleteConversation forgets a conversation.
func (h *Handler) DeleteConversation(c *gin.Context) {
	h.convs.Reset(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func toState(s menu.State) stateResponse {
	return stateResponse{Status: s.Status.String(), Feature: string(s.Feature)}
}

func (h *Handler) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
