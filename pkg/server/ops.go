// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-imagepipe.
//
// go-imagepipe is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package server exposes the operational HTTP endpoint: health and metrics.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jeremyhahn/go-imagepipe/pkg/adapters"
	"github.com/jeremyhahn/go-imagepipe/pkg/version"
)

// Ops is the operational HTTP server.
type Ops struct {
	server *http.Server
	logger adapters.Logger
}

// NewOps creates the ops server listening on addr.
func NewOps(addr string, logger adapters.Logger) *Ops {
	if logger == nil {
		logger = adapters.NewNoOpLogger()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": version.Get(),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Ops{
		server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Handler returns the HTTP handler serving the ops routes.
func (o *Ops) Handler() http.Handler {
	return o.server.Handler
}

// Start serves in a background goroutine.
func (o *Ops) Start() {
	go func() {
		if err := o.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			o.logger.Error(context.Background(), "ops server failed",
				adapters.Field{Key: "error", Value: err.Error()})
		}
	}()
}

// Shutdown gracefully stops the server.
func (o *Ops) Shutdown(ctx context.Context) error {
	return o.server.Shutdown(ctx)
}
