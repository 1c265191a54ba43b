// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package status serves the dispatcher's counters and a manual flush trigger over HTTP.
package status

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/dispatcher"
)

// Dispatcher is the part of *dispatcher.Dispatcher exposed over HTTP
type Dispatcher interface {
	Stats() dispatcher.Stats
	Flush()
	Registry() *prometheus.Registry
}

type flushResponse struct {
	Status string `json:"status"`
}

func NewRouter(d Dispatcher) *chi.Mux {
	r := chi.NewRouter()
	r.Use(accessLogDecorator)

	r.Get("/ping", PingHandler)
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) { StatusHandler(w, r, d) })
	r.Post("/flush", func(w http.ResponseWriter, r *http.Request) { FlushHandler(w, r, d) })
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry(), promhttp.HandlerOpts{}))
	return r
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("pong"))
}

func StatusHandler(w http.ResponseWriter, r *http.Request, d Dispatcher) {
	render.JSON(w, r, d.Stats())
}

// FlushHandler only requests a flush; the cycle runs on the flush goroutine.
func FlushHandler(w http.ResponseWriter, r *http.Request, d Dispatcher) {
	d.Flush()
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, &flushResponse{Status: "flush requested"})
}
