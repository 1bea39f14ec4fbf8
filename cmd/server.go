package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// APIServer builds the HTTP server for route on port.
func APIServer(route *chi.Mux, port string) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           route,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
