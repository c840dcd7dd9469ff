package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/danfragoso/coverwall/internal/compositor"
	"github.com/danfragoso/coverwall/internal/palette"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type renderResponse struct {
	Style   string              `json:"style"`
	Outputs []outputResponse    `json:"outputs"`
	Status  []compositor.Status `json:"status"`
}

type outputResponse struct {
	OutputFile
	URL string `json:"url"`
}

type statusResponse struct {
	Version        string              `json:"version"`
	InstallationID string              `json:"installation_id"`
	Style          string              `json:"style"`
	History        int                 `json:"history"`
	Outputs        int                 `json:"outputs"`
	LastRender     *time.Time          `json:"last_render,omitempty"`
	LastStatus     []compositor.Status `json:"last_status"`
	LastFiles      []string            `json:"last_files"`
}

func (app *Coverwall) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/render", app.handleRender)
	r.Get("/outputs/{name}", app.handleOutput)
	r.Post("/reset", app.handleReset)
	r.Get("/status", app.handleStatus)
	return r
}

// serve runs the HTTP API until ctx is done.
func (app *Coverwall) serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logMsg(fmt.Sprintf("INFO: Listening on %s", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logMsg("INFO: Shutting down")
	app.Trigger.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// handleRender renders the request body as artwork. Query parameters style,
// fill and color override the config for this render; title and artist feed
// the minimalist style.
func (app *Coverwall) handleRender(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MAX_UPLOAD_BYTES))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err)
		return
	}

	req, err := app.Config.baseRequest()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := applyQuery(&req, r); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.Data = data

	res, files, err := app.Trigger.Fire(r.Context(), req)
	switch {
	case errors.Is(err, ErrSuperseded):
		writeError(w, http.StatusConflict, err)
		return
	case err != nil && r.Context().Err() != nil:
		// Client went away.
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := renderResponse{Style: res.Style.String(), Status: res.Status}
	if resp.Status == nil {
		resp.Status = []compositor.Status{}
	}
	for _, f := range files {
		resp.Outputs = append(resp.Outputs, outputResponse{OutputFile: f, URL: "/outputs/" + f.Name})
	}
	writeJSON(w, http.StatusOK, resp)
}

func applyQuery(req *compositor.Request, r *http.Request) error {
	q := r.URL.Query()
	if s := q.Get("style"); s != "" {
		style, err := compositor.ParseStyle(s)
		if err != nil {
			return err
		}
		req.Style = style
	}
	if s := q.Get("fill"); s != "" {
		fill, err := compositor.ParseFillMode(s)
		if err != nil {
			return err
		}
		req.Fill = fill
	}
	if s := q.Get("color"); s != "" {
		c, err := palette.ParseHex(s)
		if err != nil {
			return err
		}
		req.CustomColor = c
		if q.Get("fill") == "" {
			req.Fill = compositor.FillCustom
		}
	}
	req.TrackName = q.Get("title")
	req.Artist = q.Get("artist")
	return nil
}

func (app *Coverwall) handleOutput(w http.ResponseWriter, r *http.Request) {
	path, err := app.Cache.Path(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, path)
}

func (app *Coverwall) handleReset(w http.ResponseWriter, _ *http.Request) {
	app.Compositor.ResetSession()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (app *Coverwall) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status, files, last := app.status()
	resp := statusResponse{
		Version:        APP_VERSION,
		InstallationID: app.Config.InstallationID,
		Style:          app.Config.Style,
		History:        app.Compositor.History().Len(),
		Outputs:        app.Cache.Len(),
		LastStatus:     status,
		LastFiles:      []string{},
	}
	if resp.LastStatus == nil {
		resp.LastStatus = []compositor.Status{}
	}
	if !last.IsZero() {
		resp.LastRender = &last
	}
	for _, f := range files {
		resp.LastFiles = append(resp.LastFiles, f.Name)
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
