// Package server exposes the comparison generator over HTTP: a one-shot
// multipart generation endpoint plus a session API that lets a client
// position labels over a live preview before committing.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/jimwhimpey/beforeafterify/internal/config"
	"github.com/jimwhimpey/beforeafterify/pkg/assets"
	"github.com/jimwhimpey/beforeafterify/pkg/compositor"
	"github.com/jimwhimpey/beforeafterify/pkg/interaction"
	"github.com/jimwhimpey/beforeafterify/pkg/layout"
	"github.com/jimwhimpey/beforeafterify/pkg/pipeline"
	"github.com/jimwhimpey/beforeafterify/pkg/placement"
)

// Server wires the HTTP routes to the generation pipeline.
type Server struct {
	cfg     *config.Config
	loader  *assets.Loader
	engine  *layout.Engine
	comp    *compositor.Compositor
	orch    *pipeline.Orchestrator
	planner *placement.Planner // nil disables smart placement
	store   *Store
	mux     *http.ServeMux
}

// New creates a Server. planner may be nil, in which case smart placement
// requests are rejected.
func New(cfg *config.Config, engine *layout.Engine, comp *compositor.Compositor, orch *pipeline.Orchestrator, planner *placement.Planner) *Server {
	s := &Server{
		cfg:     cfg,
		loader:  assets.NewLoader(),
		engine:  engine,
		comp:    comp,
		orch:    orch,
		planner: planner,
		store:   NewStore(time.Duration(cfg.Server.SessionTTLMins) * time.Minute),
		mux:     http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /api/generate", s.handleGenerate)
	s.mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	s.mux.HandleFunc("POST /api/sessions/{id}/pointer", s.handlePointer)
	s.mux.HandleFunc("GET /api/sessions/{id}/preview", s.handlePreview)
	s.mux.HandleFunc("POST /api/sessions/{id}/generate", s.handleSessionGenerate)
	return s
}

// Handler returns the server's route handler.
func (s *Server) Handler() http.Handler { return s.mux }

// Close releases the session store.
func (s *Server) Close() { s.store.Close() }

// ListenAndServe serves on the configured address until the listener fails.
func (s *Server) ListenAndServe() error {
	log.Printf("listening on %s", s.cfg.Server.Addr)
	return http.ListenAndServe(s.cfg.Server.Addr, s.mux)
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeError(w http.ResponseWriter, status int, kind string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{Error: kind}
	if err != nil {
		resp.Message = err.Error()
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// labelPayload is the wire form of a label config; colors travel as hex
// strings.
type labelPayload struct {
	Text              string  `json:"text"`
	X                 float64 `json:"x"`
	Y                 float64 `json:"y"`
	FontSize          float64 `json:"fontSize"`
	Color             string  `json:"color"`
	Background        string  `json:"backgroundColor"`
	BackgroundOpacity float64 `json:"backgroundOpacity"`
	Padding           float64 `json:"padding"`
}

func toPayload(l layout.LabelConfig) labelPayload {
	return labelPayload{
		Text:              l.Text,
		X:                 l.X,
		Y:                 l.Y,
		FontSize:          l.FontSize,
		Color:             fmt.Sprintf("#%02x%02x%02x", l.Color.R, l.Color.G, l.Color.B),
		Background:        fmt.Sprintf("#%02x%02x%02x", l.Background.R, l.Background.G, l.Background.B),
		BackgroundOpacity: l.BackgroundOpacity,
		Padding:           l.Padding,
	}
}

// labelFromForm builds a label from per-label form fields (text1, x1, ...),
// falling back to the configured render defaults.
func (s *Server) labelFromForm(r *http.Request, suffix, defaultText string) (layout.LabelConfig, error) {
	rc := s.cfg.Render
	label := layout.LabelConfig{
		Text:              defaultText,
		FontSize:          rc.FontSize,
		Padding:           rc.Padding,
		BackgroundOpacity: rc.BackgroundOpacity,
	}

	var err error
	if label.Color, err = layout.ParseHexColor(rc.TextColor); err != nil {
		return label, err
	}
	if label.Background, err = layout.ParseHexColor(rc.BackgroundColor); err != nil {
		return label, err
	}

	if v := r.FormValue("text" + suffix); v != "" {
		label.Text = v
	}
	if v := r.FormValue("x" + suffix); v != "" {
		if label.X, err = strconv.ParseFloat(v, 64); err != nil {
			return label, fmt.Errorf("invalid x%s: %w", suffix, err)
		}
	}
	if v := r.FormValue("y" + suffix); v != "" {
		if label.Y, err = strconv.ParseFloat(v, 64); err != nil {
			return label, fmt.Errorf("invalid y%s: %w", suffix, err)
		}
	}
	if v := r.FormValue("size" + suffix); v != "" {
		if label.FontSize, err = strconv.ParseFloat(v, 64); err != nil {
			return label, fmt.Errorf("invalid size%s: %w", suffix, err)
		}
	}
	if v := r.FormValue("color" + suffix); v != "" {
		if label.Color, err = layout.ParseHexColor(v); err != nil {
			return label, err
		}
	}
	if v := r.FormValue("bg" + suffix); v != "" {
		if label.Background, err = layout.ParseHexColor(v); err != nil {
			return label, err
		}
	}
	if v := r.FormValue("bgopacity" + suffix); v != "" {
		if label.BackgroundOpacity, err = strconv.ParseFloat(v, 64); err != nil {
			return label, fmt.Errorf("invalid bgopacity%s: %w", suffix, err)
		}
	}
	if v := r.FormValue("padding" + suffix); v != "" {
		if label.Padding, err = strconv.ParseFloat(v, 64); err != nil {
			return label, fmt.Errorf("invalid padding%s: %w", suffix, err)
		}
	}

	if err := label.Validate(); err != nil {
		return label, err
	}
	return label, nil
}

func (s *Server) decodeUpload(r *http.Request, field string) (*assets.Asset, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("missing %q upload: %w", field, err)
	}
	defer file.Close()
	return s.decodeFile(file)
}

func (s *Server) decodeFile(file multipart.File) (*assets.Asset, error) {
	asset, err := s.loader.Decode(file)
	if err != nil {
		return nil, err
	}
	return asset, nil
}

func (s *Server) timingFromForm(r *http.Request) (delayMs, loop int, err error) {
	delayMs = s.cfg.Encode.DelayMs
	loop = s.cfg.Encode.LoopCount

	if v := r.FormValue("delay"); v != "" {
		if delayMs, err = strconv.Atoi(v); err != nil {
			return 0, 0, fmt.Errorf("invalid delay: %w", err)
		}
	}
	if v := r.FormValue("loop"); v != "" {
		if loop, err = strconv.Atoi(v); err != nil {
			return 0, 0, fmt.Errorf("invalid loop: %w", err)
		}
	}
	return delayMs, loop, nil
}

// handleGenerate is the one-shot path: two uploads in, a GIF out.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.cfg.Server.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	before, err := s.decodeUpload(r, "before")
	if err != nil {
		writeError(w, http.StatusBadRequest, "decode_failed", err)
		return
	}
	after, err := s.decodeUpload(r, "after")
	if err != nil {
		writeError(w, http.StatusBadRequest, "decode_failed", err)
		return
	}
	if !assets.SameSize(before, after) {
		writeError(w, http.StatusBadRequest, "dimension_mismatch", &pipeline.DimensionMismatchError{
			Width1: before.Width, Height1: before.Height,
			Width2: after.Width, Height2: after.Height,
		})
		return
	}

	label1, err := s.labelFromForm(r, "1", "before")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_label", err)
		return
	}
	label2, err := s.labelFromForm(r, "2", "after")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_label", err)
		return
	}

	delayMs, loop, err := s.timingFromForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	if r.FormValue("smart") == "1" {
		if s.planner == nil {
			writeError(w, http.StatusBadRequest, "smart_unavailable",
				fmt.Errorf("smart placement is not enabled on this server"))
			return
		}
		if err := s.applySmartPlacement(r.Context(), before, after, &label1, &label2); err != nil {
			writeError(w, http.StatusBadGateway, "placement_failed", err)
			return
		}
	}

	out, err := s.orch.GenerateComparison(before.Image, after.Image, label1, label2, delayMs, loop)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "generation_failed", err)
		return
	}

	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Content-Disposition", `attachment; filename="comparison.gif"`)
	_, _ = w.Write(out)
}

func (s *Server) applySmartPlacement(ctx context.Context, before, after *assets.Asset, label1, label2 *layout.LabelConfig) error {
	x1, y1, err := s.planner.Suggest(ctx, before, *label1)
	if err != nil {
		return err
	}
	x2, y2, err := s.planner.Suggest(ctx, after, *label2)
	if err != nil {
		return err
	}
	label1.X, label1.Y = x1, y1
	label2.X, label2.Y = x2, y2
	return nil
}

// sessionResponse describes a freshly created or updated session.
type sessionResponse struct {
	ID       string         `json:"id"`
	Width    int            `json:"width"`
	Height   int            `json:"height"`
	Scale    float64        `json:"scale"`
	Cursor   string         `json:"cursor"`
	Dragging bool           `json:"dragging"`
	Labels   []labelPayload `json:"labels"`
}

func (s *Server) sessionResponseLocked(sess *Session) sessionResponse {
	return sessionResponse{
		ID:       sess.ID,
		Width:    sess.before.Width,
		Height:   sess.before.Height,
		Scale:    sess.scale,
		Cursor:   string(sess.ctrl.Cursor()),
		Dragging: sess.ctrl.Dragging(),
		Labels:   []labelPayload{toPayload(*sess.labels[0]), toPayload(*sess.labels[1])},
	}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.cfg.Server.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	before, err := s.decodeUpload(r, "before")
	if err != nil {
		writeError(w, http.StatusBadRequest, "decode_failed", err)
		return
	}
	after, err := s.decodeUpload(r, "after")
	if err != nil {
		writeError(w, http.StatusBadRequest, "decode_failed", err)
		return
	}
	if !assets.SameSize(before, after) {
		writeError(w, http.StatusBadRequest, "dimension_mismatch", &pipeline.DimensionMismatchError{
			Width1: before.Width, Height1: before.Height,
			Width2: after.Width, Height2: after.Height,
		})
		return
	}

	label1, err := s.labelFromForm(r, "1", "before")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_label", err)
		return
	}
	label2, err := s.labelFromForm(r, "2", "after")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_label", err)
		return
	}

	policy := interaction.MoveIndependent
	if r.FormValue("linked") == "1" {
		policy = interaction.MoveTogether
	}

	previewBefore, scale := before.Preview(s.cfg.Preview.MaxWidth, s.cfg.Preview.MaxHeight)
	previewAfter, _ := after.Preview(s.cfg.Preview.MaxWidth, s.cfg.Preview.MaxHeight)

	sess := &Session{
		before:   before,
		after:    after,
		previews: [2]*image.NRGBA{previewBefore, previewAfter},
		scale:    scale,
		labels:   [2]*layout.LabelConfig{&label1, &label2},
	}
	sess.ctrl = interaction.NewController(s.engine, sess.labels[0], sess.labels[1], policy)

	if _, err := s.store.Put(sess); err != nil {
		writeError(w, http.StatusInternalServerError, "session_failed", err)
		return
	}

	sess.mu.Lock()
	resp := s.sessionResponseLocked(sess)
	sess.mu.Unlock()
	writeJSON(w, http.StatusCreated, resp)
}

// pointerEvent is one discrete pointer event in preview-surface coordinates.
type pointerEvent struct {
	Type string  `json:"type"` // "down", "move", "up", or "leave"
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_session", nil)
		return
	}

	var ev pointerEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	var resp sessionResponse
	var badType bool
	sess.withLock(func() {
		surface := interaction.Surface{
			Width:  float64(sess.previews[0].Bounds().Dx()),
			Height: float64(sess.previews[0].Bounds().Dy()),
			Scale:  sess.scale,
		}
		switch ev.Type {
		case "down":
			sess.ctrl.PointerDown(ev.X, ev.Y, surface)
		case "move":
			sess.ctrl.PointerMove(ev.X, ev.Y, surface)
		case "up":
			sess.ctrl.PointerUp()
		case "leave":
			sess.ctrl.PointerLeave()
		default:
			badType = true
			return
		}
		resp = s.sessionResponseLocked(sess)
	})
	if badType {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("unknown pointer event type %q", ev.Type))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_session", nil)
		return
	}

	frame := 0
	if v := r.URL.Query().Get("frame"); v == "1" {
		frame = 1
	}

	var out []byte
	var renderErr error
	sess.withLock(func() {
		img, err := s.comp.RenderPreviewFrame(sess.previews[frame], *sess.labels[frame], sess.scale)
		if err != nil {
			renderErr = err
			return
		}
		out, renderErr = encodePNG(img)
	})
	if renderErr != nil {
		writeError(w, http.StatusInternalServerError, "preview_failed", renderErr)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(out)
}

func (s *Server) handleSessionGenerate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_session", nil)
		return
	}

	delayMs, loop, err := s.timingFromForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	var out []byte
	var genErr error
	sess.withLock(func() {
		out, genErr = s.orch.GenerateComparison(
			sess.before.Image, sess.after.Image,
			*sess.labels[0], *sess.labels[1],
			delayMs, loop)
	})
	if genErr != nil {
		writeError(w, http.StatusInternalServerError, "generation_failed", genErr)
		return
	}

	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Content-Disposition", `attachment; filename="comparison.gif"`)
	_, _ = w.Write(out)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

func encodePNG(img *image.NRGBA) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png encoding failed: %w", err)
	}
	return buf.Bytes(), nil
}
