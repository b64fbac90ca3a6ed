package services

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dpup/prefab/logging"

	"github.com/ruamjai/ruamjai/internal/lib/alerts"
	"github.com/ruamjai/ruamjai/internal/lib/geo"
	"github.com/ruamjai/ruamjai/internal/lib/proximity"
	"github.com/ruamjai/ruamjai/internal/lib/triage"
)

// EmergencyContact is an entry in the national hotline directory.
type EmergencyContact struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

// EmergencyContacts is the Thai emergency hotline directory served to
// clients alongside the alert feed.
var EmergencyContacts = []EmergencyContact{
	{Name: "ตำรวจ", Number: "191"},
	{Name: "รถพยาบาล", Number: "1669"},
	{Name: "ดับเพลิง", Number: "199"},
	{Name: "ตำรวจท่องเที่ยว", Number: "1155"},
	{Name: "ทางหลวง", Number: "1193"},
	{Name: "จส.100", Number: "1137"},
}

// API exposes the session over JSON HTTP for the client shell. It is a
// thin translation layer; all behavior lives in the session.
type API struct {
	session *Session
	mux     *http.ServeMux
}

// NewAPI builds the HTTP surface around a session.
func NewAPI(session *Session) *API {
	a := &API{
		session: session,
		mux:     http.NewServeMux(),
	}

	a.mux.HandleFunc("GET /api/v1/state", a.handleState)
	a.mux.HandleFunc("GET /api/v1/alerts", a.handleAlerts)
	a.mux.HandleFunc("GET /api/v1/contacts", a.handleContacts)
	a.mux.HandleFunc("POST /api/v1/classify", a.handleClassify)
	a.mux.HandleFunc("POST /api/v1/report", a.handleReport)
	a.mux.HandleFunc("POST /api/v1/triage/dismiss", a.handleDismiss)
	a.mux.HandleFunc("POST /api/v1/triage/navigate", a.handleNavigate)
	a.mux.HandleFunc("POST /api/v1/navigation/cancel", a.handleCancelNavigation)

	return a
}

// ServeHTTP implements http.Handler.
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// stateResponse is the snapshot the client polls to render the map and
// the interrupting overlay.
type stateResponse struct {
	Position     *geo.Point    `json:"position,omitempty"`
	TriagePhase  triage.Phase  `json:"triage_phase"`
	PresentingID string        `json:"presenting_id,omitempty"`
	Presenting   *alerts.Alert `json:"presenting,omitempty"`
	Destination  *geo.Point    `json:"destination,omitempty"`
	NearbyCount  int           `json:"nearby_count"`
	RadiusKm     float64       `json:"radius_km"`
}

func (a *API) handleState(w http.ResponseWriter, r *http.Request) {
	resp := stateResponse{
		TriagePhase: a.session.TriageState().Phase,
		NearbyCount: len(a.session.NearbyAlerts()),
		RadiusKm:    a.session.radiusKm,
	}

	if pos, ok := a.session.Position(); ok {
		p := pos
		resp.Position = &p
	}
	if state := a.session.TriageState(); state.Active != nil {
		resp.Presenting = state.Active
		resp.PresentingID = state.Active.ID
	}
	if dest, ok := a.session.Destination(); ok {
		d := dest
		resp.Destination = &d
	}

	writeJSON(w, r, http.StatusOK, resp)
}

// alertsResponse pairs each alert with its distance from the user.
type alertsResponse struct {
	Alerts []proximity.AlertDistance `json:"alerts"`
}

func (a *API) handleAlerts(w http.ResponseWriter, r *http.Request) {
	var list []proximity.AlertDistance
	switch r.URL.Query().Get("sort") {
	case "distance":
		list = a.session.AlertsSortedByDistance()
	default:
		list = a.session.AlertsWithDistance()
	}
	writeJSON(w, r, http.StatusOK, alertsResponse{Alerts: list})
}

func (a *API) handleContacts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string][]EmergencyContact{"contacts": EmergencyContacts})
}

type classifyRequest struct {
	Text string `json:"text"`
}

func (a *API) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		writeError(w, r, http.StatusBadRequest, "text is required")
		return
	}

	draft := a.session.ClassifyNow(r.Context(), req.Text)
	writeJSON(w, r, http.StatusOK, draft)
}

// reportRequest either confirms a classification draft by token, or files
// a quick report with an explicit category.
type reportRequest struct {
	Token       string `json:"token,omitempty"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	Severity    string `json:"severity,omitempty"`
}

func (a *API) handleReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	var created alerts.Alert
	var err error

	switch {
	case req.Token != "":
		created, err = a.session.ConfirmReport(req.Token)
	case req.Category != "":
		category, ok := alerts.ParseCategory(req.Category)
		if !ok {
			writeError(w, r, http.StatusBadRequest, "unknown category")
			return
		}
		severity := alerts.SeverityMedium
		if req.Severity != "" {
			if severity, ok = alerts.ParseSeverity(req.Severity); !ok {
				writeError(w, r, http.StatusBadRequest, "unknown severity")
				return
			}
		}
		created, err = a.session.SubmitQuickReport(category, req.Description, severity)
	default:
		writeError(w, r, http.StatusBadRequest, "token or category is required")
		return
	}

	switch {
	case errors.Is(err, ErrUnknownDraft):
		writeError(w, r, http.StatusNotFound, "unknown or superseded draft")
	case errors.Is(err, ErrNoPosition):
		writeError(w, r, http.StatusConflict, "user position unknown")
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, "failed to file report")
	default:
		writeJSON(w, r, http.StatusCreated, created)
	}
}

func (a *API) handleDismiss(w http.ResponseWriter, r *http.Request) {
	a.session.DismissAlert()
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "dismissed"})
}

// navigateResponse carries the destination handed to the map.
type navigateResponse struct {
	Destination geo.Point `json:"destination"`
}

func (a *API) handleNavigate(w http.ResponseWriter, r *http.Request) {
	dest, ok := a.session.NavigateToAlert()
	if !ok {
		writeError(w, r, http.StatusConflict, "no alert is presenting")
		return
	}
	writeJSON(w, r, http.StatusOK, navigateResponse{Destination: dest})
}

func (a *API) handleCancelNavigation(w http.ResponseWriter, r *http.Request) {
	a.session.CancelNavigation()
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "cancelled"})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Errorw(r.Context(), "Failed to encode API response", "path", r.URL.Path, "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, map[string]string{"error": message})
}
