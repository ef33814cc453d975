package handlers

import (
	"net/http"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// ==================== Public Pages ====================

func (h *Handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	h.templates.Index.Execute(w, PageData{
		Title:     h.Results.EventName(r.Context()),
		EventName: h.Results.EventName(r.Context()),
		PublicURL: h.publicURL(r),
	})
}

// ==================== Results API ====================

func (h *Handlers) handleGetTournament(w http.ResponseWriter, r *http.Request) {
	respondOK(w, h.Tournament.Snapshot(r.Context()))
}

func (h *Handlers) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Results.Summary(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, summary)
}

func (h *Handlers) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	key, err := categoryParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	cat, err := h.Tournament.Category(r.Context(), key)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, cat)
}

func (h *Handlers) handleGetMatches(w http.ResponseWriter, r *http.Request) {
	key, err := categoryParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	matches, err := h.Results.Matches(r.Context(), key)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, matches)
}

func (h *Handlers) handleGetStandings(w http.ResponseWriter, r *http.Request) {
	key, err := categoryParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	standings, err := h.Results.Standings(r.Context(), key)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, standings)
}

func (h *Handlers) handleGetBracket(w http.ResponseWriter, r *http.Request) {
	key, err := categoryParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	bracket, err := h.Results.Bracket(r.Context(), key)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, bracket)
}

func (h *Handlers) handleGetPodium(w http.ResponseWriter, r *http.Request) {
	key, err := categoryParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	podium, err := h.Results.Podium(r.Context(), key)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, podium)
}

// ==================== QR Code ====================

const maxQRContent = 512

// handleQRCode renders a PNG QR code pointing at the dashboard, or at ?url=
// when given.
func (h *Handlers) handleQRCode(w http.ResponseWriter, r *http.Request) {
	target := strings.TrimSpace(r.URL.Query().Get("url"))
	if target == "" {
		target = h.publicURL(r)
	}
	if len(target) > maxQRContent {
		respondError(w, BadRequest("URL is too long for a QR code"))
		return
	}

	png, err := qrcode.Encode(target, qrcode.Medium, 256)
	if err != nil {
		respondError(w, InternalError(err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}

// publicURL is the configured base URL, or the address the request came in on.
func (h *Handlers) publicURL(r *http.Request) string {
	if h.opts.PublicURL != "" {
		return h.opts.PublicURL + "/"
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/"
}
