package handlers

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/picklecup/internal/engine"
	"github.com/abrezinsky/picklecup/internal/models"
	"github.com/abrezinsky/picklecup/internal/roster"
	"github.com/abrezinsky/picklecup/internal/services"
)

// maxRosterSize bounds uploaded roster files.
const maxRosterSize = 2 << 20

// ==================== Admin Page ====================

func (h *Handlers) handleAdminPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	h.templates.Admin.ExecuteTemplate(w, "admin", PageData{
		Title:     "Quản trị giải đấu",
		EventName: h.Results.EventName(r.Context()),
		PublicURL: h.publicURL(r),
	})
}

// ==================== Roster ====================

// handleRosterTemplate serves the sample workbook, or CSV with ?format=csv.
func (h *Handlers) handleRosterTemplate(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if r.URL.Query().Get("format") == "csv" {
		// Excel needs the BOM to open UTF-8 CSV with Vietnamese names intact.
		buf.WriteString("\ufeff")
		if err := roster.WriteTemplateCSV(&buf); err != nil {
			respondError(w, InternalError(err))
			return
		}
		w.Header().Set("Content-Type", roster.ContentTypeCSV+"; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="danh-sach-vdv.csv"`)
		w.Write(buf.Bytes())
		return
	}
	if err := roster.WriteTemplate(&buf); err != nil {
		respondError(w, InternalError(err))
		return
	}
	w.Header().Set("Content-Type", roster.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", `attachment; filename="Mau_Nhap_Lieu_PC_TuyenQuang.xlsx"`)
	w.Write(buf.Bytes())
}

// handleImportRoster accepts the entry sheet either as a multipart "file" field
// or as the raw request body.
func (h *Handlers) handleImportRoster(w http.ResponseWriter, r *http.Request) {
	key, err := categoryParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRosterSize)

	var body io.Reader = r.Body
	filename, contentType := "", r.Header.Get("Content-Type")
	if mediaType, _, _ := mime.ParseMediaType(contentType); mediaType == "multipart/form-data" {
		file, header, err := r.FormFile("file")
		if err != nil {
			respondError(w, BadRequest("Missing roster file"))
			return
		}
		defer file.Close()
		body = file
		filename, contentType = header.Filename, header.Header.Get("Content-Type")
	}

	res, err := h.Tournament.ImportRoster(r.Context(), key, body, filename, contentType)
	respondImport(w, res, err)
}

func (h *Handlers) handleImportTeams(w http.ResponseWriter, r *http.Request) {
	key, err := categoryParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req TeamsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	res, err := h.Tournament.ImportTeams(r.Context(), key, req.Teams)
	respondImport(w, res, err)
}

// respondImport reports skipped rows alongside the error when an import was rejected.
func respondImport(w http.ResponseWriter, res *services.ImportResult, err error) {
	if err != nil {
		if res != nil {
			apiErr := ToAPIError(err)
			respondJSON(w, apiErr.Status, ImportErrorResponse{APIError: *apiErr, RowErrors: res.RowErrors})
			return
		}
		respondError(w, err)
		return
	}
	respondOK(w, res)
}

// ==================== Matches ====================

func (h *Handlers) handleUpdateMatch(w http.ResponseWriter, r *http.Request) {
	key, err := categoryParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req MatchUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	cat, err := h.Tournament.UpdateMatch(r.Context(), key, chi.URLParam(r, "id"), req.toUpdate())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, cat)
}

func (h *Handlers) handleSetWinner(w http.ResponseWriter, r *http.Request) {
	key, err := categoryParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req WinnerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	cat, err := h.Tournament.SetWinner(r.Context(), key, chi.URLParam(r, "id"), req.WinnerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, cat)
}

func (h *Handlers) handleReorderMatches(w http.ResponseWriter, r *http.Request) {
	key, err := categoryParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req ReorderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	cat, err := h.Tournament.ReorderMatches(r.Context(), key, req.MatchIDs)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, cat)
}

// ==================== Bracket ====================

// handleSeedBracket seeds with the stored variant unless the body names one.
// An empty body is allowed.
func (h *Handlers) handleSeedBracket(w http.ResponseWriter, r *http.Request) {
	key, err := categoryParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req services.SeedRequest
	if err := decodeJSON(r, &req); err != nil && err != ErrEmptyBody {
		respondError(w, err)
		return
	}
	res, err := h.Tournament.SeedBracket(r.Context(), key, req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, res)
}

func (h *Handlers) handleGetVariant(w http.ResponseWriter, r *http.Request) {
	key, err := categoryParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	variant, err := h.Tournament.Variant(r.Context(), key)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, VariantResponse{Category: key, Variant: variant, Variants: engine.Variants(key)})
}

func (h *Handlers) handleSetVariant(w http.ResponseWriter, r *http.Request) {
	key, err := categoryParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req VariantRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.Tournament.SetVariant(r.Context(), key, req.Variant); err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, VariantResponse{Category: key, Variant: strings.TrimSpace(req.Variant), Variants: engine.Variants(key)})
}

func (h *Handlers) handleSimulate(w http.ResponseWriter, r *http.Request) {
	key, err := categoryParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	cat, err := h.Tournament.Simulate(r.Context(), key)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, cat)
}

// ==================== Tournament ====================

func (h *Handlers) handleClearCategory(w http.ResponseWriter, r *http.Request) {
	key, err := categoryParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	cat, err := h.Tournament.ClearCategory(r.Context(), key)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, cat)
}

func (h *Handlers) handleReset(w http.ResponseWriter, r *http.Request) {
	respondOK(w, h.Tournament.Reset(r.Context()))
}

func (h *Handlers) handleReplaceTournament(w http.ResponseWriter, r *http.Request) {
	var t models.Tournament
	if err := decodeJSON(r, &t); err != nil {
		respondError(w, err)
		return
	}
	out, err := h.Tournament.Replace(r.Context(), &t)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, out)
}

// ==================== Sync ====================

func (h *Handlers) handleGetSyncStatus(w http.ResponseWriter, r *http.Request) {
	respondOK(w, h.Sync.Status(r.Context()))
}

func (h *Handlers) handleUpload(w http.ResponseWriter, r *http.Request) {
	status, err := h.Sync.Upload(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, status)
}

func (h *Handlers) handlePull(w http.ResponseWriter, r *http.Request) {
	t, err := h.Sync.Pull(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, t)
}

// ==================== Audit ====================

func (h *Handlers) handleGetAudit(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, BadRequest("Invalid limit parameter"))
			return
		}
		limit = n
	}
	entries, err := h.Tournament.Audit(r.Context(), r.URL.Query().Get("category"), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, AuditResponse{Entries: entries})
}
