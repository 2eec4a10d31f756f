package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"intercom/internal/domain"
	"intercom/internal/dto"
	"intercom/internal/netutil"
	"intercom/internal/service"
	"intercom/internal/store"
)

type Handler struct {
	Verification service.VerificationService
	Credentials  service.CredentialService
	Directory    service.DirectoryService
}

func NewHandler(verification service.VerificationService, credentials service.CredentialService, directory service.DirectoryService) *Handler {
	return &Handler{Verification: verification, Credentials: credentials, Directory: directory}
}

// mapServiceError translates domain errors for authenticated callers. The
// verify endpoint never goes through here; devices get no error detail.
func mapServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotAllowed):
		writeError(w, http.StatusForbidden, "forbidden", CodeForbidden)
	case errors.Is(err, domain.ErrBuildingNotFound),
		errors.Is(err, domain.ErrIntercomNotFound),
		errors.Is(err, domain.ErrCredentialNotFound):
		writeError(w, http.StatusNotFound, err.Error(), CodeNotFound)
	case errors.Is(err, store.ErrDuplicateCredential):
		writeError(w, http.StatusConflict, "credential already exists", CodeConflict)
	case errors.Is(err, domain.ErrEmptySecret),
		errors.Is(err, domain.ErrInvalidExpiry),
		errors.Is(err, domain.ErrInvalidMaxUses):
		writeError(w, http.StatusBadRequest, err.Error(), CodeInvalidInput)
	default:
		slog.Error("management request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error", CodeInternalError)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", CodeInvalidInput)
		return false
	}
	return true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name, CodeInvalidInput)
		return uuid.Nil, false
	}
	return id, true
}

// --- verification ---

// Verify is the only endpoint callable without authentication: physical
// devices cannot hold user sessions. Every failure class collapses into the
// same response shape.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IntercomID == uuid.Nil || req.Secret == "" {
		writeJSON(w, http.StatusOK, dto.VerifyResponse{
			Granted:    false,
			Reason:     dto.DeniedReason,
			ServerTime: time.Now().UTC().Format(time.RFC3339Nano),
		})
		return
	}
	req.IP = clientIP(r)
	req.DeviceInfo = netutil.TruncateDeviceInfo(req.DeviceInfo)

	result, err := h.Verification.Verify(r.Context(), req)
	if err != nil {
		// The engine fails closed internally; this is belt and braces.
		slog.Error("verification failed", "error", err)
		result = dto.VerifyResult{Granted: false, Reason: dto.DeniedReason}
	}

	writeJSON(w, http.StatusOK, dto.VerifyResponse{
		Granted:    result.Granted,
		Reason:     result.Reason,
		ServerTime: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// --- directory ---

func (h *Handler) CreateBuilding(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor", CodeUnauthorized)
		return
	}
	var req dto.CreateBuildingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	b, err := h.Directory.CreateBuilding(r.Context(), req, actor)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handler) CreateIntercom(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor", CodeUnauthorized)
		return
	}
	buildingID, ok := pathUUID(w, r, "buildingID")
	if !ok {
		return
	}
	var req dto.CreateIntercomRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ic, err := h.Directory.CreateIntercom(r.Context(), buildingID, req, actor)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ic)
}

func (h *Handler) ListIntercoms(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor", CodeUnauthorized)
		return
	}
	buildingID, ok := pathUUID(w, r, "buildingID")
	if !ok {
		return
	}
	intercoms, err := h.Directory.ListIntercoms(r.Context(), buildingID, actor)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, intercoms)
}

// --- pins ---

func (h *Handler) SetMasterPin(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor", CodeUnauthorized)
		return
	}
	intercomID, ok := pathUUID(w, r, "intercomID")
	if !ok {
		return
	}
	var req dto.SetMasterPinRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.Credentials.SetMasterPin(r.Context(), intercomID, req, actor)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) SetUserPin(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor", CodeUnauthorized)
		return
	}
	intercomID, ok := pathUUID(w, r, "intercomID")
	if !ok {
		return
	}
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	var req dto.SetUserPinRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.Credentials.SetUserPin(r.Context(), intercomID, userID, req, actor)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) RevokeUserPin(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor", CodeUnauthorized)
		return
	}
	intercomID, ok := pathUUID(w, r, "intercomID")
	if !ok {
		return
	}
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	if err := h.Credentials.RevokeUserPin(r.Context(), intercomID, userID, actor); err != nil {
		mapServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateTemporaryPin(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor", CodeUnauthorized)
		return
	}
	intercomID, ok := pathUUID(w, r, "intercomID")
	if !ok {
		return
	}
	var req dto.CreateTemporaryPinRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.Credentials.CreateTemporaryPin(r.Context(), intercomID, req, actor)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) RevokeTemporaryPin(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor", CodeUnauthorized)
		return
	}
	id, ok := pathUUID(w, r, "pinID")
	if !ok {
		return
	}
	if err := h.Credentials.RevokeTemporaryPin(r.Context(), id, actor); err != nil {
		mapServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- access codes ---

func (h *Handler) CreateAccessCode(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor", CodeUnauthorized)
		return
	}
	var req dto.CreateAccessCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.Credentials.CreateAccessCode(r.Context(), req, actor)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) UpdateAccessCode(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor", CodeUnauthorized)
		return
	}
	id, ok := pathUUID(w, r, "codeID")
	if !ok {
		return
	}
	var req dto.UpdateAccessCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.Credentials.UpdateAccessCode(r.Context(), id, req, actor)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) DeactivateAccessCode(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor", CodeUnauthorized)
		return
	}
	id, ok := pathUUID(w, r, "codeID")
	if !ok {
		return
	}
	if err := h.Credentials.DeactivateAccessCode(r.Context(), id, actor); err != nil {
		mapServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteAccessCode(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor", CodeUnauthorized)
		return
	}
	id, ok := pathUUID(w, r, "codeID")
	if !ok {
		return
	}
	if err := h.Credentials.DeleteAccessCode(r.Context(), id, actor); err != nil {
		mapServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListAccessCodes(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor", CodeUnauthorized)
		return
	}
	q := dto.AccessCodeQuery{}
	if raw := r.URL.Query().Get("buildingId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid buildingId", CodeInvalidInput)
			return
		}
		q.BuildingID = &id
	}
	if raw := r.URL.Query().Get("intercomId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid intercomId", CodeInvalidInput)
			return
		}
		q.IntercomID = &id
	}
	q.Page, q.PageSize = queryPage(r)

	page, err := h.Credentials.ListAccessCodes(r.Context(), q, actor)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) ListAccessLogs(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor", CodeUnauthorized)
		return
	}
	q := dto.AccessLogQuery{}
	if raw := r.URL.Query().Get("intercomId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid intercomId", CodeInvalidInput)
			return
		}
		q.IntercomID = &id
	}
	if raw := r.URL.Query().Get("userId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid userId", CodeInvalidInput)
			return
		}
		q.UserID = &id
	}
	if raw := r.URL.Query().Get("success"); raw != "" {
		success, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid success", CodeInvalidInput)
			return
		}
		q.Success = &success
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from", CodeInvalidInput)
			return
		}
		q.From = &ts
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to", CodeInvalidInput)
			return
		}
		q.To = &ts
	}
	q.Page, q.PageSize = queryPage(r)

	page, err := h.Credentials.ListAccessLogs(r.Context(), q, actor)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func queryPage(r *http.Request) (page, pageSize int) {
	if raw := r.URL.Query().Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			page = n
		}
	}
	if raw := r.URL.Query().Get("pageSize"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			pageSize = n
		}
	}
	return page, pageSize
}
