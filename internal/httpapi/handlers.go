package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"mural-budget/internal/budget"
	"mural-budget/internal/config"
	"mural-budget/internal/estimate"
	"mural-budget/internal/storage"
	"mural-budget/pkg/viacep"
)

const (
	maxBodyBytes = 1 << 20
	leadAction   = "lead"
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Handler struct {
	leads    LeadStore
	address  AddressLookup
	notifier Notifier
	sessions *SessionRegistry
	business config.BusinessConfig
	logger   *zap.Logger
}

func NewHandler(
	leads LeadStore,
	address AddressLookup,
	notifier Notifier,
	sessions *SessionRegistry,
	business config.BusinessConfig,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		leads:    leads,
		address:  address,
		notifier: notifier,
		sessions: sessions,
		business: business,
		logger:   logger,
	}
}

type estimateResponse struct {
	Estimate  *estimate.Result   `json:"estimate"`
	Precision estimate.Precision `json:"precision"`
}

type sessionResponse struct {
	ID uuid.UUID `json:"id"`
	estimate.Snapshot
}

type addressResponse struct {
	*viacep.Address
	DistanceFactor float64 `json:"distanceFactor"`
}

type leadResponse struct {
	ID        uuid.UUID          `json:"id"`
	Number    int64              `json:"number"`
	Status    string             `json:"status"`
	Estimate  *estimate.Result   `json:"estimate"`
	Precision estimate.Precision `json:"precision"`
	ShareURL  string             `json:"shareUrl"`
}

type shareResponse struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, estimate.ListCatalog())
}

// decodeRequest reads and schema-checks a ProjectRequest body. It writes the
// error response itself and reports whether decoding succeeded.
func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request, allowEmpty bool) (budget.ProjectRequest, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		WriteJSONError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return budget.ProjectRequest{}, false
	}
	if len(body) == 0 && allowEmpty {
		return budget.ProjectRequest{}, true
	}

	req, err := budget.DecodeRequest(body)
	if err != nil {
		h.logger.Debug("Rejected request body", zap.Error(err))
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return budget.ProjectRequest{}, false
	}
	return req, true
}

// Estimate computes an estimate for a request snapshot in one shot.
func (h *Handler) Estimate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r, false)
	if !ok {
		return
	}

	RespondWithJSON(w, http.StatusOK, estimateResponse{
		Estimate:  estimate.ComputeEstimate(req, estimate.ComputeDistanceFactor(req.PostalCode)),
		Precision: estimate.ComputePrecision(req),
	})
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r, true)
	if !ok {
		return
	}

	id, calc, err := h.sessions.Create()
	if err != nil {
		h.logger.Warn("Form session rejected", zap.Error(err), zap.Int("active", h.sessions.Len()))
		WriteJSONError(w, http.StatusServiceUnavailable, "Muitos formulários abertos. Tente novamente em instantes.")
		return
	}
	calc.Update(req)

	h.logger.Debug("Form session created", zap.String("session_id", id.String()))
	RespondWithJSON(w, http.StatusCreated, sessionResponse{ID: id, Snapshot: calc.Snapshot()})
}

func (h *Handler) sessionFromURL(w http.ResponseWriter, r *http.Request) (uuid.UUID, *estimate.Calculator, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid session ID")
		return uuid.Nil, nil, false
	}

	calc, ok := h.sessions.Get(id)
	if !ok {
		WriteJSONError(w, http.StatusNotFound, "Session not found")
		return uuid.Nil, nil, false
	}
	return id, calc, true
}

// UpdateSession replaces the form snapshot. A changed CEP restarts the
// debounced distance calculation.
func (h *Handler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	id, calc, ok := h.sessionFromURL(w, r)
	if !ok {
		return
	}

	req, ok := h.decodeRequest(w, r, false)
	if !ok {
		return
	}

	calc.Update(req)
	RespondWithJSON(w, http.StatusOK, sessionResponse{ID: id, Snapshot: calc.Snapshot()})
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, calc, ok := h.sessionFromURL(w, r)
	if !ok {
		return
	}
	RespondWithJSON(w, http.StatusOK, sessionResponse{ID: id, Snapshot: calc.Snapshot()})
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	if !h.sessions.Delete(id) {
		WriteJSONError(w, http.StatusNotFound, "Session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LookupPostalCode resolves a CEP. Upstream failures are reported as 502 so the
// form can fall back to manual address entry.
func (h *Handler) LookupPostalCode(w http.ResponseWriter, r *http.Request) {
	cep := chi.URLParam(r, "cep")
	logger := h.logger.With(zap.String("cep", cep))

	addr, err := h.address.Lookup(r.Context(), cep)
	if err != nil {
		switch {
		case errors.Is(err, viacep.ErrInvalidPostalCode):
			WriteJSONError(w, http.StatusBadRequest, "Formato de CEP inválido")
		case errors.Is(err, viacep.ErrNotFound):
			WriteJSONError(w, http.StatusNotFound, "CEP não encontrado")
		default:
			logger.Warn("Address lookup failed", zap.Error(err))
			WriteJSONError(w, http.StatusBadGateway, "Serviço de CEP indisponível, preencha o endereço manualmente")
		}
		return
	}

	RespondWithJSON(w, http.StatusOK, addressResponse{
		Address:        addr,
		DistanceFactor: estimate.ComputeDistanceFactor(cep),
	})
}

// CreateLead validates and stores a finished request, then notifies the
// business. Rejected bodies do not consume the client's rate limit.
func (h *Handler) CreateLead(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	logger := h.logger.With(zap.String("client_ip", ip))

	req, ok := h.decodeRequest(w, r, false)
	if !ok {
		return
	}

	req = budget.Normalize(req)
	if err := budget.Validate(req); err != nil {
		var verrs budget.ValidationErrors
		if errors.As(err, &verrs) {
			writeFieldErrors(w, http.StatusUnprocessableEntity, "Dados inválidos", verrs)
			return
		}
		WriteJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	// Only well-formed submissions count against the quota.
	limited, err := h.leads.CheckRateLimit(r.Context(), ip, leadAction, h.business.LeadRateLimit, h.business.LeadRateWindow)
	if err != nil {
		logger.Warn("Rate limit check failed", zap.Error(err))
	} else if limited {
		WriteJSONError(w, http.StatusTooManyRequests, "Muitos pedidos enviados. Tente novamente mais tarde.")
		return
	}

	est := estimate.ComputeEstimate(req, estimate.ComputeDistanceFactor(req.PostalCode))
	precision := estimate.ComputePrecision(req)

	lead, err := storage.NewLead(storage.ChannelWeb, req, est, precision)
	if err != nil {
		logger.Error("Failed to build lead", zap.Error(err))
		WriteJSONError(w, http.StatusInternalServerError, "Failed to register request")
		return
	}

	if err := h.leads.SaveLead(r.Context(), &lead); err != nil {
		logger.Error("Failed to save lead", zap.Error(err))
		WriteJSONError(w, http.StatusInternalServerError, "Failed to register request")
		return
	}

	logger.Info("Lead submitted",
		zap.Int64("lead_id", lead.ID),
		zap.String("public_id", lead.PublicID.String()),
		zap.String("channel", lead.Channel))

	if h.notifier != nil {
		h.notifier.NotifyNewLead(r.Context(), lead)
	}

	RespondWithJSON(w, http.StatusCreated, leadResponse{
		ID:        lead.PublicID,
		Number:    lead.ID,
		Status:    lead.Status,
		Estimate:  est,
		Precision: precision,
		ShareURL:  budget.ShareURL(h.business.WhatsAppNumber, req),
	})
}

func (h *Handler) leadFromURL(w http.ResponseWriter, r *http.Request) (*storage.Lead, bool) {
	publicID, err := uuid.Parse(chi.URLParam(r, "leadID"))
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid lead ID")
		return nil, false
	}

	lead, err := h.leads.GetLeadByPublicID(r.Context(), publicID)
	if err != nil {
		if errors.Is(err, storage.ErrLeadNotFound) {
			WriteJSONError(w, http.StatusNotFound, "Lead not found")
			return nil, false
		}
		h.logger.Error("Failed to get lead",
			zap.String("public_id", publicID.String()),
			zap.Error(err))
		WriteJSONError(w, http.StatusInternalServerError, "Failed to load lead")
		return nil, false
	}
	return lead, true
}

func (h *Handler) ShareLead(w http.ResponseWriter, r *http.Request) {
	lead, ok := h.leadFromURL(w, r)
	if !ok {
		return
	}

	req := lead.Request()
	RespondWithJSON(w, http.StatusOK, shareResponse{
		URL:     budget.ShareURL(h.business.WhatsAppNumber, req),
		Message: budget.ShareMessage(req),
	})
}

func (h *Handler) ExportLead(w http.ResponseWriter, r *http.Request) {
	lead, ok := h.leadFromURL(w, r)
	if !ok {
		return
	}

	f, err := storage.BuildLeadWorkbook(*lead)
	if err != nil {
		h.logger.Error("Failed to build workbook", zap.Int64("lead_id", lead.ID), zap.Error(err))
		WriteJSONError(w, http.StatusInternalServerError, "Failed to export lead")
		return
	}
	data, err := storage.WorkbookBytes(f)
	if err != nil {
		h.logger.Error("Failed to write workbook", zap.Int64("lead_id", lead.ID), zap.Error(err))
		WriteJSONError(w, http.StatusInternalServerError, "Failed to export lead")
		return
	}

	w.Header().Set("Content-Type", xlsxMIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", storage.LeadReportName(*lead)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
