package leads

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	httpmiddleware "github.com/wolfman30/agency-leads/internal/http/middleware"
	"github.com/wolfman30/agency-leads/pkg/logging"
)

const (
	maxBodyBytes = 64 << 10

	msgSubmitted     = "Lead submitted successfully"
	msgRateLimited   = "Too many requests. Please wait before sending another email."
	msgInvalidBody   = "Invalid request body"
	msgInvalidForm   = "Invalid form data"
	msgFailed        = "Failed to process submission. Please try again."
	msgUnavailable   = "Service temporarily unavailable"
	msgInternalError = "Internal server error"
)

// Handler handles HTTP requests for lead submissions
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// SubmitResponse is the 200 body. Details is omitted for honeypot hits so
// they look like a plain success.
type SubmitResponse struct {
	Success     bool            `json:"success"`
	Message     string          `json:"message"`
	EmailID     string          `json:"emailId,omitempty"`
	SheetsSaved *bool           `json:"sheetsSaved,omitempty"`
	Details     *DeliveryDetail `json:"details,omitempty"`
}

// DeliveryDetail exposes per-sink success.
type DeliveryDetail struct {
	Email  bool `json:"email"`
	Sheets bool `json:"sheets"`
}

// ErrorResponse is every non-200 body.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// Submit handles POST /api/lead (and the legacy /api/send alias)
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Warn("failed to read lead body", "error", err)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msgInvalidBody})
		return
	}

	meta := RequestMeta{
		ClientID:   httpmiddleware.ClientIP(r),
		UserAgent:  r.UserAgent(),
		Country:    httpmiddleware.ClientCountry(r),
		ReceivedAt: time.Now().UTC(),
	}

	result, err := h.service.Submit(r.Context(), body, meta)
	var verr *ValidationError
	switch {
	case err == nil:
		emailOK := result.Delivered(SinkEmail)
		sheetsOK := result.Delivered(SinkSheets)
		resp := SubmitResponse{
			Success:     true,
			Message:     msgSubmitted,
			SheetsSaved: &sheetsOK,
			Details:     &DeliveryDetail{Email: emailOK, Sheets: sheetsOK},
		}
		if o, ok := result.Outcome(SinkEmail); ok {
			resp.EmailID = o.MessageID
		}
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, ErrSpamDetected):
		writeJSON(w, http.StatusOK, SubmitResponse{Success: true, Message: msgSubmitted})
	case errors.Is(err, ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: msgRateLimited})
	case errors.Is(err, ErrInvalidBody):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msgInvalidBody})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msgInvalidForm, Details: verr.Fields})
	case errors.Is(err, ErrDeliveryFailed):
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: msgFailed})
	case errors.Is(err, ErrServiceMisconfigured):
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: msgUnavailable})
	default:
		h.logger.Error("lead submission failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: msgInternalError})
	}
}

// Preflight answers CORS preflight for the submission endpoint.
func (h *Handler) Preflight(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
