package httpapi

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/haukened/sitepulse/internal/pulse/common/log"
)

// maxContactBody bounds the size of a contact submission body.
const maxContactBody = 64 << 10

type handlers struct {
	messages  MessageSubmitter
	dashboard SnapshotProvider
	metrics   *Metrics
	logger    log.Logger
}

// handleContact stores a contact submission. It always answers 200: fields
// that are missing or cannot be decoded are stored as empty strings.
func (h *handlers) handleContact(w http.ResponseWriter, r *http.Request) {
	req, err := decodeContact(w, r)
	if err != nil {
		h.logger.Warn(map[string]any{
			"error":  err,
			"client": ClientID(r),
		}, "Undecodable contact submission stored with empty fields")
	}

	h.messages.Submit(req.Name, req.Email, req.Subject, req.Message)
	if h.metrics != nil {
		h.metrics.ContactSubmissions.Inc()
	}

	writeJSON(w, h.logger, http.StatusOK, contactResponse{
		Success: true,
		Message: ContactConfirmation,
	})
}

// handleDashboard returns the current dashboard snapshot.
func (h *handlers) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, newDashboardResponse(h.dashboard.Snapshot()))
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// decodeContact reads form-encoded or JSON bodies. Any other content type is
// treated as JSON. A field of the wrong JSON type does not discard the others.
// On error the returned request is empty.
func decodeContact(w http.ResponseWriter, r *http.Request) (contactRequest, error) {
	var req contactRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxContactBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxContactBody); err != nil && err != http.ErrNotMultipart {
			return req, err
		}
		req.Name = r.PostFormValue("name")
		req.Email = r.PostFormValue("email")
		req.Subject = r.PostFormValue("subject")
		req.Message = r.PostFormValue("message")
		return req, nil
	default:
		if r.ContentLength == 0 {
			return req, nil
		}
		var fields map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			return contactRequest{}, err
		}
		req.Name = jsonText(fields["name"])
		req.Email = jsonText(fields["email"])
		req.Subject = jsonText(fields["subject"])
		req.Message = jsonText(fields["message"])
		return req, nil
	}
}

// jsonText returns a JSON string's value, or the literal text of a number or
// boolean. Missing fields, null, objects and arrays yield "".
func jsonText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	switch raw[0] {
	case '{', '[', 'n':
		return ""
	}
	return string(raw)
}

func writeJSON(w http.ResponseWriter, logger log.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn(map[string]any{"error": err}, "Failed to write JSON response")
	}
}
