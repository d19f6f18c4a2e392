package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/vibelink/messaging/internal/application"
	"github.com/vibelink/messaging/internal/domain"
	"github.com/vibelink/messaging/internal/middleware"
	"github.com/vibelink/messaging/internal/store"
	"github.com/vibelink/messaging/internal/transport"
)

const maxUploadBytes = 32 << 20

type MessageHandler struct {
	app             *application.Service
	historyPageSize int
}

func NewMessageHandler(app *application.Service, historyPageSize int) *MessageHandler {
	return &MessageHandler{app: app, historyPageSize: historyPageSize}
}

// Send handles POST /api/messages/send. Multipart body: to_user_id, text?,
// image? (single file), file? (single file).
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	caller := middleware.UserID(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		// Text-only sends may arrive form-encoded.
		if err := r.ParseForm(); err != nil {
			transport.WriteError(w, http.StatusBadRequest, "bad_request", "malformed request body")
			return
		}
	}

	cmd := application.SendCommand{
		FromUserID: caller,
		ToUserID:   r.FormValue("to_user_id"),
		Text:       r.FormValue("text"),
	}

	image, err := readAttachment(r, "image")
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, "bad_request", "unreadable image attachment")
		return
	}
	cmd.Image = image

	file, err := readAttachment(r, "file")
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, "bad_request", "unreadable file attachment")
		return
	}
	cmd.File = file

	msg, err := h.app.SendMessage(r.Context(), cmd)
	if err != nil {
		transport.DomainError(w, r, err)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": msg,
	})
}

type historyRequest struct {
	ToUserID string `json:"to_user_id"`
	Limit    int    `json:"limit,omitempty"`
	Before   string `json:"before,omitempty"`
}

// History handles POST /api/messages/history. Side effect: the other
// party's unseen messages flip to seen and they are notified.
func (h *MessageHandler) History(w http.ResponseWriter, r *http.Request) {
	caller := middleware.UserID(r.Context())

	var req historyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		transport.WriteError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}

	page := store.Page{Limit: req.Limit}
	if page.Limit <= 0 || page.Limit > h.historyPageSize {
		page.Limit = h.historyPageSize
	}
	if req.Before != "" {
		before, err := time.Parse(time.RFC3339, req.Before)
		if err != nil {
			transport.WriteError(w, http.StatusBadRequest, "bad_request", "before must be RFC3339")
			return
		}
		page.Before = before
	}

	msgs, err := h.app.History(r.Context(), caller, req.ToUserID, page)
	if err != nil {
		transport.DomainError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []*domain.Message{}
	}

	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"messages": msgs,
	})
}

type seenRequest struct {
	MessageIDs []string `json:"message_ids"`
}

// Seen handles POST /api/messages/seen: an explicit acknowledgement with a
// set of message ids (e.g. on scroll-into-view).
func (h *MessageHandler) Seen(w http.ResponseWriter, r *http.Request) {
	caller := middleware.UserID(r.Context())

	var req seenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		transport.WriteError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}

	updated, err := h.app.MarkSeen(r.Context(), caller, req.MessageIDs)
	if err != nil {
		transport.DomainError(w, r, err)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"updated": updated,
	})
}

// Recent handles GET /api/messages/recent: inbox preview.
func (h *MessageHandler) Recent(w http.ResponseWriter, r *http.Request) {
	caller := middleware.UserID(r.Context())

	msgs, err := h.app.Recent(r.Context(), caller)
	if err != nil {
		transport.DomainError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []*domain.Message{}
	}

	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"messages": msgs,
	})
}

func readAttachment(r *http.Request, field string) (*application.Attachment, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	f, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	return &application.Attachment{
		FileName: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}
