package importcsv

import (
	"errors"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/cartera/internal/analytics"
	"github.com/MrJamesThe3rd/cartera/internal/client"
	"github.com/MrJamesThe3rd/cartera/internal/http/respond"
	"github.com/MrJamesThe3rd/cartera/internal/importer"
)

type Handler struct {
	importSvc *importer.Service
	tracker   *analytics.Tracker
}

func NewHandler(importSvc *importer.Service, tracker *analytics.Tracker) *Handler {
	return &Handler{
		importSvc: importSvc,
		tracker:   tracker,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/clients", h.importClients)
	r.Post("/clients/preview", h.preview)
}

type clientResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type skippedResponse struct {
	Row    int    `json:"row"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type importResponse struct {
	Charset  string            `json:"charset"`
	Imported int               `json:"imported"`
	Clients  []clientResponse  `json:"clients"`
	Skipped  []skippedResponse `json:"skipped"`
}

type previewRow struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type previewResponse struct {
	Charset string       `json:"charset"`
	Rows    []previewRow `json:"rows"`
}

type multipartFile struct {
	multipart.File
	format importer.Format
}

// formFile reads the multipart "file" field. Failures are written to w.
func formFile(w http.ResponseWriter, r *http.Request) (*multipartFile, bool) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		respond.BadRequest(w, "failed to parse form: "+err.Error())
		return nil, false
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respond.BadRequest(w, "file field is required")
		return nil, false
	}

	format := importer.Format(r.FormValue("format"))
	if format == "" {
		format = importer.FormatCSV
	}

	return &multipartFile{File: file, format: format}, true
}

func (h *Handler) importClients(w http.ResponseWriter, r *http.Request) {
	f, ok := formFile(w, r)
	if !ok {
		return
	}
	defer f.Close()

	res, err := h.importSvc.Import(r.Context(), f.format, f)
	if err != nil {
		if errors.Is(err, importer.ErrInvalidFile) {
			respond.BadRequest(w, err.Error())
			return
		}

		respond.Error(w, r, err)

		return
	}

	resp := importResponse{
		Charset:  res.Charset,
		Imported: len(res.Created),
		Clients:  make([]clientResponse, len(res.Created)),
		Skipped:  make([]skippedResponse, len(res.Skipped)),
	}

	for i, c := range res.Created {
		resp.Clients[i] = toClientResponse(c)
	}

	for i, s := range res.Skipped {
		resp.Skipped[i] = skippedResponse{Row: s.Row, Name: s.Name, Reason: s.Reason}
	}

	h.tracker.TrackRequest(r, analytics.Event{
		Name:     analytics.ClientImport,
		Category: analytics.CategoryAction,
		Label:    res.Charset,
		Extra:    map[string]any{"created": len(res.Created), "skipped": len(res.Skipped)},
	})

	respond.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	f, ok := formFile(w, r)
	if !ok {
		return
	}
	defer f.Close()

	rows, charset, err := h.importSvc.Parse(f.format, f)
	if err != nil {
		if errors.Is(err, importer.ErrInvalidFile) {
			respond.BadRequest(w, err.Error())
			return
		}

		respond.Error(w, r, err)

		return
	}

	resp := previewResponse{Charset: charset, Rows: make([]previewRow, len(rows))}
	for i, p := range rows {
		resp.Rows[i] = previewRow{Name: p.Name, Phone: p.Phone, Email: p.Email}
	}

	respond.JSON(w, http.StatusOK, resp)
}

func toClientResponse(c *client.Client) clientResponse {
	return clientResponse{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		CreatedAt: c.CreatedAt,
	}
}
