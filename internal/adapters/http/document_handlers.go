package httpadapter

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/docflow/internal/core/domain"
)

const multipartMemoryBytes = 8 << 20

// documentForm is the parsed multipart body of a document upload.
type documentForm struct {
	title  *string
	upload *domain.DocumentUpload
	file   multipart.File
	parsed *multipart.Form
}

func (f *documentForm) Close() {
	if f.file != nil {
		_ = f.file.Close()
	}
	if f.parsed != nil {
		_ = f.parsed.RemoveAll()
	}
}

// readDocumentForm tolerates a missing file or a non-multipart body; the
// use case decides which of those is an error.
func (rt *Router) readDocumentForm(w http.ResponseWriter, r *http.Request) (*documentForm, error) {
	if rt.cfg.UploadMaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.UploadMaxBytes)
	}

	form := &documentForm{}
	if err := r.ParseMultipartForm(multipartMemoryBytes); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, errPayloadTooLarge
		case errors.Is(err, http.ErrNotMultipart):
			return form, nil
		default:
			return nil, domain.WrapError(domain.ErrInvalidInput, "parse multipart form", err)
		}
	}
	form.parsed = r.MultipartForm

	if values, ok := r.MultipartForm.Value["title"]; ok && len(values) > 0 {
		title := values[0]
		form.title = &title
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return form, nil
		}
		form.Close()
		return nil, domain.WrapError(domain.ErrInvalidInput, "read uploaded file", err)
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	form.file = file
	form.upload = &domain.DocumentUpload{
		FileName: header.Filename,
		MimeType: mimeType,
		Size:     header.Size,
		Body:     file,
	}
	return form, nil
}

func (rt *Router) createDocument(w http.ResponseWriter, r *http.Request) {
	form, err := rt.readDocumentForm(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer form.Close()

	title := ""
	if form.title != nil {
		title = *form.title
	}

	doc, err := rt.documents.Create(r.Context(), title, form.upload, currentPrincipal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt.recordUpload(doc)
	writeJSON(w, http.StatusCreated, doc)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	req, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := rt.documents.FindAll(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := rt.documents.FindOne(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) downloadDocument(w http.ResponseWriter, r *http.Request) {
	doc, body, err := rt.documents.OpenFile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer body.Close()

	contentType := doc.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		slog.Warn("document_download_interrupted",
			"request_id", requestIDFromContext(r.Context()),
			"document_id", doc.ID,
			"error", err,
		)
	}
}

func (rt *Router) updateDocument(w http.ResponseWriter, r *http.Request) {
	form, err := rt.readDocumentForm(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer form.Close()

	doc, err := rt.documents.Update(r.Context(), chi.URLParam(r, "id"), form.title, form.upload, currentPrincipal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt.recordUpload(doc)
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := rt.documents.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, true)
}

func (rt *Router) recordUpload(doc *domain.Document) {
	if rt.metrics != nil && doc != nil {
		rt.metrics.RecordDocumentUpload(serviceName, doc.FileSize)
	}
}
