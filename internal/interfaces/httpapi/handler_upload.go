package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/riskibarqy/armory-onboarding/internal/usecase"
)

const (
	multipartMemory   = 8 << 20
	multipartOverhead = 1 << 20
	maxUploadFiles    = 5
)

// UploadFiles handles the multipart POST /upload/files. The response data is the list of
// public URLs in upload order.
func (h *Handler) UploadFiles(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UploadFiles")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.documentService.MaxFileBytes()*maxUploadFiles+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(ctx, w, fmt.Errorf("%w: upload exceeds %d bytes", usecase.ErrInvalidInput, tooLarge.Limit))
			return
		}
		writeError(ctx, w, fmt.Errorf("%w: invalid multipart form: %v", usecase.ErrInvalidInput, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["files"]
	files := make([]usecase.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: open %s: %v", usecase.ErrInvalidInput, fh.Filename, err))
			return
		}
		defer f.Close()
		files = append(files, usecase.UploadFile{
			FileName:    fh.Filename,
			ContentType: partContentType(fh, f),
			Size:        fh.Size,
			Content:     f,
		})
	}

	docs, err := h.documentService.Upload(ctx, usecase.UploadInput{
		UserID: principal.UserID,
		Label:  r.FormValue("label"),
		Meta:   r.FormValue("data"),
		Files:  files,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "upload files failed", "user_id", principal.UserID, "label", r.FormValue("label"), "error", err)
		writeError(ctx, w, err)
		return
	}

	urls := make([]string, 0, len(docs))
	for _, d := range docs {
		urls = append(urls, d.URL)
	}
	writeSuccessMessage(ctx, w, http.StatusCreated, "Files uploaded", urls)
}

func (h *Handler) ListMyDocuments(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyDocuments")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	docs, err := h.documentService.ListByUser(ctx, principal.UserID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	items := make([]documentDTO, 0, len(docs))
	for _, d := range docs {
		items = append(items, documentToDTO(d))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ServeFile(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ServeFile")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	name := r.PathValue("name")
	rc, err := h.documentService.Open(ctx, principal.UserID, name)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.WarnContext(ctx, "serve file interrupted", "file", name, "error", err)
	}
}

// partContentType prefers the declared part type and sniffs the content otherwise.
func partContentType(fh *multipart.FileHeader, f multipart.File) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	_, _ = f.Seek(0, io.SeekStart)
	return http.DetectContentType(head[:n])
}
