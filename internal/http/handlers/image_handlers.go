package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/imagebox/imagebox/internal/domain"
	"github.com/imagebox/imagebox/internal/http/middleware"
	"github.com/imagebox/imagebox/internal/service"
)

const maxUploadMemory = 32 << 20 // 32 MiB

// UploadImages accepts multipart uploads under the "image" field, with an
// optional parallel "title" field per file.
func (h *Handlers) UploadImages(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, domain.Validation("no file provided for upload"))
		return
	}

	files := r.MultipartForm.File["image"]
	titles := r.MultipartForm.Value["title"]
	if len(files) == 0 {
		writeError(w, domain.Validation("no file provided for upload"))
		return
	}

	var uploads []service.Upload
	for i, fh := range files {
		f, err := fh.Open()
		if err != nil {
			writeError(w, domain.ErrBadRequest)
			return
		}
		defer f.Close()

		title := ""
		if i < len(titles) {
			title = titles[i]
		}

		uploads = append(uploads, service.Upload{
			Title:       title,
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
		})
	}

	images, err := h.imageService.UploadImages(r.Context(), user.ID, uploads)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, "Image uploaded successfully", images)
}

func (h *Handlers) ListImages(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	images, err := h.imageService.GetImages(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, "Images fetched successfully", map[string]any{
		"images": images,
		"total":  len(images),
	})
}

// UpdateImage renames an image and optionally replaces its file.
func (h *Handlers) UpdateImage(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, domain.ErrBadRequest)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, domain.ErrBadRequest)
		return
	}

	title := r.FormValue("title")

	var replacement *service.Upload
	if files := r.MultipartForm.File["image"]; len(files) > 0 {
		f, err := files[0].Open()
		if err != nil {
			writeError(w, domain.ErrBadRequest)
			return
		}
		defer f.Close()

		replacement = &service.Upload{
			Filename:    files[0].Filename,
			ContentType: files[0].Header.Get("Content-Type"),
			Body:        f,
		}
	}

	image, err := h.imageService.UpdateImage(r.Context(), user.ID, id, title, replacement)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, "Image updated successfully", image)
}

func (h *Handlers) DeleteImage(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, domain.ErrBadRequest)
		return
	}

	if err := h.imageService.DeleteImage(r.Context(), user.ID, id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, "Image deleted successfully", nil)
}

func (h *Handlers) ReorderImages(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	var req domain.ReorderImagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrBadRequest)
		return
	}

	if err := h.imageService.ReorderImages(r.Context(), user.ID, req.OrderedIDs); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, "Image order updated", nil)
}
