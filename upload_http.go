package youquery

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/youquery/backend/auth"
	"github.com/youquery/backend/contract"
	"github.com/youquery/backend/upload"
)

// Upload stores an avatar image and answers with its public URL. The
// image is validated before any byte reaches the bucket.
func Upload(w http.ResponseWriter, r *http.Request) {
	r, logger := requestLogger(r)
	ctx := r.Context()

	if !requirePost(w, r, logger) {
		return
	}

	token, err := auth.Authenticate(r)
	if err != nil {
		logger.Error("error while authenticating", slog.String(ErrorMsgLogField, err.Error()))
		writeJSON(w, http.StatusUnauthorized, contract.ErrorResponse{Error: "invalid or expired token"})
		return
	}
	logger = logger.With(slog.String(userIDLogField, token.UID))

	if err := r.ParseMultipartForm(upload.MaxImageBytes); err != nil {
		logger.Error("error while parsing multipart form", slog.String(ErrorMsgLogField, err.Error()))
		writeJSON(w, http.StatusBadRequest, contract.ErrorResponse{Error: "malformed upload", Code: "upload-error"})
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, contract.ErrorResponse{Error: "image file is required", Code: "upload-error"})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if err := upload.ValidateImage(contentType, header.Size); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, upload.ErrTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, contract.ErrorResponse{Error: err.Error(), Code: "upload-error"})
		return
	}

	uploader, err := upload.NewUploader(ctx)
	if err != nil {
		logger.Error("failed to build uploader", slog.String(ErrorMsgLogField, err.Error()))
		writeJSON(w, http.StatusInternalServerError, contract.ErrorResponse{Error: "service unavailable"})
		return
	}

	url, err := uploader.Upload(ctx, token.UID, contentType, header.Size, file)
	if err != nil {
		logger.Error("failed to store image", slog.String(ErrorMsgLogField, err.Error()))
		writeJSON(w, http.StatusInternalServerError, contract.ErrorResponse{Error: "failed to store image"})
		return
	}

	logger.Info("image uploaded", slog.String("url", url))
	writeJSON(w, http.StatusOK, contract.UploadResponse{Success: true, URL: url})
}
