package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/yunxin2415/noke/pkg/api"
)

// maxUploadSize ограничивает размер загружаемого файла
const maxUploadSize = 5 << 20 // 5 MiB

// Uploader определяет интерфейс хранилища загруженных файлов.
// RemoveByURL удаляет ранее загруженный объект по его публичному URL
// и молча игнорирует чужие URL.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, reader io.Reader, size int64) (string, error)
	RemoveByURL(ctx context.Context, rawURL string) error
}

// allowedImageTypes типы файлов, принимаемые на загрузку
var allowedImageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// UploadHandler обрабатывает загрузку картинок
type UploadHandler struct {
	logger   *slog.Logger
	uploader Uploader
}

// NewUploadHandler создает новый handler для загрузок
func NewUploadHandler(logger *slog.Logger, uploader Uploader) *UploadHandler {
	return &UploadHandler{
		logger:   logger,
		uploader: uploader,
	}
}

// Upload обрабатывает POST /api/upload
// Принимает multipart поле "file", отдает публичный URL объекта
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := GetPrincipal(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if h.uploader == nil {
		sendError(h.logger, w, "uploads are disabled", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		sendError(h.logger, w, "file is too large or request is malformed", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		sendError(h.logger, w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		sendError(h.logger, w, "unsupported file type", http.StatusBadRequest)
		return
	}

	// Имя объекта не зависит от имени исходного файла
	key := path.Join(user.ID, uuid.New().String()+ext)

	url, err := h.uploader.Upload(ctx, key, contentType, file, header.Size)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to upload file",
			slog.String("key", key),
			slog.String("filename", strings.TrimSpace(header.Filename)),
			slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "file uploaded",
		slog.String("user_id", user.ID),
		slog.String("key", key),
		slog.Int64("size", header.Size))

	sendJSON(h.logger, w, api.UploadResponse{URL: url}, http.StatusOK)
}
