package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/quickride/internal/model"
)

// ImageListerInterface は画像一覧ハンドラーが必要とするインターフェース。
type ImageListerInterface interface {
	List(ctx context.Context) ([]model.Image, error)
}

// ImageHandler は車両画像一覧のHTTPハンドラー。
type ImageHandler struct {
	lister ImageListerInterface
}

// NewImageHandler はImageHandlerを生成する。
func NewImageHandler(lister ImageListerInterface) *ImageHandler {
	return &ImageHandler{lister: lister}
}

// ListImages は画像ディレクトリ内の画像一覧を返す。
// GET /api/images
func (h *ImageHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.lister.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if images == nil {
		images = []model.Image{}
	}

	writeJSON(w, http.StatusOK, images)
}
