package infrastructure

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/DRSN-tech/storefront-backend/pkg/e"
)

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// ImageExtension сверяет заявленный Content-Type с сигнатурой файла и возвращает расширение.
// Витрина принимает только растровые форматы из imageExtensions.
func ImageExtension(declared string, data []byte) (string, error) {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if declared == "image/jpg" {
		declared = "image/jpeg"
	}

	ext, ok := imageExtensions[declared]
	if !ok {
		return "", e.Wrap(declared, e.ErrUnsupportedMediaType)
	}

	if sniffed := http.DetectContentType(data); sniffed != declared {
		return "", e.Wrap(fmt.Sprintf("declared %s, got %s", declared, sniffed), e.ErrUnsupportedMediaType)
	}

	return ext, nil
}
