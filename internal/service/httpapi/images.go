package httpapi

import (
	"net/http"
	"os"
	"path/filepath"
)

const imageNotFoundMessage = "Image not found"

// handleImage отдаёт файл из каталога изображений. Имя уже декодировано
// роутером; от имени берётся только базовая часть, выйти из каталога нельзя.
func (h *Handler) handleImage(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(r.PathValue("filename"))
	if name == "." || name == ".." || name == string(filepath.Separator) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: imageNotFoundMessage})
		return
	}

	file, err := os.Open(filepath.Join(h.imagesDir, name))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: imageNotFoundMessage})
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil || info.IsDir() {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: imageNotFoundMessage})
		return
	}

	http.ServeContent(w, r, name, info.ModTime(), file)
}
