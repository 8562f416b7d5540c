package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"taskAPI/internal/handlers/dto"
	"taskAPI/internal/service"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

// parseID читает {id} из пути; допускается только -?[0-9]+
func parseID(r *http.Request) (int64, error) {
	idParam := chi.URLParam(r, "id")
	if !isInteger(idParam) {
		return 0, fmt.Errorf("id deve ser numérico, recebido %q", idParam)
	}
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id deve ser numérico, recebido %q", idParam)
	}
	return id, nil
}

func isInteger(raw string) bool {
	digits := strings.TrimPrefix(raw, "-")
	if digits == "" {
		return false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// decodeStrict отклоняет неизвестные поля и данные после JSON-объекта
func decodeStrict(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("o corpo deve conter um único objeto JSON")
	}
	return nil
}

func validationFailed(fields []dto.FieldError) *service.BusinessError {
	return service.NewBusinessError(service.CodeValidation, "Dados inválidos",
		service.ToDetail("fields", fields))
}
