package docs

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"taskAPI/internal/logger"

	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPIYAML []byte

// OpenAPIJSON переводит встроенный openapi.yaml в JSON и подставляет версию и описание из конфигурации
func OpenAPIJSON(version, description string) ([]byte, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(openAPIYAML, &doc); err != nil {
		return nil, fmt.Errorf("разбор openapi.yaml: %w", err)
	}

	if info, ok := doc["info"].(map[string]any); ok {
		if version != "" {
			info["version"] = version
		}
		if description != "" {
			info["description"] = description
		}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("сериализация openapi: %w", err)
	}
	return data, nil
}

// Handler отдаёт документ для Swagger UI; документ собирается один раз
func Handler(version, description string) http.HandlerFunc {
	data, err := OpenAPIJSON(version, description)
	if err != nil {
		logger.Error("Docs: Не удалось подготовить OpenAPI документ", err)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
