// internal/catalog/openapi.go
package catalog

import (
	"net/http"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// APIDocument describes the movie API as an OpenAPI 3 document.
func APIDocument() map[string]interface{} {
	movieRef := map[string]interface{}{"$ref": "#/components/schemas/Movie"}
	jsonContent := func(schema interface{}) map[string]interface{} {
		return map[string]interface{}{
			"application/json": map[string]interface{}{"schema": schema},
		}
	}

	return map[string]interface{}{
		"openapi": "3.0.1",
		"info": map[string]interface{}{
			"title":       "Movie API",
			"description": "A RESTful API for managing a movie catalog with in-memory storage",
			"version":     "1.0.0",
			"contact": map[string]interface{}{
				"name":  "Movie API Support",
				"email": "support@movieapi.com",
			},
			"license": map[string]interface{}{
				"name": "Apache 2.0",
				"url":  "https://www.apache.org/licenses/LICENSE-2.0.html",
			},
		},
		"tags": []interface{}{
			map[string]interface{}{"name": "Movie Management", "description": "APIs for managing movie catalog"},
		},
		"paths": map[string]interface{}{
			"/api/movies": map[string]interface{}{
				"get": map[string]interface{}{
					"tags":        []string{"Movie Management"},
					"summary":     "Get all movies",
					"operationId": "getAllMovies",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "List of movies retrieved successfully",
							"content":     jsonContent(map[string]interface{}{"type": "array", "items": movieRef}),
						},
					},
				},
				"post": map[string]interface{}{
					"tags":        []string{"Movie Management"},
					"summary":     "Add a new movie",
					"operationId": "addMovie",
					"requestBody": map[string]interface{}{
						"required": true,
						"content":  jsonContent(movieRef),
					},
					"responses": map[string]interface{}{
						"201": map[string]interface{}{
							"description": "Movie created successfully",
							"content":     jsonContent(movieRef),
						},
						"400": map[string]interface{}{
							"description": "Invalid input - validation failed",
							"content": jsonContent(map[string]interface{}{
								"type":                 "object",
								"additionalProperties": map[string]interface{}{"type": "string"},
							}),
						},
					},
				},
			},
			"/api/movies/{id}": map[string]interface{}{
				"get": map[string]interface{}{
					"tags":        []string{"Movie Management"},
					"summary":     "Get movie by ID",
					"operationId": "getMovieById",
					"parameters": []interface{}{
						map[string]interface{}{
							"name":        "id",
							"in":          "path",
							"required":    true,
							"description": "ID of the movie to retrieve",
							"schema":      map[string]interface{}{"type": "integer", "format": "int64"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Movie found",
							"content":     jsonContent(movieRef),
						},
						"404": map[string]interface{}{"description": "Movie not found"},
					},
				},
			},
		},
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"Movie": map[string]interface{}{
					"type":     "object",
					"required": []string{"title", "description", "releaseYear", "genre", "rating"},
					"properties": map[string]interface{}{
						"id":          map[string]interface{}{"type": "integer", "format": "int64", "readOnly": true},
						"title":       map[string]interface{}{"type": "string", "minLength": 1},
						"description": map[string]interface{}{"type": "string", "minLength": minDescriptionLen, "maxLength": maxDescriptionLen},
						"releaseYear": map[string]interface{}{"type": "integer", "minimum": minReleaseYear, "maximum": maxReleaseYear()},
						"genre":       map[string]interface{}{"type": "string", "minLength": 1},
						"rating":      map[string]interface{}{"type": "number", "format": "double", "minimum": 0.0, "maximum": 10.0},
					},
				},
			},
		},
	}
}

// HandleAPIDocs serves the OpenAPI document as JSON.
func (h *Handler) HandleAPIDocs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIDocument())
}

// HandleAPIDocsYAML serves the OpenAPI document as YAML.
func (h *Handler) HandleAPIDocsYAML(w http.ResponseWriter, r *http.Request) {
	out, err := yaml.Marshal(APIDocument())
	if err != nil {
		h.logger.Error("Failed to encode API document", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(out)
}
