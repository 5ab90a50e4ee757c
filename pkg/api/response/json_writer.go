package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ams29/newagent/pkg/logger"
)

type JSONResponseWriter struct{}

func (j *JSONResponseWriter) WriteSuccessResponse(w http.ResponseWriter, data interface{}) {
	j.write(w, http.StatusOK, data)
}

func (j *JSONResponseWriter) WriteCreatedResponse(w http.ResponseWriter, data interface{}) {
	j.write(w, http.StatusCreated, data)
}

func (j *JSONResponseWriter) WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	j.write(w, statusCode, ErrorResponse{Error: message})
}

func (j *JSONResponseWriter) write(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response", logger.Err(err))
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}
