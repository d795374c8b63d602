package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
)

func Index(w http.ResponseWriter) {
	JSON(w, http.StatusOK, struct {
		Message   string            `json:"message"`
		Endpoints map[string]string `json:"endpoints"`
	}{
		Message: "video download gateway",
		Endpoints: map[string]string{
			"GET|POST /api/video/info": "describe a video and its downloadable qualities",
			"GET /api/video/formats":   "list every downloadable format, best first",
			"GET /api/video/download":  "download a video, quality=highest|lowest|<format id>",
			"GET /api/downloads":       "recent download attempts",
			"GET /healthz":             "liveness",
			"GET /metrics":             "prometheus metrics",
		},
	})
}

func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, struct {
		Message string `json:"message"`
	}{
		Message: message,
	})
}

func JSON(w http.ResponseWriter, status int, response any) {
	body, marshalErr := json.Marshal(response)
	if marshalErr != nil {
		Error(w, http.StatusInternalServerError, "internal_error", fmt.Sprintf("could not marshal response: %v", marshalErr))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

// Error writes the error body every failing endpoint returns: a short code
// for machines and a message for people.
func Error(w http.ResponseWriter, status int, code, message string) {
	response := struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}{
		Error:   code,
		Message: message,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body, marshalErr := json.Marshal(response)
	if marshalErr != nil {
		fmt.Fprintf(w, `{"error": %q, "message": %q}`, code, marshalErr.Error())
		return
	}

	w.Write(body)
}
