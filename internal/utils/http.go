package utils

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// WriteJSON writes data as a JSON response
func WriteJSON(w http.ResponseWriter, log zerolog.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteError writes {"error": message}
func WriteError(w http.ResponseWriter, log zerolog.Logger, status int, message string) {
	WriteJSON(w, log, status, map[string]string{"error": message})
}

// Input reads request fields from a JSON object body or from form values, so the same
// endpoint serves both API clients and plain HTML forms.
type Input struct {
	json map[string]interface{}
	r    *http.Request
}

// ReadInput parses the request body. JSON bodies must be a single object.
func ReadInput(r *http.Request) (*Input, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var m map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		return &Input{json: m, r: r}, nil
	}

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, fmt.Errorf("invalid multipart body: %w", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("invalid form body: %w", err)
	}
	return &Input{r: r}, nil
}

// String returns the trimmed field value, or "" when absent
func (in *Input) String(key string) string {
	if in.json != nil {
		switch v := in.json[key].(type) {
		case string:
			return strings.TrimSpace(v)
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(v)
		default:
			return ""
		}
	}
	return strings.TrimSpace(in.r.FormValue(key))
}

// Int returns the field as an int, def when absent, or an error when not an integer
func (in *Input) Int(key string, def int) (int, error) {
	s := in.String(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number", key)
	}
	return n, nil
}

// Float returns the field as a float64, def when absent, or an error when not numeric
func (in *Input) Float(key string, def float64) (float64, error) {
	s := in.String(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", key)
	}
	return f, nil
}
