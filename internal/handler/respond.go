// Package handler contains the HTTP surface of the EliteSub engine. Every
// endpoint speaks JSON; handlers translate requests into service calls and
// service errors into status codes via ErrorResponse.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// maxRequestBody caps JSON request bodies at 1 MB. Proof uploads go through
// the storage layer, not these endpoints.
const maxRequestBody = 1 << 20

// respondJSON writes v as a JSON response with the given status code. An
// encode failure at this point cannot be reported to the client; it is
// swallowed because the status line has already been written.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON request body into dst, rejecting unknown fields
// and trailing garbage.
func decodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxRequestBody)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return err
	}
	// A second decode must hit EOF or the body held more than one value.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
