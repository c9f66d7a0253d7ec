// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/specula/internal/logging"
	"github.com/tomtom215/specula/internal/models"
)

// maxBodyBytes bounds request bodies; monitor configs are small.
const maxBodyBytes = 1 << 20

// writeJSON writes the envelope with the given HTTP status.
func writeJSON(w http.ResponseWriter, status int, resp models.APIResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("Failed to encode API response")
	}
}

// respondSuccess writes a 200 success envelope around data.
func respondSuccess(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(data))
}

// respondError writes an error envelope; the HTTP status follows the
// taxonomy code.
func respondError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, models.HTTPStatusFor(code), models.NewErrorResponse(message, code))
}

// decodeBody parses the JSON request body into dst. Unknown fields are
// tolerated; malformed JSON is not.
func decodeBody(r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	defer io.Copy(io.Discard, body)

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("请求体不能为空")
		}
		return errors.New("无效的请求体")
	}
	return nil
}
