package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
)

// Result uniform JSON envelope for the biotrack API.
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

const (
	ResultSuccess = 2000
	ResultError   = -1
)

func Ok[T any](result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: "success", Message: "ok", Result: result}
}

func Fail(message string) Result[any] {
	return Result[any]{Code: ResultError, Type: "error", Message: message, Result: nil}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		// Never commit a success status for a payload that cannot be encoded.
		status = http.StatusInternalServerError
		body, _ = json.Marshal(Fail("failed to encode response"))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func parseIntParam(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func formatInt64(i int64) string {
	return strconv.FormatInt(i, 10)
}

func parseInt64Param(s string) (int64, bool) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil || i <= 0 {
		return 0, false
	}
	return i, true
}
