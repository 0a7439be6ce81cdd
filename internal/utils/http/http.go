package http

import (
	"encoding/json"
	ers "errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/golang/gddo/httputil/header"
	"github.com/udtalk/push-backend/internal/logging"
	"github.com/udtalk/push-backend/internal/utils"
	"github.com/udtalk/push-backend/internal/utils/errors"
)

// Params are the flattened request parameters. All endpoints accept either an
// urlencoded form or a flat JSON object with stringly-typed values.
type Params map[string]string

//Get Gets a parameter value, empty when absent.
func (p Params) Get(key string) string {
	return p[key]
}

//Without Returns a copy of the parameters with the given keys removed. Used
//for passing client attributes through to the store without the shared secret.
func (p Params) Without(keys ...string) map[string]string {
	out := make(map[string]string, len(p))
	for k, v := range p {
		out[k] = v
	}
	for _, key := range keys {
		delete(out, key)
	}
	return out
}

//APIKey Returns the shared secret from the body or the X-Api-Key header.
func APIKey(params Params, r *http.Request) string {
	if key := params.Get("key"); key != "" {
		return key
	}
	return r.Header.Get("X-Api-Key")
}

//ParseParams Parses the request body into flat parameters.
func ParseParams(w http.ResponseWriter, r *http.Request) (Params, error) {
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)

	contentType := ""
	if r.Header.Get("Content-Type") != "" {
		contentType, _ = header.ParseValueAndParams(r.Header, "Content-Type")
	}

	if contentType == "application/json" {
		var body map[string]interface{}

		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&body); err != nil {
			return nil, &errors.ValidationError{Msg: fmt.Sprintf("Request body contains badly-formed JSON: %v", err)}
		}

		params := make(Params, len(body))
		for k, v := range body {
			switch value := v.(type) {
			case string:
				params[k] = value
			case float64:
				params[k] = strconv.FormatFloat(value, 'f', -1, 64)
			case bool:
				params[k] = strconv.FormatBool(value)
			}
		}
		return params, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, &errors.ValidationError{Msg: fmt.Sprintf("Request body could not be parsed: %v", err)}
	}

	params := make(Params, len(r.PostForm))
	for k, values := range r.PostForm {
		if len(values) > 0 {
			params[k] = values[0]
		}
	}
	return params, nil
}

//ParseParamsOrReportError Parses the request body, reporting a validation
//error response by itself. Returns false when the request was rejected.
func ParseParamsOrReportError(w http.ResponseWriter, r *http.Request) (Params, bool) {
	params, err := ParseParams(w, r)
	if err != nil {
		SendErrorResponse(w, r, err)
		return nil, false
	}
	return params, true
}

//ValidateOrReportError Validates the request struct, reporting a validation
//error response by itself. Returns false when the request was rejected.
func ValidateOrReportError(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := utils.Validate.Struct(dst); err != nil {
		SendErrorResponse(w, r, &errors.ValidationError{
			Msg: fmt.Sprintf("Validation of the request has failed: %v", err),
		})
		return false
	}
	return true
}

type resultResponse struct {
	Result bool `json:"result"`
}

type errorResponse struct {
	TraceID string `json:"traceId"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

//SendResult Sends the success response.
func SendResult(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resultResponse{Result: true}); err != nil {
		logging.FromContext(r.Context()).Errorf("Could not write response: %v", err)
	}
}

//SendErrorResponse Sends the failure response derived from the error. Internal
//errors are sent without detail unless running in development.
func SendErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	response := errorResponse{
		TraceID: TraceID(r.Context()),
		Code:    "server_error",
		Message: "Internal server error",
	}
	status := http.StatusInternalServerError

	var apiErr errors.APIError
	if ers.As(err, &apiErr) {
		response.Code = apiErr.Code()
		response.Message = apiErr.Error()
		status = apiErr.HTTPStatus()
	} else if isDevelopment() {
		response.Detail = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if encodeErr := json.NewEncoder(w).Encode(response); encodeErr != nil {
		logging.FromContext(r.Context()).Errorf("Could not write error response: %v", encodeErr)
	}
}

func isDevelopment() bool {
	return os.Getenv("ENV") == "development"
}
