package endpoint

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
)

// requestSpec describes one request against a gin engine. registerPath and
// handler are only used by doRequestWithHandler.
type requestSpec struct {
	method       string
	registerPath string
	requestPath  string
	handler      gin.HandlerFunc
	body         interface{}
	headers      map[string]string
}

// performRequest sends spec through r and decodes the JSON envelope. Strings
// are sent verbatim so tests can post malformed JSON.
func performRequest(r *gin.Engine, spec requestSpec) (*httptest.ResponseRecorder, map[string]interface{}, error) {
	var body io.Reader
	switch v := spec.body.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, nil, err
		}
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(spec.method, spec.requestPath, body)
	if spec.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range spec.headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Body.Len() == 0 {
		return w, nil, nil
	}
	var envelope map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		return w, nil, err
	}
	return w, envelope, nil
}

// doRequestWithHandler mounts spec.handler on r at spec.registerPath and
// performs the request.
func doRequestWithHandler(r *gin.Engine, spec requestSpec) (*httptest.ResponseRecorder, map[string]interface{}, error) {
	r.Handle(spec.method, spec.registerPath, spec.handler)
	return performRequest(r, spec)
}
