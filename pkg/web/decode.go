package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/multiform-dev/multiform"
)

// defaultMaxMemory bounds how much of a multipart body is held in memory
// while parsing; the rest spills to temp files.
const defaultMaxMemory = 32 << 20

// DecodeRequest extracts submitted data and uploaded files from a
// request. Multipart bodies yield both; urlencoded bodies yield data
// only. GET and HEAD requests decode the query string, which suits
// search-style forms.
func DecodeRequest(r *http.Request, maxMemory int64) (url.Values, multiform.Files, error) {
	if maxMemory <= 0 {
		maxMemory = defaultMaxMemory
	}

	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return r.URL.Query(), nil, nil
	}

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return nil, nil, fmt.Errorf("parse multipart form: %w", err)
		}
		var files multiform.Files
		if r.MultipartForm != nil {
			files = r.MultipartForm.File
		}
		return r.PostForm, files, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, nil, fmt.Errorf("parse form: %w", err)
	}
	return r.PostForm, nil, nil
}
