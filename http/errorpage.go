package http

import (
	"io"
	"net/http"
)

const defaultNotFoundHTML = `<html>
<head><title>404 Not Found</title></head>
<body>
<center><h1>404 Not Found</h1></center>
<hr><center>scopefs</center>
</body>
</html>`

// writeNotFoundPage answers browser-facing modes with an HTML page instead
// of the JSON error body.
func writeNotFoundPage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = io.WriteString(w, defaultNotFoundHTML)
}
