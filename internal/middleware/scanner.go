package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/sentinelhq/sentinel/internal/security"
	pkghttp "github.com/sentinelhq/sentinel/pkg/http"
)

// maxScanBytes bounds how much of the request body the scanner reads.
// Larger bodies are scanned up to this limit and passed through intact.
const maxScanBytes = 64 * 1024

// InputScanner inspects the request body, query string, and selected
// headers against the configured attack detectors. A match records one
// MALICIOUS_INPUT_DETECTED event; the request always proceeds, since
// detection here is observability, not blocking.
func InputScanner(detectors []security.Detector, events *security.EventLog, ipConfig *pkghttp.IPConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sb strings.Builder
			sb.WriteString(r.URL.RawQuery)

			for _, header := range []string{"User-Agent", "Referer", "X-Forwarded-For"} {
				sb.WriteByte('\n')
				sb.WriteString(r.Header.Get(header))
			}

			if r.Body != nil && r.ContentLength != 0 {
				prefix, _ := io.ReadAll(io.LimitReader(r.Body, maxScanBytes))
				sb.WriteByte('\n')
				sb.Write(prefix)
				// Reassemble the body so downstream handlers see the original
				// stream, including the prefix consumed here even when the
				// read failed partway.
				remainder := r.Body
				r.Body = struct {
					io.Reader
					io.Closer
				}{io.MultiReader(bytes.NewReader(prefix), remainder), remainder}
			}

			scanned := sb.String()
			if signature, ok := security.Scan(detectors, scanned); ok {
				events.MaliciousInput(requestInfo(r, ipConfig), r.URL.Path, signature, scanned)
			}

			next.ServeHTTP(w, r)
		})
	}
}
