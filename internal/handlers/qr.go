// internal/handlers/qr.go
package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/jason-s-yu/quest/internal/lobby"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

// QRHandler renders a PNG QR code of the join link for :lobbyId. The link is
// built from publicURL, or from the request host when publicURL is empty.
func QRHandler(publicURL string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := lobby.NormalizeCode(ps.ByName("lobbyId"))
		if code == "" {
			http.Error(w, "missing lobby id", http.StatusBadRequest)
			return
		}

		png, err := qrcode.Encode(JoinURL(publicURL, r, code), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

// JoinURL is the link a player opens to join lobby code.
func JoinURL(publicURL string, r *http.Request, code string) string {
	base := strings.TrimSuffix(publicURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return base + "/?lobby=" + url.QueryEscape(code)
}
