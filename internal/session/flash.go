package session

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const flashCookie = "videotheek_flash"

// Flash categories used by the pages.
const (
	FlashSuccess = "success"
	FlashDanger  = "danger"
	FlashWarning = "warning"
	FlashInfo    = "info"
)

// Flash is a one-time message shown on the next rendered page.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// AddFlash appends a message to the flash cookie. Messages already queued on
// this request are kept.
func AddFlash(w http.ResponseWriter, r *http.Request, category, message string) {
	flashes := readFlashes(r)
	flashes = append(flashes, Flash{Category: category, Message: message})
	b, err := json.Marshal(flashes)
	if err != nil {
		return
	}
	value := base64.RawURLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	// Later calls on the same request see the queued messages.
	r.AddCookie(&http.Cookie{Name: flashCookie, Value: value})
}

// PopFlashes returns the queued messages and clears the cookie.
func PopFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	flashes := readFlashes(r)
	if len(flashes) == 0 {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return flashes
}

func readFlashes(r *http.Request) []Flash {
	var flashes []Flash
	// The last cookie wins when AddFlash appended to the request.
	cookies := r.CookiesNamed(flashCookie)
	if len(cookies) == 0 {
		return nil
	}
	b, err := base64.RawURLEncoding.DecodeString(cookies[len(cookies)-1].Value)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(b, &flashes); err != nil {
		return nil
	}
	return flashes
}
