package main

import (
	"net/http"
	"net/url"
	"strings"
)

const flashCookieName = "flash"

// Flash is a one-shot notification shown on the next rendered page.
type Flash struct {
	Category string // success, danger, info or warning
	Message  string
}

// setFlash queues a message for the next page render.
func setFlash(w http.ResponseWriter, category, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(category + "|" + message),
		Path:     "/",
		HttpOnly: true,
		Secure:   secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending flash, if any, and clears its cookie.
func popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	value, err := url.QueryUnescape(cookie.Value)
	if err != nil || value == "" {
		return nil
	}

	category, message, ok := strings.Cut(value, "|")
	if !ok {
		return &Flash{Category: "info", Message: value}
	}
	return &Flash{Category: category, Message: message}
}
