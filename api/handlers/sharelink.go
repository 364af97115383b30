package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/carlogapp/carlog-api/config"
	"github.com/carlogapp/carlog-api/store"
)

// shareLinkTTL bounds how long an invoice share link stays valid
const shareLinkTTL = 24 * time.Hour

// ShareLink issues and redeems signed invoice links so an invoice can be
// shown to a garage without handing out credentials
type ShareLink struct {
	Store  *store.RecordStore
	Config *config.Config
}

type shareLinkClaims struct {
	EntryID string `json:"entryId"`
	jwt.RegisteredClaims
}

// CreateShareLinkHandler signs a time-boxed link for an entry's invoice
func (s ShareLink) CreateShareLinkHandler(w http.ResponseWriter, r *http.Request) {
	entryID := mux.Vars(r)["entry_id"]

	entry, ok := s.Store.Entry(entryID)
	if !ok {
		config.ErrorStatus("failed to get maintenance entry by ID", http.StatusNotFound, w, &store.NotFoundError{Kind: "maintenance entry", ID: entryID})
		return
	}
	if entry.InvoiceURL == "" {
		config.ErrorStatus("maintenance entry has no invoice", http.StatusConflict, w, fmt.Errorf("entry %s has no invoice attached", entryID))
		return
	}

	expiresAt := time.Now().Add(shareLinkTTL)
	claims := shareLinkClaims{
		EntryID: entryID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.Store.Identity(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.Config.LinkSecret))
	if err != nil {
		config.ErrorStatus("failed to sign share link", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]string{
		"url":       fmt.Sprintf("%s/api/v1/invoice-link/%s", s.Config.BaseURL, token),
		"expiresAt": expiresAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// RedeemShareLinkHandler verifies a link and redirects to the invoice image.
// This route is public, the token is the credential.
func (s ShareLink) RedeemShareLinkHandler(w http.ResponseWriter, r *http.Request) {
	tokenString := mux.Vars(r)["token"]

	claims := &shareLinkClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.Config.LinkSecret), nil
	})
	if err != nil || !token.Valid {
		zap.S().Warnw("rejected invoice share link", "error", err)
		config.ErrorStatus("invalid or expired share link", http.StatusUnauthorized, w, err)
		return
	}

	entry, ok := s.Store.Entry(claims.EntryID)
	if !ok || entry.InvoiceURL == "" {
		config.ErrorStatus("invoice no longer available", http.StatusNotFound, w, &store.NotFoundError{Kind: "maintenance entry", ID: claims.EntryID})
		return
	}

	http.Redirect(w, r, entry.InvoiceURL, http.StatusFound)
}
