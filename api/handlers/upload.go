package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/carlogapp/carlog-api/api"
	"github.com/carlogapp/carlog-api/config"
	"github.com/carlogapp/carlog-api/store"
)

// Invoice uploads invoice images ahead of entry creation, so the form can
// attach the returned URL instead of streaming the file twice
type Invoice struct {
	Store       *store.RecordStore
	Persistence store.Persistence
}

// UploadInvoiceHandler stores the multipart "invoice" file and returns its URL
func (i Invoice) UploadInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	vehicleID := mux.Vars(r)["vehicle_id"]

	if _, ok := i.Store.Vehicle(vehicleID); !ok {
		config.ErrorStatus("failed to get vehicle by ID", http.StatusNotFound, w, &store.NotFoundError{Kind: "vehicle", ID: vehicleID})
		return
	}

	if err := r.ParseMultipartForm(maxInvoiceSize); err != nil {
		config.ErrorStatus("failed to parse multipart form", http.StatusBadRequest, w, err)
		return
	}
	file, header, err := r.FormFile("invoice")
	if err != nil {
		config.ErrorStatus("invoice file is missing", http.StatusBadRequest, w, err)
		return
	}
	defer file.Close()

	ctx, cancel := api.WithUploadTimeout(r.Context())
	defer cancel()

	url, err := i.Persistence.UploadInvoice(ctx, i.Store.Identity(), vehicleID, file, header.Filename)
	if err != nil {
		config.ErrorStatus("failed to upload invoice", http.StatusBadGateway, w, err)
		return
	}

	b, err := json.Marshal(map[string]string{"invoiceUrl": url})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}
