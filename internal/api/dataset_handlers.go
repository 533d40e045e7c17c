package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/divyyeahhhhh/autocampaign/internal/ingest"
	"github.com/divyyeahhhhh/autocampaign/internal/pkg/httputil"
	"github.com/divyyeahhhhh/autocampaign/internal/pkg/logger"
	"github.com/divyyeahhhhh/autocampaign/internal/session"
)

// maxUploadBytes caps uploaded spreadsheet size at 10MB.
const maxUploadBytes = 10 << 20

type datasetResponse struct {
	FileName string `json:"file_name"`
	RowCount int    `json:"row_count"`
	Capped   bool   `json:"capped"` // advisory only, rows are never dropped
}

// HandleUploadDataset ingests a customer spreadsheet. A new upload
// replaces any previous dataset; a failed parse leaves no dataset behind.
func (h *Handlers) HandleUploadDataset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.BadRequest(w, "invalid multipart form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if len(data) > maxUploadBytes {
		httputil.Error(w, http.StatusRequestEntityTooLarge, "file exceeds 10MB limit")
		return
	}

	ds, err := ingest.Parse(header.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrUnsupportedType):
			httputil.Error(w, http.StatusUnsupportedMediaType, err.Error())
		case errors.Is(err, ingest.ErrEmptyFile), errors.Is(err, ingest.ErrNoHeaders), errors.Is(err, ingest.ErrNoDataRows):
			httputil.BadRequest(w, err.Error())
		default:
			httputil.BadRequest(w, "could not parse file: "+err.Error())
		}
		return
	}

	if err := h.store.SetDataset(ds); err != nil {
		h.writeSessionError(w, err)
		return
	}

	logger.Info("dataset uploaded", "file", ds.FileName, "rows", ds.RowCount)
	httputil.Created(w, datasetResponse{
		FileName: ds.FileName,
		RowCount: ds.RowCount,
		Capped:   ds.RowCount > ingest.MaxAdvisoryRows,
	})
}

// HandleLoadSampleDataset loads the built-in three-row sample.
func (h *Handlers) HandleLoadSampleDataset(w http.ResponseWriter, r *http.Request) {
	ds := ingest.SampleDataset()
	if err := h.store.SetDataset(ds); err != nil {
		h.writeSessionError(w, err)
		return
	}
	httputil.Created(w, datasetResponse{FileName: ds.FileName, RowCount: ds.RowCount})
}

// HandleClearDataset removes the uploaded dataset.
func (h *Handlers) HandleClearDataset(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearDataset(); err != nil {
		h.writeSessionError(w, err)
		return
	}
	httputil.NoContent(w)
}

// HandleDownloadSample serves the fixed sample CSV.
func (h *Handlers) HandleDownloadSample(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ingest.SampleFileName+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(ingest.SampleCSV())
}

func (h *Handlers) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		httputil.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, session.ErrBusyGenerating):
		httputil.Conflict(w, err.Error())
	case errors.Is(err, session.ErrBadTransition), errors.Is(err, session.ErrNoDataset):
		httputil.Conflict(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}
