package web

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/JonMunkholm/reproject/internal/core"
	"github.com/JonMunkholm/reproject/internal/crs"
	"github.com/JonMunkholm/reproject/internal/csvio"
	"github.com/JonMunkholm/reproject/internal/logging"
	"github.com/JonMunkholm/reproject/internal/web/templates"
	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
)

// errNoFile is mapped to FILE004.
var errNoFile = errors.New("no file provided")

// maxFormMemory is how much of a multipart upload is held in memory before
// spilling to a temporary file.
const maxFormMemory = 32 << 20

// upload is a parsed multipart CSV upload.
type upload struct {
	FileName string
	Table    *core.Table
}

// readUpload parses the "file" and "encoding" form fields into a table.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Convert.MaxFileSize)

	if err := r.ParseMultipartForm(min(s.cfg.Convert.MaxFileSize, maxFormMemory)); err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, errNoFile
		}
		return nil, fmt.Errorf("parse upload form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, errNoFile
		}
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	encoding := r.FormValue("encoding")
	if encoding == "" {
		encoding = s.cfg.Convert.DefaultEncoding
	}

	table, err := csvio.ReadTable(file, encoding)
	if err != nil {
		return nil, err
	}
	return &upload{FileName: fileName(header), Table: table}, nil
}

func fileName(h *multipart.FileHeader) string {
	if h == nil || h.Filename == "" {
		return "converted.csv"
	}
	return h.Filename
}

// handleIndex renders the conversion form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := templates.IndexPage(templates.IndexData{
		Catalog:         s.catalog.Entries,
		DefaultEncoding: s.cfg.Convert.DefaultEncoding,
		MaxFileSizeMB:   s.cfg.Convert.MaxFileSize >> 20,
		HistoryEnabled:  s.service.HistoryEnabled(),
	})
	templ.Handler(page).ServeHTTP(w, r)
}

// handleInspect returns the header, suggested fields and first rows of an
// uploaded file.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	in := s.service.Inspect(up.Table, parseIntParam(r, "preview", core.DefaultPreviewRows))

	if isHTMX(r) {
		templ.Handler(templates.Inspection(in)).ServeHTTP(w, r)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

// handleConvert reprojects an uploaded file and streams the result back as
// a CSV attachment.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	params := core.ConvertParams{
		FileName: up.FileName,
		Table:    up.Table,
		Fields: core.FieldSelection{
			X: r.FormValue("field_x"),
			Y: r.FormValue("field_y"),
		},
		InputCRS:  crs.Normalize(r.FormValue("input_crs")),
		OutputCRS: crs.Normalize(r.FormValue("output_crs")),
	}
	if isTrue(r.FormValue("flip")) {
		params.InputCRS, params.OutputCRS = crs.Flip(params.InputCRS, params.OutputCRS)
	}

	ctx := WithRequestMetadata(r.Context(), r)
	result, err := s.service.Convert(ctx, params)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	name := csvio.OutputFileName(up.FileName, params.OutputCRS)
	h := w.Header()
	h.Set("Content-Type", "text/csv; charset=utf-8")
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	h.Set("X-Conversion-ID", result.ID)
	h.Set("X-Rows-Converted", strconv.Itoa(result.Converted))
	h.Set("X-Rows-Passed", strconv.Itoa(result.Passed))

	if err := csvio.WriteTable(w, result.Table); err != nil {
		logging.FromContext(r.Context()).Error("failed to write converted csv",
			"conversion_id", result.ID,
			"error", err,
		)
		return
	}

	logging.WithFields(r.Context(),
		"conversion_id", result.ID,
		"file", up.FileName,
		"input_crs", params.InputCRS,
		"output_crs", params.OutputCRS,
	).Info("conversion completed",
		"converted", result.Converted,
		"passed", result.Passed,
		"duration_ms", result.Duration.Milliseconds(),
	)
}

// crsResponse describes a resolved coordinate reference system.
type crsResponse struct {
	Code       string `json:"code"`
	Name       string `json:"name,omitempty"`
	Proj4      string `json:"proj4"`
	Projection string `json:"projection"`
	Geographic bool   `json:"geographic"`
}

// handleListCRS returns the preset catalog.
func (s *Server) handleListCRS(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog)
}

// handleGetCRS resolves one code, fetching it if necessary.
func (s *Server) handleGetCRS(w http.ResponseWriter, r *http.Request) {
	raw, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		raw = chi.URLParam(r, "*")
	}
	code := crs.Normalize(raw)

	def, err := s.lookup.Definition(r.Context(), code)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := crsResponse{
		Code:       code,
		Proj4:      def.Source,
		Projection: def.Proj,
		Geographic: def.IsLatLong(),
	}
	if e, ok := s.catalog.Find(code); ok {
		resp.Name = e.Name
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleHistory lists recent conversions.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	recs, err := s.service.History(r.Context(), parseIntParam(r, "limit", core.DefaultHistoryLimit))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if isHTMX(r) {
		templ.Handler(templates.HistoryTable(recs)).ServeHTTP(w, r)
		return
	}
	if recs == nil {
		recs = []core.ConversionRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// handleHistoryPage renders recent conversions as a page.
func (s *Server) handleHistoryPage(w http.ResponseWriter, r *http.Request) {
	recs, err := s.service.History(r.Context(), parseIntParam(r, "limit", core.DefaultHistoryLimit))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	templ.Handler(templates.HistoryPage(recs)).ServeHTTP(w, r)
}

// handleHistoryEntry returns one conversion.
func (s *Server) handleHistoryEntry(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.Conversion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleStatus reports the conversion limiter state.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.LimiterStatus())
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"history": s.service.HistoryEnabled(),
	})
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

func isTrue(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
