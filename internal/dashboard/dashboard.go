package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"Girder/internal/calc/beam"
	"Girder/internal/chart"
	"Girder/internal/repo"
	"Girder/internal/session"
	"Girder/internal/sheet"

	"github.com/ansel1/merry"
	"github.com/gorilla/mux"
	"github.com/powerman/structlog"
	"github.com/xuri/excelize/v2"
)

var log = structlog.New(structlog.KeyUnit, "dashboard")

const MaxUploadSize = 10 << 20 // 10MB

var errNoSession = merry.New("no session").WithHTTPCode(http.StatusUnauthorized)

// Handler serves the records of the caller's session, which AuthMiddleware
// puts into the request context.
type Handler struct {
	MaxBytes int64 // MaxUploadSize when zero
}

type MeResponse struct {
	Login   string    `json:"login"`
	Started time.Time `json:"started"`
}

type ExcelResponse struct {
	sheet.Summary
	AnalysisID string `json:"analysis_id"`
}

func records(ctx context.Context) (repo.Repository, error) {
	s, ok := session.FromContext(ctx)
	if !ok {
		return nil, merry.Here(errNoSession)
	}
	return s.Repo, nil
}

// RecordBeam stores a beam calculation as a structural analysis of the
// session found in ctx.
func (h *Handler) RecordBeam(ctx context.Context, rep beam.Report) (string, error) {
	r, err := records(ctx)
	if err != nil {
		return "", err
	}
	a, err := r.SaveAnalysis(ctx, repo.KindStructural, rep)
	if err != nil {
		return "", err
	}
	return a.ID, nil
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.PrintErr(err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := merry.HTTPCode(err)
	if code >= http.StatusInternalServerError {
		log.PrintErr(err)
		http.Error(w, http.StatusText(code), code)
		return
	}
	http.Error(w, err.Error(), code)
}

func (h *Handler) limit(w http.ResponseWriter, r *http.Request) {
	max := h.MaxBytes
	if max <= 0 {
		max = MaxUploadSize
	}
	r.Body = http.MaxBytesReader(w, r.Body, max)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, merry.Here(errNoSession))
		return
	}
	writeJSON(w, http.StatusOK, MeResponse{Login: s.Login, Started: s.Started})
}

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	rs, err := records(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	list, err := rs.ListProjects(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	rs, err := records(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var req repo.Project
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	p, err := rs.CreateProject(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	rs, err := records(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := rs.GetProject(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

var projectHeader = []interface{}{
	"ID", "Name", "Location", "Client", "Type", "Area (m²)", "Value", "Status", "Progress (%)", "Start date", "Created",
}

// ExportProjects sends the project list as an xlsx workbook.
func (h *Handler) ExportProjects(w http.ResponseWriter, r *http.Request) {
	rs, err := records(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	list, err := rs.ListProjects(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	b, err := projectsWorkbook(list)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=\"projects.xlsx\"")
	w.Write(b)
}

func projectsWorkbook(list []repo.Project) ([]byte, error) {
	const name = "Projects"
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return nil, merry.Prepend(err, "rename sheet")
	}
	if err := f.SetSheetRow(name, "A1", &projectHeader); err != nil {
		return nil, merry.Prepend(err, "write header")
	}
	for i, p := range list {
		row := []interface{}{
			p.ID, p.Name, p.Location, p.Client, p.Type, p.AreaM2, p.Value,
			string(p.Status), p.Progress, p.StartDate, p.Created.Format(time.RFC3339),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, merry.Wrap(err)
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return nil, merry.Prependf(err, "write project %s", p.ID)
		}
	}
	if err := f.SetColWidth(name, "A", "K", 18); err != nil {
		return nil, merry.Wrap(err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, merry.Prepend(err, "write workbook")
	}
	return buf.Bytes(), nil
}

func (h *Handler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	rs, err := records(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	list, err := rs.ListAnalyses(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	rs, err := records(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	a, err := rs.GetAnalysis(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	rs, err := records(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	st, err := rs.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// StatusChart draws the number of projects per status.
func (h *Handler) StatusChart(w http.ResponseWriter, r *http.Request) {
	rs, err := records(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	st, err := rs.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	statuses := []repo.ProjectStatus{repo.StatusActive, repo.StatusInProgress, repo.StatusComplete}
	labels := make([]string, len(statuses))
	values := make([]float64, len(statuses))
	for i, s := range statuses {
		labels[i] = string(s)
		values[i] = float64(st.ByStatus[s])
	}
	png, err := chart.Bars("Projects by status", labels, values)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	rs, err := records(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	s, err := rs.Settings(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	rs, err := records(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var req repo.Settings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	s, err := rs.UpdateSettings(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Backup sends every record of the session as a JSON attachment.
func (h *Handler) Backup(w http.ResponseWriter, r *http.Request) {
	rs, err := records(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := rs.Export(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	name := fmt.Sprintf("girder-backup-%s.json", time.Now().Format("20060102-150405"))
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")
	writeJSON(w, http.StatusOK, snap)
}

// Restore replaces the session's records with an uploaded backup, sent as
// the multipart field "file" or as the request body.
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	rs, err := records(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	h.limit(w, r)
	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "File required", http.StatusBadRequest)
			return
		}
		defer file.Close()
		src = file
	}
	var snap repo.Snapshot
	if err := json.NewDecoder(src).Decode(&snap); err != nil {
		http.Error(w, "Invalid backup file", http.StatusBadRequest)
		return
	}
	if err := rs.Import(r.Context(), snap); err != nil {
		writeError(w, err)
		return
	}
	st, err := rs.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// AnalyzeExcel summarizes an uploaded workbook and keeps the summary as an
// excel analysis.
func (h *Handler) AnalyzeExcel(w http.ResponseWriter, r *http.Request) {
	rs, err := records(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	h.limit(w, r)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "File required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	sum, err := sheet.Analyze(file, header.Filename)
	if err != nil {
		writeError(w, err)
		return
	}
	a, err := rs.SaveAnalysis(r.Context(), repo.KindExcel, sum.Record())
	if err != nil {
		writeError(w, err)
		return
	}
	log.Debug("workbook analyzed", "file", header.Filename, "rows", sum.Rows)
	writeJSON(w, http.StatusOK, ExcelResponse{Summary: sum, AnalysisID: a.ID})
}
