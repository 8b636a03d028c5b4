package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"resumecraft/internal/document"
	resumecraftErrors "resumecraft/internal/errors"
	"resumecraft/internal/formatters"
	"resumecraft/internal/observability"
	"resumecraft/internal/state"
	"resumecraft/internal/templates"
	"resumecraft/internal/types"
	"resumecraft/internal/workflow"
	"resumecraft/internal/workspace"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// ImportRequest opens a workspace on an analysis produced earlier
type ImportRequest struct {
	Result         json.RawMessage `json:"result" validate:"required"`
	JobDescription string          `json:"jobDescription" validate:"required"`
	ProfilePicture string          `json:"profilePicture"`
	Template       string          `json:"template"`
}

var exportContentTypes = map[string]string{
	"json":     "application/json",
	"yaml":     "application/yaml",
	"text":     "text/plain; charset=utf-8",
	"markdown": "text/markdown; charset=utf-8",
	"pdf":      "application/pdf",
}

var exportExtensions = map[string]string{
	"json":     "json",
	"yaml":     "yaml",
	"text":     "txt",
	"markdown": "md",
	"pdf":      "pdf",
}

func newWorkspaceResponse(id string, variant templates.Variant, snap state.Snapshot) WorkspaceResponse {
	return WorkspaceResponse{
		WorkspaceID: id,
		Version:     snap.Version,
		Template:    string(variant),
		Result:      snap.Result,
	}
}

// lookupWorkspace resolves the {id} URL parameter, writing the error itself
func (s *Server) lookupWorkspace(w http.ResponseWriter, r *http.Request, span oteltrace.Span) (*workspace.Workspace, bool) {
	id := chi.URLParam(r, "id")
	span.SetAttributes(attribute.String("workspace.id", id))

	ws, err := s.Deps.Workspaces.Get(id)
	if err != nil {
		s.fail(w, span, "Workspace not found", err)
		return nil, false
	}
	return ws, true
}

// loadedSnapshot returns the workspace's snapshot, failing when it holds no
// result
func loadedSnapshot(ws *workspace.Workspace) (state.Snapshot, error) {
	snap := ws.Store.Snapshot()
	if !snap.Loaded() {
		return snap, resumecraftErrors.NewStateError(resumecraftErrors.ErrCodeNoResult,
			"no analysis result loaded", state.ErrNoResult)
	}
	return snap, nil
}

// importWorkspaceHandler validates an AnalysisResult against the document
// schema and opens a workspace on it
func (s *Server) importWorkspaceHandler(w http.ResponseWriter, r *http.Request) {
	_, span := s.startSpan(r, "api.workspaces.import")
	defer span.End()

	var req ImportRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.fail(w, span, "Invalid request body", err)
		return
	}

	if err := document.Validate(document.SchemaAnalysis, req.Result); err != nil {
		s.fail(w, span, "Invalid analysis result", resumecraftErrors.NewValidationError(
			resumecraftErrors.ErrCodeInvalidDocument, "analysis result does not match the document schema", err))
		return
	}

	var result types.AnalysisResult
	if err := json.Unmarshal(req.Result, &result); err != nil {
		s.fail(w, span, "Invalid analysis result", resumecraftErrors.NewValidationError(
			resumecraftErrors.ErrCodeInvalidDocument, "failed to decode analysis result", err))
		return
	}

	templateName := req.Template
	if templateName == "" {
		templateName = s.defaultTemplate()
	}
	variant, err := templates.ParseVariant(templateName)
	if err != nil {
		s.fail(w, span, "Unsupported template", err)
		return
	}
	if err := checkPicture(req.ProfilePicture); err != nil {
		s.fail(w, span, "Invalid profile picture", err)
		return
	}

	ws, snap := s.Deps.Workspaces.Create(document.NormalizeResult(&result), req.JobDescription, req.ProfilePicture, variant)
	span.SetAttributes(attribute.String("workspace.id", ws.ID), attribute.Bool("success", true))

	s.writeJSON(w, http.StatusCreated, newWorkspaceResponse(ws.ID, ws.Template, snap))
}

func (s *Server) listWorkspacesHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"workspaces": s.Deps.Workspaces.List()})
}

func (s *Server) getWorkspaceHandler(w http.ResponseWriter, r *http.Request) {
	_, span := s.startSpan(r, "api.workspaces.get")
	defer span.End()

	ws, ok := s.lookupWorkspace(w, r, span)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, newWorkspaceResponse(ws.ID, ws.Template, ws.Store.Snapshot()))
}

// deleteWorkspaceHandler resets the workspace and forgets it
func (s *Server) deleteWorkspaceHandler(w http.ResponseWriter, r *http.Request) {
	_, span := s.startSpan(r, "api.workspaces.delete")
	defer span.End()

	if err := s.Deps.Workspaces.Delete(chi.URLParam(r, "id")); err != nil {
		s.fail(w, span, "Workspace not found", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// rescoreHandler reconciles the canonical document's score
func (s *Server) rescoreHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.workspaces.rescore")
	defer span.End()

	ws, ok := s.lookupWorkspace(w, r, span)
	if !ok {
		return
	}

	snap, err := ws.Reconciler.ReconcileAndApply(ctx, ws.Store)
	if err != nil {
		s.fail(w, span, "Failed to rescore resume", err)
		return
	}

	span.SetAttributes(attribute.Bool("success", true), attribute.Int("ats.score", snap.Result.ATSScore))
	s.writeJSON(w, http.StatusOK, newWorkspaceResponse(ws.ID, ws.Template, snap))
}

// integrateKeywordHandler runs the keyword integration workflow
func (s *Server) integrateKeywordHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.workspaces.integrate_keyword")
	defer span.End()

	ws, ok := s.lookupWorkspace(w, r, span)
	if !ok {
		return
	}

	var req KeywordRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.fail(w, span, "Invalid request body", err)
		return
	}
	span.SetAttributes(attribute.String("keyword", req.Keyword), attribute.String("section", req.Section))

	snap, err := ws.Workflow.IntegrateKeyword(ctx, req.Keyword, req.Section)
	s.recordWorkflow(ctx, observability.MetricKeywordIntegrated, err, attribute.String("section", req.Section))
	if err != nil {
		s.fail(w, span, "Failed to integrate keyword", err)
		return
	}

	span.SetAttributes(attribute.Bool("success", true), attribute.Int("ats.score", snap.Result.ATSScore))
	s.writeJSON(w, http.StatusOK, newWorkspaceResponse(ws.ID, ws.Template, snap))
}

// fixJobTitleHandler applies the suggested job title
func (s *Server) fixJobTitleHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.workspaces.fix_job_title")
	defer span.End()

	ws, ok := s.lookupWorkspace(w, r, span)
	if !ok {
		return
	}

	snap, err := ws.Workflow.FixJobTitle(ctx)
	s.recordWorkflow(ctx, observability.MetricJobTitleFixed, err)
	if err != nil {
		s.fail(w, span, "Failed to fix job title", err)
		return
	}

	span.SetAttributes(attribute.Bool("success", true), attribute.Int("ats.score", snap.Result.ATSScore))
	s.writeJSON(w, http.StatusOK, newWorkspaceResponse(ws.ID, ws.Template, snap))
}

// recordWorkflow counts a workflow outcome, and a conflict when it was
// rejected as busy or stale
func (s *Server) recordWorkflow(ctx context.Context, metric string, err error, attrs ...attribute.KeyValue) {
	metrics := s.om.GetMetrics()
	metrics.RecordBusinessMetric(ctx, metric, err == nil, s.om, attrs...)

	if err == nil {
		return
	}
	if appErr, ok := resumecraftErrors.AsAppError(err); ok &&
		(errors.Is(err, workflow.ErrBusy) || appErr.Code == resumecraftErrors.ErrCodeStaleResult) {
		metrics.RecordBusinessMetric(ctx, observability.MetricWorkflowConflict, true, s.om,
			attribute.String("code", appErr.Code))
	}
}

// renderHandler returns the workspace's document as HTML in the requested
// or the workspace's template
func (s *Server) renderHandler(w http.ResponseWriter, r *http.Request) {
	_, span := s.startSpan(r, "api.workspaces.render")
	defer span.End()

	ws, ok := s.lookupWorkspace(w, r, span)
	if !ok {
		return
	}
	variant, err := s.requestVariant(r, ws)
	if err != nil {
		s.fail(w, span, "Unsupported template", err)
		return
	}
	snap, err := loadedSnapshot(ws)
	if err != nil {
		s.fail(w, span, "Nothing to render", err)
		return
	}

	html, err := templates.RenderDocument(variant, snap.Document, snap.ProfilePicture)
	if err != nil {
		s.fail(w, span, "Failed to render resume", resumecraftErrors.NewInternalError(
			resumecraftErrors.ErrCodeExportFailed, "template rendering failed", err))
		return
	}

	span.SetAttributes(attribute.String("template", string(variant)), attribute.Bool("success", true))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

// exportHandler downloads the document, or with scope=analysis the whole
// result, in one of the export formats
func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.workspaces.export")
	defer span.End()

	ws, ok := s.lookupWorkspace(w, r, span)
	if !ok {
		return
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "json"
	}
	contentType, known := exportContentTypes[format]
	if !known {
		s.fail(w, span, "Unsupported format", resumecraftErrors.NewValidationError(
			resumecraftErrors.ErrCodeInvalidFormat, "format must be one of json, yaml, text, markdown, pdf", nil).
			WithContext("format", format))
		return
	}
	span.SetAttributes(attribute.String("export.format", format))

	snap, err := loadedSnapshot(ws)
	if err != nil {
		s.fail(w, span, "Nothing to export", err)
		return
	}

	var body []byte
	if format == "pdf" {
		variant, verr := s.requestVariant(r, ws)
		if verr != nil {
			s.fail(w, span, "Unsupported template", verr)
			return
		}
		body, err = s.Deps.PDF.RenderDocument(ctx, variant, snap.Document, snap.ProfilePicture)
	} else {
		var data any = snap.Document
		if r.URL.Query().Get("scope") == "analysis" {
			data = snap.Result
		}
		var out string
		out, err = s.formatters().Format(data, format)
		if err != nil {
			err = resumecraftErrors.NewInternalError(resumecraftErrors.ErrCodeExportFailed, "formatting failed", err)
		}
		body = []byte(out)
	}
	if err != nil {
		s.fail(w, span, "Failed to export resume", err)
		return
	}

	span.SetAttributes(attribute.Int("export.size", len(body)), attribute.Bool("success", true))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="resume.`+exportExtensions[format]+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) formatters() *formatters.FormatterRegistry {
	if s.Deps.Formatters != nil {
		return s.Deps.Formatters
	}
	return formatters.GlobalRegistry
}

// requestVariant reads ?template=, defaulting to the workspace's template
func (s *Server) requestVariant(r *http.Request, ws *workspace.Workspace) (templates.Variant, error) {
	if name := r.URL.Query().Get("template"); name != "" {
		return templates.ParseVariant(name)
	}
	return ws.Template, nil
}

func surfaceResponse(ws *workspace.Workspace, name string) SurfaceResponse {
	doc, dirty := ws.Surfaces.Surface(name).State()
	return SurfaceResponse{
		WorkspaceID: ws.ID,
		Surface:     name,
		Dirty:       dirty,
		Document:    doc,
	}
}

// getSurfaceHandler returns a surface's working copy, opening the surface
// on first use
func (s *Server) getSurfaceHandler(w http.ResponseWriter, r *http.Request) {
	_, span := s.startSpan(r, "api.surfaces.get")
	defer span.End()

	ws, ok := s.lookupWorkspace(w, r, span)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, surfaceResponse(ws, chi.URLParam(r, "surface")))
}

// closeSurfaceHandler discards a surface and its uncommitted edits
func (s *Server) closeSurfaceHandler(w http.ResponseWriter, r *http.Request) {
	_, span := s.startSpan(r, "api.surfaces.close")
	defer span.End()

	ws, ok := s.lookupWorkspace(w, r, span)
	if !ok {
		return
	}
	ws.Surfaces.Close(chi.URLParam(r, "surface"))
	w.WriteHeader(http.StatusNoContent)
}

// fieldChangeHandler edits the surface's working copy. Canonical state is
// not touched until commit.
func (s *Server) fieldChangeHandler(w http.ResponseWriter, r *http.Request) {
	_, span := s.startSpan(r, "api.surfaces.field_change")
	defer span.End()

	ws, ok := s.lookupWorkspace(w, r, span)
	if !ok {
		return
	}

	var req FieldChangeRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.fail(w, span, "Invalid request body", err)
		return
	}

	path, err := document.ParsePath(req.Path)
	if err != nil {
		s.fail(w, span, "Invalid path", resumecraftErrors.NewValidationError(
			resumecraftErrors.ErrCodeInvalidPath, "invalid field path", err).WithContext("path", req.Path))
		return
	}
	span.SetAttributes(attribute.String("field.path", path.String()))

	name := chi.URLParam(r, "surface")
	if err := ws.Surfaces.Surface(name).OnFieldChange(path, req.Value); err != nil {
		s.fail(w, span, "Failed to apply field change", err)
		return
	}
	s.writeJSON(w, http.StatusOK, surfaceResponse(ws, name))
}

// commitHandler makes the surface's working copy canonical and reconciles
// the score. If only reconciliation fails the commit stands and the stale
// score is reported as a warning.
func (s *Server) commitHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.surfaces.commit")
	defer span.End()

	ws, ok := s.lookupWorkspace(w, r, span)
	if !ok {
		return
	}

	snap, err := ws.Surfaces.Surface(chi.URLParam(r, "surface")).OnFieldCommit(ctx)
	if err != nil {
		appErr, isApp := resumecraftErrors.AsAppError(err)
		if !isApp || appErr.Code != resumecraftErrors.ErrCodeReconcileFailed || !snap.Loaded() {
			if errors.Is(err, state.ErrStale) {
				s.om.GetMetrics().RecordBusinessMetric(ctx, observability.MetricWorkflowConflict, true, s.om,
					attribute.String("code", resumecraftErrors.ErrCodeStaleResult))
			}
			s.fail(w, span, "Failed to commit changes", err)
			return
		}
		span.RecordError(err)
		resp := newWorkspaceResponse(ws.ID, ws.Template, snap)
		resp.Warning = "changes committed but the score could not be reconciled: " + appErr.Message
		s.writeJSON(w, http.StatusOK, resp)
		return
	}

	span.SetAttributes(attribute.Bool("success", true), attribute.Int64("version", int64(snap.Version)))
	s.writeJSON(w, http.StatusOK, newWorkspaceResponse(ws.ID, ws.Template, snap))
}
