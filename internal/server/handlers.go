package server

import (
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/productlens/pkg/buildinfo"
	"github.com/matzehuels/productlens/pkg/errors"
	lensio "github.com/matzehuels/productlens/pkg/io"
	"github.com/matzehuels/productlens/pkg/lineage"
	"github.com/matzehuels/productlens/pkg/manifest"
	"github.com/matzehuels/productlens/pkg/pipeline"
	"github.com/matzehuels/productlens/pkg/render"
	"github.com/matzehuels/productlens/pkg/session"
)

// formatJSON returns the view graph itself instead of a diagram.
const formatJSON = "json"

type healthResponse struct {
	Status   string         `json:"status"`
	Sessions int            `json:"sessions"`
	Build    buildinfo.Info `json:"build"`
}

type analysisResponse struct {
	ID          string               `json:"id"`
	Source      string               `json:"source,omitempty"`
	Fingerprint string               `json:"fingerprint"`
	Products    []string             `json:"products"`
	Diagnostics pipeline.Diagnostics `json:"diagnostics"`
	CreatedAt   time.Time            `json:"created_at"`
	ExpiresAt   time.Time            `json:"expires_at"`
}

func newAnalysisResponse(sess *session.Session) analysisResponse {
	a := sess.Analysis
	return analysisResponse{
		ID:          sess.ID,
		Source:      sess.Source,
		Fingerprint: a.Fingerprint(),
		Products:    a.ProductNames(),
		Diagnostics: a.Diagnostics,
		CreatedAt:   sess.CreatedAt,
		ExpiresAt:   sess.ExpiresAt,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "healthy",
		Sessions: s.sessions.Len(),
		Build:    buildinfo.Get(),
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	opts, err := analysisOptions(s.cfg.Analysis, r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	defer body.Close()
	m, err := manifest.Read(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	a, err := s.runner.Analyze(r.Context(), m, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess := s.sessions.Create(a, r.URL.Query().Get("name"))
	s.logger.Debug("created analysis", "id", sess.ID, "products", len(a.Products))
	writeJSON(w, http.StatusCreated, newAnalysisResponse(sess))
}

// analysisOptions overlays upload query parameters on the server defaults.
func analysisOptions(base pipeline.Options, q url.Values) (pipeline.Options, error) {
	opts := pipeline.Options{
		ExcludeCategories: slices.Clone(base.ExcludeCategories),
		AllowedCategories: slices.Clone(base.AllowedCategories),
		Strict:            base.Strict,
		ExtendedKinds:     base.ExtendedKinds,
		IncludeInternal:   base.IncludeInternal,
	}
	if v := listParam(q, "exclude_category"); len(v) > 0 {
		opts.ExcludeCategories = v
	}
	if v := listParam(q, "allowed_category"); len(v) > 0 {
		opts.AllowedCategories = v
	}
	for name, dst := range map[string]*bool{
		"strict":           &opts.Strict,
		"extended_kinds":   &opts.ExtendedKinds,
		"include_internal": &opts.IncludeInternal,
	} {
		if !q.Has(name) {
			continue
		}
		v, err := strconv.ParseBool(q.Get(name))
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "query parameter %s: %q is not a boolean", name, q.Get(name))
		}
		*dst = v
	}
	return opts, nil
}

// listParam accepts both repeated and comma-separated values.
func listParam(q url.Values, name string) []string {
	var out []string
	for _, v := range q[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// session resolves the {id} path parameter, writing a 404 when it is
// unknown.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, err := s.sessions.Get(id)
	if err != nil {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "analysis %q not found or expired", id))
		return nil, false
	}
	return sess, true
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newAnalysisResponse(sess))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.sessions.Delete(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Analysis.Products)
}

// product resolves the {product} path parameter against the analysis.
func (s *Server) product(w http.ResponseWriter, r *http.Request, a *pipeline.Analysis) (string, bool) {
	name := chi.URLParam(r, "product")
	if err := errors.ValidateIdentifier(name); err != nil {
		s.writeError(w, r, err)
		return "", false
	}
	if _, ok := a.Product(name); !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeProductNotFound, "product %q not found", name))
		return "", false
	}
	return name, true
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	name, ok := s.product(w, r, sess.Analysis)
	if !ok {
		return
	}
	summary, _ := sess.Analysis.Product(name)
	writeJSON(w, http.StatusOK, summary)
}

// filterProduct reads ?product= and ?unattributed=. An unknown product is a
// 404 rather than an empty list.
func (s *Server) filterProduct(w http.ResponseWriter, r *http.Request, a *pipeline.Analysis) (product string, unattributed bool, ok bool) {
	q := r.URL.Query()
	product = q.Get("product")
	unattributed, _ = strconv.ParseBool(q.Get("unattributed"))
	if product != "" {
		if _, found := a.Product(product); !found {
			s.writeError(w, r, errors.New(errors.ErrCodeProductNotFound, "product %q not found", product))
			return "", false, false
		}
	}
	return product, unattributed, true
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	a := sess.Analysis
	product, unattributed, ok := s.filterProduct(w, r, a)
	if !ok {
		return
	}

	var records []lineage.NodeRecord
	switch {
	case product != "":
		records = a.Nodes.ForProduct(product)
	case unattributed:
		records = a.Nodes.Unattributed()
	default:
		records = a.Nodes.Records()
	}
	if records == nil {
		records = []lineage.NodeRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleEdges(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	a := sess.Analysis
	product, unattributed, ok := s.filterProduct(w, r, a)
	if !ok {
		return
	}

	var records []lineage.EdgeRecord
	switch {
	case product != "":
		records = a.Edges.ForProduct(product)
	case unattributed:
		records = a.Edges.Unattributed()
	default:
		records = a.Edges.Records()
	}
	if records == nil {
		records = []lineage.EdgeRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	opts := s.renderOptions(r, pipeline.ViewProducts, "")
	s.writeGraph(w, r, sess.Analysis, opts)
}

func (s *Server) handleProductGraph(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	name, ok := s.product(w, r, sess.Analysis)
	if !ok {
		return
	}

	view := pipeline.ViewProduct
	switch level := r.URL.Query().Get("level"); level {
	case "", "product":
	case "node":
		view = pipeline.ViewNodes
	default:
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid level %q (must be product or node)", level))
		return
	}
	s.writeGraph(w, r, sess.Analysis, s.renderOptions(r, view, name))
}

// renderOptions builds render options from the server defaults and the
// format, exclude and detailed query parameters.
func (s *Server) renderOptions(r *http.Request, view, product string) pipeline.RenderOptions {
	q := r.URL.Query()
	opts := pipeline.RenderOptions{
		View:     view,
		Product:  product,
		Exclude:  slices.Clone(s.cfg.Render.Exclude),
		Styles:   s.cfg.Render.Styles,
		Detailed: s.cfg.Render.Detailed,
	}
	format := q.Get("format")
	if format == "" {
		format = pipeline.DefaultFormat
	}
	opts.Formats = []string{format}
	if v := listParam(q, "exclude"); len(v) > 0 {
		opts.Exclude = append(opts.Exclude, v...)
	}
	if v, err := strconv.ParseBool(q.Get("detailed")); err == nil {
		opts.Detailed = v
	}
	return opts
}

func (s *Server) writeGraph(w http.ResponseWriter, r *http.Request, a *pipeline.Analysis, opts pipeline.RenderOptions) {
	if opts.Formats[0] == formatJSON {
		opts.Formats = nil
		if err := opts.ValidateAndSetDefaults(); err != nil {
			s.writeError(w, r, err)
			return
		}
		g, err := pipeline.ViewGraph(a, opts)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = lensio.WriteGraph(g, w)
		return
	}

	res, err := s.runner.Render(r.Context(), a, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := opts.Formats[0]
	if res.CacheHit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.Header().Set("Content-Type", render.ContentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}
