package server

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/memeforge/pkg/buildinfo"
	"github.com/matzehuels/memeforge/pkg/meme"
	"github.com/matzehuels/memeforge/pkg/pipeline"
	"github.com/matzehuels/memeforge/pkg/share"
	"github.com/matzehuels/memeforge/pkg/sink"

	errs "github.com/matzehuels/memeforge/pkg/errors"
)

// MaxThumbnailSize bounds the ?size= parameter of the thumbnail route.
const MaxThumbnailSize = 512

type captionRequest struct {
	Topic string `json:"topic"`
}

type captionResponse struct {
	Caption string `json:"caption"`
}

// styleFields is embedded by requests that accept a style either as an
// object or as a shorthand expression ("64px Impact fill #fff stroke 4px #000").
type styleFields struct {
	Style     *meme.Style `json:"style,omitempty"`
	StyleExpr string      `json:"style_expr,omitempty"`
}

func (f styleFields) resolve() (meme.Style, error) {
	var base meme.Style
	if f.Style != nil {
		base = *f.Style
	}
	if f.StyleExpr == "" {
		return base, nil
	}
	if base == (meme.Style{}) {
		base = meme.DefaultStyle()
	}
	return meme.ParseStyle(f.StyleExpr, base)
}

type generateRequest struct {
	Topic      string `json:"topic"`
	TemplateID string `json:"template_id,omitempty"`
	styleFields
}

type renderRequest struct {
	ImageURL   string `json:"image_url"`
	TopText    string `json:"top_text"`
	BottomText string `json:"bottom_text"`
	Format     string `json:"format,omitempty"`
	Download   bool   `json:"download,omitempty"`
	styleFields
}

type memeResponse struct {
	meme.Record
	RenderURL    string      `json:"render_url"`
	ThumbnailURL string      `json:"thumbnail_url"`
	Share        share.Links `json:"share"`
}

type healthResponse struct {
	Status string `json:"status"`
	buildinfo.Info
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Info: buildinfo.Get()})
}

func (s *Server) handleCaption(w http.ResponseWriter, r *http.Request) {
	var req captionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.logger.Info("generating caption", "topic", req.Topic)
	text, err := s.runner.Caption(r.Context(), req.Topic, "")
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, captionResponse{Caption: text})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	style, err := req.resolve()
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	res, err := s.runner.Generate(r.Context(), pipeline.Options{
		Topic:      req.Topic,
		TemplateID: req.TemplateID,
		Style:      style,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.memeResponse(res.Record))
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	format, err := sink.ParseFormat(req.Format)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	style, err := req.resolve()
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if req.ImageURL == "" {
		writeError(w, s.logger, errs.New(errs.ErrCodeInvalidURL, "image_url is required"))
		return
	}
	if err := s.checkImageHost(req.ImageURL); err != nil {
		writeError(w, s.logger, err)
		return
	}
	res, err := s.runner.Render(r.Context(), pipeline.RenderOptions{
		ImageURL: req.ImageURL,
		Top:      req.TopText,
		Bottom:   req.BottomText,
		Style:    style,
		Formats:  []sink.Format{format},
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if req.Download {
		w.Header().Set("Content-Disposition", `attachment; filename="`+sink.DownloadName(s.now(), format)+`"`)
	}
	writeBytes(w, format.ContentType(), res.Artifacts[format])
}

// checkImageHost rejects image URLs outside the allowed hosts.
func (s *Server) checkImageHost(rawURL string) error {
	if err := errs.ValidateURL(rawURL); err != nil {
		return err
	}
	u, _ := url.Parse(rawURL)
	host := u.Hostname()
	for _, h := range s.allowedHosts {
		if h == "*" || strings.EqualFold(strings.TrimSpace(h), host) {
			return nil
		}
	}
	return errs.New(errs.ErrCodeInvalidURL, "image host %q is not allowed", host)
}

// handleMeme serves /api/memes/{id} as the record and /api/memes/{id}.{ext}
// as a rendered file.
func (s *Server) handleMeme(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")
	id, ext, rendered := strings.Cut(ref, ".")
	if err := errs.ValidateID(id); err != nil {
		writeError(w, s.logger, err)
		return
	}

	if !rendered {
		rec, err := s.runner.History.Get(r.Context(), id)
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, s.memeResponse(rec))
		return
	}

	format, err := sink.ParseFormat(ext)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	res, err := s.runner.Regenerate(r.Context(), id, format)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if r.URL.Query().Get("download") != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+sink.DownloadName(s.now(), format)+`"`)
	}
	writeBytes(w, format.ContentType(), res.Artifacts[format])
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errs.ValidateID(id); err != nil {
		writeError(w, s.logger, err)
		return
	}
	rec, err := s.runner.History.Get(r.Context(), id)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s.shareLinks(rec))
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errs.ValidateID(id); err != nil {
		writeError(w, s.logger, err)
		return
	}
	size := pipeline.DefaultThumbnailSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > MaxThumbnailSize {
			writeError(w, s.logger, errs.New(errs.ErrCodeInvalidInput, "size must be between 1 and %d", MaxThumbnailSize))
			return
		}
		size = n
	}
	data, err := s.runner.Thumbnail(r.Context(), id, size)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeBytes(w, sink.FormatPNG.ContentType(), data)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	recs, err := s.runner.History.List(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	out := make([]memeResponse, len(recs))
	for i, rec := range recs {
		out[i] = s.memeResponse(rec)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.runner.History.Clear(r.Context()); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) memeResponse(rec meme.Record) memeResponse {
	return memeResponse{
		Record:       rec,
		RenderURL:    "/api/memes/" + rec.ID + ".png",
		ThumbnailURL: "/api/memes/" + rec.ID + "/thumbnail",
		Share:        s.shareLinks(rec),
	}
}

func (s *Server) shareLinks(rec meme.Record) share.Links {
	page := ""
	if s.baseURL != "" {
		page = strings.TrimRight(s.baseURL, "/") + "/api/memes/" + rec.ID + ".png"
	}
	return share.For(rec.TopText, rec.BottomText, rec.Topic, page)
}
