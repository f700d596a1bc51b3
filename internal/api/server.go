// Package api exposes the visualizer over HTTP: session initialization,
// single-step token generation and generate-to-end traces.
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/rdb64-hobbies/see-and-select-tokens/internal/generate"
	"github.com/rdb64-hobbies/see-and-select-tokens/internal/model"
	"github.com/rdb64-hobbies/see-and-select-tokens/internal/sampling"
	"github.com/rdb64-hobbies/see-and-select-tokens/internal/webui"
)

const (
	defaultHidden    = 64
	defaultMaxTokens = 50
	// maxTokensLimit caps a single generate-to-end request; the loop holds
	// the session's scorer lock for its whole duration.
	maxTokensLimit = 512
)

// Server wires the session store and sampling defaults into echo handlers.
type Server struct {
	store    *SessionStore
	defaults sampling.Params
	display  int
	seed     func() uint64
}

func NewServer(store *SessionStore, defaults sampling.Params, displayCount int) *Server {
	if displayCount <= 0 {
		displayCount = sampling.DefaultDisplayCount
	}
	return &Server{
		store:    store,
		defaults: defaults,
		display:  displayCount,
		seed:     func() uint64 { return uint64(time.Now().UnixNano()) },
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/api/initialize", s.handleInitialize)
	e.POST("/api/generate_next_token", s.handleNextToken)
	e.POST("/api/generate_to_end", s.handleGenerateToEnd)
	e.GET("/api/sessions", s.handleListSessions)
	e.DELETE("/api/sessions/:id", s.handleDeleteSession)

	files := http.FileServer(webui.StaticFS())
	e.GET("/*", func(c *echo.Context) error {
		files.ServeHTTP(c.Response(), c.Request())
		return nil
	})
}

func (s *Server) handleInitialize(c *echo.Context) error {
	req, err := decodeOptionalJSON[InitializeRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	seed := s.seed()
	if req.Seed != nil {
		seed = *req.Seed
	}
	hidden := defaultHidden
	if req.Hidden != nil {
		if *req.Hidden <= 0 {
			return writeBadRequest(c, "hidden must be > 0")
		}
		hidden = *req.Hidden
	}

	lm := model.NewByteVocabLM(hidden, int64(seed))
	sess := generate.NewSession(lm, model.ByteCodec{}, sampling.New(seed), generate.Options{
		DisplayCount: s.display,
	})
	id := s.store.Create(sess)

	return writeJSON(c, http.StatusOK, InitializeResponse{
		SessionID: id,
		VocabSize: lm.VocabSize(),
	})
}

func (s *Server) handleNextToken(c *echo.Context) error {
	req, sess, params, errResp := s.decodeGenerate(c)
	if sess == nil {
		return errResp
	}

	res, err := sess.NextToken(c.Request().Context(), req.Text, params)
	if err != nil {
		return mapGenerateError(c, err)
	}
	return writeJSON(c, http.StatusOK, res)
}

func (s *Server) handleGenerateToEnd(c *echo.Context) error {
	req, sess, params, errResp := s.decodeGenerate(c)
	if sess == nil {
		return errResp
	}

	maxTokens := defaultMaxTokens
	if req.MaxTokens != nil {
		if *req.MaxTokens <= 0 || *req.MaxTokens > maxTokensLimit {
			return writeBadRequest(c, fmt.Sprintf("max_tokens must be in [1, %d]", maxTokensLimit))
		}
		maxTokens = *req.MaxTokens
	}

	steps, err := sess.GenerateToEnd(c.Request().Context(), req.Text, params, maxTokens)
	if err != nil {
		return mapGenerateError(c, err)
	}
	return writeJSON(c, http.StatusOK, map[string][]generate.StepResult{"steps": steps})
}

func (s *Server) handleListSessions(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, SessionListResponse{Sessions: s.store.List()})
}

func (s *Server) handleDeleteSession(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Delete(id) {
		return writeNotFound(c, fmt.Sprintf("session %q not found", id))
	}
	return writeJSON(c, http.StatusOK, DeleteResponse{SessionID: id, Deleted: true})
}

// decodeGenerate handles the request plumbing shared by the two
// generation endpoints: body decoding, session lookup and parameter
// resolution against server defaults.
func (s *Server) decodeGenerate(c *echo.Context) (GenerateRequest, *generate.Session, sampling.Params, error) {
	req, err := decodeJSON[GenerateRequest](c.Request().Body)
	if err != nil {
		return req, nil, sampling.Params{}, writeBadRequest(c, err.Error())
	}
	if req.SessionID == "" {
		return req, nil, sampling.Params{}, writeBadRequest(c, "session_id is required")
	}
	if req.Text == "" {
		return req, nil, sampling.Params{}, writeBadRequest(c, "text is required and must not be empty")
	}
	sess, ok := s.store.Get(req.SessionID)
	if !ok {
		return req, nil, sampling.Params{}, writeNotFound(c, fmt.Sprintf("session %q not found", req.SessionID))
	}

	params := s.defaults
	if req.Temperature != nil {
		params.Temperature = *req.Temperature
	}
	if req.TopK != nil {
		params.TopK = *req.TopK
	}
	if req.TopP != nil {
		params.TopP = *req.TopP
	}
	return req, sess, params, nil
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var v T
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return v, fmt.Errorf("invalid JSON body: %v", err)
	}
	return v, nil
}

// decodeOptionalJSON treats an empty body as "use defaults".
func decodeOptionalJSON[T any](r io.Reader) (T, error) {
	var v T
	err := json.NewDecoder(r).Decode(&v)
	if err == nil || errors.Is(err, io.EOF) {
		return v, nil
	}
	return v, fmt.Errorf("invalid JSON body: %v", err)
}

func writeJSON(c *echo.Context, status int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res.WriteHeader(status)
	_, err = res.Write(b)
	return err
}
