package server

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rbright/recite/internal/auth"
	"github.com/rbright/recite/internal/catalog"
	"github.com/rbright/recite/internal/progress"
	"github.com/rbright/recite/internal/recognizer"
	"github.com/rbright/recite/internal/similarity"
	"github.com/rbright/recite/internal/submit"
)

// ProgressPath lists the caller's practice history.
const ProgressPath = "/progress"

const (
	defaultProgressLimit = 50
	maxProgressLimit     = 500
)

// Error messages returned by POST /transcribe.
const (
	MessageNoAudio            = "No audio file provided."
	MessageInvalidContentType = "Invalid content type."
	MessageMissingContentID   = "Content identifier missing."
	MessageEmptyAudio         = "Empty audio file."
	MessageUnsupportedAudio   = "Unsupported audio format."
	MessageTranscribeFailed   = "Transcription failed."
)

type transcribeResponse struct {
	Transcript  string              `json:"transcript"`
	Target      string              `json:"target"`
	Score       float64             `json:"score"`
	ContentType catalog.ContentType `json:"contentType"`
}

type progressResponse struct {
	Summary progress.Summary `json:"summary"`
	Entries []progress.Entry `json:"entries"`
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) catalog(c echo.Context) error {
	return c.JSON(http.StatusOK, s.cfg.Catalog)
}

func (s *Server) transcribe(c echo.Context) error {
	defer func() {
		s.cfg.Metrics.Attempt(c.Request().Context(), attemptLabel(c), c.Response().Status)
	}()

	file, present := audioPart(c)
	if !present {
		return c.JSON(http.StatusBadRequest, errorBody(MessageNoAudio))
	}

	rawType := strings.TrimSpace(c.FormValue(submit.FieldContentType))
	if rawType == "" {
		rawType = string(catalog.Sentence)
	}
	contentType, err := catalog.ParseContentType(rawType)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(MessageInvalidContentType))
	}

	rawID := strings.TrimSpace(c.FormValue(submit.FieldContentID))
	if rawID == "" {
		rawID = strings.TrimSpace(c.FormValue(submit.FieldSentenceID))
	}
	if rawID == "" {
		return c.JSON(http.StatusBadRequest, errorBody(MessageMissingContentID))
	}

	item, ok := s.cfg.Catalog.Find(contentType, catalog.ItemID(rawID))
	if !ok {
		return c.JSON(http.StatusNotFound, errorBody(contentType.Label()+" not found."))
	}

	if file == nil || file.Filename == "" || file.Size == 0 {
		return c.JSON(http.StatusBadRequest, errorBody(MessageEmptyAudio))
	}

	data, err := readPart(file)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":   MessageTranscribeFailed,
			"details": err.Error(),
		})
	}

	ctx := c.Request().Context()
	started := time.Now()
	text, err := s.cfg.Recognizer.Transcribe(ctx, recognizer.Audio{
		Data:      data,
		MediaType: file.Header.Get(echo.HeaderContentType),
		Filename:  file.Filename,
	})
	s.cfg.Metrics.Recognition(ctx, time.Since(started), err)
	if err != nil {
		if errors.Is(err, recognizer.ErrUnsupportedAudio) {
			return c.JSON(http.StatusBadRequest, errorBody(MessageUnsupportedAudio))
		}
		s.logger.Error("transcription failed", "content_id", rawID, "content_type", string(contentType), "error", err.Error())
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":   MessageTranscribeFailed,
			"details": err.Error(),
		})
	}

	text = strings.TrimSpace(text)
	score := similarity.Score(item.Text, text)
	s.cfg.Metrics.Score(ctx, string(contentType), score)
	s.record(c, item, contentType, text, score)

	return c.JSON(http.StatusOK, transcribeResponse{
		Transcript:  text,
		Target:      item.Text,
		Score:       score,
		ContentType: contentType,
	})
}

// record saves a scored attempt for the authenticated caller. Failures are
// logged and never change the response.
func (s *Server) record(c echo.Context, item catalog.PracticeItem, contentType catalog.ContentType, text string, score float64) {
	if s.cfg.Progress == nil {
		return
	}
	claims, ok := auth.FromContext(c)
	if !ok {
		return
	}

	_, err := s.cfg.Progress.Save(c.Request().Context(), progress.Entry{
		UserID:      claims.Email,
		ContentID:   item.ID,
		ContentType: contentType,
		Target:      item.Text,
		Transcript:  text,
		Score:       score,
	})
	if err != nil {
		s.logger.Warn("failed to record practice attempt", "user", claims.Email, "error", err.Error())
	}
}

func (s *Server) progress(c echo.Context) error {
	claims, ok := auth.FromContext(c)
	if !ok || s.cfg.Progress == nil {
		return c.JSON(http.StatusUnauthorized, errorBody("Unauthorized"))
	}

	limit := defaultProgressLimit
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, errorBody("Invalid limit."))
		}
		limit = min(parsed, maxProgressLimit)
	}

	entries, err := s.cfg.Progress.Recent(c.Request().Context(), claims.Email, limit)
	if err != nil {
		s.logger.Error("load progress", "user", claims.Email, "error", err.Error())
		return c.JSON(http.StatusInternalServerError, errorBody("Could not load progress."))
	}

	return c.JSON(http.StatusOK, progressResponse{
		Summary: progress.Summarise(entries),
		Entries: entries,
	})
}

// attemptLabel keeps the content_type metric label to the known values.
func attemptLabel(c echo.Context) string {
	raw := strings.TrimSpace(c.FormValue(submit.FieldContentType))
	if raw == "" {
		return string(catalog.Sentence)
	}
	contentType, err := catalog.ParseContentType(raw)
	if err != nil {
		return "invalid"
	}
	return string(contentType)
}

// audioPart reports whether the form carried an audio field at all. A part
// sent with an empty filename is parsed as a plain value, so it counts as
// present with a nil header.
func audioPart(c echo.Context) (*multipart.FileHeader, bool) {
	file, err := c.FormFile(submit.FieldAudio)
	if err == nil {
		return file, true
	}
	form := c.Request().MultipartForm
	if form != nil {
		if _, ok := form.Value[submit.FieldAudio]; ok {
			return nil, true
		}
	}
	return nil, false
}

func readPart(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(src)
}
