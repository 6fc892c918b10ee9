package server

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"yashubustudio/flowrec/flowrec"
)

// inputRequest accepts either explicit lines or pasted text, or both.
type inputRequest struct {
	Lines []string `json:"lines"`
	Text  string   `json:"text"`
}

func (r inputRequest) collect() []string {
	out := make([]string, 0, len(r.Lines))
	for _, l := range r.Lines {
		out = append(out, flowrec.ParseLines(l)...)
	}
	return append(out, flowrec.ParseLines(r.Text)...)
}

type recommendResponse struct {
	SessionID string              `json:"sessionId"`
	Rows      []flowrec.ResultRow `json:"rows"`
}

type extractRow struct {
	Raw string `json:"raw"`
	Key string `json:"key"`
}

type healthResponse struct {
	Status     string `json:"status"`
	References int    `json:"references"`
	Variant    string `json:"variant"`
}

func (s *Server) bindLines(c echo.Context) ([]string, error) {
	var req inputRequest
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	lines := req.collect()
	if len(lines) == 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "no input lines")
	}
	return lines, nil
}

func (s *Server) handleRecommend(c echo.Context) error {
	lines, err := s.bindLines(c)
	if err != nil {
		return err
	}
	id, _ := sessionID(c)
	rows := s.svc.Run(lines)
	s.storeRows(id, rows)
	c.Response().Header().Set(HeaderSessionID, id)
	return c.JSON(http.StatusOK, recommendResponse{SessionID: id, Rows: rows})
}

func (s *Server) handleExtract(c echo.Context) error {
	lines, err := s.bindLines(c)
	if err != nil {
		return err
	}
	rows := s.svc.ExtractAll(lines)
	out := make([]extractRow, len(rows))
	for i, r := range rows {
		out[i] = extractRow{Raw: r.Raw, Key: r.Key}
	}
	return c.JSON(http.StatusOK, map[string]any{"rows": out})
}

func (s *Server) handleExport(c echo.Context) error {
	id, known := sessionID(c)
	if !known {
		return echo.NewHTTPError(http.StatusNotFound, "unknown session")
	}
	rows, ok := s.lastRows(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no results for session")
	}
	h := c.Response().Header()
	h.Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	h.Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", exportFileName))
	c.Response().WriteHeader(http.StatusOK)
	if err := flowrec.WriteResultCSV(c.Response(), rows, s.bom); err != nil {
		s.logger.Error("export failed", zap.String("session", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:     "ok",
		References: s.svc.Table().Len(),
		Variant:    string(s.svc.Config().Variant),
	})
}
