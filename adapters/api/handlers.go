package api

import (
	"bytes"
	"fmt"
	"net/http"

	"convtest/domain/conversion"
	"convtest/domain/experiment"
	"convtest/internal/errors"

	"github.com/gin-gonic/gin"
)

var contentTypes = map[string]string{
	"html": "text/html; charset=utf-8",
	"md":   "text/markdown; charset=utf-8",
	"text": "text/plain; charset=utf-8",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleEstimate(c *gin.Context) {
	var req EstimateRequest
	if !s.bind(c, &req) {
		return
	}
	if req.Alpha == 0 {
		req.Alpha = conversion.DefaultAlpha
	}

	obs := conversion.Observation{Trials: req.Trials, Successes: req.Successes}
	est, err := s.service.Estimate(obs, req.Alpha, req.Method)
	if err != nil {
		s.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, est)
}

func (s *Server) handleZTest(c *gin.Context) {
	var req ZTestRequest
	if !s.bind(c, &req) {
		return
	}
	if req.Alpha == 0 {
		req.Alpha = conversion.DefaultAlpha
	}
	if req.Direction == "" {
		req.Direction = conversion.Greater
	}

	res, err := s.service.Test(req.A, req.B, req.Direction, req.Alpha)
	if err != nil {
		if errors.GetCode(err) == errors.CodeUndefined {
			s.fail(c, err, &res)
			return
		}
		s.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleExperiment(c *gin.Context) {
	var req experiment.Request
	if !s.bind(c, &req) {
		return
	}

	format := c.DefaultQuery("format", "json")
	if format != "json" {
		if _, ok := s.writers[format]; !ok {
			s.fail(c, errors.InvalidArgument(fmt.Sprintf("unsupported format %q", format)), nil)
			return
		}
	}

	report, err := s.service.Run(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err, nil)
		return
	}
	s.respondReport(c, format, report)
}

func (s *Server) handleAnalysis(c *gin.Context) {
	var req experiment.AnalysisRequest
	if !s.bind(c, &req) {
		return
	}

	report, err := s.service.Analyze(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err, nil)
		return
	}
	s.respondReport(c, c.DefaultQuery("format", "json"), report)
}

func (s *Server) handleReplication(c *gin.Context) {
	var req experiment.ReplicationRequest
	if !s.bind(c, &req) {
		return
	}
	if req.Replications > MaxReplications {
		s.fail(c, errors.InvalidArgument(fmt.Sprintf("replications must be at most %d", MaxReplications)), nil)
		return
	}

	report, err := s.service.Replicate(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) respondReport(c *gin.Context, format string, report *experiment.Report) {
	if format == "json" {
		c.JSON(http.StatusOK, report)
		return
	}
	w, ok := s.writers[format]
	if !ok {
		s.fail(c, errors.InvalidArgument(fmt.Sprintf("unsupported format %q", format)), nil)
		return
	}

	var buf bytes.Buffer
	if err := w.WriteExperiment(&buf, report); err != nil {
		s.fail(c, err, nil)
		return
	}
	if format == "xlsx" {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "experiment-"+report.RunID.String()+".xlsx"))
	}
	c.Data(http.StatusOK, contentTypes[format], buf.Bytes())
}

func (s *Server) bind(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: fmt.Sprintf("invalid request body: %v", err),
			Code:  errors.CodeInvalidArgument,
		})
		return false
	}
	return true
}

func (s *Server) fail(c *gin.Context, err error, result *conversion.TestResult) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("[API] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, ErrorResponse{
		Error:  err.Error(),
		Code:   errors.GetCode(err),
		Result: result,
	})
}
