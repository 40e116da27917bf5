package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vbdlis-normalizer/app/requests"
	"github.com/vbdlis-normalizer/app/responses"
	"github.com/vbdlis-normalizer/internal/metrics"
	"github.com/vbdlis-normalizer/internal/normalizer"
)

// NormalizeController controller chuẩn hóa từng trường riêng lẻ
type NormalizeController struct {
	rules   *normalizer.Rules
	clock   normalizer.Clock
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewNormalizeController tạo mới NormalizeController. clock nil dùng đồng hồ hệ thống.
func NewNormalizeController(rules *normalizer.Rules, clock normalizer.Clock, m *metrics.Metrics, logger *zap.Logger) *NormalizeController {
	if clock == nil {
		clock = normalizer.SystemClock
	}
	return &NormalizeController{
		rules:   rules,
		clock:   clock,
		metrics: m,
		logger:  logger,
	}
}

func bindText(c *gin.Context) (requests.TextRequest, bool) {
	var req requests.TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "Request không hợp lệ: " + err.Error(),
		})
		return req, false
	}
	return req, true
}

// NormalizeDate chuẩn hóa ngày về dd/MM/yyyy
func (nc *NormalizeController) NormalizeDate(c *gin.Context) {
	req, ok := bindText(c)
	if !ok {
		return
	}

	normalized := normalizer.NormalizeDateAt(req.Text, nc.clock())
	nc.metrics.ObserveField("date", normalized != "")

	c.JSON(http.StatusOK, responses.DateResponse{
		Input:      req.Text,
		Normalized: normalized,
		Recognized: normalized != "",
	})
}

// NormalizeName chuẩn hóa họ tên
func (nc *NormalizeController) NormalizeName(c *gin.Context) {
	req, ok := bindText(c)
	if !ok {
		return
	}

	normalized := normalizer.NormalizeVietnameseName(req.Text)
	nc.metrics.ObserveField("name", normalized != "")

	c.JSON(http.StatusOK, responses.NameResponse{
		Input:      req.Text,
		Normalized: normalized,
		Gender:     normalizer.GenderFromNamePrefix(req.Text),
	})
}

// NormalizeGender chuẩn hóa giới tính, suy từ CCCD hoặc danh xưng khi ô trống
func (nc *NormalizeController) NormalizeGender(c *gin.Context) {
	var req requests.GenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "Request không hợp lệ: " + err.Error(),
		})
		return
	}

	gender := normalizer.NormalizeGender(req.Text, req.NationalID, req.Name)
	nc.metrics.ObserveField("gender", gender != "")

	c.JSON(http.StatusOK, responses.GenderResponse{
		Input:  req.Text,
		Gender: gender,
	})
}

// NormalizeNationalID chuẩn hóa và giải mã số CCCD
func (nc *NormalizeController) NormalizeNationalID(c *gin.Context) {
	req, ok := bindText(c)
	if !ok {
		return
	}

	resp := responses.NationalIDResponse{Input: req.Text}
	canonical, valid := normalizer.NormalizeNationalID(req.Text)
	if valid {
		resp.Normalized = canonical
		info, err := normalizer.DecodeNationalID(canonical)
		switch {
		case errors.Is(err, normalizer.ErrMalformedNationalID):
			valid = false
			resp.Error = err.Error()
		case err == nil:
			resp.ProvinceCode = info.ProvinceCode
			resp.Gender = info.Gender
			resp.BirthYear = info.BirthYear
		}
	} else {
		resp.Error = "cần 10-12 chữ số"
	}
	resp.Valid = valid
	nc.metrics.ObserveField("national_id", valid)

	c.JSON(http.StatusOK, resp)
}

// NormalizeIssueNumber chuẩn hóa số phát hành giấy chứng nhận
func (nc *NormalizeController) NormalizeIssueNumber(c *gin.Context) {
	req, ok := bindText(c)
	if !ok {
		return
	}

	normalized := normalizer.NormalizeIssueNumber(req.Text)
	nc.metrics.ObserveField("issue_number", strings.Contains(normalized, " "))

	c.JSON(http.StatusOK, responses.IssueNumberResponse{
		Input:      req.Text,
		Normalized: normalized,
	})
}

// SplitTwoParts tách ô có hai người
func (nc *NormalizeController) SplitTwoParts(c *gin.Context) {
	req, ok := bindText(c)
	if !ok {
		return
	}

	first, second := normalizer.SplitTwoParts(req.Text)
	nc.metrics.ObserveField("split", second != "")

	c.JSON(http.StatusOK, responses.SplitResponse{
		Input:  req.Text,
		First:  first,
		Second: second,
	})
}

// MatchDocument chấm điểm và chọn file giấy chứng nhận
func (nc *NormalizeController) MatchDocument(c *gin.Context) {
	var req requests.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "Request không hợp lệ: " + err.Error(),
		})
		return
	}

	rules := nc.rules.Merge(normalizer.Rules{
		ExcludeKeywords:     req.ExcludeKeywords,
		LowPriorityKeywords: req.LowPriorityKeywords,
	})
	opts := rules.MatchOptions(req.IssueNumber)
	if len(req.CertificateNames) > 0 {
		opts.CertificateNames = req.CertificateNames
	}

	candidates := make([]normalizer.DocumentMatch, 0, len(req.FileNames))
	for i, name := range req.FileNames {
		priority := normalizer.NoMatch
		if strings.TrimSpace(name) != "" {
			priority = normalizer.MatchPriority(name, opts.CertificateNames, opts.IssueNumber, opts.ExcludeKeywords, opts.LowPriorityKeywords)
		}
		candidates = append(candidates, normalizer.DocumentMatch{FileName: name, Index: i, Priority: priority})
	}

	resp := responses.MatchResponse{Candidates: candidates}
	if best, found := normalizer.PickDocument(req.FileNames, opts); found {
		resp.Best = &best
	}
	nc.metrics.ObserveField("document", resp.Best != nil)

	c.JSON(http.StatusOK, resp)
}
