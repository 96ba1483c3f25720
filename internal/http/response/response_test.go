package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestErrorAttachesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("request_id", "req-1")

	Error(c, CodeBadRequest, "bad")

	var body struct {
		StatusCode int               `json:"status_code"`
		Msg        string            `json:"msg"`
		Data       map[string]string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.StatusCode != CodeBadRequest || body.Msg != "bad" || body.Data["request_id"] != "req-1" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestBuildPagination(t *testing.T) {
	p := BuildPagination(2, 20, 41)
	if p.TotalPage != 3 || p.Page != 2 || p.Total != 41 {
		t.Fatalf("unexpected pagination: %+v", p)
	}
	if BuildPagination(1, 0, 10).TotalPage != 0 {
		t.Fatalf("zero page size must not divide")
	}
}

func TestMatchError(t *testing.T) {
	errMissing := errors.New("order missing")
	errBlocked := errors.New("channel blocked")
	rules := []ErrorRule{
		{Target: errMissing, Code: CodeNotFound, Message: "order not found"},
		{Target: errBlocked, Code: CodeBadRequest, Message: "channel inactive"},
	}

	got := MatchError(fmt.Errorf("load: %w", errBlocked), rules, CodeInternal, "failed")
	if got.Code != CodeBadRequest || got.Message != "channel inactive" || !errors.Is(got, errBlocked) || got.Internal() {
		t.Fatalf("unexpected match: %+v", got)
	}

	got = MatchError(errors.New("boom"), rules, CodeInternal, "failed")
	if got.Code != CodeInternal || got.Message != "failed" || !got.Internal() {
		t.Fatalf("unexpected fallback: %+v", got)
	}
	if got.Error() != "failed: boom" {
		t.Fatalf("unexpected error text: %s", got.Error())
	}

	preset := WrapError(CodeConflict, "already paid", errMissing)
	if MatchError(fmt.Errorf("wrapped: %w", preset), rules, CodeInternal, "failed") != preset {
		t.Fatalf("existing app error must win over rules")
	}
}
