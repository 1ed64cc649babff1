package in_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"

	handoffhttp "fieldcap/internal/modules/handoff/adapter/in"
	"fieldcap/internal/modules/handoff/dto"
	apperrors "fieldcap/internal/platform/errors"
)

type fakeHandoff struct {
	pending *dto.PayloadOutput
}

func (f *fakeHandoff) Publish(context.Context, dto.PublishInput) (dto.PublishOutput, error) {
	return dto.PublishOutput{}, nil
}

func (f *fakeHandoff) Peek(context.Context) (dto.PayloadOutput, error) {
	if f.pending == nil {
		return dto.PayloadOutput{}, apperrors.ErrNoHandoff
	}
	return *f.pending, nil
}

func (f *fakeHandoff) Consume(ctx context.Context) (dto.PayloadOutput, error) {
	out, err := f.Peek(ctx)
	f.pending = nil
	return out, err
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func TestHandoffRoutes(t *testing.T) {
	t.Parallel()
	fake := &fakeHandoff{pending: &dto.PayloadOutput{PrimaryGeoImageID: "12", TotalImages: "1", ImageIDs: "12"}}
	router := gin.New()
	handoffhttp.NewHTTPHandler(fake).Register(router.Group("/v1"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/handoff", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("peek: expected 200, got %d", rec.Code)
	}
	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil || got["primaryGeoImageId"] != "12" {
		t.Fatalf("unexpected peek body %s (%v)", rec.Body.String(), err)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/handoff/consume", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("consume: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/handoff/consume", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("empty slot: expected 404, got %d", rec.Code)
	}
}
