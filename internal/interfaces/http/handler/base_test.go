package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/interfaces/http/dto"
	"github.com/compia/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func testScope(role identity.Role) identity.AccessScope {
	return identity.NewAccessScope(uuid.New(), uuid.New(), role, nil)
}

// newTestRouter mounts routes behind RequestID and, when scope is given,
// an authenticated access scope
func newTestRouter(scope *identity.AccessScope, register func(r gin.IRouter)) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	if scope != nil {
		s := *scope
		r.Use(func(c *gin.Context) {
			middleware.SetScope(c, s)
			c.Next()
		})
	}
	register(r)
	return r
}

func doRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"forbidden", shared.ErrForbidden, http.StatusForbidden, dto.ErrCodeForbidden},
		{"wrapped domain error", fmt.Errorf("load: %w", shared.ErrNotFound), http.StatusNotFound, dto.ErrCodeNotFound},
		{"plan limit", shared.NewDomainError("PLAN_LIMIT_EXCEEDED", "limit"), http.StatusPaymentRequired, dto.ErrCodePlanLimit},
		{"template in use", shared.NewDomainError("TEMPLATE_IN_USE", "in use"), http.StatusConflict, "TEMPLATE_IN_USE"},
		{"unmapped business rule", shared.NewDomainError("SIGNATURE_REQUIRED", "sign"), http.StatusUnprocessableEntity, "SIGNATURE_REQUIRED"},
		{"invalid prefix", shared.NewDomainError("INVALID_CEP", "cep"), http.StatusBadRequest, "INVALID_CEP"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, dto.ErrCodeUpstream},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			r := newTestRouter(nil, func(r gin.IRouter) {
				r.GET("/x", func(c *gin.Context) { h.HandleError(c, tt.err) })
			})

			w := doRequest(r, http.MethodGet, "/x", nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.RequestID)
			if tt.wantStatus == http.StatusInternalServerError {
				assert.NotContains(t, resp.Error.Message, "boom")
			}
		})
	}
}

func TestBaseHandler_Helpers(t *testing.T) {
	h := &BaseHandler{}
	scope := testScope(identity.RoleManager)

	t.Run("scope missing answers 401", func(t *testing.T) {
		r := newTestRouter(nil, func(r gin.IRouter) {
			r.GET("/x", func(c *gin.Context) {
				if _, ok := h.scope(c); ok {
					c.Status(http.StatusOK)
				}
			})
		})
		w := doRequest(r, http.MethodGet, "/x", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("parseID rejects malformed ids", func(t *testing.T) {
		r := newTestRouter(&scope, func(r gin.IRouter) {
			r.GET("/x/:id", func(c *gin.Context) {
				if id, ok := h.parseID(c, "id"); ok {
					h.Success(c, id)
				}
			})
		})
		w := doRequest(r, http.MethodGet, "/x/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidInput, decodeResponse(t, w).Error.Code)

		id := uuid.New()
		w = doRequest(r, http.MethodGet, "/x/"+id.String(), nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, id.String(), decodeResponse(t, w).Data)
	})

	t.Run("optionalUUID", func(t *testing.T) {
		r := newTestRouter(&scope, func(r gin.IRouter) {
			r.GET("/x", func(c *gin.Context) {
				id, ok := h.optionalUUID(c, "organization_id")
				if !ok {
					return
				}
				h.Success(c, gin.H{"set": id != nil})
			})
		})
		assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/x", nil).Code)
		assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/x?organization_id="+uuid.NewString(), nil).Code)
		assert.Equal(t, http.StatusBadRequest, doRequest(r, http.MethodGet, "/x?organization_id=42", nil).Code)
	})

	t.Run("respondPage never returns null items", func(t *testing.T) {
		r := newTestRouter(&scope, func(r gin.IRouter) {
			r.GET("/x", func(c *gin.Context) {
				page := shared.NewPaginated[string](nil, 0, 1, 20)
				respondPage(c, &page)
			})
		})
		w := doRequest(r, http.MethodGet, "/x", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, string(mustField(t, w.Body.Bytes(), "data")))
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(0), resp.Meta.Total)
	})
}

func mustField(t *testing.T, body []byte, field string) json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &m))
	return m[field]
}
