package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ListSense/pkg/errors"
	"github.com/turtacn/ListSense/pkg/types/common"
)

func TestHealthHandler_Liveness(t *testing.T) {
	h := NewHealthHandler("1.2.3", CheckFunc{Component: "redis", Fn: func(context.Context) error {
		t.Fatal("liveness must not run checkers")
		return nil
	}})
	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp LivenessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, common.HealthUp, resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestHealthHandler_Readiness(t *testing.T) {
	ok := CheckFunc{Component: "catalog", Fn: func(context.Context) error { return nil }}
	down := CheckFunc{Component: "redis", Fn: func(context.Context) error { return stderrors.New("dial tcp: refused") }}

	rec := httptest.NewRecorder()
	NewHealthHandler("v", ok).Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	NewHealthHandler("v", ok, down).Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, common.HealthDown, resp.Status)
	assert.Equal(t, common.HealthUp, resp.Components["catalog"].Status)
	assert.Equal(t, "dial tcp: refused", resp.Components["redis"].Error)
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Text string `json:"text"`
	}
	decode := func(body string, limit int64) error {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		if limit > 0 {
			r.Body = http.MaxBytesReader(httptest.NewRecorder(), r.Body, limit)
		}
		return decodeJSON(r, &v)
	}

	require.NoError(t, decode(`{"text":"hi"}`, 0))
	assert.Equal(t, "hi", v.Text)
	assert.True(t, errors.IsCode(decode(``, 0), errors.ErrCodeBadRequest))
	assert.True(t, errors.IsCode(decode(`{"other":1}`, 0), errors.ErrCodeBadRequest))
	assert.True(t, errors.IsCode(decode(`{"text":"`+strings.Repeat("x", 64)+`"}`, 16), errors.ErrCodeUtteranceTooLong))
}

func TestBindName(t *testing.T) {
	name := ""
	require.NoError(t, bindName(&name, "fruit"))
	assert.Equal(t, "fruit", name)
	require.NoError(t, bindName(&name, "fruit"))
	assert.True(t, errors.IsValidation(bindName(&name, "veg")))
}

//Personal.AI order the ending
