package util

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogError_WrapsCause(t *testing.T) {
	cause := errors.New("boom")
	err := LogError("[Test] не удалось", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "[Test] не удалось: boom", err.Error())
}

func TestHandleError(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, "документ не найден", http.StatusNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Not Found", body["error"])
	assert.Equal(t, "документ не найден", body["message"])
	assert.EqualValues(t, 404, body["code"])
}

func TestNewKey_Unique(t *testing.T) {
	a, b := NewKey(), NewKey()
	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}
