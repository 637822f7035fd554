package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	warns  []string
	errors []string
	fields map[string]interface{}
}

func (l *recordingLogger) Warn(msg string, fields map[string]interface{}) {
	l.warns = append(l.warns, msg)
	l.fields = fields
}

func (l *recordingLogger) Error(msg string, fields map[string]interface{}) {
	l.errors = append(l.errors, msg)
	l.fields = fields
}

func TestStandardError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("signup: %w", NewAlreadySignedUpError("Chess Club", "michael@mergington.edu"))

	assert.True(t, stderrors.Is(err, ErrAlreadySignedUp))
	assert.False(t, stderrors.Is(err, ErrNotSignedUp))
	assert.False(t, stderrors.Is(err, ErrActivityNotFound))
}

func TestNormalize(t *testing.T) {
	assert.Nil(t, Normalize(nil))

	wrapped := fmt.Errorf("lookup: %w", NewActivityNotFoundError("Nonexistent Club"))
	assert.Equal(t, ErrCodeActivityNotFound, Normalize(wrapped).Code)

	plain := Normalize(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Details)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrCodeActivityNotFound))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrCodeAlreadySignedUp))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrCodeNotSignedUp))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(ErrCodeValidationFailed))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(ErrCodeInternal))
}

func TestNotificationError_UnwrapsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewNotificationPublishFailedError("activity-events", cause)

	assert.True(t, err.Retryable)
	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, IsRetryableErrorCode(err.Code))
}

func TestWithMetadata_DoesNotMutateOriginal(t *testing.T) {
	base := NewActivityNotFoundError("Chess Club")
	extended := base.WithMetadata("requestId", "abc")

	assert.Equal(t, "abc", extended.Metadata["requestId"])
	_, ok := base.Metadata["requestId"]
	assert.False(t, ok)
}

func TestErrorHandler_WritesDetail(t *testing.T) {
	log := &recordingLogger{}
	h := NewErrorHandler(log)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/activities/Nope/signup?email=a@b.c", nil)
	h.HandleHTTPError(rr, req, NewActivityNotFoundError("Nope"))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	var body Body
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Activity not found", body.Detail)
	assert.Equal(t, ErrCodeActivityNotFound, body.Code)
	assert.Len(t, log.warns, 1)
	assert.Empty(t, log.errors)
}

func TestErrorHandler_LogsMetadata(t *testing.T) {
	log := &recordingLogger{}
	h := NewErrorHandler(log)

	err := NewNotSignedUpError("Chess Club", "a@mergington.edu").WithMetadata("operation", "unregister")
	h.HandleHTTPError(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/activities/Chess%20Club/unregister", nil), err)

	require.Len(t, log.warns, 1)
	metadata, ok := log.fields["metadata"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "unregister", metadata["operation"])
	assert.Equal(t, "Chess Club", metadata["activity"])
}

func TestErrorHandler_InternalErrorsLogAtError(t *testing.T) {
	log := &recordingLogger{}
	h := NewErrorHandler(log)

	rr := httptest.NewRecorder()
	h.HandleHTTPError(rr, httptest.NewRequest(http.MethodGet, "/activities", nil), stderrors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Len(t, log.errors, 1)
}
