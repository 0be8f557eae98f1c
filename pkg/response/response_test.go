package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"seller-payout-service/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, rec
}

func TestOK_Envelope(t *testing.T) {
	c, rec := setupContext(t)
	OK(c, gin.H{"netPayout": "472.50"})

	assert.Equal(t, http.StatusOK, rec.Code)

	var body SuccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.RequestID)
	assert.NotEmpty(t, body.Timestamp)
}

func TestError_AppError(t *testing.T) {
	c, rec := setupContext(t)
	Error(c, apperror.ErrInsufficientBalance())

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "WDR_001", body.ErrorCode)
}

func TestError_ProviderErrorIncludesWithdrawalID(t *testing.T) {
	c, rec := setupContext(t)
	Error(c, apperror.ErrPayoutProvider("wd-789", errors.New("upstream 500")))

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "GW_001", body.ErrorCode)
	assert.Equal(t, "wd-789", body.Meta["withdrawal_id"])
}

func TestError_UnknownErrorIs500(t *testing.T) {
	c, rec := setupContext(t)
	Error(c, errors.New("something unexpected"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "SYS_000", body.ErrorCode)
	assert.Equal(t, "Internal server error", body.Message)
}

func TestError_UsesRequestIDFromContext(t *testing.T) {
	c, rec := setupContext(t)
	c.Set("request_id", "req-42")
	Error(c, apperror.ErrNotFound("withdrawal"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "req-42", body.RequestID)
}
