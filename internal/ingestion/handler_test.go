package ingestion

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	v1 "github.com/shopsight-lab/shopsight/internal/api/v1"
	httperr "github.com/shopsight-lab/shopsight/internal/core/errors"
	"github.com/shopsight-lab/shopsight/internal/core/rollup"
	"github.com/shopsight-lab/shopsight/internal/core/storage"
	storagemocks "github.com/shopsight-lab/shopsight/internal/mocks/storage"
)

func contribFor(evt *v1.Event) []rollup.Contribution {
	return rollup.Apply(rollup.Definitions, evt)
}

func newTestService(t *testing.T) (*Service, *storagemocks.EventStore, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mockStore := storagemocks.NewEventStore(t)
	svc := NewService(mockStore, contribFor, 1)
	r := gin.New()
	svc.RegisterRoutes(r)
	return svc, mockStore, r
}

func postTrack(r *gin.Engine, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/v1/track", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestIngestHandler_Success(t *testing.T) {
	_, mockStore, r := newTestService(t)

	var captured *v1.Event
	mockStore.On("AppendEvent", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*v1.Event)
			contribs := args.Get(2).([]rollup.Contribution)
			// order_completed feeds activeUsers, checkoutFunnel and sales.
			require.Len(t, contribs, 3)
		}).
		Return(nil).
		Once()

	resp := postTrack(r, map[string]interface{}{
		"id":          "evt-1",
		"user_id":     "u-9",
		"name":        "order_completed",
		"occurred_at": "2025-03-01T12:00:00Z",
		"properties":  map[string]interface{}{"orderId": "o-1", "total": 49.5},
	})

	require.Equal(t, http.StatusAccepted, resp.Code)

	var out map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.Equal(t, "accepted", out["status"])
	require.Equal(t, "evt-1", out["event_id"])

	require.NotNil(t, captured)
	require.Equal(t, "user:u-9", captured.ActorID())
	require.False(t, captured.IngestedAt.IsZero())
}

func TestIngestHandler_GeneratesIDAndDefaultsOccurredAt(t *testing.T) {
	_, mockStore, r := newTestService(t)

	var captured *v1.Event
	mockStore.On("AppendEvent", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*v1.Event) }).
		Return(nil).
		Once()

	before := time.Now().UTC()
	resp := postTrack(r, map[string]interface{}{
		"anonymous_id": "a-1",
		"name":         "page_viewed",
	})

	require.Equal(t, http.StatusAccepted, resp.Code)
	require.NotEmpty(t, captured.ID)
	require.False(t, captured.OccurredAt.Before(before))

	var out map[string]string
	json.Unmarshal(resp.Body.Bytes(), &out)
	require.Equal(t, captured.ID, out["event_id"])
}

func TestIngestHandler_NoActorIsAccepted(t *testing.T) {
	// System events without any identity still land in the log; they just
	// skip identity-keyed rollups.
	_, mockStore, r := newTestService(t)

	mockStore.On("AppendEvent", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			evt := args.Get(1).(*v1.Event)
			require.Empty(t, evt.ActorID())
			contribs := args.Get(2).([]rollup.Contribution)
			for _, c := range contribs {
				require.NotEqual(t, rollup.DefActiveUsers, c.Definition)
			}
		}).
		Return(nil).
		Once()

	resp := postTrack(r, map[string]interface{}{
		"name":        "page_viewed",
		"occurred_at": "2025-03-01T12:00:00Z",
	})
	require.Equal(t, http.StatusAccepted, resp.Code)
}

func TestIngestHandler_InvalidJSON(t *testing.T) {
	_, _, r := newTestService(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/track", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)

	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Equal(t, httperr.HttpInvalidJsonError, errResp.ErrorType)
}

func TestIngestHandler_ValidationFailure(t *testing.T) {
	_, _, r := newTestService(t)

	// Missing name fails envelope validation.
	resp := postTrack(r, map[string]interface{}{
		"id":          "evt-2",
		"occurred_at": "2025-03-01T12:00:00Z",
	})

	require.Equal(t, http.StatusBadRequest, resp.Code)

	var errResp httperr.ErrorResponse
	json.Unmarshal(resp.Body.Bytes(), &errResp)
	require.Equal(t, httperr.HttpValidationError, errResp.ErrorType)
}

func TestIngestHandler_Duplicate(t *testing.T) {
	_, mockStore, r := newTestService(t)

	mockStore.On("AppendEvent", mock.Anything, mock.Anything, mock.Anything).
		Return(storage.ErrDuplicate).
		Once()

	resp := postTrack(r, map[string]interface{}{
		"id":          "evt-dup",
		"user_id":     "u-1",
		"name":        "page_viewed",
		"occurred_at": "2025-03-01T12:00:00Z",
	})

	require.Equal(t, http.StatusConflict, resp.Code)

	var errResp httperr.ErrorResponse
	json.Unmarshal(resp.Body.Bytes(), &errResp)
	require.Equal(t, httperr.HttpDuplicateEventError, errResp.ErrorType)
}

func TestIngestHandler_StoreError(t *testing.T) {
	_, mockStore, r := newTestService(t)

	mockStore.On("AppendEvent", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("db down")).
		Once()

	resp := postTrack(r, map[string]interface{}{
		"id":          "evt-3",
		"user_id":     "u-1",
		"name":        "page_viewed",
		"occurred_at": "2025-03-01T12:00:00Z",
	})

	require.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestIngestHandler_BodyTooLarge(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockStore := storagemocks.NewEventStore(t)
	svc := NewService(mockStore, contribFor, 0) // 0 defaults to 1MB
	svc.maxBodySizeBytes = 10                   // Very small limit

	r := gin.New()
	svc.RegisterRoutes(r)

	resp := postTrack(r, map[string]interface{}{
		"data": "this is definitely more than 10 bytes of content",
	})

	require.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)

	var errResp httperr.ErrorResponse
	json.Unmarshal(resp.Body.Bytes(), &errResp)
	require.Equal(t, httperr.HttpInvalidJsonError, errResp.ErrorType)
	require.Contains(t, errResp.Message, "maximum allowed size")
}

func TestIngestHandler_SalesContributionCarriesTotal(t *testing.T) {
	_, mockStore, r := newTestService(t)

	mockStore.On("AppendEvent", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			contribs := args.Get(2).([]rollup.Contribution)
			var sales *rollup.Contribution
			for i := range contribs {
				if contribs[i].Definition == rollup.DefSales {
					sales = &contribs[i]
				}
			}
			require.NotNil(t, sales)
			require.True(t, sales.Value.Equal(decimal.NewFromFloat(19.99)))
		}).
		Return(nil).
		Once()

	resp := postTrack(r, map[string]interface{}{
		"id":          "evt-4",
		"user_id":     "u-2",
		"name":        "order_completed",
		"occurred_at": "2025-03-01T15:04:05Z",
		"properties":  map[string]interface{}{"total": 19.99},
	})
	require.Equal(t, http.StatusAccepted, resp.Code)
}

func TestListEventsHandler_Success(t *testing.T) {
	_, mockStore, r := newTestService(t)

	occurred := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mockStore.On("ListEvents", mock.Anything, "u-1", "", 100).
		Return([]*v1.Event{
			{
				ID:         "evt-1",
				UserID:     "u-1",
				Name:       "page_viewed",
				OccurredAt: occurred,
				IngestedAt: occurred.Add(time.Second),
			},
		}, nil).
		Once()

	req := httptest.NewRequest(http.MethodGet, "/v1/events/user:u-1", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)

	var events []v1.Event
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &events))
	require.Len(t, events, 1)
	require.Equal(t, "evt-1", events[0].ID)
	require.Equal(t, "u-1", events[0].UserID)
}

func TestListEventsHandler_AnonymousPrefix(t *testing.T) {
	_, mockStore, r := newTestService(t)

	mockStore.On("ListEvents", mock.Anything, "", "a-7", 5).
		Return([]*v1.Event{}, nil).
		Once()

	req := httptest.NewRequest(http.MethodGet, "/v1/events/anon:a-7?limit=5", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
}

func TestListEventsHandler_BarePathIsUserID(t *testing.T) {
	_, mockStore, r := newTestService(t)

	mockStore.On("ListEvents", mock.Anything, "u-3", "", 100).
		Return([]*v1.Event{}, nil).
		Once()

	req := httptest.NewRequest(http.MethodGet, "/v1/events/u-3", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
}

func TestListEventsHandler_InvalidLimit(t *testing.T) {
	_, _, r := newTestService(t)

	for _, raw := range []string{"0", "-1", "1001", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/events/user:u-1?limit="+raw, nil)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		require.Equal(t, http.StatusBadRequest, resp.Code, "limit=%s", raw)
	}
}

func TestListEventsHandler_StoreError(t *testing.T) {
	_, mockStore, r := newTestService(t)

	mockStore.On("ListEvents", mock.Anything, "u-1", "", 100).
		Return(nil, errors.New("db failure")).
		Once()

	req := httptest.NewRequest(http.MethodGet, "/v1/events/user:u-1", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusInternalServerError, resp.Code)
}
