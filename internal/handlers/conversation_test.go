package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-engine/internal/mocks"
	"chat-engine/internal/models"
)

func setupConversationRouter(handler *ConversationHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/conversations", handler.ListConversations)
	r.POST("/conversations/:conversation_id/pin", handler.TogglePin)
	r.DELETE("/conversations/:conversation_id", handler.DeleteConversation)
	r.GET("/conversations/:conversation_id/settings", handler.GetSettings)
	r.PUT("/conversations/:conversation_id/settings", handler.UpdateSettings)
	r.GET("/users/:user_id", handler.GetUser)
	return r
}

func TestListConversations(t *testing.T) {
	convs := new(mocks.ConversationServiceMock)
	handler := NewConversationHandler(convs, nil, nil, nil, nil, nil)
	router := setupConversationRouter(handler)

	convs.On("List", "alex").Return([]models.Conversation{{ID: "c1", Nickname: "Alex Chen"}}).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations?query=alex", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Conversations []models.Conversation `json:"conversations"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Conversations, 1)
	assert.Equal(t, "c1", resp.Conversations[0].ID)
	convs.AssertExpectations(t)
}

func TestTogglePin(t *testing.T) {
	convs := new(mocks.ConversationServiceMock)
	handler := NewConversationHandler(convs, nil, nil, nil, nil, nil)
	router := setupConversationRouter(handler)

	convs.On("TogglePin", "c1").Once()
	convs.On("Get", "c1").Return(models.Conversation{ID: "c1"}, true).Maybe()

	req := httptest.NewRequest(http.MethodPost, "/conversations/c1/pin", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	convs.AssertExpectations(t)
}

func TestDeleteConversationClosesRoom(t *testing.T) {
	convs := new(mocks.ConversationServiceMock)
	rooms := new(mocks.RoomServiceMock)
	handler := NewConversationHandler(convs, rooms, nil, nil, nil, nil)
	router := setupConversationRouter(handler)

	convs.On("Delete", "c2").Once()
	rooms.On("Close", "c2").Once()

	req := httptest.NewRequest(http.MethodDelete, "/conversations/c2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	convs.AssertExpectations(t)
	rooms.AssertExpectations(t)
}

func TestGetSettings(t *testing.T) {
	convs := new(mocks.ConversationServiceMock)
	prefs := new(mocks.PreferenceStoreMock)
	handler := NewConversationHandler(convs, nil, prefs, nil, nil, nil)
	router := setupConversationRouter(handler)

	convs.On("Get", "c1").Return(models.Conversation{ID: "c1"}, true).Once()
	prefs.On("DoNotDisturb", "c1").Return(true, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations/c1/settings", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]bool
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp["do_not_disturb"])
	prefs.AssertExpectations(t)
}

func TestGetSettingsUnknownConversation(t *testing.T) {
	convs := new(mocks.ConversationServiceMock)
	handler := NewConversationHandler(convs, nil, new(mocks.PreferenceStoreMock), nil, nil, nil)
	router := setupConversationRouter(handler)

	convs.On("Get", "nope").Return(models.Conversation{}, false).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations/nope/settings", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateSettings(t *testing.T) {
	convs := new(mocks.ConversationServiceMock)
	prefs := new(mocks.PreferenceStoreMock)
	handler := NewConversationHandler(convs, nil, prefs, nil, nil, nil)
	router := setupConversationRouter(handler)

	convs.On("Get", "c3").Return(models.Conversation{ID: "c3"}, true).Once()
	prefs.On("SetDoNotDisturb", "c3", true).Return(nil).Once()

	body := bytes.NewBufferString(`{"do_not_disturb":true}`)
	req := httptest.NewRequest(http.MethodPut, "/conversations/c3/settings", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	prefs.AssertExpectations(t)
}

func TestUpdateSettingsMissingField(t *testing.T) {
	convs := new(mocks.ConversationServiceMock)
	handler := NewConversationHandler(convs, nil, new(mocks.PreferenceStoreMock), nil, nil, nil)
	router := setupConversationRouter(handler)

	convs.On("Get", "c3").Return(models.Conversation{ID: "c3"}, true).Once()

	body := bytes.NewBufferString(`{}`)
	req := httptest.NewRequest(http.MethodPut, "/conversations/c3/settings", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUser(t *testing.T) {
	users := map[string]models.User{
		"u1": {ID: "u1", Name: "Alex Chen"},
	}
	handler := NewConversationHandler(new(mocks.ConversationServiceMock), nil, nil, nil, users, nil)
	router := setupConversationRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/users/u1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/users/missing", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
