package httpserver

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"foreclosure-assist/internal/handler"
	"foreclosure-assist/internal/model"
	"foreclosure-assist/pkg/rbac"
	"foreclosure-assist/pkg/util"
)

type stubAnalytics struct{}

func (stubAnalytics) Master(context.Context) *model.MasterAnalytics {
	return &model.MasterAnalytics{Counts: map[string]int{"responses": 1}}
}

func testRouter() *Router {
	log := zap.NewNop()
	h := Handlers{
		Auth:          handler.NewAuthHandler(nil, log),
		Questionnaire: handler.NewQuestionnaireHandler(nil, log),
		Property:      handler.NewPropertyHandler(nil, log),
		Content:       handler.NewContentHandler(nil, log),
		Moderation:    handler.NewModerationHandler(nil, nil, log),
		Payment:       handler.NewPaymentHandler(nil, log),
		SMS:           handler.NewSMSHandler(nil, handler.SMSWebhookConfig{}, log),
		Campaign:      handler.NewCampaignHandler(nil, log),
		Admin:         handler.NewAdminHandler(nil, stubAnalytics{}, nil, nil, log),
	}
	return NewRouter(h, Options{JWTSecret: testSecret}, fakePinger{}, log)
}

func TestRouter_AdminRoutesNeedAdminRole(t *testing.T) {
	r := testRouter().Engine

	assert.Equal(t, http.StatusUnauthorized, get(r, "/admin/analytics", "").Code)

	userToken, err := util.GenerateJWT(2, rbac.RoleUser, testSecret)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, get(r, "/admin/analytics", userToken).Code)

	adminToken, err := util.GenerateJWT(1, rbac.RoleAdmin, testSecret)
	require.NoError(t, err)
	w := get(r, "/admin/analytics", adminToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"responses":1`)
}

func TestRouter_PublicRoutes(t *testing.T) {
	r := testRouter().Engine

	w := get(r, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/subscriptions", "").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/nope", "").Code)
}
