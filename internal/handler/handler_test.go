package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	mqcontracts "foreclosure-assist/contracts/mq"
	"foreclosure-assist/internal/followup"
	"foreclosure-assist/internal/integration"
	"foreclosure-assist/internal/integration/paypal"
	"foreclosure-assist/internal/integration/stripe"
	"foreclosure-assist/internal/model"
	"foreclosure-assist/internal/property"
	"foreclosure-assist/internal/repository"
	"foreclosure-assist/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asUser stands in for the auth middleware.
func asUser(id int64, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(CtxUserID, id)
		c.Set(CtxRole, role)
		c.Next()
	}
}

func perform(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

type mockAuth struct{ mock.Mock }

func (m *mockAuth) Register(ctx context.Context, email, password string) (*model.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockAuth) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*model.User), args.Error(2)
}

type mockQuestionnaire struct{ mock.Mock }

func (m *mockQuestionnaire) Submit(ctx context.Context, sub service.Submission) (*model.ForeclosureResponse, *model.RiskAssessment, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.ForeclosureResponse), args.Get(1).(*model.RiskAssessment), args.Error(2)
}

type mockAggregator struct{ mock.Mock }

func (m *mockAggregator) Aggregate(ctx context.Context, address string) (*property.PropertyReport, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.PropertyReport), args.Error(1)
}

// fakeModeration implements only what a test overrides; unset methods panic.
type fakeModeration struct {
	ModerationService
	transition func(id int64, to string) (*model.Comment, error)
	submit     func(c *model.Comment) error
	detail     func(id int64) (*model.ForeclosureResponse, *model.RiskAssessment, error)
	counts     map[string]int
}

func (f *fakeModeration) TransitionComment(_ context.Context, id int64, to string) (*model.Comment, error) {
	return f.transition(id, to)
}

func (f *fakeModeration) SubmitComment(_ context.Context, c *model.Comment) error {
	return f.submit(c)
}

func (f *fakeModeration) ResponseDetail(_ context.Context, id int64) (*model.ForeclosureResponse, *model.RiskAssessment, error) {
	return f.detail(id)
}

func (f *fakeModeration) CommentCounts(context.Context) (map[string]int, error) {
	return f.counts, nil
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) NotifyResponse(ctx context.Context, responseID int64, channel, subject, message string) (*mqcontracts.NotificationRequestedPayload, error) {
	args := m.Called(ctx, responseID, channel, subject, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mqcontracts.NotificationRequestedPayload), args.Error(1)
}

type fakeContent struct {
	ContentService
	courses  []model.Course
	drafts   bool
	enrolled func(userID, courseID int64) (*model.Enrollment, error)
	complete func(userID, lessonID int64) (*model.CourseProgress, error)
	created  *model.Lesson
}

func (f *fakeContent) ListCourses(_ context.Context, includeDrafts bool) ([]model.Course, error) {
	f.drafts = includeDrafts
	return f.courses, nil
}

func (f *fakeContent) Enroll(_ context.Context, userID, courseID int64) (*model.Enrollment, error) {
	return f.enrolled(userID, courseID)
}

func (f *fakeContent) CompleteLesson(_ context.Context, userID, lessonID int64) (*model.CourseProgress, error) {
	return f.complete(userID, lessonID)
}

func (f *fakeContent) CreateLesson(_ context.Context, l *model.Lesson) error {
	f.created = l
	l.ID = 9
	return nil
}

type mockPayments struct{ mock.Mock }

func (m *mockPayments) Subscriptions(ctx context.Context, userID int64) ([]model.Subscription, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.Subscription), args.Error(1)
}

func (m *mockPayments) StartStripeCheckout(ctx context.Context, userID int64, email, plan string) (*stripe.Session, *model.Subscription, error) {
	args := m.Called(ctx, userID, email, plan)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*stripe.Session), args.Get(1).(*model.Subscription), args.Error(2)
}

func (m *mockPayments) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	return m.Called(ctx, payload, signature).Error(0)
}

func (m *mockPayments) CreatePayPalOrder(ctx context.Context, userID int64, plan string) (*paypal.Order, *model.Subscription, error) {
	args := m.Called(ctx, userID, plan)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*paypal.Order), args.Get(1).(*model.Subscription), args.Error(2)
}

func (m *mockPayments) CapturePayPalOrder(ctx context.Context, userID int64, role, orderID string) (*model.Subscription, error) {
	args := m.Called(ctx, userID, role, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *mockPayments) Cancel(ctx context.Context, userID int64, role string, subscriptionID int64) error {
	return m.Called(ctx, userID, role, subscriptionID).Error(0)
}

type mockConsent struct{ mock.Mock }

func (m *mockConsent) Record(ctx context.Context, phone, source string) error {
	return m.Called(ctx, phone, source).Error(0)
}

func (m *mockConsent) HandleInbound(ctx context.Context, from, body string) (string, error) {
	args := m.Called(ctx, from, body)
	return args.String(0), args.Error(1)
}

type mockCampaigns struct{ mock.Mock }

func (m *mockCampaigns) List(ctx context.Context, status string, page repository.Page) ([]model.Campaign, error) {
	args := m.Called(ctx, status, page)
	return args.Get(0).([]model.Campaign), args.Error(1)
}

func (m *mockCampaigns) Get(ctx context.Context, id int64) (*model.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Campaign), args.Error(1)
}

func (m *mockCampaigns) Create(ctx context.Context, c *model.Campaign) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCampaigns) Update(ctx context.Context, c *model.Campaign) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCampaigns) Transition(ctx context.Context, id int64, to string, scheduledAt *time.Time) (*model.Campaign, error) {
	args := m.Called(ctx, id, to, scheduledAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Campaign), args.Error(1)
}

func (m *mockCampaigns) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockReplay struct{ mock.Mock }

func (m *mockReplay) ReplayEvent(ctx context.Context, eventID int64) error {
	return m.Called(ctx, eventID).Error(0)
}

func (m *mockReplay) ReplayFailedEvents(ctx context.Context, limit int) (int, error) {
	args := m.Called(ctx, limit)
	return args.Int(0), args.Error(1)
}

type stubAnalytics struct{ out *model.MasterAnalytics }

func (s stubAnalytics) Master(context.Context) *model.MasterAnalytics { return s.out }

type stubRunner struct {
	res followup.Result
	err error
}

func (s stubRunner) Run(context.Context, time.Time) (followup.Result, error) { return s.res, s.err }

type stubConnectivity []integration.CheckResult

func (s stubConnectivity) Check(context.Context) []integration.CheckResult { return s }
