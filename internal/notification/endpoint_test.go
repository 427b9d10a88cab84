package notification_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/julienschmidt/httprouter"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/snowguard/notifications-service/internal/auth"
	"github.com/snowguard/notifications-service/internal/notification"
	"github.com/snowguard/notifications-service/internal/notification/notificationmocks"
)

const testSecret = "endpoint-test-secret"

var _ = Describe("Endpoint", func() {

	var (
		ctrl       *gomock.Controller
		mockedSvc  *notificationmocks.MockManager
		router     *httprouter.Router
		rr         *httptest.ResponseRecorder
		method     string
		target     string
		body       io.Reader
		withToken  bool
		authHeader string
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		mockedSvc = notificationmocks.NewMockManager(ctrl)
		endpoint := notification.NewEndpoint(mockedSvc)
		router = httprouter.New()
		endpoint.Register(router, auth.NewVerifier(testSecret))
		body = nil
		withToken = true
		authHeader = ""
	})

	JustBeforeEach(func() {
		req, _ := http.NewRequest(method, target, body)
		if withToken {
			token, err := auth.GenerateToken(testSecret, 7, "user@snowguard.dev", time.Minute)
			Expect(err).To(BeNil())
			req.Header.Set("Authorization", "Bearer "+token)
		} else if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)
	})

	Context("without a credential", func() {
		BeforeEach(func() {
			method, target = "GET", "/api/notifications"
			withToken = false
			mockedSvc.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
		})

		It("should return a uniform 401", func() {
			Expect(rr.Code).To(Equal(http.StatusUnauthorized))
			Expect(rr.Body.String()).To(ContainSubstring(`"error"`))
		})
	})

	Context("with a garbage credential", func() {
		BeforeEach(func() {
			method, target = "GET", "/api/notifications/unread-count"
			withToken = false
			authHeader = "Bearer not-a-token"
			mockedSvc.EXPECT().UnreadCount(gomock.Any(), gomock.Any()).Times(0)
		})

		It("should return a uniform 401", func() {
			Expect(rr.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Context("listing notifications", func() {
		BeforeEach(func() {
			method, target = "GET", "/api/notifications?limit=10&offset=5&unreadOnly=true"
			mockedSvc.EXPECT().
				List(gomock.Any(), int64(7), notification.ListOptions{Limit: 10, Offset: 5, UnreadOnly: true}).
				Return([]*notification.Notification{
					{ID: 1, UserID: 7, Type: notification.TypeHazardAlert},
					{ID: 2, UserID: 7, Type: notification.TypeSystem},
				}, nil).
				Times(1)
		})

		It("should return the envelope with a count", func() {
			Expect(rr.Code).To(Equal(http.StatusOK))
			resp := struct {
				Notifications []*notification.Notification `json:"notifications"`
				Count         int                          `json:"count"`
			}{}
			Expect(json.Unmarshal(rr.Body.Bytes(), &resp)).To(BeNil())
			Expect(resp.Count).To(Equal(2))
			Expect(resp.Notifications).To(HaveLen(2))
		})
	})

	Context("fetching the unread count", func() {
		BeforeEach(func() {
			method, target = "GET", "/api/notifications/unread-count"
			mockedSvc.EXPECT().UnreadCount(gomock.Any(), int64(7)).Return(int64(4), nil).Times(1)
		})

		It("should return the count", func() {
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(rr.Body.String()).To(MatchJSON(`{"count": 4}`))
		})
	})

	Context("marking one read", func() {
		BeforeEach(func() {
			method, target = "PUT", "/api/notifications/42/read"
			mockedSvc.EXPECT().MarkAsRead(gomock.Any(), int64(42), int64(7)).Return(nil).Times(1)
		})

		It("should return 200", func() {
			Expect(rr.Code).To(Equal(http.StatusOK))
		})
	})

	Context("marking a row the caller does not own", func() {
		BeforeEach(func() {
			method, target = "PUT", "/api/notifications/42/read"
			mockedSvc.EXPECT().MarkAsRead(gomock.Any(), int64(42), int64(7)).
				Return(notification.ErrNotFound).Times(1)
		})

		It("should return 404", func() {
			Expect(rr.Code).To(Equal(http.StatusNotFound))
			Expect(rr.Body.String()).To(ContainSubstring(`"error"`))
		})
	})

	Context("marking read with a malformed id", func() {
		BeforeEach(func() {
			method, target = "PUT", "/api/notifications/forty-two/read"
			mockedSvc.EXPECT().MarkAsRead(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
		})

		It("should return 400", func() {
			Expect(rr.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Context("marking all read", func() {
		BeforeEach(func() {
			method, target = "POST", "/api/notifications/mark-all-read"
			mockedSvc.EXPECT().MarkAllAsRead(gomock.Any(), int64(7)).Return(nil).Times(1)
		})

		It("should return 200", func() {
			Expect(rr.Code).To(Equal(http.StatusOK))
		})
	})

	Context("deleting a missing notification", func() {
		BeforeEach(func() {
			method, target = "DELETE", "/api/notifications/99"
			mockedSvc.EXPECT().Delete(gomock.Any(), int64(99), int64(7)).
				Return(notification.ErrNotFound).Times(1)
		})

		It("should return 404", func() {
			Expect(rr.Code).To(Equal(http.StatusNotFound))
		})
	})

	Context("updating preferences", func() {
		BeforeEach(func() {
			method, target = "PUT", "/api/preferences"
			prefs := &notification.Preferences{
				HazardAlerts:        false,
				RouteUpdates:        true,
				AIResponses:         true,
				SystemNotifications: true,
				SoundEnabled:        false,
			}
			b, err := json.Marshal(prefs)
			Expect(err).To(BeNil())
			body = bytes.NewBuffer(b)
			mockedSvc.EXPECT().UpdatePreferences(gomock.Any(), int64(7), gomock.Any()).
				DoAndReturn(func(_ context.Context, _ int64, got *notification.Preferences) (*notification.Preferences, error) {
					Expect(got.HazardAlerts).To(BeFalse())
					Expect(got.SoundEnabled).To(BeFalse())
					return got, nil
				}).Times(1)
		})

		It("should return the updated preferences", func() {
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(rr.Body.String()).To(ContainSubstring(`"hazard_alerts":false`))
		})
	})

	Context("updating preferences with a broken payload", func() {
		BeforeEach(func() {
			method, target = "PUT", "/api/preferences"
			body = bytes.NewBufferString("{invalid json}")
			mockedSvc.EXPECT().UpdatePreferences(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
		})

		It("should return 400", func() {
			Expect(rr.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
