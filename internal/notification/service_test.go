package notification_test

import (
	"context"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/jackc/pgtype"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/snowguard/notifications-service/internal/cache/cachemocks"
	"github.com/snowguard/notifications-service/internal/notification"
	"github.com/snowguard/notifications-service/internal/storage"
	"github.com/snowguard/notifications-service/internal/storage/storagemocks"
)

var _ = Describe("Service", func() {

	var (
		ctrl    *gomock.Controller
		pers    *storagemocks.MockPersistence
		counter *cachemocks.MockCounter
		svc     *notification.Service
		ctx     context.Context
	)

	allEnabled := func() *storage.Preferences {
		return &storage.Preferences{
			UserID:              7,
			HazardAlerts:        true,
			RouteUpdates:        true,
			AIResponses:         true,
			SystemNotifications: true,
			SoundEnabled:        true,
		}
	}

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		pers = storagemocks.NewMockPersistence(ctrl)
		counter = cachemocks.NewMockCounter(ctrl)
		svc = notification.NewService(pers, counter, 30*24*time.Hour, time.Hour)
		ctx = context.Background()
	})

	Context("Create", func() {

		It("persists the row, bumps the counter and reports a created outcome", func() {
			pers.EXPECT().GetPreferences(ctx, int64(7)).Return(allEnabled(), true, nil)
			pers.EXPECT().Insert(ctx, gomock.Any()).DoAndReturn(
				func(_ context.Context, row *storage.Notification) (*storage.Notification, error) {
					Expect(row.UserID).To(Equal(int64(7)))
					Expect(row.Type).To(Equal("HAZARD_ALERT"))
					Expect(row.Severity).To(Equal("DANGER"))
					Expect(row.ExpiresAt.Status).To(Equal(pgtype.Present))
					Expect(row.ExpiresAt.Time).To(BeTemporally("~", time.Now().UTC().Add(30*24*time.Hour), time.Minute))
					row.ID = 42
					row.CreatedAt = time.Now().UTC()
					return row, nil
				})
			counter.EXPECT().Increment(ctx, int64(7)).Return(nil)

			created, outcome, err := svc.Create(ctx, &notification.CreateRequest{
				UserID:   7,
				Type:     notification.TypeHazardAlert,
				Title:    "🚨 SEVERE Hazard Alert",
				Message:  "ICE detected with severity 85",
				Severity: notification.SeverityDanger,
			})
			Expect(err).To(BeNil())
			Expect(outcome).To(Equal(notification.OutcomeCreated))
			Expect(created.ID).To(Equal(int64(42)))
			Expect(created.Read).To(BeFalse())
			Expect(created.ReadAt).To(BeNil())
		})

		It("suppresses without persisting when the category preference is disabled", func() {
			prefs := allEnabled()
			prefs.HazardAlerts = false
			pers.EXPECT().GetPreferences(ctx, int64(7)).Return(prefs, true, nil)
			pers.EXPECT().Insert(gomock.Any(), gomock.Any()).Times(0)
			counter.EXPECT().Increment(gomock.Any(), gomock.Any()).Times(0)

			created, outcome, err := svc.Create(ctx, &notification.CreateRequest{
				UserID:   7,
				Type:     notification.TypeHazardAlert,
				Title:    "⚠️ Hazard Alert",
				Message:  "BLACK_ICE detected with severity 40",
				Severity: notification.SeverityInfo,
			})
			Expect(err).To(BeNil())
			Expect(outcome).To(Equal(notification.OutcomeSuppressed))
			Expect(created).To(BeNil())
		})

		It("lazily creates default preferences on first access", func() {
			pers.EXPECT().GetPreferences(ctx, int64(9)).Return(nil, false, nil)
			pers.EXPECT().InsertDefaultPreferences(ctx, int64(9)).Return(&storage.Preferences{
				UserID:              9,
				HazardAlerts:        true,
				RouteUpdates:        true,
				AIResponses:         true,
				SystemNotifications: true,
				SoundEnabled:        true,
			}, nil)
			pers.EXPECT().Insert(ctx, gomock.Any()).DoAndReturn(
				func(_ context.Context, row *storage.Notification) (*storage.Notification, error) {
					row.ID = 1
					return row, nil
				})
			counter.EXPECT().Increment(ctx, int64(9)).Return(nil)

			_, outcome, err := svc.Create(ctx, &notification.CreateRequest{
				UserID:  9,
				Type:    notification.TypeSystem,
				Title:   "✅ Update",
				Message: "profile updated",
			})
			Expect(err).To(BeNil())
			Expect(outcome).To(Equal(notification.OutcomeCreated))
		})

		It("still creates when the counter increment fails", func() {
			pers.EXPECT().GetPreferences(ctx, int64(7)).Return(allEnabled(), true, nil)
			pers.EXPECT().Insert(ctx, gomock.Any()).DoAndReturn(
				func(_ context.Context, row *storage.Notification) (*storage.Notification, error) {
					row.ID = 5
					return row, nil
				})
			counter.EXPECT().Increment(ctx, int64(7)).Return(context.DeadlineExceeded)

			created, outcome, err := svc.Create(ctx, &notification.CreateRequest{
				UserID:  7,
				Type:    notification.TypeAIResponse,
				Title:   "💬 AI Response Ready",
				Message: "Your safety analysis is complete",
			})
			Expect(err).To(BeNil())
			Expect(outcome).To(Equal(notification.OutcomeCreated))
			Expect(created.ID).To(Equal(int64(5)))
		})
	})

	Context("MarkAsRead", func() {

		It("decrements the counter when a row transitions", func() {
			pers.EXPECT().MarkRead(ctx, int64(42), int64(7), gomock.Any()).Return(int64(1), nil)
			counter.EXPECT().Decrement(ctx, int64(7)).Return(nil)

			Expect(svc.MarkAsRead(ctx, 42, 7)).To(BeNil())
		})

		It("returns not-found and leaves the counter alone when no row matches", func() {
			pers.EXPECT().MarkRead(ctx, int64(42), int64(8), gomock.Any()).Return(int64(0), nil)
			counter.EXPECT().Decrement(gomock.Any(), gomock.Any()).Times(0)

			Expect(svc.MarkAsRead(ctx, 42, 8)).To(Equal(notification.ErrNotFound))
		})
	})

	Context("MarkAllAsRead", func() {

		It("resets the counter to zero unconditionally", func() {
			pers.EXPECT().MarkAllRead(ctx, int64(7), gomock.Any()).Return(int64(5), nil)
			counter.EXPECT().Reset(ctx, int64(7)).Return(nil)

			Expect(svc.MarkAllAsRead(ctx, 7)).To(BeNil())
		})
	})

	Context("Delete", func() {

		It("decrements the counter when the removed row was unread", func() {
			pers.EXPECT().Delete(ctx, int64(42), int64(7)).Return(true, true, nil)
			counter.EXPECT().Decrement(ctx, int64(7)).Return(nil)

			Expect(svc.Delete(ctx, 42, 7)).To(BeNil())
		})

		It("leaves the counter alone when the removed row was already read", func() {
			pers.EXPECT().Delete(ctx, int64(42), int64(7)).Return(true, false, nil)
			counter.EXPECT().Decrement(gomock.Any(), gomock.Any()).Times(0)

			Expect(svc.Delete(ctx, 42, 7)).To(BeNil())
		})

		It("returns not-found for a row the caller does not own", func() {
			pers.EXPECT().Delete(ctx, int64(42), int64(8)).Return(false, false, nil)

			Expect(svc.Delete(ctx, 42, 8)).To(Equal(notification.ErrNotFound))
		})
	})

	Context("UnreadCount", func() {

		It("serves a cached value without touching the store", func() {
			counter.EXPECT().Get(ctx, int64(7)).Return(int64(3), true, nil)
			pers.EXPECT().CountUnread(gomock.Any(), gomock.Any()).Times(0)

			count, err := svc.UnreadCount(ctx, 7)
			Expect(err).To(BeNil())
			Expect(count).To(Equal(int64(3)))
		})

		It("recomputes from the store and writes through on a miss", func() {
			counter.EXPECT().Get(ctx, int64(7)).Return(int64(0), false, nil)
			pers.EXPECT().CountUnread(ctx, int64(7)).Return(int64(12), nil)
			counter.EXPECT().Set(ctx, int64(7), int64(12), time.Hour).Return(nil)

			count, err := svc.UnreadCount(ctx, 7)
			Expect(err).To(BeNil())
			Expect(count).To(Equal(int64(12)))
		})

		It("falls back to the store when the cache read fails", func() {
			counter.EXPECT().Get(ctx, int64(7)).Return(int64(0), false, context.DeadlineExceeded)
			pers.EXPECT().CountUnread(ctx, int64(7)).Return(int64(2), nil)
			counter.EXPECT().Set(ctx, int64(7), int64(2), time.Hour).Return(nil)

			count, err := svc.UnreadCount(ctx, 7)
			Expect(err).To(BeNil())
			Expect(count).To(Equal(int64(2)))
		})
	})

	Context("Preferences", func() {

		It("round-trips an update through the upsert", func() {
			pers.EXPECT().UpsertPreferences(ctx, int64(7), gomock.Any()).DoAndReturn(
				func(_ context.Context, _ int64, row *storage.Preferences) (*storage.Preferences, error) {
					Expect(row.HazardAlerts).To(BeFalse())
					Expect(row.SoundEnabled).To(BeTrue())
					row.UpdatedAt = time.Now().UTC()
					return row, nil
				})

			updated, err := svc.UpdatePreferences(ctx, 7, &notification.Preferences{
				HazardAlerts:        false,
				RouteUpdates:        true,
				AIResponses:         true,
				SystemNotifications: true,
				SoundEnabled:        true,
			})
			Expect(err).To(BeNil())
			Expect(updated.HazardAlerts).To(BeFalse())
		})
	})
})
