package gateway_test

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/snowguard/notifications-service/internal/auth"
	"github.com/snowguard/notifications-service/internal/gateway"
	"github.com/snowguard/notifications-service/internal/notification"
	"github.com/snowguard/notifications-service/internal/notification/notificationmocks"
)

const gatewaySecret = "gateway-test-secret"

// frame is the union of the server's push and ack shapes, classified by which
// fields are populated.
type frame struct {
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data"`
	ID      int64           `json:"id"`
	Success *bool           `json:"success"`
	Count   *int64          `json:"count"`
	Error   string          `json:"error"`
}

func readFrame(conn *websocket.Conn) (*frame, error) {
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	f := &frame{}
	if err = json.Unmarshal(payload, f); err != nil {
		return nil, err
	}
	return f, nil
}

var _ = Describe("Connection gateway", func() {

	var (
		ctrl      *gomock.Controller
		mockedSvc *notificationmocks.MockManager
		hub       *gateway.Hub
		server    *httptest.Server
		wsURL     string
		conns     []*websocket.Conn
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		mockedSvc = notificationmocks.NewMockManager(ctrl)
		hub = gateway.NewHub()
		handler := gateway.NewHandler(hub, mockedSvc, auth.NewVerifier(gatewaySecret))
		router := httprouter.New()
		router.GET("/ws", handler.Serve)
		server = httptest.NewServer(router)
		wsURL = "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
		conns = nil
	})

	AfterEach(func() {
		for _, conn := range conns {
			_ = conn.Close()
		}
		server.Close()
	})

	connect := func(userID int64) *websocket.Conn {
		token, err := auth.GenerateToken(gatewaySecret, userID, "user@snowguard.dev", time.Minute)
		Expect(err).To(BeNil())
		conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
		Expect(err).To(BeNil())
		conns = append(conns, conn)
		return conn
	}

	Context("handshake without a credential", func() {
		It("is rejected before any room join or sync", func() {
			mockedSvc.EXPECT().UnreadCount(gomock.Any(), gomock.Any()).Times(0)

			_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
			Expect(err).ToNot(BeNil())
			Expect(resp.StatusCode).To(Equal(401))
			Expect(hub.ConnectionCount()).To(Equal(0))
		})
	})

	Context("handshake with an expired credential", func() {
		It("is rejected outright", func() {
			mockedSvc.EXPECT().UnreadCount(gomock.Any(), gomock.Any()).Times(0)

			token, err := auth.GenerateToken(gatewaySecret, 7, "user@snowguard.dev", -time.Minute)
			Expect(err).To(BeNil())
			_, resp, errDial := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
			Expect(errDial).ToNot(BeNil())
			Expect(resp.StatusCode).To(Equal(401))
		})
	})

	Context("a fresh connection", func() {
		It("receives the current unread count without asking", func() {
			mockedSvc.EXPECT().UnreadCount(gomock.Any(), int64(7)).Return(int64(3), nil).Times(1)

			conn := connect(7)
			f, err := readFrame(conn)
			Expect(err).To(BeNil())
			Expect(f.Event).To(Equal("unread-count"))
			Expect(string(f.Data)).To(Equal("3"))
			Expect(hub.ConnectionCount()).To(Equal(1))
		})
	})

	Context("two sessions of the same user", func() {
		It("both receive one upstream push and the refreshed count after mark-all-read", func() {
			mockedSvc.EXPECT().UnreadCount(gomock.Any(), int64(7)).Return(int64(1), nil).Times(2)

			first := connect(7)
			second := connect(7)
			for _, conn := range []*websocket.Conn{first, second} {
				f, err := readFrame(conn)
				Expect(err).To(BeNil())
				Expect(f.Event).To(Equal("unread-count"))
			}

			pushed := &notification.Notification{
				ID:       42,
				UserID:   7,
				Type:     notification.TypeHazardAlert,
				Title:    "🚨 SEVERE Hazard Alert",
				Severity: notification.SeverityDanger,
			}
			hub.PushNotification(7, pushed)
			for _, conn := range []*websocket.Conn{first, second} {
				f, err := readFrame(conn)
				Expect(err).To(BeNil())
				Expect(f.Event).To(Equal("notification"))
				got := &notification.Notification{}
				Expect(json.Unmarshal(f.Data, got)).To(BeNil())
				Expect(got.ID).To(Equal(int64(42)))
				Expect(got.Title).To(ContainSubstring("SEVERE"))
			}

			mockedSvc.EXPECT().MarkAllAsRead(gomock.Any(), int64(7)).Return(nil).Times(1)
			err := first.WriteJSON(map[string]interface{}{"id": 1, "action": "mark-all:read"})
			Expect(err).To(BeNil())

			// issuer sees the room broadcast first, then its ack
			f, err := readFrame(first)
			Expect(err).To(BeNil())
			Expect(f.Event).To(Equal("unread-count"))
			Expect(string(f.Data)).To(Equal("0"))

			f, err = readFrame(first)
			Expect(err).To(BeNil())
			Expect(f.ID).To(Equal(int64(1)))
			Expect(f.Success).ToNot(BeNil())
			Expect(*f.Success).To(BeTrue())

			// the sibling session only sees the broadcast
			f, err = readFrame(second)
			Expect(err).To(BeNil())
			Expect(f.Event).To(Equal("unread-count"))
			Expect(string(f.Data)).To(Equal("0"))
		})
	})

	Context("get:unread-count command", func() {
		It("answers the caller with the count", func() {
			gomock.InOrder(
				mockedSvc.EXPECT().UnreadCount(gomock.Any(), int64(7)).Return(int64(2), nil),
				mockedSvc.EXPECT().UnreadCount(gomock.Any(), int64(7)).Return(int64(2), nil),
			)

			conn := connect(7)
			_, err := readFrame(conn) // initial sync
			Expect(err).To(BeNil())

			Expect(conn.WriteJSON(map[string]interface{}{"id": 9, "action": "get:unread-count"})).To(BeNil())
			f, err := readFrame(conn)
			Expect(err).To(BeNil())
			Expect(f.ID).To(Equal(int64(9)))
			Expect(*f.Success).To(BeTrue())
			Expect(*f.Count).To(Equal(int64(2)))
		})
	})

	Context("mark:read on a row the user does not own", func() {
		It("acks a structured failure and keeps the connection alive", func() {
			mockedSvc.EXPECT().UnreadCount(gomock.Any(), int64(7)).Return(int64(0), nil).Times(1)
			mockedSvc.EXPECT().MarkAsRead(gomock.Any(), int64(99), int64(7)).
				Return(notification.ErrNotFound).Times(1)

			conn := connect(7)
			_, err := readFrame(conn) // initial sync
			Expect(err).To(BeNil())

			Expect(conn.WriteJSON(map[string]interface{}{
				"id": 2, "action": "mark:read", "notificationId": 99,
			})).To(BeNil())
			f, err := readFrame(conn)
			Expect(err).To(BeNil())
			Expect(f.ID).To(Equal(int64(2)))
			Expect(*f.Success).To(BeFalse())
			Expect(f.Error).To(Equal("notification not found"))

			// connection still serves commands
			mockedSvc.EXPECT().UnreadCount(gomock.Any(), int64(7)).Return(int64(0), nil).Times(1)
			Expect(conn.WriteJSON(map[string]interface{}{"id": 3, "action": "get:unread-count"})).To(BeNil())
			f, err = readFrame(conn)
			Expect(err).To(BeNil())
			Expect(f.ID).To(Equal(int64(3)))
			Expect(*f.Success).To(BeTrue())
		})
	})

	Context("unknown command", func() {
		It("acks a failure without touching the service", func() {
			mockedSvc.EXPECT().UnreadCount(gomock.Any(), int64(7)).Return(int64(0), nil).Times(1)

			conn := connect(7)
			_, err := readFrame(conn) // initial sync
			Expect(err).To(BeNil())

			Expect(conn.WriteJSON(map[string]interface{}{"id": 4, "action": "snooze:all"})).To(BeNil())
			f, err := readFrame(conn)
			Expect(err).To(BeNil())
			Expect(f.ID).To(Equal(int64(4)))
			Expect(*f.Success).To(BeFalse())
			Expect(f.Error).To(Equal("unknown action"))
		})
	})
})
