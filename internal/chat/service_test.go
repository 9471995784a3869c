package chat

import (
	"context"
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestSendPersistsAndBroadcastsFullList(t *testing.T) {
	mock := newMock(t)
	hub := NewHub(nil)
	sub := hub.Subscribe("pin-1")
	defer hub.Unsubscribe(sub)

	mock.ExpectExec(`INSERT INTO chat_messages`).
		WithArgs(pgxmock.AnyArg(), "pin-1", "user-1", "buzz", "M1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT id, pin_id, sender_id, username, message, sent_at`).
		WithArgs("pin-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "pin_id", "sender_id", "username", "message", "sent_at"}).
			AddRow("k1", "pin-1", "user-1", "buzz", "M1", int64(1000)))

	svc := NewService(mock, hub)
	msg, err := svc.Send(context.Background(), "pin-1", "user-1", "buzz", "M1")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.ID == "" || msg.Timestamp == 0 {
		t.Fatalf("expected push key and timestamp, got %+v", msg)
	}

	select {
	case payload := <-sub.Send:
		var list []Message
		if err := json.Unmarshal(payload, &list); err != nil {
			t.Fatalf("unmarshal broadcast: %v", err)
		}
		if len(list) != 1 || list[0].Message != "M1" {
			t.Fatalf("expected full list broadcast, got %v", list)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for broadcast")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSendRequiresSender(t *testing.T) {
	svc := NewService(nil, nil)
	if _, err := svc.Send(context.Background(), "pin-1", "", "buzz", "hi"); err == nil {
		t.Fatalf("expected error for missing sender")
	}
}

func TestHistoryOrdered(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT id, pin_id, sender_id, username, message, sent_at`).
		WithArgs("pin-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "pin_id", "sender_id", "username", "message", "sent_at"}).
			AddRow("k1", "pin-1", "u1", "a", "M1", int64(1000)).
			AddRow("k2", "pin-1", "u2", "b", "M2", int64(2000)).
			AddRow("k3", "pin-1", "u1", "a", "M3", int64(3000)))

	svc := NewService(mock, nil)
	msgs, err := svc.History(context.Background(), "pin-1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(msgs) != 3 || msgs[0].Message != "M1" || msgs[1].Message != "M2" || msgs[2].Message != "M3" {
		t.Fatalf("expected [M1 M2 M3] in order, got %v", msgs)
	}
}

func TestPushKeysSortInSendOrder(t *testing.T) {
	base := time.Now()
	keys := []string{
		newPushKey(base),
		newPushKey(base.Add(time.Millisecond)),
		newPushKey(base.Add(2 * time.Millisecond)),
	}
	if !sort.StringsAreSorted(keys) {
		t.Fatalf("expected push keys in lexicographic send order: %v", keys)
	}
}
