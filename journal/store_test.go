package journal

import (
	"context"
	"path/filepath"
	"testing"

	"i4.energy/across/valvegw/modem"
	"i4.energy/across/valvegw/valve"
)

var _ valve.Journal = (*Store)(nil)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "journal.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordReceived(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	msgs := []struct {
		sms     modem.SMS
		command string
		applied bool
	}{
		{modem.SMS{Index: 1, Sender: "+15551234567", Time: "16/12/22,10:15:00+14", Text: "OpenValve1"}, "OpenValve1", true},
		{modem.SMS{Index: 2, Sender: "+15557654321", Text: "hello"}, "Unknown", false},
	}
	for _, m := range msgs {
		if err := s.RecordReceived(ctx, m.sms, m.command, m.applied); err != nil {
			t.Fatalf("RecordReceived: %v", err)
		}
	}

	rows, err := s.ReceivedMessages(ctx, 10)
	if err != nil {
		t.Fatalf("ReceivedMessages: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Body != "hello" || rows[0].Applied {
		t.Errorf("newest row = %+v", rows[0])
	}
	if rows[1].Sender != "+15551234567" || rows[1].Command != "OpenValve1" || !rows[1].Applied || rows[1].Stamp != "16/12/22,10:15:00+14" {
		t.Errorf("oldest row = %+v", rows[1])
	}

	rows, err = s.ReceivedMessages(ctx, 1)
	if err != nil || len(rows) != 1 {
		t.Errorf("limit 1: %d rows, %v", len(rows), err)
	}
}

func TestRecordSent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.RecordSent(ctx, "+15551234567", "Test", 42, modem.OK); err != nil {
		t.Fatalf("RecordSent: %v", err)
	}
	if err := s.RecordSent(ctx, "+15551234567", "Test", 0, modem.Timeout); err != nil {
		t.Fatalf("RecordSent: %v", err)
	}

	rows, err := s.SentMessages(ctx, 10)
	if err != nil {
		t.Fatalf("SentMessages: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Status != "Timeout" || rows[1].Ref != 42 || rows[1].Status != "OK" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.RecordSent(context.Background(), "+1", "x", 1, modem.OK); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	rows, err := s.SentMessages(context.Background(), 10)
	if err != nil || len(rows) != 1 {
		t.Errorf("after reopen: %d rows, %v", len(rows), err)
	}
}
