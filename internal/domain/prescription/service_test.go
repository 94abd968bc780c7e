package prescription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/medminder/go-mas/internal/domain/reminder"
)

type fakeStore struct {
	saved []*Prescription
	err   error
}

func (f *fakeStore) Save(_ context.Context, p *Prescription) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, p)
	return nil
}

type fakeReminderStore struct {
	saved  []*reminder.Reminder
	events []*reminder.Event
}

func (f *fakeReminderStore) Save(_ context.Context, rem *reminder.Reminder, events ...*reminder.Event) error {
	f.saved = append(f.saved, rem)
	f.events = append(f.events, events...)
	return nil
}

type fakeOCR struct {
	text string
	err  error
}

func (f *fakeOCR) Recognize(context.Context, string) (string, error) {
	return f.text, f.err
}

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	}
}

func TestProcessScanFromText(t *testing.T) {
	store := &fakeStore{}
	rems := &fakeReminderStore{}
	svc := NewService(store, rems, nil, nil).WithClock(fixedClock())

	result, err := svc.ProcessScan(context.Background(), ScanRequest{
		UserID: "user-1",
		Text:   "Paracetamol 500mg twice daily",
	})
	if err != nil {
		t.Fatalf("ProcessScan: %v", err)
	}

	p := result.Prescription
	if len(p.Medicines) != 1 || p.Medicines[0].Name != "Paracetamol" {
		t.Fatalf("medicines = %+v", p.Medicines)
	}
	if p.Confidence <= 0 {
		t.Errorf("confidence = %d, want positive", p.Confidence)
	}
	if !p.IsProcessed || p.Status != StatusActive {
		t.Errorf("processed=%v status=%s", p.IsProcessed, p.Status)
	}

	if len(result.Reminders) != 1 {
		t.Fatalf("got %d reminders, want 1", len(result.Reminders))
	}
	rem := result.Reminders[0]
	if rem.PrescriptionID != p.ID {
		t.Errorf("reminder prescription id = %s, want %s", rem.PrescriptionID, p.ID)
	}
	// The dosage shape wins over the frequency shape on the same line, so
	// the synthesized schedule is the single-dose default.
	if len(rem.Schedule.Times) != 1 {
		t.Errorf("got %d slots, want 1", len(rem.Schedule.Times))
	}
	if rem.NextDue == nil {
		t.Error("next due not computed")
	}

	if len(store.saved) != 1 {
		t.Errorf("prescription not persisted")
	}
	if len(rems.events) != 1 || rems.events[0].EventType != reminder.EventReminderCreated {
		t.Errorf("events = %+v", rems.events)
	}
}

func TestProcessScanRecognizesImage(t *testing.T) {
	store := &fakeStore{}
	rems := &fakeReminderStore{}
	svc := NewService(store, rems, &fakeOCR{text: "Amoxicillin 250 mg"}, nil).WithClock(fixedClock())

	result, err := svc.ProcessScan(context.Background(), ScanRequest{
		UserID:   "user-1",
		ImageURL: "https://cdn.example.com/scan.jpg",
	})
	if err != nil {
		t.Fatalf("ProcessScan: %v", err)
	}
	if result.Prescription.OriginalText != "Amoxicillin 250 mg" {
		t.Errorf("original text = %q", result.Prescription.OriginalText)
	}
	if len(result.Reminders) != 1 {
		t.Fatalf("got %d reminders, want 1", len(result.Reminders))
	}
}

func TestProcessScanOCRFailure(t *testing.T) {
	svc := NewService(&fakeStore{}, &fakeReminderStore{}, &fakeOCR{err: errors.New("service down")}, nil)

	_, err := svc.ProcessScan(context.Background(), ScanRequest{
		UserID:   "user-1",
		ImageURL: "https://cdn.example.com/scan.jpg",
	})
	if err == nil {
		t.Fatal("expected error when recognition fails")
	}
}

func TestProcessScanImageWithoutClient(t *testing.T) {
	svc := NewService(&fakeStore{}, &fakeReminderStore{}, nil, nil)

	_, err := svc.ProcessScan(context.Background(), ScanRequest{
		UserID:   "user-1",
		ImageURL: "https://cdn.example.com/scan.jpg",
	})
	if err == nil {
		t.Fatal("expected error without ocr client")
	}
}

func TestProcessScanNoMatches(t *testing.T) {
	store := &fakeStore{}
	rems := &fakeReminderStore{}
	svc := NewService(store, rems, nil, nil).WithClock(fixedClock())

	result, err := svc.ProcessScan(context.Background(), ScanRequest{
		UserID: "user-1",
		Text:   "no recognizable content here",
	})
	if err != nil {
		t.Fatalf("ProcessScan: %v", err)
	}
	if len(result.Prescription.Medicines) != 0 {
		t.Errorf("medicines = %+v, want none", result.Prescription.Medicines)
	}
	if result.Prescription.Confidence != 0 {
		t.Errorf("confidence = %d, want 0", result.Prescription.Confidence)
	}
	if len(result.Reminders) != 0 {
		t.Errorf("got %d reminders, want 0", len(result.Reminders))
	}
	if len(store.saved) != 1 {
		t.Error("empty scan should still be persisted")
	}
}
