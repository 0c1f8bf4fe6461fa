package storage

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/jacksmith/rk/internal/model"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// captureLogger returns a logger writing text records to the returned buffer.
func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func sampleTasks() []model.Record {
	return []model.Record{
		{
			ID: "r1",
			Fields: model.TaskSchema.WithDefaults(map[string]string{
				model.FieldTitle:       "Buy milk",
				model.FieldDescription: `2% fat, "organic"`,
				model.FieldPriority:    model.PriorityHigh,
				model.FieldDueDate:     "2099-01-01",
				model.FieldCategory:    "Errands",
			}),
			Created: testTime,
			Updated: testTime,
		},
		{
			ID: "r2",
			Fields: model.TaskSchema.WithDefaults(map[string]string{
				model.FieldTitle:       "Call plumber",
				model.FieldDescription: "line one\nline two",
				model.FieldStatus:      model.StatusCompleted,
			}),
			Created: testTime.Add(500 * time.Millisecond),
			Updated: time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
		},
	}
}

func sampleContacts() []model.Record {
	return []model.Record{
		{
			ID: "c1",
			Fields: map[string]string{
				model.FieldName:  "Ada Lovelace",
				model.FieldPhone: "+44 20 7946 0000",
				model.FieldEmail: "ada@example.org",
			},
			Created: testTime,
			Updated: testTime,
		},
		{
			ID: "c2",
			Fields: map[string]string{
				model.FieldName:  "Grace \"Amazing\" Hopper",
				model.FieldPhone: "(555) 010-0199",
				model.FieldEmail: "grace@example.org",
			},
			Created: testTime,
			Updated: testTime.Add(time.Hour),
		},
	}
}

// requireSameRecords compares record sets by value, ignoring time location.
func requireSameRecords(t *testing.T, want, got []model.Record) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		require.Equal(t, want[i].ID, got[i].ID)
		require.Equal(t, want[i].Fields, got[i].Fields, "record %s", want[i].ID)
		require.True(t, want[i].Created.Equal(got[i].Created), "record %s created", want[i].ID)
		require.True(t, want[i].Updated.Equal(got[i].Updated), "record %s updated", want[i].ID)
	}
}
