package kafka

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/fars-census-service/internal/domain"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func intPtr(n int) *int { return &n }

func sampleTable() domain.SummaryTable {
	return domain.SummaryTable{
		Years: []int{2013, 2014},
		Rows: []domain.SummaryRow{
			{Month: 1, Counts: []*int{intPtr(3), nil}},
			{Month: 2, Counts: []*int{intPtr(1), intPtr(4)}},
		},
		GeneratedAt: time.Date(2024, 4, 27, 6, 0, 0, 0, time.UTC),
	}
}

func TestSerializeSummary(t *testing.T) {
	msgs, err := serializeSummary("rep-1", sampleTable())
	require.NoError(t, err)
	require.Len(t, msgs, 3, "null cells are skipped")

	assert.Equal(t, []byte("2013-01"), msgs[0].Key)
	assert.Equal(t, []byte("2013-02"), msgs[1].Key)
	assert.Equal(t, []byte("2014-02"), msgs[2].Key)

	var cell MonthlyCount
	require.NoError(t, json.Unmarshal(msgs[2].Value, &cell))
	assert.Equal(t, "rep-1", cell.ReportID)
	assert.Equal(t, 2014, cell.Year)
	assert.Equal(t, 2, cell.Month)
	assert.Equal(t, 4, cell.Accidents)

	assert.Len(t, msgs[0].Headers, 2)
	assert.Equal(t, "report_id", msgs[0].Headers[0].Key)
	assert.Equal(t, []byte("rep-1"), msgs[0].Headers[0].Value)
	assert.Equal(t, "generated_at", msgs[0].Headers[1].Key)
	assert.Equal(t, []byte("2024-04-27T06:00:00Z"), msgs[0].Headers[1].Value)
}

func TestPublishSummary(t *testing.T) {
	fw := &fakeWriter{}
	w := &Writer{writer: fw, logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))}

	reportID, err := w.PublishSummary(context.Background(), sampleTable())
	require.NoError(t, err)
	assert.Len(t, reportID, 36)
	require.Len(t, fw.msgs, 3)
	for _, m := range fw.msgs {
		assert.Equal(t, []byte(reportID), m.Headers[0].Value)
	}

	require.NoError(t, w.Close())
	assert.True(t, fw.closed)
}

func TestPublishSummary_Empty(t *testing.T) {
	fw := &fakeWriter{}
	w := &Writer{writer: fw, logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))}

	_, err := w.PublishSummary(context.Background(), domain.SummaryTable{})
	require.NoError(t, err)
	assert.Empty(t, fw.msgs)
}

func TestPublishSummary_WriteError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("broker unavailable")}
	w := &Writer{writer: fw, logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))}

	_, err := w.PublishSummary(context.Background(), sampleTable())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
}
