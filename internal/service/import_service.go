package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/unmask/internal/filestore"
	"github.com/xxxsen/unmask/internal/model"
	appErr "github.com/xxxsen/unmask/internal/pkg/errors"
	"github.com/xxxsen/unmask/internal/pkg/timeutil"
)

type messageWriter interface {
	InsertBatch(ctx context.Context, msgs []model.Message) (int, error)
	MaxID(ctx context.Context) (int64, error)
}

type ImportResult struct {
	Rows       int    `json:"rows"`
	Inserted   int    `json:"inserted"`
	Duplicates int    `json:"duplicates"`
	Skipped    int    `json:"skipped"`
	StoredKey  string `json:"stored_key,omitempty"`
}

type ImportService struct {
	messages  messageWriter
	files     filestore.Store
	batchSize int
}

func NewImportService(messages messageWriter, files filestore.Store, batchSize int) *ImportService {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ImportService{messages: messages, files: files, batchSize: batchSize}
}

type csvColumns map[string]int

func (c csvColumns) get(record []string, name string) string {
	idx, ok := c[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func readHeader(r *csv.Reader) (csvColumns, error) {
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, appErr.ErrImportEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(csvColumns, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		cols[name] = i
	}
	_, hasDateTime := cols["date_time"]
	_, hasDate := cols["date"]
	if _, ok := cols["message"]; !ok || (!hasDateTime && !hasDate) {
		return nil, appErr.ErrImportHeader
	}
	return cols, nil
}

// parseRow turns one CSV record into a message. id is used when the export
// carries no id column.
func parseRow(cols csvColumns, record []string, id int64) (model.Message, error) {
	raw := cols.get(record, "date_time")
	if raw == "" {
		raw = strings.TrimSpace(cols.get(record, "date") + " " + cols.get(record, "time"))
	}
	ts, err := timeutil.ParseTimestamp(raw)
	if err != nil {
		return model.Message{}, err
	}
	if v := cols.get(record, "id"); v != "" {
		id, err = strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return model.Message{}, fmt.Errorf("invalid id %q", v)
		}
	}
	msg := model.Message{
		ID:         id,
		Timestamp:  ts,
		Sender:     cols.get(record, "sender"),
		Text:       cols.get(record, "message"),
		Attachment: cols.get(record, "attachment"),
	}
	switch strings.ToLower(cols.get(record, "type")) {
	case "incoming", "received", "in":
		msg.Direction = model.DirectionIncoming
	case "outgoing", "sent", "out":
		msg.Direction = model.DirectionOutgoing
	case "":
		msg.Direction = model.DirectionIncoming
		if msg.Sender == "" {
			msg.Direction = model.DirectionOutgoing
		}
	default:
		return model.Message{}, fmt.Errorf("unknown message type %q", cols.get(record, "type"))
	}
	return msg, nil
}

// ImportCSV loads a message export into the feed. Rows that cannot be parsed
// are skipped and counted; rows whose id already exists count as duplicates.
func (s *ImportService) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	cols, err := readHeader(reader)
	if err != nil {
		return nil, err
	}
	nextID, err := s.messages.MaxID(ctx)
	if err != nil {
		return nil, fmt.Errorf("load max message id: %w", err)
	}
	logger := logutil.GetLogger(ctx)
	res := &ImportResult{}
	batch := make([]model.Message, 0, s.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := s.messages.InsertBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("insert messages: %w", err)
		}
		res.Inserted += n
		res.Duplicates += len(batch) - n
		batch = batch[:0]
		return nil
	}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				res.Rows++
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("read csv: %w", err)
		}
		res.Rows++
		msg, err := parseRow(cols, record, nextID+1)
		if err != nil {
			logger.Debug("skip import row", zap.Int("row", res.Rows), zap.Error(err))
			res.Skipped++
			continue
		}
		nextID = max(nextID, msg.ID)
		batch = append(batch, msg)
		if len(batch) >= s.batchSize {
			if err := flush(); err != nil {
				return res, err
			}
		}
	}
	if err := flush(); err != nil {
		return res, err
	}
	if res.Rows == 0 {
		return res, appErr.ErrImportEmpty
	}
	logger.Info("import finished",
		zap.Int("rows", res.Rows),
		zap.Int("inserted", res.Inserted),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("skipped", res.Skipped))
	return res, nil
}

// ImportUpload keeps a copy of the uploaded export in the file store before
// importing it.
func (s *ImportService) ImportUpload(ctx context.Context, filename string, r io.ReadSeeker, size int64) (*ImportResult, error) {
	var key string
	if s.files != nil {
		key = path.Join("imports", time.Now().UTC().Format("20060102"), uuid.NewString()+path.Ext(filename))
		if err := s.files.Save(ctx, key, r, size); err != nil {
			return nil, fmt.Errorf("store upload: %w", err)
		}
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewind upload: %w", err)
		}
	}
	res, err := s.ImportCSV(ctx, r)
	if res != nil {
		res.StoredKey = key
	}
	return res, err
}
