package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"

	"github.com/xxxsen/unmask/internal/model"
	appErr "github.com/xxxsen/unmask/internal/pkg/errors"
	"github.com/xxxsen/unmask/internal/pkg/timeutil"
)

var messageColumns = []string{"id", "ts", "sender", "direction", "message", "attachment", "ctime"}

type MessageFilter struct {
	From  time.Time
	To    time.Time
	Limit int
}

type MessageRepo struct {
	db *sqlx.DB
}

func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// InsertBatch stores msgs in one statement, skipping ids that already exist.
// It returns the number of rows actually inserted.
func (r *MessageRepo) InsertBatch(ctx context.Context, msgs []model.Message) (int, error) {
	if len(msgs) == 0 {
		return 0, nil
	}
	rows := make([]map[string]interface{}, 0, len(msgs))
	for _, m := range msgs {
		rows = append(rows, map[string]interface{}{
			"id":         m.ID,
			"ts":         m.Timestamp.Unix(),
			"sender":     m.Sender,
			"direction":  string(m.Direction),
			"message":    m.Text,
			"attachment": m.Attachment,
			"ctime":      m.Ctime,
		})
	}
	sqlStr, args, err := builder.BuildInsert("messages", rows)
	if err != nil {
		return 0, err
	}
	sqlStr, args = finalize(r.db, sqlStr+" ON CONFLICT (id) DO NOTHING", args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// List returns messages in ascending (timestamp, id) order.
func (r *MessageRepo) List(ctx context.Context, filter MessageFilter) ([]model.Message, error) {
	where := map[string]interface{}{"_orderby": "ts asc, id asc"}
	if !filter.From.IsZero() {
		where["ts >="] = filter.From.Unix()
	}
	if !filter.To.IsZero() {
		where["ts <"] = filter.To.Unix()
	}
	if filter.Limit > 0 {
		where["_limit"] = []uint{0, uint(filter.Limit)}
	}
	return r.query(ctx, where)
}

func (r *MessageRepo) Page(ctx context.Context, search string, limit, offset int) ([]model.Message, int64, error) {
	where := map[string]interface{}{"_orderby": "ts asc, id asc"}
	countSQL := "SELECT COUNT(*) FROM messages"
	var countArgs []interface{}
	if search != "" {
		where["_custom_search"] = builder.Custom("message LIKE ?", "%"+search+"%")
		countSQL += " WHERE message LIKE ?"
		countArgs = append(countArgs, "%"+search+"%")
	}
	if offset < 0 {
		offset = 0
	}
	where["_limit"] = []uint{uint(offset), uint(limit)}
	items, err := r.query(ctx, where)
	if err != nil {
		return nil, 0, err
	}
	sqlStr, args := finalize(r.db, countSQL, countArgs)
	var total int64
	if err := r.db.QueryRowxContext(ctx, sqlStr, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *MessageRepo) Get(ctx context.Context, id int64) (*model.Message, error) {
	items, err := r.query(ctx, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &items[0], nil
}

func (r *MessageRepo) MaxID(ctx context.Context) (int64, error) {
	var id sql.NullInt64
	if err := r.db.QueryRowxContext(ctx, "SELECT MAX(id) FROM messages").Scan(&id); err != nil {
		return 0, err
	}
	return id.Int64, nil
}

func (r *MessageRepo) query(ctx context.Context, where map[string]interface{}) ([]model.Message, error) {
	sqlStr, args, err := builder.BuildSelect("messages", where, messageColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = finalize(r.db, sqlStr, args)
	rows, err := r.db.QueryxContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row rowScanner, extra ...interface{}) (model.Message, error) {
	var m model.Message
	var ts int64
	var direction string
	dest := append([]interface{}{&m.ID, &ts, &m.Sender, &direction, &m.Text, &m.Attachment, &m.Ctime}, extra...)
	if err := row.Scan(dest...); err != nil {
		return m, err
	}
	m.Timestamp = timeutil.FromUnix(ts)
	m.Direction = model.Direction(direction)
	return m, nil
}
