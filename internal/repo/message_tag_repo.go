package repo

import (
	"context"
	"strings"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"

	"github.com/xxxsen/unmask/internal/model"
	"github.com/xxxsen/unmask/internal/pkg/timeutil"
)

const defaultTagSearchLimit = 100

type TaggedMessage struct {
	MessageID int64
	Tags      []model.Tag
}

type MessageTagRepo struct {
	db *sqlx.DB
}

func NewMessageTagRepo(db *sqlx.DB) *MessageTagRepo {
	return &MessageTagRepo{db: db}
}

// ReplaceBatch swaps the stored tags of every message in batch inside one
// transaction, so re-tagging never accumulates rows.
func (r *MessageTagRepo) ReplaceBatch(ctx context.Context, batch []TaggedMessage) error {
	if len(batch) == 0 {
		return nil
	}
	ids := make([]interface{}, 0, len(batch))
	rows := make([]map[string]interface{}, 0, len(batch)*3)
	now := timeutil.NowUnix()
	for _, item := range batch {
		ids = append(ids, item.MessageID)
		for seq, tag := range item.Tags {
			rows = append(rows, map[string]interface{}{
				"message_id": item.MessageID,
				"seq":        seq,
				"category":   string(tag.Category),
				"type":       tag.Type,
				"score":      tag.Score,
				"context":    tag.Context,
				"valence":    string(tag.Valence),
				"value":      tag.Value,
				"length":     tag.Length,
				"ctime":      now,
			})
		}
	}
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		sqlStr, args, err := builder.BuildDelete("message_tags", map[string]interface{}{"message_id in": ids})
		if err != nil {
			return err
		}
		sqlStr, args = finalize(tx, sqlStr, args)
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		sqlStr, args, err = builder.BuildInsert("message_tags", rows)
		if err != nil {
			return err
		}
		sqlStr, args = finalize(tx, sqlStr, args)
		_, err = tx.ExecContext(ctx, sqlStr, args...)
		return err
	})
}

func (r *MessageTagRepo) ListByMessage(ctx context.Context, messageID int64) ([]model.Tag, error) {
	where := map[string]interface{}{"message_id": messageID, "_orderby": "seq asc"}
	sqlStr, args, err := builder.BuildSelect("message_tags", where,
		[]string{"message_id", "category", "type", "score", "context", "valence", "value", "length"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = finalize(r.db, sqlStr, args)
	rows, err := r.db.QueryxContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tags := make([]model.Tag, 0)
	for rows.Next() {
		var tag model.Tag
		var category, valence string
		if err := rows.Scan(&tag.MessageID, &category, &tag.Type, &tag.Score, &tag.Context, &valence, &tag.Value, &tag.Length); err != nil {
			return nil, err
		}
		tag.Category = model.Category(category)
		tag.Valence = model.Valence(valence)
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// Search returns tags joined with their messages, newest message first.
// A negative limit returns every match.
func (r *MessageTagRepo) Search(ctx context.Context, q model.TagQuery) ([]model.TagHit, error) {
	var conds []string
	var args []interface{}
	if q.Category != "" {
		conds = append(conds, "t.category = ?")
		args = append(args, string(q.Category))
	}
	if q.Type != "" {
		conds = append(conds, "t.type = ?")
		args = append(args, q.Type)
	}
	if q.Sender != "" {
		if q.Sender == model.OwnerSender {
			conds = append(conds, "(m.sender = ? OR m.sender = '')")
		} else {
			conds = append(conds, "m.sender = ?")
		}
		args = append(args, q.Sender)
	}
	if q.MinIntensity > 0 {
		conds = append(conds, "t.score >= ?")
		args = append(args, q.MinIntensity)
	}
	sqlStr := "SELECT m.id, m.ts, m.sender, m.direction, m.message, m.attachment, m.ctime, " +
		"t.category, t.type, t.score, t.context, t.valence, t.value, t.length " +
		"FROM message_tags t JOIN messages m ON m.id = t.message_id"
	if len(conds) > 0 {
		sqlStr += " WHERE " + strings.Join(conds, " AND ")
	}
	sqlStr += " ORDER BY m.ts DESC, m.id DESC, t.seq ASC"
	limit := q.Limit
	if limit == 0 {
		limit = defaultTagSearchLimit
	}
	if limit > 0 {
		sqlStr += " LIMIT ?"
		args = append(args, limit)
	}
	sqlStr, args = finalize(r.db, sqlStr, args)
	rows, err := r.db.QueryxContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	hits := make([]model.TagHit, 0)
	for rows.Next() {
		var hit model.TagHit
		var category, valence string
		msg, err := scanMessage(rows, &category, &hit.Tag.Type, &hit.Tag.Score, &hit.Tag.Context, &valence, &hit.Tag.Value, &hit.Tag.Length)
		if err != nil {
			return nil, err
		}
		hit.Message = msg
		hit.Tag.MessageID = msg.ID
		hit.Tag.Category = model.Category(category)
		hit.Tag.Valence = model.Valence(valence)
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

func (r *MessageTagRepo) CountTaggedMessages(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowxContext(ctx, "SELECT COUNT(DISTINCT message_id) FROM message_tags").Scan(&n)
	return n, err
}
