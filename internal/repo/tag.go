package repo

import (
	"context"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker-api/internal/model"
)

type TagRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewTagRepo(pool *pgxpool.Pool, logger *zap.Logger) *TagRepo {
	return &TagRepo{pool: pool, logger: logger}
}

// CreateOrGet возвращает теги с указанными именами, создавая недостающие.
// Параллельная вставка того же имени не создаёт дубликат: конфликт пропускается,
// а строка, вставленная другой транзакцией, дочитывается.
func (r *TagRepo) CreateOrGet(ctx context.Context, names []string) ([]model.Tag, error) {
	names = uniqueNames(names)
	if len(names) == 0 {
		return []model.Tag{}, nil
	}

	q := conn(ctx, r.pool)

	tags, err := r.findByNames(ctx, q, names)
	if err != nil {
		return nil, fail(r.logger, "find tags", err, zap.Int("count", len(names)))
	}

	missing := missingNames(names, tags)
	if len(missing) == 0 {
		return tags, nil
	}
	// блокировки уникального индекса берутся в одном порядке во всех транзакциях,
	// иначе ["x","y"] и ["y","x"] взаимно блокируются до коммита
	slices.Sort(missing)

	rows, err := q.Query(ctx, `
		INSERT INTO tags (name)
		SELECT n FROM unnest($1::text[]) AS n ORDER BY n COLLATE "C"
		ON CONFLICT (name) DO NOTHING
		RETURNING id, name, color
	`, missing)
	if err != nil {
		return nil, fail(r.logger, "create tags", err, zap.Strings("names", missing))
	}
	created, err := collectTags(rows)
	if err != nil {
		return nil, fail(r.logger, "create tags", err, zap.Strings("names", missing))
	}
	tags = append(tags, created...)

	// кто-то успел вставить часть имён между нашим SELECT и INSERT
	if raced := missingNames(missing, created); len(raced) > 0 {
		others, err := r.findByNames(ctx, q, raced)
		if err != nil {
			return nil, fail(r.logger, "find tags", err, zap.Strings("names", raced))
		}
		tags = append(tags, others...)
	}
	return tags, nil
}

func (r *TagRepo) findByNames(ctx context.Context, q DBTX, names []string) ([]model.Tag, error) {
	rows, err := q.Query(ctx, `SELECT id, name, color FROM tags WHERE name = ANY($1)`, names)
	if err != nil {
		return nil, err
	}
	return collectTags(rows)
}

func collectTags(rows pgx.Rows) ([]model.Tag, error) {
	defer rows.Close()

	tags := make([]model.Tag, 0)
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func missingNames(names []string, found []model.Tag) []string {
	have := make(map[string]struct{}, len(found))
	for _, t := range found {
		have[t.Name] = struct{}{}
	}
	var out []string
	for _, n := range names {
		if _, ok := have[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}
