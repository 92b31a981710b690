package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/XuanNguyenNB/QuanLyThuChi-Bot-Telegram-Zalom/internal/model"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		telegram_id BIGINT UNIQUE,
		zalo_id VARCHAR(100) UNIQUE,
		username VARCHAR(255),
		full_name VARCHAR(255),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS categories (
		id SERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		keywords TEXT,
		type VARCHAR(10) NOT NULL DEFAULT 'EXPENSE'
	);
	CREATE TABLE IF NOT EXISTS transactions (
		id SERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		amount FLOAT NOT NULL,
		category_id BIGINT REFERENCES categories(id),
		note TEXT,
		raw_text TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS user_keywords (
		id SERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		keyword VARCHAR(100) NOT NULL,
		category_id BIGINT NOT NULL REFERENCES categories(id),
		match_count INT NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (user_id, keyword)
	);`
	_, err := s.db.Exec(query)
	return err
}

// SeedDefaultCategories chỉ seed khi bảng còn trống (chạy một lần lúc deploy)
func (s *PostgresStore) SeedDefaultCategories() error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM categories`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, c := range model.DefaultCategories() {
		_, err := s.db.Exec(
			`INSERT INTO categories (name, keywords, type) VALUES ($1, $2, $3)`,
			c.Name, c.Keywords, string(c.Type),
		)
		if err != nil {
			return fmt.Errorf("seed danh mục %q: %w", c.Name, err)
		}
	}
	return nil
}

// GetOrCreateUser tra user theo telegram_id hoặc zalo_id, chưa có thì tạo mới
func (s *PostgresStore) GetOrCreateUser(telegramID int64, zaloID, username, fullName string) (model.User, error) {
	var u model.User
	var query string
	var arg interface{}

	switch {
	case telegramID != 0:
		query = `SELECT id, COALESCE(telegram_id, 0), COALESCE(zalo_id, ''), COALESCE(username, ''), COALESCE(full_name, ''), created_at
			FROM users WHERE telegram_id = $1`
		arg = telegramID
	case zaloID != "":
		query = `SELECT id, COALESCE(telegram_id, 0), COALESCE(zalo_id, ''), COALESCE(username, ''), COALESCE(full_name, ''), created_at
			FROM users WHERE zalo_id = $1`
		arg = zaloID
	default:
		return u, fmt.Errorf("thiếu cả telegram_id lẫn zalo_id")
	}

	err := s.db.QueryRow(query, arg).Scan(&u.ID, &u.TelegramID, &u.ZaloID, &u.Username, &u.FullName, &u.CreatedAt)
	if err == nil {
		return u, nil
	}
	if err != sql.ErrNoRows {
		return u, err
	}

	err = s.db.QueryRow(
		`INSERT INTO users (telegram_id, zalo_id, username, full_name)
		 VALUES (NULLIF($1, 0), NULLIF($2, ''), $3, $4)
		 RETURNING id, created_at`,
		telegramID, zaloID, username, fullName,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return u, err
	}
	u.TelegramID = telegramID
	u.ZaloID = zaloID
	u.Username = username
	u.FullName = fullName
	return u, nil
}

// ListCategories trả về danh mục theo đúng thứ tự seed (ORDER BY id)
func (s *PostgresStore) ListCategories() ([]model.Category, error) {
	rows, err := s.db.Query(`SELECT id, name, COALESCE(keywords, ''), type FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []model.Category
	for rows.Next() {
		var c model.Category
		var typ string
		if err := rows.Scan(&c.ID, &c.Name, &c.Keywords, &typ); err != nil {
			return nil, err
		}
		c.Type = model.TransactionType(typ)
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// CreateTransaction lưu giao dịch mới, trả về ID để bot gắn vào callback
func (s *PostgresStore) CreateTransaction(t model.Transaction) (int64, error) {
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	var id int64
	err := s.db.QueryRow(
		`INSERT INTO transactions (user_id, amount, category_id, note, raw_text, created_at)
		 VALUES ($1, $2, NULLIF($3, 0), $4, $5, $6)
		 RETURNING id`,
		t.UserID, t.Amount, t.CategoryID, t.Note, t.RawText, createdAt,
	).Scan(&id)
	return id, err
}

// GetByPeriod lấy giao dịch của user trong khoảng [start, end)
func (s *PostgresStore) GetByPeriod(userID int64, start, end time.Time) ([]model.Transaction, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, amount, COALESCE(category_id, 0), COALESCE(note, ''), COALESCE(raw_text, ''), created_at
		 FROM transactions
		 WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
		 ORDER BY created_at DESC`,
		userID, start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.CategoryID, &t.Note, &t.RawText, &t.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// GetLastTransaction lấy giao dịch mới nhất của user (cho lệnh /undo).
// Trả về nil, nil khi user chưa có giao dịch nào.
func (s *PostgresStore) GetLastTransaction(userID int64) (*model.Transaction, error) {
	var t model.Transaction
	err := s.db.QueryRow(
		`SELECT id, user_id, amount, COALESCE(category_id, 0), COALESCE(note, ''), COALESCE(raw_text, ''), created_at
		 FROM transactions WHERE user_id = $1 ORDER BY id DESC LIMIT 1`,
		userID,
	).Scan(&t.ID, &t.UserID, &t.Amount, &t.CategoryID, &t.Note, &t.RawText, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTransaction xóa giao dịch, chỉ khi giao dịch thuộc về user
func (s *PostgresStore) DeleteTransaction(id, userID int64) (*model.Transaction, error) {
	var t model.Transaction
	err := s.db.QueryRow(
		`DELETE FROM transactions WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, amount, COALESCE(category_id, 0), COALESCE(note, ''), COALESCE(raw_text, ''), created_at`,
		id, userID,
	).Scan(&t.ID, &t.UserID, &t.Amount, &t.CategoryID, &t.Note, &t.RawText, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTransactionCategory đổi danh mục một giao dịch (user bấm chọn lại)
func (s *PostgresStore) UpdateTransactionCategory(txID, categoryID int64) error {
	_, err := s.db.Exec(
		`UPDATE transactions SET category_id = $2 WHERE id = $1`,
		txID, categoryID,
	)
	return err
}

// GetUserKeyword tra mapping chính xác theo (user_id, keyword).
// Trả về nil, nil khi chưa có mapping.
func (s *PostgresStore) GetUserKeyword(userID int64, keyword string) (*model.UserKeyword, error) {
	var uk model.UserKeyword
	err := s.db.QueryRow(
		`SELECT id, user_id, keyword, category_id, match_count, created_at, updated_at
		 FROM user_keywords WHERE user_id = $1 AND keyword = $2`,
		userID, keyword,
	).Scan(&uk.ID, &uk.UserID, &uk.Keyword, &uk.CategoryID, &uk.MatchCount, &uk.CreatedAt, &uk.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &uk, nil
}

// ListUserKeywords lấy toàn bộ từ khóa user đã dạy bot
func (s *PostgresStore) ListUserKeywords(userID int64) ([]model.UserKeyword, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, keyword, category_id, match_count, created_at, updated_at
		 FROM user_keywords WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var kws []model.UserKeyword
	for rows.Next() {
		var uk model.UserKeyword
		if err := rows.Scan(&uk.ID, &uk.UserID, &uk.Keyword, &uk.CategoryID, &uk.MatchCount, &uk.CreatedAt, &uk.UpdatedAt); err != nil {
			return nil, err
		}
		kws = append(kws, uk)
	}
	return kws, rows.Err()
}

// UpsertUserKeyword ghi mapping mới hoặc cập nhật cái cũ trong MỘT câu lệnh.
// Unique (user_id, keyword) + ON CONFLICT để không mất update khi user bấm
// chọn danh mục nhiều lần liên tiếp.
func (s *PostgresStore) UpsertUserKeyword(userID int64, keyword string, categoryID int64) error {
	_, err := s.db.Exec(
		`INSERT INTO user_keywords (user_id, keyword, category_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, keyword) DO UPDATE
		 SET category_id = EXCLUDED.category_id,
		     match_count = user_keywords.match_count + 1,
		     updated_at  = CURRENT_TIMESTAMP`,
		userID, keyword, categoryID,
	)
	return err
}

// ListLearnedHints lấy các từ khóa hay dùng nhất kèm tên danh mục (đưa vào prompt AI)
func (s *PostgresStore) ListLearnedHints(userID int64, limit int) ([]model.LearnedHint, error) {
	rows, err := s.db.Query(
		`SELECT uk.keyword, c.name
		 FROM user_keywords uk
		 JOIN categories c ON c.id = uk.category_id
		 WHERE uk.user_id = $1
		 ORDER BY uk.match_count DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hints []model.LearnedHint
	for rows.Next() {
		var h model.LearnedHint
		if err := rows.Scan(&h.Keyword, &h.CategoryName); err != nil {
			return nil, err
		}
		hints = append(hints, h)
	}
	return hints, rows.Err()
}

// GetAllTelegramIDs lấy danh sách telegram_id để gửi bản tin định kỳ
func (s *PostgresStore) GetAllTelegramIDs() ([]int64, error) {
	rows, err := s.db.Query(`SELECT telegram_id FROM users WHERE telegram_id IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
