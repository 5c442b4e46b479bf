package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 250
)

var ErrInvalidPageToken = errors.New("invalid_page_token")

type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

// Cursor points at the last row of a page in (created_at DESC, id DESC) order.
type Cursor struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token,omitempty"`
	HasMore       bool   `json:"has_more"`
}

func (p Pagination) Size() int {
	switch {
	case p.PageSize <= 0:
		return DefaultPageSize
	case p.PageSize > MaxPageSize:
		return MaxPageSize
	default:
		return p.PageSize
	}
}

func EncodeCursor(data Cursor) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeCursor(data string) (*Cursor, error) {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(data))
	if err != nil {
		return nil, ErrInvalidPageToken
	}

	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil || cursor.ID == 0 {
		return nil, ErrInvalidPageToken
	}
	return &cursor, nil
}

// Apply orders query newest first and positions it after the page token.
// It fetches one extra row so Paginate can report HasMore.
func Apply(query *gorm.DB, table string, page Pagination) (*gorm.DB, error) {
	prefix := ""
	if table != "" {
		prefix = table + "."
	}
	if token := strings.TrimSpace(page.PageToken); token != "" {
		cursor, err := DecodeCursor(token)
		if err != nil {
			return nil, err
		}
		query = query.Where(
			"("+prefix+"created_at < ?) OR ("+prefix+"created_at = ? AND "+prefix+"id < ?)",
			cursor.CreatedAt.UTC(), cursor.CreatedAt.UTC(), cursor.ID,
		)
	}
	return query.
		Order(prefix + "created_at DESC").
		Order(prefix + "id DESC").
		Limit(page.Size() + 1), nil
}

// Paginate trims the look-ahead row and builds the next page token.
func Paginate[T any](rows []T, page Pagination, cursorOf func(T) Cursor) ([]T, PageInfo, error) {
	size := page.Size()
	if len(rows) <= size {
		return rows, PageInfo{}, nil
	}

	rows = rows[:size]
	token, err := EncodeCursor(cursorOf(rows[len(rows)-1]))
	if err != nil {
		return nil, PageInfo{}, err
	}
	return rows, PageInfo{NextPageToken: token, HasMore: true}, nil
}
