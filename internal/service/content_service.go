package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/refexsite/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a content row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidInput wraps payloads that cannot be applied to a row.
	ErrInvalidInput = errors.New("invalid input")
)

// Kind tells tooling whether a section holds one row or an ordered list.
type Kind string

const (
	KindCollection Kind = "collection"
	KindSingleton  Kind = "singleton"
)

// unsetOrder marks an item whose payload did not carry an order.
const unsetOrder = -1

// Section is the type-erased view of a content service used by the seed
// and media migration commands.
type Section interface {
	Key() string
	Kind() Kind
	Count() (int64, error)
	Seed(raw json.RawMessage) (int, error)
	RewriteURLs(from, to string) (int, error)
}

// EntryPtr constrains content services to pointer models embedding db.Section.
type EntryPtr[T any] interface {
	*T
	db.Entry
}

// Collection provides list/create/update/delete for an ordered content type.
type Collection[T any, P EntryPtr[T]] struct {
	db  *gorm.DB
	key string
}

// NewCollection builds a Collection for the model T.
func NewCollection[T any, P EntryPtr[T]](gdb *gorm.DB, key string) *Collection[T, P] {
	return &Collection[T, P]{db: gdb, key: key}
}

// Key returns the section key used in seed files and logs.
func (s *Collection[T, P]) Key() string { return s.key }

// Kind reports KindCollection.
func (s *Collection[T, P]) Kind() Kind { return KindCollection }

// New returns a blank item that is visible and has no order yet, ready
// for a request payload to be decoded onto it.
func (s *Collection[T, P]) New() P {
	item := P(new(T))
	base := item.Base()
	base.IsActive = true
	base.SortOrder = unsetOrder
	return item
}

// List returns rows ordered by sort order then id. Inactive rows are
// skipped unless includeInactive is set.
func (s *Collection[T, P]) List(includeInactive bool) ([]T, error) {
	query := s.db.Model(new(T))
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	var items []T
	if err := query.Order("sort_order ASC").Order("id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", s.key, err)
	}
	return items, nil
}

// Get loads one row by id.
func (s *Collection[T, P]) Get(id uint) (P, error) {
	item := P(new(T))
	if err := s.db.First(item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s %d: %w", s.key, id, ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", s.key, err)
	}
	return item, nil
}

// Create inserts item. Items without an order are appended after the last row.
func (s *Collection[T, P]) Create(item P) (P, error) {
	base := item.Base()
	base.ID = 0
	if base.SortOrder < 0 {
		next, err := s.nextOrder()
		if err != nil {
			return nil, err
		}
		base.SortOrder = next
	}

	if err := s.db.Create(item).Error; err != nil {
		return nil, fmt.Errorf("create %s: %w", s.key, err)
	}
	return item, nil
}

// Update loads row id, lets apply overlay the changes and saves the result.
// The id and creation time are kept whatever apply does.
func (s *Collection[T, P]) Update(id uint, apply func(P) error) (P, error) {
	item, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	created := item.Base().CreatedAt
	if err := apply(item); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	base := item.Base()
	base.ID = id
	base.CreatedAt = created
	if base.SortOrder < 0 {
		base.SortOrder = 0
	}

	if err := s.db.Save(item).Error; err != nil {
		return nil, fmt.Errorf("update %s: %w", s.key, err)
	}
	return item, nil
}

// Delete removes row id permanently.
func (s *Collection[T, P]) Delete(id uint) error {
	res := s.db.Delete(new(T), id)
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", s.key, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s %d: %w", s.key, id, ErrNotFound)
	}
	return nil
}

// Reorder assigns 0,1,2... to the given ids in order. Rows not listed keep
// their current order. An unknown id rolls the whole reorder back with
// ErrNotFound.
func (s *Collection[T, P]) Reorder(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for index, id := range ids {
			res := tx.Model(new(T)).Where("id = ?", id).Update("sort_order", index)
			if res.Error != nil {
				return fmt.Errorf("reorder %s: %w", s.key, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%s %d: %w", s.key, id, ErrNotFound)
			}
		}
		return nil
	})
}

// Count returns the number of rows, active or not.
func (s *Collection[T, P]) Count() (int64, error) {
	return countRows[T](s.db, s.key)
}

// Seed inserts the items of a JSON array when the table is empty. Every
// item is decoded before anything is written and the inserts share one
// transaction, so a bad file leaves the table empty.
func (s *Collection[T, P]) Seed(raw json.RawMessage) (int, error) {
	count, err := s.Count()
	if err != nil || count > 0 {
		return 0, err
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return 0, fmt.Errorf("%w: seed %s expects an array: %v", ErrInvalidInput, s.key, err)
	}

	items := make([]P, 0, len(elems))
	for i, elem := range elems {
		item := s.New()
		if err := json.Unmarshal(elem, item); err != nil {
			return 0, fmt.Errorf("%w: seed %s item %d: %v", ErrInvalidInput, s.key, i, err)
		}
		items = append(items, item)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		scoped := &Collection[T, P]{db: tx, key: s.key}
		for _, item := range items {
			if _, err := scoped.Create(item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// RewriteURLs replaces the URL from with to in every string and JSON column
// of every row and returns the number of rows changed. See replaceURL for
// what counts as a match.
func (s *Collection[T, P]) RewriteURLs(from, to string) (int, error) {
	return rewriteRows[T, P](s.db, s.key, from, to)
}

func (s *Collection[T, P]) nextOrder() (int, error) {
	var maxOrder int
	if err := s.db.Model(new(T)).Select("COALESCE(MAX(sort_order), -1)").Scan(&maxOrder).Error; err != nil {
		return 0, fmt.Errorf("resolve %s order: %w", s.key, err)
	}
	return maxOrder + 1, nil
}

// Singleton provides get/upsert for a content type with one canonical
// row: the most recent by id.
type Singleton[T any, P EntryPtr[T]] struct {
	db  *gorm.DB
	key string
}

// NewSingleton builds a Singleton for the model T.
func NewSingleton[T any, P EntryPtr[T]](gdb *gorm.DB, key string) *Singleton[T, P] {
	return &Singleton[T, P]{db: gdb, key: key}
}

// Key returns the section key used in seed files and logs.
func (s *Singleton[T, P]) Key() string { return s.key }

// Kind reports KindSingleton.
func (s *Singleton[T, P]) Kind() Kind { return KindSingleton }

// New returns a blank visible item.
func (s *Singleton[T, P]) New() P {
	item := P(new(T))
	item.Base().IsActive = true
	return item
}

// Get returns the most recent row.
func (s *Singleton[T, P]) Get() (P, error) {
	return latestRow[T, P](s.db, s.key)
}

// Upsert applies changes to the most recent row, creating it first when
// the table is empty, and returns that row.
func (s *Singleton[T, P]) Upsert(apply func(P) error) (P, error) {
	var result P
	err := s.db.Transaction(func(tx *gorm.DB) error {
		current, err := latestRow[T, P](tx, s.key)
		if errors.Is(err, ErrNotFound) {
			item := s.New()
			if err := apply(item); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}
			item.Base().ID = 0
			if err := tx.Create(item).Error; err != nil {
				return fmt.Errorf("create %s: %w", s.key, err)
			}
			result = item
			return nil
		}
		if err != nil {
			return err
		}

		id := current.Base().ID
		created := current.Base().CreatedAt
		if err := apply(current); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		current.Base().ID = id
		current.Base().CreatedAt = created
		if err := tx.Save(current).Error; err != nil {
			return fmt.Errorf("update %s: %w", s.key, err)
		}
		result = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Count returns the number of rows, including superseded ones.
func (s *Singleton[T, P]) Count() (int64, error) {
	return countRows[T](s.db, s.key)
}

// Seed creates the row from a JSON object when the table is empty.
func (s *Singleton[T, P]) Seed(raw json.RawMessage) (int, error) {
	count, err := s.Count()
	if err != nil || count > 0 {
		return 0, err
	}

	item := s.New()
	if err := json.Unmarshal(raw, item); err != nil {
		return 0, fmt.Errorf("%w: seed %s expects an object: %v", ErrInvalidInput, s.key, err)
	}
	item.Base().ID = 0
	if err := s.db.Create(item).Error; err != nil {
		return 0, fmt.Errorf("seed %s: %w", s.key, err)
	}
	return 1, nil
}

// RewriteURLs replaces the URL from with to in every row.
func (s *Singleton[T, P]) RewriteURLs(from, to string) (int, error) {
	return rewriteRows[T, P](s.db, s.key, from, to)
}

func latestRow[T any, P EntryPtr[T]](gdb *gorm.DB, key string) (P, error) {
	item := P(new(T))
	if err := gdb.Order("id DESC").Take(item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return item, nil
}

func countRows[T any](gdb *gorm.DB, key string) (int64, error) {
	var count int64
	if err := gdb.Model(new(T)).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", key, err)
	}
	return count, nil
}

// rewriteRows round-trips each row through JSON so string fields and JSON
// columns are rewritten the same way.
func rewriteRows[T any, P EntryPtr[T]](gdb *gorm.DB, key, from, to string) (int, error) {
	if from == "" || from == to {
		return 0, nil
	}
	fromEncoded := jsonStringBody(from)
	toEncoded := jsonStringBody(to)

	var rows []T
	if err := gdb.Order("id ASC").Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("load %s: %w", key, err)
	}

	changed := 0
	for i := range rows {
		row := P(&rows[i])
		raw, err := json.Marshal(row)
		if err != nil {
			return changed, fmt.Errorf("encode %s: %w", key, err)
		}
		rewritten, ok := replaceURL(string(raw), fromEncoded, toEncoded)
		if !ok {
			continue
		}

		updated := P(new(T))
		if err := json.Unmarshal([]byte(rewritten), updated); err != nil {
			return changed, fmt.Errorf("decode %s: %w", key, err)
		}
		updated.Base().ID = row.Base().ID
		updated.Base().CreatedAt = row.Base().CreatedAt
		if err := gdb.Save(updated).Error; err != nil {
			return changed, fmt.Errorf("save %s: %w", key, err)
		}
		changed++
	}
	return changed, nil
}

// replaceURL swaps from for to where from appears as a whole URL: the
// character after it must not continue the path, and when from is
// root-relative the character before it must not be part of a host or
// path. A from ending in "/" is a folder and matches as a prefix.
func replaceURL(text, from, to string) (string, bool) {
	var b strings.Builder
	changed := false
	rest := text
	offset := 0
	for {
		i := strings.Index(rest, from)
		if i < 0 {
			break
		}
		end := i + len(from)
		start := offset + i
		before := start == 0 || !strings.HasPrefix(from, "/") || !isURLPathByte(text[start-1])
		after := strings.HasSuffix(from, "/") || end == len(rest) || !isURLPathByte(rest[end])
		if before && after {
			b.WriteString(rest[:i])
			b.WriteString(to)
			changed = true
		} else {
			b.WriteString(rest[:end])
		}
		rest = rest[end:]
		offset += end
	}
	if !changed {
		return text, false
	}
	b.WriteString(rest)
	return b.String(), true
}

func isURLPathByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("._-~%/", c) >= 0
}

func jsonStringBody(value string) string {
	raw, _ := json.Marshal(value)
	return strings.Trim(string(raw), `"`)
}
