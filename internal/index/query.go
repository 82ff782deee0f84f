package index

import (
	"encoding/json"
	"errors"
	"strings"

	bolt "go.etcd.io/bbolt"

	"aiwen/internal/domain/content"
)

var ErrNotFound = errors.New("not found")

type ListOptions struct {
	Page int
	Size int
}

func normalizePaging(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size
}

func (s *Store) GetMeta(fullPath string) (content.ArticleMeta, error) {
	fullPath = strings.TrimSpace(fullPath)
	if fullPath == "" {
		return content.ArticleMeta{}, ErrNotFound
	}
	var m content.ArticleMeta
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bMeta)
		if b == nil {
			return ErrNotFound
		}
		v := b.Get([]byte(fullPath))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &m)
	})
	return m, err
}

// ResolveSlug 把 (date, slug) 映射回仓库路径。
func (s *Store) ResolveSlug(date, slug string) (string, error) {
	if date == "" || slug == "" {
		return "", ErrNotFound
	}
	var fullPath string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bSlug)
		if b == nil {
			return ErrNotFound
		}
		v := b.Get([]byte(date + ":" + slug))
		if v == nil {
			return ErrNotFound
		}
		fullPath = string(v)
		return nil
	})
	return fullPath, err
}

// ListRecent 按发布时间倒序分页。
func (s *Store) ListRecent(opt ListOptions) ([]content.ArticleMeta, error) {
	opt.Page, opt.Size = normalizePaging(opt.Page, opt.Size)

	var out []content.ArticleMeta
	err := s.db.View(func(tx *bolt.Tx) error {
		idx := tx.Bucket(bIdxRecent)
		metaB := tx.Bucket(bMeta)
		if idx == nil || metaB == nil {
			return nil
		}
		return scanRecency(idx.Cursor(), metaB, opt, &out)
	})
	return out, err
}

func (s *Store) ListByTag(tag string, opt ListOptions) ([]content.ArticleMeta, error) {
	tag = strings.TrimSpace(strings.ToLower(tag))
	if tag == "" {
		return nil, nil
	}
	return s.listSub(bIdxTag, tag, opt)
}

func (s *Store) ListByDate(date string, opt ListOptions) ([]content.ArticleMeta, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return nil, nil
	}
	return s.listSub(bIdxDate, date, opt)
}

func (s *Store) listSub(parentName []byte, key string, opt ListOptions) ([]content.ArticleMeta, error) {
	opt.Page, opt.Size = normalizePaging(opt.Page, opt.Size)

	var out []content.ArticleMeta
	err := s.db.View(func(tx *bolt.Tx) error {
		parent := tx.Bucket(parentName)
		metaB := tx.Bucket(bMeta)
		if parent == nil || metaB == nil {
			return nil
		}
		sb := parent.Bucket([]byte(key))
		if sb == nil {
			return nil
		}
		return scanRecency(sb.Cursor(), metaB, opt, &out)
	})
	return out, err
}

// scanRecency 沿 recency key 正序走 cursor（即时间倒序），按页取。
func scanRecency(cur *bolt.Cursor, metaB *bolt.Bucket, opt ListOptions, out *[]content.ArticleMeta) error {
	skip := (opt.Page - 1) * opt.Size
	for k, _ := cur.First(); k != nil; k, _ = cur.Next() {
		fullPath := pathFromRecencyKey(k)
		if fullPath == "" {
			continue
		}
		v := metaB.Get([]byte(fullPath))
		if v == nil {
			continue
		}
		var m content.ArticleMeta
		if err := json.Unmarshal(v, &m); err != nil {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		*out = append(*out, m)
		if len(*out) >= opt.Size {
			break
		}
	}
	return nil
}

// AllTags 返回索引里的全部标签（小写，字典序）。
func (s *Store) AllTags() ([]string, error) {
	return s.subBucketKeys(bIdxTag)
}

// AllDates 返回索引里的全部日期（字典序，即时间正序）。
func (s *Store) AllDates() ([]string, error) {
	return s.subBucketKeys(bIdxDate)
}

func (s *Store) subBucketKeys(parentName []byte) ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(parentName)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

// Count 返回索引里的文章总数。
func (s *Store) Count() (int, error) {
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bMeta)
		if b == nil {
			return nil
		}
		n = b.Stats().KeyN
		return nil
	})
	return n, err
}
