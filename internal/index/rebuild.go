package index

import (
	"encoding/json"
	"strings"

	bolt "go.etcd.io/bbolt"

	"aiwen/internal/domain/content"
)

// Rebuild 全量重建索引。内容源每次刷新后整体重扫，索引没有增量
// 语义，推倒重来最简单也最不容易漂。
func (s *Store) Rebuild(metas []content.ArticleMeta) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		_ = tx.DeleteBucket(bMeta)
		_ = tx.DeleteBucket(bSlug)
		_ = tx.DeleteBucket(bIdxRecent)
		_ = tx.DeleteBucket(bIdxTag)
		_ = tx.DeleteBucket(bIdxDate)

		metaB, _ := tx.CreateBucket(bMeta)
		slugB, _ := tx.CreateBucket(bSlug)
		recentB, _ := tx.CreateBucket(bIdxRecent)
		tagB, _ := tx.CreateBucket(bIdxTag)
		dateB, _ := tx.CreateBucket(bIdxDate)

		for _, m := range metas {
			if strings.TrimSpace(m.FullPath) == "" {
				continue
			}
			mb, err := json.Marshal(m)
			if err != nil {
				return err
			}
			if err := metaB.Put([]byte(m.FullPath), mb); err != nil {
				return err
			}
			if m.Slug != "" {
				if err := slugB.Put([]byte(m.Date+":"+m.Slug), []byte(m.FullPath)); err != nil {
					return err
				}
			}

			rKey := makeRecencyKey(m.Date, m.Timestamp, m.FullPath)
			if err := recentB.Put(rKey, []byte{1}); err != nil {
				return err
			}

			for _, tag := range m.Tags {
				tag = strings.TrimSpace(strings.ToLower(tag))
				if tag == "" {
					continue
				}
				sb, err := tagB.CreateBucketIfNotExists([]byte(tag))
				if err != nil {
					return err
				}
				if err := sb.Put(rKey, []byte{1}); err != nil {
					return err
				}
			}

			if m.Date != "" {
				sb, err := dateB.CreateBucketIfNotExists([]byte(m.Date))
				if err != nil {
					return err
				}
				if err := sb.Put(rKey, []byte{1}); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
