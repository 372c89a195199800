package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/nikbrunner/bmpop/internal/model"
)

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Addr        string
	Username    string
	Password    string
	DB          int
	Prefix      string        // key prefix, ex: "bmpop"
	DialTimeout time.Duration // 0 = go-redis default
}

// ConnectRedis opens a client and pings the server once.
func ConnectRedis(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Username:    opts.Username,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, unavailable("connect to redis", err)
	}
	return client, nil
}

// RedisStore implements Store on Redis.
//
// Keys:
//
//	<prefix>:node:<id>      JSON-encoded node without children
//	<prefix>:children:<id>  list of child IDs in order
//	<prefix>:roots          list of top-level IDs
//	<prefix>:seq            ID counter
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a RedisStore using the given client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "bmpop"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

type redisNode struct {
	ID         string     `json:"id"`
	ParentID   string     `json:"parentId,omitempty"`
	Title      string     `json:"title"`
	URL        string     `json:"url,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
}

func (s *RedisStore) nodeKey(id string) string     { return s.prefix + ":node:" + id }
func (s *RedisStore) childrenKey(id string) string { return s.prefix + ":children:" + id }
func (s *RedisStore) rootsKey() string             { return s.prefix + ":roots" }
func (s *RedisStore) seqKey() string               { return s.prefix + ":seq" }

// listKey returns the key holding the children of parentID.
func (s *RedisStore) listKey(parentID string) string {
	if parentID == "" {
		return s.rootsKey()
	}
	return s.childrenKey(parentID)
}

// ensureRoots creates "Bookmarks bar" and "Other bookmarks" on first use.
func (s *RedisStore) ensureRoots(ctx context.Context) error {
	created, err := s.client.SetNX(ctx, s.prefix+":init", "1", 0).Result()
	if err != nil {
		return unavailable("init redis store", err)
	}
	if !created {
		return nil
	}
	for _, title := range []string{"Bookmarks bar", "Other bookmarks"} {
		if _, err := s.insert(ctx, "", model.TreeNode{Title: title, CreatedAt: time.Now()}); err != nil {
			return err
		}
	}
	return nil
}

func (s *RedisStore) insert(ctx context.Context, parentID string, n model.TreeNode) (string, error) {
	seq, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return "", unavailable("allocate id", err)
	}
	id := strconv.FormatInt(seq, 10)

	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	data, err := json.Marshal(redisNode{
		ID:         id,
		ParentID:   parentID,
		Title:      n.Title,
		URL:        n.URL,
		CreatedAt:  createdAt.UTC(),
		LastUsedAt: n.LastUsedAt,
	})
	if err != nil {
		return "", fmt.Errorf("encode node: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.nodeKey(id), data, 0)
		pipe.RPush(ctx, s.listKey(parentID), id)
		return nil
	})
	if err != nil {
		return "", unavailable("insert node", err)
	}
	return id, nil
}

func (s *RedisStore) getNode(ctx context.Context, id string) (*redisNode, error) {
	data, err := s.client.Get(ctx, s.nodeKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, unavailable("get node", err)
	}
	var n redisNode
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, unavailable("decode node", err)
	}
	return &n, nil
}

// FetchTree implements Store.
func (s *RedisStore) FetchTree(ctx context.Context) ([]model.TreeNode, error) {
	if err := s.ensureRoots(ctx); err != nil {
		return nil, err
	}

	var build func(parentID string) ([]model.TreeNode, error)
	build = func(parentID string) ([]model.TreeNode, error) {
		ids, err := s.client.LRange(ctx, s.listKey(parentID), 0, -1).Result()
		if err != nil {
			return nil, unavailable("fetch tree", err)
		}

		out := make([]model.TreeNode, 0, len(ids))
		for _, id := range ids {
			n, err := s.getNode(ctx, id)
			if errors.Is(err, ErrNotFound) {
				// Dangling list entry; the node is gone.
				continue
			}
			if err != nil {
				return nil, err
			}

			node := model.TreeNode{
				ID:         n.ID,
				ParentID:   n.ParentID,
				Index:      len(out),
				Title:      n.Title,
				URL:        n.URL,
				CreatedAt:  n.CreatedAt,
				LastUsedAt: n.LastUsedAt,
			}
			if node.URL == "" {
				if node.Children, err = build(node.ID); err != nil {
					return nil, err
				}
			}
			out = append(out, node)
		}
		return out, nil
	}

	return build("")
}

// Remove implements Store.
func (s *RedisStore) Remove(ctx context.Context, id string) error {
	n, err := s.getNode(ctx, id)
	if err != nil {
		return fmt.Errorf("remove %s: %w", id, err)
	}
	if n.ParentID == "" {
		return fmt.Errorf("remove %s: %w", id, ErrPermanentNode)
	}
	if n.URL == "" {
		count, err := s.client.LLen(ctx, s.childrenKey(id)).Result()
		if err != nil {
			return unavailable("remove", err)
		}
		if count > 0 {
			return fmt.Errorf("remove %s: %w", id, ErrFolderNotEmpty)
		}
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.nodeKey(id), s.childrenKey(id))
		pipe.LRem(ctx, s.listKey(n.ParentID), 0, id)
		return nil
	})
	if err != nil {
		return unavailable("remove", err)
	}
	return nil
}

// SetTitle implements Store.
func (s *RedisStore) SetTitle(ctx context.Context, id, title string) error {
	n, err := s.getNode(ctx, id)
	if err != nil {
		return fmt.Errorf("set title %s: %w", id, err)
	}
	if n.ParentID == "" {
		return fmt.Errorf("set title %s: %w", id, ErrPermanentNode)
	}

	n.Title = title
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode node: %w", err)
	}
	// Overwrite only if the node still exists.
	ok, err := s.client.SetXX(ctx, s.nodeKey(id), data, redis.KeepTTL).Result()
	if err != nil {
		return unavailable("set title", err)
	}
	if !ok {
		return fmt.Errorf("set title %s: %w", id, ErrNotFound)
	}
	return nil
}

// Import implements Importer. An empty parentID selects "Other bookmarks".
func (s *RedisStore) Import(ctx context.Context, parentID string, nodes []model.TreeNode) (ImportResult, error) {
	if err := s.ensureRoots(ctx); err != nil {
		return ImportResult{}, err
	}
	if parentID == "" {
		roots, err := s.client.LRange(ctx, s.rootsKey(), 1, 1).Result()
		if err != nil {
			return ImportResult{}, unavailable("import", err)
		}
		if len(roots) == 0 {
			return ImportResult{}, fmt.Errorf("import: default folder: %w", ErrNotFound)
		}
		parentID = roots[0]
	}

	parent, err := s.getNode(ctx, parentID)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import into %s: %w", parentID, err)
	}
	if parent.URL != "" {
		return ImportResult{}, fmt.Errorf("import into %s: %w", parentID, ErrNotFound)
	}

	var result ImportResult
	var insertAll func(parentID string, nodes []model.TreeNode) error
	insertAll = func(parentID string, nodes []model.TreeNode) error {
		for _, n := range nodes {
			id, err := s.insert(ctx, parentID, n)
			if err != nil {
				return err
			}
			if n.URL != "" {
				result.Bookmarks++
				continue
			}
			result.Folders++
			if err := insertAll(id, n.Children); err != nil {
				return err
			}
		}
		return nil
	}

	if err := insertAll(parentID, nodes); err != nil {
		return result, err
	}
	return result, nil
}
