package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"forumhub/pkg/logger"
	"forumhub/pkg/utils"
)

var _ Store = (*Redis)(nil)

const defaultRedisRetries = 10

// Redis stores each document (the subtree at <collection>/<id>) as one JSON
// string under <prefix>doc:<collection>/<id>, keeps a set of ids per
// collection under <prefix>idx:<collection>, and announces every committed
// path on <prefix>changes.
type Redis struct {
	client  *redis.Client
	prefix  string
	retries int
	pushIDs *utils.PushIDGenerator
}

// NewRedis wraps a connected client; prefix namespaces every key
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{
		client:  client,
		prefix:  prefix,
		retries: defaultRedisRetries,
		pushIDs: utils.NewPushIDGenerator(nil),
	}
}

// Ping checks the connection
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) docKey(collection, id string) string {
	return r.prefix + "doc:" + collection + "/" + id
}

func (r *Redis) indexKey(collection string) string {
	return r.prefix + "idx:" + collection
}

func (r *Redis) channel() string {
	return r.prefix + "changes"
}

func (r *Redis) PushKey(path string) string {
	return r.pushIDs.Next()
}

func (r *Redis) Read(ctx context.Context, path string, opts ...QueryOption) (Snapshot, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return Snapshot{}, err
	}

	start := time.Now()
	snap, err := r.read(ctx, segs, BuildQuery(opts...))
	logger.Store("read", path, time.Since(start), err)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read %s: %w", path, err)
	}
	return snap, nil
}

func (r *Redis) read(ctx context.Context, segs []string, q Query) (Snapshot, error) {
	var tree any
	if len(segs) == 1 {
		ids, err := r.client.SMembers(ctx, r.indexKey(segs[0])).Result()
		if err != nil {
			return Snapshot{}, err
		}
		if len(ids) > 0 {
			keys := make([]string, len(ids))
			for i, id := range ids {
				keys[i] = r.docKey(segs[0], id)
			}
			vals, err := r.client.MGet(ctx, keys...).Result()
			if err != nil {
				return Snapshot{}, err
			}
			collection := make(map[string]any, len(ids))
			for i, v := range vals {
				s, ok := v.(string)
				if !ok {
					continue
				}
				doc, err := decodeTree([]byte(s))
				if err != nil {
					return Snapshot{}, err
				}
				if doc != nil {
					collection[ids[i]] = doc
				}
			}
			if len(collection) > 0 {
				tree = collection
			}
		}
	} else {
		doc, err := r.loadDoc(ctx, r.client, segs[0], segs[1])
		if err != nil {
			return Snapshot{}, err
		}
		tree = getIn(doc, segs[2:])
	}

	raw, err := encodeTree(tree)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{path: JoinPath(segs...), raw: raw, query: q}, nil
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *Redis) loadDoc(ctx context.Context, c stringGetter, collection, id string) (any, error) {
	s, err := c.Get(ctx, r.docKey(collection, id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeTree([]byte(s))
}

func (r *Redis) Write(ctx context.Context, path string, value any) error {
	segs, err := SplitPath(path)
	if err != nil {
		return err
	}
	v, err := normalize(value)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	start := time.Now()
	err = r.commit(ctx, [][]string{segs}, []any{v})
	logger.Store("write", path, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (r *Redis) Update(ctx context.Context, path string, fields Fields) error {
	base, err := SplitPath(path)
	if err != nil {
		return err
	}
	paths, values, err := AbsoluteFields(base, fields)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return nil
	}
	for i, v := range values {
		if values[i], err = normalize(v); err != nil {
			return fmt.Errorf("update %s: %w", path, err)
		}
	}

	start := time.Now()
	err = r.commit(ctx, paths, values)
	logger.Store("update", path, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	return nil
}

// commit applies every mutation in one WATCH/MULTI transaction, retrying
// when a watched key changes underneath it
func (r *Redis) commit(ctx context.Context, paths [][]string, values []any) error {
	var watch []string
	seen := make(map[string]bool)
	addWatch := func(key string) {
		if !seen[key] {
			seen[key] = true
			watch = append(watch, key)
		}
	}
	for i, p := range paths {
		if len(p) == 1 {
			if _, ok := values[i].(map[string]any); values[i] != nil && !ok {
				return fmt.Errorf("%w: %s holds a collection, value must be an object", ErrInvalidPath, p[0])
			}
		} else {
			addWatch(r.docKey(p[0], p[1]))
		}
		addWatch(r.indexKey(p[0]))
	}

	txf := func(tx *redis.Tx) error {
		type docRef struct{ collection, id string }
		docs := make(map[docRef]any)
		var order []docRef
		touch := func(ref docRef, doc any) {
			if _, ok := docs[ref]; !ok {
				order = append(order, ref)
			}
			docs[ref] = doc
		}

		for i, p := range paths {
			if len(p) == 1 {
				ids, err := tx.SMembers(ctx, r.indexKey(p[0])).Result()
				if err != nil {
					return err
				}
				for _, id := range ids {
					touch(docRef{p[0], id}, nil)
				}
				if m, ok := values[i].(map[string]any); ok {
					for id, doc := range m {
						if err := validSegment(id); err != nil {
							return fmt.Errorf("%w: %q: %v", ErrInvalidPath, id, err)
						}
						touch(docRef{p[0], id}, doc)
					}
				}
				continue
			}

			ref := docRef{p[0], p[1]}
			doc, loaded := docs[ref]
			if !loaded {
				var err error
				if doc, err = r.loadDoc(ctx, tx, p[0], p[1]); err != nil {
					return err
				}
			}
			touch(ref, setIn(doc, p[2:], values[i]))
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, ref := range order {
				doc := docs[ref]
				if doc == nil {
					pipe.Del(ctx, r.docKey(ref.collection, ref.id))
					pipe.SRem(ctx, r.indexKey(ref.collection), ref.id)
					continue
				}
				data, err := json.Marshal(doc)
				if err != nil {
					return err
				}
				pipe.Set(ctx, r.docKey(ref.collection, ref.id), data, 0)
				pipe.SAdd(ctx, r.indexKey(ref.collection), ref.id)
			}
			for _, p := range paths {
				pipe.Publish(ctx, r.channel(), JoinPath(p...))
			}
			return nil
		})
		return err
	}

	for attempt := 0; attempt < r.retries; attempt++ {
		err := r.client.Watch(ctx, txf, watch...)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("transaction conflict after %d attempts", r.retries)
}

func (r *Redis) Subscribe(ctx context.Context, path string, opts ...QueryOption) (*Subscription, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return nil, err
	}

	pubsub := r.client.Subscribe(ctx, r.channel())
	// Wait for the subscription to be confirmed so no change committed after
	// the initial read is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", path, err)
	}

	listenCtx, stop := context.WithCancel(context.Background())
	sub := NewSubscription(ctx, func() {
		stop()
		pubsub.Close()
	})
	go r.listen(listenCtx, sub, pubsub, segs, BuildQuery(opts...))
	return sub, nil
}

func (r *Redis) listen(ctx context.Context, sub *Subscription, pubsub *redis.PubSub, segs []string, q Query) {
	messages := pubsub.Channel()

	push := func() bool {
		snap, err := r.read(ctx, segs, q)
		if err != nil {
			if ctx.Err() == nil {
				logger.Store("listen", JoinPath(segs...), 0, err)
				sub.Cancel(fmt.Errorf("%w: %v", ErrListenerCancelled, err))
			}
			return false
		}
		return sub.Deliver(snap)
	}

	if !push() {
		return
	}
	for {
		select {
		case <-sub.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				sub.Cancel(ErrListenerCancelled)
				return
			}
			changed := strings.Split(msg.Payload, "/")
			if !Overlaps(segs, changed) {
				continue
			}
			if !push() {
				return
			}
		}
	}
}
