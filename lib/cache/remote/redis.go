package remote

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis"

	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/cache"
)

type RedisConfig struct {
	Host string
	Port int
	// Prefix namespaces the keys, e.g. "infections:".
	Prefix string
	// TTL of 0 keeps entries forever.
	TTL time.Duration
}

func NewRedisClient(conf RedisConfig) Client {
	return &redisClient{
		Client: redis.NewClient(&redis.Options{
			Addr: fmt.Sprintf("%s:%d", conf.Host, conf.Port)}),
		prefix: conf.Prefix,
		ttl:    conf.TTL,
	}
}

type redisClient struct {
	*redis.Client
	prefix string
	ttl    time.Duration
}

type redisGetPipeline struct {
	pipe   redis.Pipeliner
	prefix string
	cmds   map[string]*redis.StringCmd
}

type redisSetPipeline struct {
	pipe   redis.Pipeliner
	prefix string
	ttl    time.Duration
	cmds   map[string]*redis.StatusCmd
}

func (r *redisClient) NewGetPipeline(size int) GetPipeline {
	return &redisGetPipeline{
		pipe:   r.Pipeline(),
		prefix: r.prefix,
		cmds:   make(map[string]*redis.StringCmd, size),
	}
}

func (r *redisClient) NewSetPipeline(size int) SetPipeline {
	return &redisSetPipeline{
		pipe:   r.Pipeline(),
		prefix: r.prefix,
		ttl:    r.ttl,
		cmds:   make(map[string]*redis.StatusCmd, size),
	}
}

func (r *redisClient) Ready() bool {
	return r.Ping().Err() == nil
}

func (r *redisSetPipeline) Set(digest string, data []byte) {
	r.cmds[digest] = r.pipe.Set(r.prefix+digest, data, r.ttl)
}

func (r *redisSetPipeline) ExecSet() error {
	if len(r.cmds) == 0 {
		return nil
	}
	_, err := r.pipe.Exec()
	return err
}

func (r *redisSetPipeline) Size() int {
	return len(r.cmds)
}

func (r *redisGetPipeline) Get(digest string) {
	r.cmds[digest] = r.pipe.Get(r.prefix + digest)
}

func (r *redisGetPipeline) ExecGet(onResult func(string, *cache.Entry) error) error {
	if len(r.cmds) == 0 {
		return nil
	}

	_, err := r.pipe.Exec()
	if err != nil && err != redis.Nil {
		return err
	}

	for digest, cmd := range r.cmds {
		b, err := cmd.Bytes()
		if err == redis.Nil {
			if err = onResult(digest, nil); err != nil {
				return err
			}
			continue
		} else if err != nil {
			return err
		}

		var entry cache.Entry
		if err = json.Unmarshal(b, &entry); err != nil {
			return err
		}

		if err = onResult(digest, &entry); err != nil {
			return err
		}
	}

	return nil
}

func (r *redisGetPipeline) Size() int {
	return len(r.cmds)
}
