// Package reconcile re-checks leads whose flag-and-poll conversion timed
// out. The registrant already got a freshly provisioned account; the
// delayed worker looks at the lead again and records whether Salesforce
// automation converted it afterwards, so duplicates can be merged.
package reconcile

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"admission_portal_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// checkDelay gives the Salesforce flows time to finish before the
// re-check runs.
const checkDelay = 10 * time.Minute

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleLeadCheck enqueues a delayed re-check of the lead. A nil client
// is a no-op so registration keeps working without a queue configured.
func (c *Client) ScheduleLeadCheck(ctx context.Context, leadID, accountID, opportunityID string) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewLeadReconcileTask(LeadReconcilePayload{
		LeadID:        leadID,
		AccountID:     accountID,
		OpportunityID: opportunityID,
	})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.ProcessIn(checkDelay),
		asynq.Queue(c.queue),
		asynq.MaxRetry(5),
	)
	return err
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
