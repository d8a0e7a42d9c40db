package workers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/services"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/utils"
)

// GenerateWorkerPool consumes queued generation requests from a Redis
// stream and runs the blog pipeline for each. Progress and the final
// result are published on a per-request pub/sub channel, which the
// websocket handler forwards to clients.
type GenerateWorkerPool struct {
	Redis      *redis.Client
	Blogs      services.BlogService
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

// StatusChannel is where events for one queued request are published.
func StatusChannel(requestID string) string {
	return "generate:" + requestID + ":status"
}

func (p *GenerateWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Blogs == nil {
		return errors.New("GenerateWorkerPool missing dependency: Redis/Blogs must be set")
	}
	if p.Stream == "" {
		p.Stream = "blog:generate:stream"
	}
	if p.Group == "" {
		p.Group = "blog-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "w"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *GenerateWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    1,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *GenerateWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	requestID := getStr("request_id")
	link := getStr("link")
	if requestID == "" || link == "" {
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":   msg.ID,
		"request_id": requestID,
	})

	ch := StatusChannel(requestID)
	publish := func(v any) {
		b, err := json.Marshal(v)
		if err != nil {
			return
		}
		_ = p.Redis.Publish(ctx, ch, string(b)).Err()
	}

	blog, err := p.Blogs.GenerateWithProgress(ctx, link, func(stage string) {
		publish(map[string]any{"type": "status", "stage": stage})
	})
	if err != nil {
		log.WithError(err).Error("queued generation failed")

		code := utils.CodeInternal
		var ae *utils.AppError
		if errors.As(err, &ae) {
			code = ae.Code
		}
		publish(map[string]any{"type": "error", "code": code, "message": "blog generation failed"})
		return
	}

	log.WithField("video_id", blog.VideoID).Info("queued generation done")
	publish(map[string]any{"type": "result", "blog": blog})
}
