package workers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/services"
)

// ArchiveWorkerPool drains the transcript archive stream: each message
// is one finished call whose text still has to be uploaded and recorded.
// The websocket session only enqueues, so a slow storage backend never
// delays session teardown.
type ArchiveWorkerPool struct {
	Redis       *redis.Client
	Transcripts services.TranscriptService
	NumWorkers  int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *ArchiveWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Transcripts == nil {
		return errors.New("ArchiveWorkerPool missing dependency: Redis and Transcripts must be set")
	}
	if p.Stream == "" {
		p.Stream = services.ArchiveStream
	}
	if p.Group == "" {
		p.Group = "archive-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 3
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

func (p *ArchiveWorkerPool) runConsumer(ctx context.Context, consumer string) {
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
			Count:    10,
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

func (p *ArchiveWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	job := services.ArchiveJob{
		ProjectID:  getStr("project_id"),
		SessionID:  getStr("session_id"),
		StorageKey: getStr("storage_key"),
		Content:    getStr("content"),
	}
	job.LineCount, _ = strconv.Atoi(getStr("line_count"))

	if job.ProjectID == "" || job.StorageKey == "" || job.Content == "" {
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":   msg.ID,
		"project_id": job.ProjectID,
		"session_id": job.SessionID,
	})

	if err := p.Transcripts.Archive(ctx, job); err != nil {
		log.WithError(err).Error("archive failed")
		return
	}
	log.WithField("lines", job.LineCount).Debug("transcript archived")
}
