package workers

import (
	"context"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/bikeshop-agent/internal/channel"
	"github.com/yoockh/bikeshop-agent/internal/providers/stt"
	"github.com/yoockh/bikeshop-agent/internal/services"
	"github.com/yoockh/bikeshop-agent/internal/utils"
)

// ChatWorkerPool consumes the inbound chat stream, runs each message through
// the conversation service and publishes the result on the session channel.
type ChatWorkerPool struct {
	Redis         *redis.Client
	Conversations services.ConversationService
	NumWorkers    int

	STT stt.Provider // nil rejects voice messages
	// STTLanguage is used when a voice message names no language.
	STTLanguage string

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *ChatWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Conversations == nil {
		return errors.New("ChatWorkerPool missing dependency: Redis/Conversations must be set")
	}
	if p.Stream == "" {
		p.Stream = channel.InboundStream
	}
	if p.Group == "" {
		p.Group = channel.WorkerGroup
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 4
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	err := p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *ChatWorkerPool) runConsumer(ctx context.Context, consumer string) {
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
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			p.Logger.WithError(err).WithField("consumer", consumer).Warn("chat stream read failed")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.HandleMessage(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

// HandleMessage processes one stream entry. Failures are published to the
// session as error events; nothing is retried.
func (p *ChatWorkerPool) HandleMessage(ctx context.Context, msg redis.XMessage) {
	in, err := channel.ParseInbound(msg)
	if err != nil {
		p.Logger.WithField("redis_id", msg.ID).Warn("dropping malformed chat message")
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":   msg.ID,
		"session_id": in.SessionID,
	})
	if !in.QueuedAt.IsZero() {
		log = log.WithField("queue_ms", time.Since(in.QueuedAt).Milliseconds())
	}
	publish := func(ev channel.Event) {
		if err := channel.Publish(ctx, p.Redis, in.SessionID, ev); err != nil {
			log.WithError(err).Warn("publish chat event failed")
		}
	}

	text := in.Text
	if in.AudioBase64 != "" {
		text, err = p.transcribe(ctx, in, publish)
		if err != nil {
			log.WithError(err).Warn("voice message rejected")
			return
		}
	}

	publish(channel.Status("processing", "assistant is typing"))

	reply, err := p.Conversations.Send(ctx, in.SessionID, text)
	if err != nil {
		detail := "failed to process message"
		if reply != nil {
			detail = reply.Text
		}
		log.WithError(err).Warn("chat message failed")
		publish(channel.Error(utils.CodeOf(err), detail))
		return
	}

	log.WithField("state", reply.State).Info("chat message processed")
	publish(channel.Reply(reply.Text, reply.Products, reply.LeadCreated, reply.State.String()))
}

func (p *ChatWorkerPool) transcribe(ctx context.Context, in channel.Inbound, publish func(channel.Event)) (string, error) {
	if p.STT == nil {
		publish(channel.Error(utils.CodeInvalidArgument, "voice messages are not enabled"))
		return "", errors.New("speech to text disabled")
	}

	raw := in.AudioBase64
	if i := strings.Index(raw, ","); i >= 0 {
		raw = raw[i+1:] // strip data:...;base64,
	}
	audio, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		publish(channel.Error(utils.CodeInvalidArgument, "invalid audio_base64"))
		return "", err
	}

	publish(channel.Status("processing", "transcribing"))
	lang := in.Language
	if strings.TrimSpace(lang) == "" {
		lang = p.STTLanguage
	}
	text, conf, err := p.STT.Transcribe(ctx, audio, stt.NormalizeLanguage(lang))
	if err != nil && !errors.Is(err, stt.ErrNoSpeech) {
		publish(channel.Error(utils.CodeUnavailable, "speech to text failed"))
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		publish(channel.Error(utils.CodeInvalidArgument, "no speech recognised"))
		return "", errors.New("empty transcript")
	}

	publish(channel.Transcript(text, conf))
	return text, nil
}
