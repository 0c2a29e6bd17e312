package kafka

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

const (
	defaultReplayLimit       = 100
	defaultReplayIdleTimeout = 2 * time.Second
)

// OffsetClient отдаёт партиции и границы offset'ов topic'а.
type OffsetClient interface {
	GetOffset(topic string, partition int32, time int64) (int64, error)
	Partitions(topic string) ([]int32, error)
}

// PartitionConsumer читает одну партицию.
type PartitionConsumer interface {
	Messages() <-chan *sarama.ConsumerMessage
	Errors() <-chan *sarama.ConsumerError
	Close() error
}

// PartitionSource открывает чтение партиции с заданного offset'а.
type PartitionSource interface {
	ConsumePartition(topic string, partition int32, offset int64) (PartitionConsumer, error)
}

type consumerSource struct {
	consumer sarama.Consumer
}

// NewPartitionSource адаптирует sarama.Consumer к PartitionSource.
func NewPartitionSource(consumer sarama.Consumer) PartitionSource {
	return consumerSource{consumer: consumer}
}

func (s consumerSource) ConsumePartition(topic string, partition int32, offset int64) (PartitionConsumer, error) {
	pc, err := s.consumer.ConsumePartition(topic, partition, offset)
	if err != nil {
		return nil, err
	}
	return pc, nil
}

// ReplayConfig — параметры прогона DLQ.
type ReplayConfig struct {
	SourceTopic string
	TargetTopic string
	Limit       int
	// Execute=false — dry-run: кандидаты только логируются.
	Execute     bool
	FromNewest  bool
	IdleTimeout time.Duration
}

// ReplayStats — итог прогона.
type ReplayStats struct {
	Processed int
	Replayed  int
	Skipped   int
}

func (s *ReplayStats) add(other ReplayStats) {
	s.Processed += other.Processed
	s.Replayed += other.Replayed
	s.Skipped += other.Skipped
}

// Replayer перечитывает DLQ и возвращает недоставленные outbox-события в основной topic.
type Replayer struct {
	client   OffsetClient
	source   PartitionSource
	producer *Producer
	logger   *log.Entry
	now      func() time.Time
}

// NewReplayer создаёт Replayer. producer может быть nil для dry-run.
func NewReplayer(client OffsetClient, source PartitionSource, producer *Producer, logger *log.Entry) *Replayer {
	if logger == nil {
		logger = log.WithField("component", "dlq-replay")
	}
	return &Replayer{
		client:   client,
		source:   source,
		producer: producer,
		logger:   logger,
		now:      time.Now,
	}
}

// Run проходит партиции source topic по возрастанию номера, пока не обработано Limit сообщений.
func (r *Replayer) Run(ctx context.Context, cfg ReplayConfig) (ReplayStats, error) {
	var total ReplayStats

	if r.client == nil || r.source == nil {
		return total, fmt.Errorf("kafka client and consumer are required")
	}
	if cfg.Execute && r.producer == nil {
		return total, fmt.Errorf("producer is required in execute mode")
	}
	if cfg.Limit <= 0 {
		cfg.Limit = defaultReplayLimit
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultReplayIdleTimeout
	}
	if cfg.TargetTopic == "" {
		cfg.TargetTopic = TopicShopEvents
	}

	partitions, err := r.client.Partitions(cfg.SourceTopic)
	if err != nil {
		return total, fmt.Errorf("get partitions for topic %s: %w", cfg.SourceTopic, err)
	}
	if len(partitions) == 0 {
		r.logger.WithField("topic", cfg.SourceTopic).Warn("source topic has no partitions")
		return total, nil
	}
	sort.Slice(partitions, func(i, j int) bool { return partitions[i] < partitions[j] })

	for _, partition := range partitions {
		if total.Processed >= cfg.Limit {
			break
		}
		stats, err := r.replayPartition(ctx, cfg, partition, cfg.Limit-total.Processed)
		total.add(stats)
		if err != nil {
			return total, err
		}
	}

	mode := "dry-run"
	if cfg.Execute {
		mode = "execute"
	}
	r.logger.WithFields(log.Fields{
		"mode":      mode,
		"processed": total.Processed,
		"replayed":  total.Replayed,
		"skipped":   total.Skipped,
	}).Info("dlq replay finished")

	return total, nil
}

func (r *Replayer) replayPartition(ctx context.Context, cfg ReplayConfig, partition int32, limit int) (ReplayStats, error) {
	var stats ReplayStats
	if limit <= 0 {
		return stats, nil
	}

	oldest, err := r.client.GetOffset(cfg.SourceTopic, partition, sarama.OffsetOldest)
	if err != nil {
		return stats, fmt.Errorf("get oldest offset for partition %d: %w", partition, err)
	}
	newest, err := r.client.GetOffset(cfg.SourceTopic, partition, sarama.OffsetNewest)
	if err != nil {
		return stats, fmt.Errorf("get newest offset for partition %d: %w", partition, err)
	}
	if newest <= oldest {
		return stats, nil
	}

	start := oldest
	if cfg.FromNewest {
		start = max(newest-int64(limit), oldest)
	}

	pc, err := r.source.ConsumePartition(cfg.SourceTopic, partition, start)
	if err != nil {
		return stats, fmt.Errorf("consume partition %d: %w", partition, err)
	}
	defer func() { _ = pc.Close() }()

	idle := time.NewTimer(cfg.IdleTimeout)
	defer idle.Stop()

	for stats.Processed < limit {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		case consumerErr := <-pc.Errors():
			if consumerErr != nil {
				return stats, fmt.Errorf("partition %d consumer error: %w", partition, consumerErr)
			}
		case msg, ok := <-pc.Messages():
			if !ok || msg == nil {
				return stats, nil
			}
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(cfg.IdleTimeout)

			if msg.Offset >= newest {
				return stats, nil
			}
			if err := r.replayMessage(ctx, cfg, msg, &stats); err != nil {
				return stats, err
			}
			if msg.Offset+1 >= newest {
				return stats, nil
			}
		case <-idle.C:
			return stats, nil
		}
	}

	return stats, nil
}

func (r *Replayer) replayMessage(ctx context.Context, cfg ReplayConfig, msg *sarama.ConsumerMessage, stats *ReplayStats) error {
	stats.Processed++
	fields := log.Fields{
		"partition": msg.Partition,
		"offset":    msg.Offset,
	}

	replay, ok, err := ExtractReplay(msg.Value, cfg.TargetTopic, r.now())
	if err != nil {
		stats.Skipped++
		r.logger.WithError(err).WithFields(fields).Warn("skip unsupported dlq message")
		return nil
	}
	if !ok {
		stats.Skipped++
		return nil
	}

	if cfg.Execute {
		if err := r.producer.Send(ctx, replay.Topic, replay.Key, replay.Value, replay.Headers); err != nil {
			return fmt.Errorf("publish replay message: %w", err)
		}
	} else {
		fields["target_topic"] = replay.Topic
		fields["key"] = replay.Key
		r.logger.WithFields(fields).Info("dlq replay candidate")
	}
	stats.Replayed++
	return nil
}
