package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	intakemetrics "grantintake/internal/intake/metrics"
	"grantintake/internal/intake/notifier"
	"grantintake/internal/intake/service"
	"grantintake/internal/intake/store/inflight"
	"grantintake/internal/intake/store/object"
	"grantintake/internal/intake/store/record"
	"grantintake/internal/platform/config"
	"grantintake/internal/platform/redis"
	"grantintake/internal/platform/supabase"
	dErrors "grantintake/pkg/domain-errors"
	"grantintake/pkg/platform/httputil"
)

// memoryBaseURL prefixes public URLs of objects kept in process.
const memoryBaseURL = "http://localhost/storage"

type infra struct {
	objects service.ObjectStorage
	records service.RecordStore
	guard   service.InFlightGuard

	db    *sql.DB
	redis *redis.Client
	kafka *kgo.Client
}

func buildInfra(ctx context.Context, cfg config.Server, log *slog.Logger) (*infra, error) {
	d := &infra{}
	ok := false
	defer func() {
		if !ok {
			d.Close()
		}
	}()

	var sb *supabase.Client
	if cfg.UsesSupabase() {
		var err error
		sb, err = supabase.New(supabase.Config{
			URL:        cfg.Supabase.URL,
			ServiceKey: cfg.Supabase.ServiceKey,
			Timeout:    cfg.Supabase.Timeout,
		})
		if err != nil {
			return nil, err
		}
	}

	switch cfg.ObjectStore {
	case config.BackendSupabase:
		d.objects = sb
	default:
		d.objects = object.NewMemory(memoryBaseURL)
	}

	switch cfg.RecordStore {
	case config.BackendSupabase:
		d.records = record.NewSupabase(sb)
	case config.BackendPostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		d.db = db
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		pg := record.NewPostgres(db)
		for _, table := range tables(cfg) {
			if err := pg.EnsureSchema(ctx, table); err != nil {
				return nil, err
			}
		}
		d.records = pg
	default:
		d.records = record.NewMemory()
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		d.redis = rc
		d.guard = inflight.NewRedis(rc.Client, inflight.DefaultTTL)
	} else {
		d.guard = inflight.NewMemory(inflight.DefaultTTL)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		kc, err := kgo.NewClient(
			kgo.SeedBrokers(cfg.Kafka.Brokers...),
			kgo.RecordDeliveryTimeout(cfg.Kafka.DeliveryTimeout),
			kgo.ProduceRequestTimeout(cfg.Kafka.DeliveryTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka client: %w", err)
		}
		d.kafka = kc
		if err := ensureTopic(ctx, kc, cfg.Kafka.Topic); err != nil {
			log.Warn("kafka topic not ensured", "topic", cfg.Kafka.Topic, "error", err)
		}
	}

	log.Info("storage configured",
		"object_store", cfg.ObjectStore,
		"record_store", cfg.RecordStore,
		"redis_guard", d.redis != nil,
		"kafka", d.kafka != nil,
	)
	ok = true
	return d, nil
}

func buildNotifier(cfg config.Server, d *infra, log *slog.Logger, m *intakemetrics.Metrics) *notifier.Notifier {
	var targets []notifier.Target
	if cfg.Webhooks.AURL != "" {
		targets = append(targets, notifier.NewWebhook("webhook_a", cfg.Webhooks.AURL,
			notifier.WithMode(notifier.ModeStrict),
			notifier.WithTimeout(cfg.Webhooks.Timeout),
		))
	}
	if cfg.Webhooks.BURL != "" {
		targets = append(targets, notifier.NewWebhook("webhook_b", cfg.Webhooks.BURL,
			notifier.WithMode(notifier.ModeOpaque),
			notifier.WithTimeout(cfg.Webhooks.Timeout),
		))
	}
	if d.kafka != nil {
		targets = append(targets, notifier.NewKafka(d.kafka, cfg.Kafka.Topic))
	}
	return notifier.New(targets, notifier.WithLogger(log), notifier.WithMetrics(m))
}

// ensureTopic creates the submissions topic with broker defaults. An existing
// topic is fine.
func ensureTopic(ctx context.Context, kc *kgo.Client, topic string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	resps, err := kadm.NewClient(kc).CreateTopics(ctx, -1, -1, nil, topic)
	if err != nil {
		return err
	}
	for _, resp := range resps {
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			return resp.Err
		}
	}
	return nil
}

// tables lists the distinct record tables across variants.
func tables(cfg config.Server) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range cfg.Variants {
		if !seen[v.Table] {
			seen[v.Table] = true
			out = append(out, v.Table)
		}
	}
	return out
}

func (d *infra) health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if d.db != nil {
		if err := d.db.PingContext(ctx); err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUpstream, "database unavailable"))
			return
		}
	}
	if d.redis != nil {
		if err := d.redis.Health(ctx); err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUpstream, "redis unavailable"))
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Close releases whatever was opened, in reverse order.
func (d *infra) Close() {
	if d.kafka != nil {
		d.kafka.Close()
	}
	if d.redis != nil {
		_ = d.redis.Close()
	}
	if d.db != nil {
		_ = d.db.Close()
	}
}
