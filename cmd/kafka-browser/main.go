package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/miguelbaldi/kafka-browser/internal/app/messages"
	"github.com/miguelbaldi/kafka-browser/internal/app/tasks"
	"github.com/miguelbaldi/kafka-browser/internal/app/topics"
	"github.com/miguelbaldi/kafka-browser/internal/config"
	"github.com/miguelbaldi/kafka-browser/internal/domain"
	"github.com/miguelbaldi/kafka-browser/internal/infrastructure/kafka"
	"github.com/miguelbaldi/kafka-browser/internal/infrastructure/store"
	"github.com/miguelbaldi/kafka-browser/pkg/logger"
)

const version = "0.1.0"

func main() {
	var (
		configFile  = flag.String("config", "", "Path to settings file (optional)")
		showVersion = flag.Bool("version", false, "Print version and exit")
		brokers     = flag.String("brokers", "localhost:9092", "Comma-separated broker list")
		mode        = flag.String("mode", "topics", "Mode: topics, messages or count")
		topicName   = flag.String("topic", "", "Topic name (messages and count modes)")
		live        = flag.Bool("live", false, "Read messages straight from the broker instead of the cache")
		refresh     = flag.Bool("refresh", false, "Refresh the cache before serving the page")
		fetchMode   = flag.String("fetch", "All", "Fetch mode: All, Newest, Oldest or FromTimestamp")
		fetchValue  = flag.Int64("fetch-value", 0, "Fetch value: message count or epoch-millis timestamp")
		pageSize    = flag.Int("page-size", 0, "Page size (0 uses the settings default)")
		search      = flag.String("search", "", "Substring filter over message values (cached mode)")
		metricsAddr = flag.String("metrics-addr", "", "Expose Prometheus metrics on this address (optional)")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("kafka-browser %s\n", version)
		return
	}

	settings := config.DefaultSettings()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load settings: %v\n", err)
			os.Exit(1)
		}
		settings = loaded
	}
	if err := settings.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid settings: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  settings.LogLevel,
		Format: settings.LogFormat,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal")
		cancel()
	}()

	if *metricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				log.Error("Metrics server stopped", "error", err)
			}
		}()
	}

	db, err := store.Open(settings.DatabasePath(), log)
	if err != nil {
		log.Fatal("Failed to open local store", "error", err)
	}
	defer db.Close()

	kafkaRepo := kafka.NewRepository(
		settings.ConnectionTimeout,
		settings.MetadataTimeout,
		settings.WatermarkTimeout,
		log,
	)
	taskManager := tasks.NewManager(log)
	go drainTaskEvents(taskManager, log)

	conn := &domain.Connection{
		Name:        "cli",
		BrokersList: *brokers,
	}

	switch *mode {
	case "topics":
		topicService := topics.NewService(kafkaRepo, db, log)
		listed, err := topicService.ListTopics(ctx, conn)
		if err != nil {
			log.Fatal("Failed to list topics", "error", err)
		}
		for _, topic := range listed {
			marker := " "
			if topic.Favourite {
				marker = "*"
			}
			fmt.Printf("%s %-50s partitions=%d\n", marker, topic.Name, len(topic.Partitions))
		}

	case "count":
		if *topicName == "" {
			log.Fatal("Topic is required in count mode")
		}
		messageService := messages.NewService(kafkaRepo, db, db, taskManager, settings, log)
		total, err := messageService.CountMessages(ctx, conn, *topicName)
		if err != nil {
			log.Fatal("Failed to count messages", "error", err)
		}
		fmt.Printf("%s: %d messages\n", *topicName, total)

	case "messages":
		if *topicName == "" {
			log.Fatal("Topic is required in messages mode")
		}
		messageService := messages.NewService(kafkaRepo, db, db, taskManager, settings, log)
		request := buildRequest(settings, conn, *topicName, *live, *refresh, *fetchMode, *fetchValue, *pageSize, *search)

		task := messageService.GetMessages(request)
		go func() {
			<-ctx.Done()
			taskManager.Cancel(task.ID)
		}()

		response := <-messageService.Responses()
		if response.Err != nil {
			log.Fatal("Failed to read messages", "error", response.Err)
		}
		printPage(settings, &response)

	default:
		log.Fatal("Invalid mode", "mode", *mode)
	}
}

func buildRequest(
	settings *config.Settings,
	conn *domain.Connection,
	topicName string,
	live, refresh bool,
	fetchMode string,
	fetchValue int64,
	pageSize int,
	search string,
) *domain.MessagesRequest {
	if pageSize <= 0 {
		pageSize = settings.DefaultPageSize
	}
	fetch, err := domain.ParseFetchMode(fetchMode)
	if err != nil {
		fetch = domain.FetchModeAll
	}

	request := &domain.MessagesRequest{
		Mode:       domain.MessagesModeCached,
		Refresh:    refresh,
		Connection: *conn,
		Topic:      domain.Topic{Name: topicName},
		PageOp:     domain.PageNext,
		PageSize:   pageSize,
		Search:     search,
		Fetch:      fetch,
		FetchValue: fetchValue,
	}
	if live {
		request.Mode = domain.MessagesModeLive
		request.MaxMessages = int64(pageSize)
	}
	return request
}

func printPage(settings *config.Settings, response *domain.MessagesResponse) {
	fmt.Printf("total=%d pages=%d\n", response.Total, response.TotalPages())
	for _, message := range response.Messages {
		ts := time.UnixMilli(message.Timestamp).Format(settings.TimestampFormat())
		value := message.Value
		if len(value) > 120 {
			value = value[:117] + "..."
		}
		fmt.Printf("[%d/%d] %s %s\n", message.Partition, message.Offset, ts, strings.ReplaceAll(value, "\n", " "))
	}
}

func drainTaskEvents(manager *tasks.Manager, log logger.Logger) {
	for event := range manager.Events() {
		if event.Type == tasks.EventProgress {
			log.Debug("task progress", "task", event.Task.Name, "progress", event.Progress)
		}
	}
}
