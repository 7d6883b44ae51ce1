package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcfg "github.com/UnendingLoop/CakeArtist/internal/config"
	"github.com/UnendingLoop/CakeArtist/internal/imageproc"
	"github.com/UnendingLoop/CakeArtist/internal/kafka"
	"github.com/UnendingLoop/CakeArtist/internal/repository"
	"github.com/UnendingLoop/CakeArtist/internal/service"
	"github.com/UnendingLoop/CakeArtist/internal/storage"
	"github.com/UnendingLoop/CakeArtist/internal/suggest"
	"github.com/UnendingLoop/CakeArtist/internal/worker"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	// инициализировать конфиг/ считать энвы
	appConfig := config.New()
	appConfig.EnableEnv("")
	if err := appConfig.LoadEnvFiles("./.env"); err != nil {
		log.Fatalf("Failed to load envs: %s\nExiting app...", err)
	}

	// стартуем логгер
	zlog.InitConsole()
	if err := zlog.SetLevel("info"); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	// Listening to interruptions through context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// подключитсья к базе
	dbConn := repository.ConnectWithRetries(appConfig, 5, 10*time.Second)
	// подкллючиться к хранилищу
	strg := storage.NewObjectStorage(appConfig, 10*time.Second)
	// создаем экземпляр репо
	repo := repository.NewPostgresRenderRepo(dbConn)
	// создаем экземпляр сервиса
	var svc RenderWorkerService = service.NewRenderService(repo, NoopPublisher{}, strg)

	// движок компоновки - тот же, что и у синхронного API
	artistCfg := appcfg.LoadArtist(appConfig)
	var loaderOpts []imageproc.LoaderOption
	if artistCfg.FetchAllowPrivate {
		loaderOpts = append(loaderOpts, imageproc.WithPrivateHosts())
	}
	loader := imageproc.NewLoader(artistCfg.FetchTimeout, artistCfg.FetchMaxBytes, loaderOpts...)
	text, err := imageproc.NewTextRenderer(artistCfg.FontPath)
	if err != nil {
		log.Fatalf("Failed to load caption font: %v", err)
	}
	sugg, err := suggest.New(ctx, artistCfg, loader)
	if err != nil {
		log.Printf("Placement suggestions fall back to the static table: %v", err)
	}
	artist := service.NewArtist(loader, sugg, text)

	// ждем пока кафка раздуплится
	broker := appConfig.GetString("KAFKA_BROKER")
	if err := kafka.WaitKafkaReady(ctx, broker, 3*time.Second); err != nil {
		log.Fatalf("Kafka never became ready: %v", err)
	}
	// подключиться к кафке как читатель
	queue := make(chan kafkago.Message)
	retryStrategy := retry.Strategy{
		Attempts: 5,
		Delay:    2 * time.Second,
		Backoff:  1.5,
	}
	topic := appConfig.GetString("KAFKA_TOPIC")
	groupID := appConfig.GetString("KAFKA_GROUPID")
	cons := wbfkafka.NewConsumer([]string{broker}, topic, groupID)

	cons.StartConsuming(ctx, queue, retryStrategy)

	// Собираем воедино все что нужно воркеру и запускаем его
	w := worker.NewWorkerInstance(strg, svc, artist, queue, cons, appConfig.GetString("RESULT_KEY"))
	go w.StartWorker(ctx)

	// Waiting for interruption to stop context to start Graceful shutdown
	<-ctx.Done()

	shutdown(cons, dbConn)
	log.Println("Exiting worker...")
}

func shutdown(cons *wbfkafka.Consumer, dbConn *dbpg.DB) {
	log.Println("Interrupt received!!! Starting shutdown sequence...")

	// Closing Kafka connection:
	if err := cons.Close(); err != nil {
		log.Println("Failed to close Kafka-reader:", err)
	}
	log.Println("Kafka-consumer connection closed.")

	// Closing DB connection
	if err := dbConn.Master.Close(); err != nil {
		log.Println("Failed to close DB-conn correctly:", err)
		return
	}
	log.Println("DBconn closed")
}
