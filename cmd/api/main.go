// Package main (in api-subfolder) provides launch of the whole application except worker
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcfg "github.com/UnendingLoop/CakeArtist/internal/config"
	"github.com/UnendingLoop/CakeArtist/internal/imageproc"
	"github.com/UnendingLoop/CakeArtist/internal/kafka"
	"github.com/UnendingLoop/CakeArtist/internal/mwlogger"
	"github.com/UnendingLoop/CakeArtist/internal/repository"
	"github.com/UnendingLoop/CakeArtist/internal/service"
	"github.com/UnendingLoop/CakeArtist/internal/storage"
	"github.com/UnendingLoop/CakeArtist/internal/suggest"
	"github.com/UnendingLoop/CakeArtist/internal/transport"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/ginext"
	wbfkafka "github.com/wb-go/wbf/kafka"
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
	err := zlog.SetLevel("info")
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	// готовим заранее слушатель прерываний - контекст для всего приложения
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// движок компоновки: загрузчик, шрифт, подсказчик размещения фото
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
	var artist ArtistAPIService = service.NewArtist(loader, sugg, text)

	// подключиться к базе
	dbConn := repository.ConnectWithRetries(appConfig, 5, 10*time.Second)
	// накатываем миграцию
	repository.MigrateWithRetries(dbConn.Master, "./migrations", 10, 15*time.Second)

	// подключиться к хранилищу
	strg := storage.NewObjectStorage(appConfig, 10*time.Second)
	// создаем экземпляр репо
	repo := repository.NewPostgresRenderRepo(dbConn)

	// ждем пока кафка раздуплится
	broker := appConfig.GetString("KAFKA_BROKER")
	if err := kafka.WaitKafkaReady(ctx, broker, 3*time.Second); err != nil {
		log.Fatalf("Kafka never became ready: %v", err)
	}
	// подключиться к кафке как продюсер
	topic := appConfig.GetString("KAFKA_TOPIC")
	if err := kafka.InitKafkaTopics(ctx, broker, 10*time.Second, topic); err != nil {
		log.Fatalf("Failed to init Kafka topics: %v", err)
	}
	pub := wbfkafka.NewProducer([]string{broker}, topic)

	// создаем экземпляр сервиса
	var renders RenderAPIService = service.NewRenderService(repo, pub, strg)
	// cоздаем экземпляр хендлера HTTP
	handlers := transport.NewHandler(renders, artist)
	// сетапим сервер
	mode := appConfig.GetString("GIN_MODE")
	engine := ginext.New(mode)

	engine.GET("/ping", handlers.SimplePinger)

	engine.POST("/renders", handlers.CreateRender)            // создание задачи на набор
	engine.GET("/renders", handlers.GetAllRenders)            // список задач с пагинацией и сортировкой
	engine.GET("/renders/:id", handlers.GetRender)            // состояние задачи
	engine.GET("/renders/:id/result/:n", handlers.LoadResult) // n-й результат
	engine.DELETE("/renders/:id", handlers.DeleteRender)      // удаление

	engine.POST("/cakes/text", handlers.AddText)               // надпись на одном изображении
	engine.POST("/cakes/text/batch", handlers.AddTextBatch)    // надпись на наборе из 4 ракурсов
	engine.POST("/cakes/photo", handlers.AddPhoto)             // фото на торте
	engine.POST("/cakes/placement", handlers.SuggestPlacement) // только геометрия размещения

	srv := &http.Server{
		Addr:    ":" + appConfig.GetString("APP_PORT"),
		Handler: mwlogger.NewMWLogger(engine),
	}

	// Server launch
	go func() {
		log.Printf("Server running on http://localhost%s\n", srv.Addr)
		err := srv.ListenAndServe()
		if err != nil {
			switch {
			case errors.Is(err, http.ErrServerClosed):
				log.Println("Server gracefully stopping...")
			default:
				log.Printf("Server stopped: %v", err)
				stop()
			}
		}
	}()

	// запускаем фонового воркера для отслеживания подвисших задач
	go recoveryLoop(ctx, renders)

	// ждем отмены контекста для запуска грейсфул закрытия соединений бд и кафки
	<-ctx.Done()

	shutdown(srv, pub, dbConn)
	log.Println("Exiting API...")
}

func recoveryLoop(ctx context.Context, svc RenderAPIService) {
	defer func() {
		if r := recover(); r != nil {
			log.Println("Recovery loop crashed:", r)
		}
	}()

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.ReviveOrphans(context.Background(), 20)
		}
	}
}

func shutdown(srv *http.Server, prod *wbfkafka.Producer, dbConn *dbpg.DB) {
	log.Println("Interrupt received!!! Starting shutdown sequence...")

	// Stopping HTTP server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("Failed to stop HTTP server gracefully:", err)
	}

	// Closing Kafka connection:
	if err := prod.Close(); err != nil {
		log.Println("Failed to close Kafka-writer:", err)
	}
	log.Println("Kafka-producer connection closed.")

	// Closing DB connection
	if err := dbConn.Master.Close(); err != nil {
		log.Println("Failed to close DB-conn correctly:", err)
		return
	}
	log.Println("DBconn closed")
}
