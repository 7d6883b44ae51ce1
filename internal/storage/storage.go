// Package storage connects the object store that keeps render inputs and deliverables
package storage

import (
	"log"
	"strings"
	"time"

	"github.com/UnendingLoop/CakeArtist/internal/config"
	"github.com/UnendingLoop/CakeArtist/internal/storage/miniostorage"
)

const minioPort = "9000"

// OptionsFromConfig - MINIO_CONTAINER_NAME может быть как "minio", так и "minio:9000"
func OptionsFromConfig(cfg config.Getter) miniostorage.Options {
	addr := cfg.GetString("MINIO_CONTAINER_NAME")
	if addr != "" && !strings.Contains(addr, ":") {
		addr += ":" + minioPort
	}

	return miniostorage.Options{
		Endpoint: addr,
		User:     cfg.GetString("MINIO_USER"),
		Password: cfg.GetString("MINIO_PASS"),
		Bucket:   cfg.GetString("BUCKET_NAME"),
	}
}

// NewObjectStorage blocks until the object store answers and the bucket exists.
func NewObjectStorage(cfg config.Getter, delay time.Duration) *miniostorage.MinioStorage {
	opts := OptionsFromConfig(cfg)

	for {
		log.Println("Connecting to object storage...")
		client, err := miniostorage.NewMinioClient(opts)
		if err == nil {
			log.Println("Successfully connected to object storage!")
			return client
		}
		log.Printf("Failed to init connection to object storage: %v\nNext retry in %v...", err, delay)
		time.Sleep(delay)
	}
}
