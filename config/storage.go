package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/liveplus/storage"
)

const connectTimeout = 10 * time.Second

// OpenStorage builds the KV backend that holds the post collection.
func OpenStorage(c AppConfig) (storage.KV, error) {
	return openDriver(c, c.StorageDriver)
}

// OpenBackupStorage builds the KV backend that receives snapshot backups.
func OpenBackupStorage(c AppConfig) (storage.KV, error) {
	return openDriver(c, c.BackupDriver)
}

func openDriver(c AppConfig, driver string) (storage.KV, error) {
	switch driver {
	case storage.DriverMemory:
		return storage.NewMemory(), nil
	case storage.DriverSQLite:
		if dir := filepath.Dir(c.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		return openGorm(sqlite.Open(c.SQLitePath), c)
	case storage.DriverMySQL:
		return openGorm(mysql.Open(mysqlDSN(c)), c)
	case storage.DriverRedis:
		return openRedis(c)
	case storage.DriverMongo:
		return openMongo(c)
	case storage.DriverS3:
		return openS3(c)
	}
	return nil, fmt.Errorf("unknown storage driver %q", driver)
}

func mysqlDSN(c AppConfig) string {
	if c.DatabaseURI != "" {
		return c.DatabaseURI
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}

func openGorm(dialector gorm.Dialector, c AppConfig) (storage.KV, error) {
	// Derive GORM log level from app LogLevel and raise slow-sql threshold to reduce noise
	gLogger := logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             2 * time.Second,
			LogLevel:                  toGormLogLevel(c.LogLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gLogger})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", dialector.Name(), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if dialector.Name() == "sqlite" {
		// one writer at a time
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	}

	// Ping at boot so network/auth problems surface before the first read
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("%s ping: %w", dialector.Name(), err)
	}
	return storage.NewGorm(db)
}

func openRedis(c AppConfig) (storage.KV, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     c.RedisHost + ":" + strconv.Itoa(c.RedisPort),
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return storage.NewRedis(client), nil
}

func openMongo(c AppConfig) (storage.KV, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return storage.NewMongo(client, c.MongoDatabase, c.MongoCollection), nil
}

func openS3(c AppConfig) (storage.KV, error) {
	if c.S3Bucket == "" {
		return nil, fmt.Errorf("s3 storage requires S3_BUCKET")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.S3Region)}
	if c.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.S3AccessKeyID, c.S3SecretAccessKey, "")))
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if c.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(c.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return storage.NewS3(client, c.S3Bucket, c.S3Prefix), nil
}

// toGormLogLevel maps application LogLevel to GORM's logger level.
func toGormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		// GORM 'Info' shows SQL; use with caution
		return logger.Info
	case "info", "", "warn":
		return logger.Warn
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	default:
		return logger.Warn
	}
}
