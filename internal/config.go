package internal

import "time"

type Config struct {
	Host                 string        `env:"HOST,default=0.0.0.0"`
	Port                 int           `env:"PORT,default=8747"`
	Origin               string        `env:"ORIGIN,default=http://localhost:5173"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	UploadDir            string        `env:"UPLOAD_DIR,default=uploads/files"`
	BufferSize           int           `env:"BUFFER_SIZE,default=256"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	NumberOfWorkers      int           `env:"NUMBER_OF_WORKERS,default=4"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT,default=5s"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	TranslatorURL        string        `env:"TRANSLATOR_URL,required=true"`
	TranslatorAPIKey     string        `env:"TRANSLATOR_API_KEY"`
	TranslatorTimeout    time.Duration `env:"TRANSLATOR_TIMEOUT,default=10s"`
}
