package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New cria o logger do serviço. Com logFile preenchido, as linhas também vão
// para um arquivo rotacionado (lumberjack), além da saída padrão.
func New(serviceName string, env string, logFile string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if env == "local" {
		cfg = zap.NewDevelopmentConfig()
	}

	// sempre garantir que serviço e env entrem como campos padrão
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	fields := zap.Fields(
		zap.String("service", serviceName),
		zap.String("env", env),
	)

	if logFile == "" {
		return cfg.Build(fields)
	}

	rotated := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100, // MB
		MaxBackups: 7,
		MaxAge:     30, // dias
		Compress:   true,
	})

	var enc zapcore.Encoder
	if env == "local" {
		enc = zapcore.NewConsoleEncoder(cfg.EncoderConfig)
	} else {
		enc = zapcore.NewJSONEncoder(cfg.EncoderConfig)
	}
	core := zapcore.NewTee(
		zapcore.NewCore(enc, zapcore.Lock(os.Stderr), cfg.Level),
		zapcore.NewCore(zapcore.NewJSONEncoder(cfg.EncoderConfig), rotated, cfg.Level),
	)
	return zap.New(core, fields, zap.AddCaller()), nil
}
