// Package runner agenda a execução periódica de um ciclo batch.
package runner

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Loop executa fn imediatamente e depois a cada interval até o contexto acabar.
// Com once=true executa uma vez e retorna. Erro de um ciclo é logado e o loop segue;
// não há retry dentro do ciclo.
func Loop(ctx context.Context, log *zap.Logger, name string, interval time.Duration, once bool, fn func(ctx context.Context) error) {
	run := func() {
		start := time.Now()
		if err := fn(ctx); err != nil {
			log.Error("cycle failed", zap.String("job", name), zap.Duration("took", time.Since(start)), zap.Error(err))
			return
		}
		log.Debug("cycle ok", zap.String("job", name), zap.Duration("took", time.Since(start)))
	}

	run()
	if once {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("stopping job", zap.String("job", name))
			return
		case <-ticker.C:
			run()
		}
	}
}
