package email

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Dispatcher envía correos en segundo plano. El registro devuelve la
// respuesta HTTP sin esperar al SMTP; los fallos sólo se registran en el log.
// Su ciclo de vida va atado al proceso: se construye en main y se cierra en
// el shutdown, drenando lo pendiente.
type Dispatcher struct {
	logger  *zap.Logger
	sender  Sender
	queue   chan Message
	wg      sync.WaitGroup
	once    sync.Once
	timeout time.Duration
}

func NewDispatcher(logger *zap.Logger, sender Sender, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	d := &Dispatcher{
		logger:  logger,
		sender:  sender,
		queue:   make(chan Message, buffer),
		timeout: 30 * time.Second,
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Dispatch encola un correo sin bloquear. Con la cola llena el mensaje se
// descarta y se registra: el envío es best-effort.
func (d *Dispatcher) Dispatch(msg Message) {
	select {
	case d.queue <- msg:
	default:
		d.logger.Warn("email queue full, dropping message", zap.String("to", msg.To))
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for msg := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.sender.Send(ctx, msg); err != nil {
			d.logger.Warn("background email send failed",
				zap.String("to", msg.To),
				zap.String("subject", msg.Subject),
				zap.Error(err),
			)
		}
		cancel()
	}
}

// Close cierra la cola y espera a que se drene.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}
