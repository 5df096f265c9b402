package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// WebhookNotifier reenvía líneas de log a un webhook externo (p. ej. Slack).
// Es un colaborador explícito: se construye en main, se inyecta donde hace
// falta y se cierra en el shutdown. El envío es asíncrono y best-effort.
type WebhookNotifier struct {
	logger *zap.Logger
	url    string
	client *http.Client
	queue  chan string
	wg     sync.WaitGroup
	once   sync.Once
}

func NewWebhookNotifier(logger *zap.Logger, url string) *WebhookNotifier {
	n := &WebhookNotifier{
		logger: logger,
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		queue:  make(chan string, 128),
	}
	n.wg.Add(1)
	go n.run()
	return n
}

// Notify encola una línea sin bloquear; con la cola llena se descarta.
func (n *WebhookNotifier) Notify(line string) {
	if n == nil || n.url == "" {
		return
	}
	select {
	case n.queue <- line:
	default:
	}
}

func (n *WebhookNotifier) run() {
	defer n.wg.Done()
	for line := range n.queue {
		if err := n.post(line); err != nil {
			n.logger.Warn("webhook notify failed", zap.Error(err))
		}
	}
}

func (n *WebhookNotifier) post(line string) error {
	payload, err := json.Marshal(map[string]string{"text": line})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook http error: status=%d", resp.StatusCode)
	}
	return nil
}

// Close cierra la cola y espera el drenado.
func (n *WebhookNotifier) Close() {
	n.once.Do(func() {
		close(n.queue)
	})
	n.wg.Wait()
}
